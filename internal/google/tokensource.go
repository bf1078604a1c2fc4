package google

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// refreshObserver wraps a refreshing token source and reports every token
// that differs from the last one seen, i.e. every completed refresh.
type refreshObserver struct {
	src       oauth2.TokenSource
	onRefresh func(*oauth2.Token) error
	metrics   *instrumentation.Metrics
	logger    logging.Logger

	mu   sync.Mutex
	last string
}

func newRefreshObserver(src oauth2.TokenSource, initial *oauth2.Token, metrics *instrumentation.Metrics, logger logging.Logger, onRefresh func(*oauth2.Token) error) *refreshObserver {
	o := &refreshObserver{
		src:       src,
		onRefresh: onRefresh,
		metrics:   metrics,
		logger:    logging.OrDefault(logger),
	}
	if initial != nil {
		o.last = initial.AccessToken
	}
	return o
}

// Token implements oauth2.TokenSource.
func (o *refreshObserver) Token() (*oauth2.Token, error) {
	tok, err := o.src.Token()
	if err != nil {
		o.metrics.RecordOAuthTokenRefresh(context.Background(), instrumentation.OAuthResultFailure)
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if tok.AccessToken == o.last {
		return tok, nil
	}
	o.last = tok.AccessToken
	o.metrics.RecordOAuthTokenRefresh(context.Background(), instrumentation.OAuthResultSuccess)
	o.logger.Debug("Access token refreshed",
		logging.Service(instrumentation.ServiceOAuth),
		"access_token", logging.SanitizeToken(tok.AccessToken),
		"expiry", tok.Expiry,
	)

	if o.onRefresh != nil {
		if err := o.onRefresh(tok); err != nil {
			// The refreshed token is still good for this process.
			o.logger.Warn("Failed to persist refreshed token", logging.Err(err))
		}
	}

	return tok, nil
}
