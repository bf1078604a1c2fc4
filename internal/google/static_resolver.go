package google

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// StaticResolver serves a token supplied through configuration. It never
// touches the disk and never runs an interactive flow.
type StaticResolver struct {
	// err is a configuration error found at construction.
	err error

	// oauthCfg is set when a refresh token is configured.
	oauthCfg   *oauth2.Config
	httpClient *http.Client

	// token is the configured token and, with a refresh token, the most
	// recently refreshed one.
	mu    sync.Mutex
	token *oauth2.Token

	metrics *instrumentation.Metrics
	logger  logging.Logger
}

// NewStaticResolver parses the credentials and token once. A parse failure
// is kept and returned by every Resolve call.
func NewStaticResolver(cfg ResolverConfig) *StaticResolver {
	r := &StaticResolver{
		metrics: cfg.Metrics,
		logger:  logging.OrDefault(cfg.Logger),
	}

	oauthCfg, err := ParseClientCredentials([]byte(cfg.CredentialsJSON), cfg.Scopes...)
	if err != nil {
		r.err = err
		return r
	}
	if cfg.Endpoint != nil {
		oauthCfg.Endpoint = *cfg.Endpoint
	}

	tok, err := ParseStaticToken([]byte(cfg.TokenJSON))
	if err != nil {
		r.err = err
		return r
	}

	r.token = tok
	if tok.RefreshToken != "" {
		r.oauthCfg = oauthCfg
		r.httpClient = cfg.HTTPClient
	}
	return r
}

// Strategy implements Resolver.
func (r *StaticResolver) Strategy() Strategy {
	return StrategyStatic
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := r.resolve(ctx)
	recordResolution(ctx, r.metrics, StrategyStatic, err)
	return ts, err
}

func (r *StaticResolver) resolve(ctx context.Context) (oauth2.TokenSource, error) {
	if r.err != nil {
		return nil, r.err
	}

	if r.oauthCfg != nil {
		ts := r.refreshingSource(ctx)
		if _, err := ts.Token(); err != nil {
			return nil, newAuthError(KindToken, "failed to refresh configured token", err)
		}
		return ts, nil
	}

	if !r.token.Valid() {
		r.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
		return nil, newAuthError(KindConfig, "token expired and no refresh token configured", nil)
	}
	return oauth2.StaticTokenSource(r.token), nil
}

// refreshingSource returns a source that starts from the latest token and
// refreshes within ctx. Refreshed tokens are kept in memory for later requests.
func (r *StaticResolver) refreshingSource(ctx context.Context) oauth2.TokenSource {
	r.mu.Lock()
	current := r.token
	r.mu.Unlock()

	src := r.oauthCfg.TokenSource(withHTTPClient(ctx, r.httpClient), current)
	return newRefreshObserver(src, current, r.metrics, r.logger, func(tok *oauth2.Token) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.token = tok
		return nil
	})
}
