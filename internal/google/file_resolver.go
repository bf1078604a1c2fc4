package google

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// FileResolver serves the credential record cached on disk and falls back to
// an interactive authorization when there is none.
type FileResolver struct {
	store           TokenStore
	credentialsJSON string
	credentialsPath string
	authorizer      Authorizer
	authTimeout     time.Duration
	endpoint        *oauth2.Endpoint
	scopes          []string
	httpClient      *http.Client
	metrics         *instrumentation.Metrics
	logger          logging.Logger

	// flights lets concurrent first requests share one consent flow.
	flights singleflight.Group
}

// NewFileResolver builds a file strategy resolver.
func NewFileResolver(cfg ResolverConfig) *FileResolver {
	store := cfg.Store
	if store == nil {
		store = NewFileTokenStore(cfg.TokenPath)
	}
	timeout := cfg.AuthTimeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	return &FileResolver{
		store:           store,
		credentialsJSON: cfg.CredentialsJSON,
		credentialsPath: cfg.CredentialsPath,
		authorizer:      cfg.Authorizer,
		authTimeout:     timeout,
		endpoint:        cfg.Endpoint,
		scopes:          cfg.Scopes,
		httpClient:      cfg.HTTPClient,
		metrics:         cfg.Metrics,
		logger:          logging.OrDefault(cfg.Logger),
	}
}

// Strategy implements Resolver.
func (r *FileResolver) Strategy() Strategy {
	return StrategyFile
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := r.resolve(ctx)
	recordResolution(ctx, r.metrics, StrategyFile, err)
	return ts, err
}

func (r *FileResolver) resolve(ctx context.Context) (oauth2.TokenSource, error) {
	ctx = withHTTPClient(ctx, r.httpClient)

	rec, err := r.store.Load()
	if err == nil {
		return r.fromRecord(ctx, rec)
	}
	if !errors.Is(err, ErrNoRecord) {
		r.logger.Warn("Ignoring unreadable token file", logging.Err(err))
	}

	if r.authorizer == nil {
		return nil, newAuthError(KindToken, "no cached token and interactive authorization is disabled", err)
	}

	// The flow is detached from the request so a consent that outlasts the
	// request still completes and is cached for the next one.
	ch := r.flights.DoChan("authorize", func() (any, error) {
		flowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.authTimeout)
		defer cancel()
		return r.authorize(flowCtx)
	})

	select {
	case <-ctx.Done():
		return nil, newAuthError(KindExchange, "interactive authorization still pending", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return r.fromRecord(ctx, res.Val.(*CredentialRecord))
	}
}

// authorize runs the consent flow and persists its result. A record written
// by a flow that finished while this caller was waiting is reused.
func (r *FileResolver) authorize(ctx context.Context) (*CredentialRecord, error) {
	if rec, err := r.store.Load(); err == nil {
		return rec, nil
	}

	data := []byte(r.credentialsJSON)
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(r.credentialsPath)
		if err != nil {
			return nil, newAuthError(KindCredentials, "failed to read client credentials", err)
		}
	}

	cfg, err := ParseClientCredentials(data, r.scopes...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tok, err := r.authorizer.Authorize(ctx, cfg)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	r.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth, instrumentation.OperationExchange, status, time.Since(start))
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, newAuthError(KindExchange, "interactive authorization failed", err)
	}

	if tok.RefreshToken == "" {
		r.logger.Warn("Authorization returned no refresh token; re-authorization will be needed once the access token expires")
	}

	rec := NewCredentialRecord(cfg, tok)
	if err := r.store.Save(rec); err != nil {
		return nil, newAuthError(KindToken, "failed to save credential record", err)
	}
	r.logger.Info("Saved credential record", logging.Strategy(string(StrategyFile)))

	return rec, nil
}

// fromRecord wraps the record in a refreshing token source that writes
// refreshed tokens back to the store, then checks it yields a token.
func (r *FileResolver) fromRecord(ctx context.Context, rec *CredentialRecord) (oauth2.TokenSource, error) {
	initial := rec.Token()
	src := rec.Config(r.endpoint, r.scopes...).TokenSource(ctx, initial)

	persisted := *rec
	ts := newRefreshObserver(src, initial, r.metrics, r.logger, func(tok *oauth2.Token) error {
		persisted.SetToken(tok)
		return r.store.Save(&persisted)
	})

	if _, err := ts.Token(); err != nil {
		return nil, newAuthError(KindToken, "cached token is invalid", err)
	}
	return ts, nil
}
