package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
)

// Strategy names a credential sourcing strategy.
type Strategy string

const (
	StrategyFile   Strategy = "file"
	StrategyStatic Strategy = "static"
)

// DefaultAuthTimeout bounds an interactive authorization.
const DefaultAuthTimeout = 5 * time.Minute

// Resolver produces a valid token source for the Meet API.
type Resolver interface {
	// Resolve returns a token source whose current token is valid.
	// Failures are *AuthError.
	Resolve(ctx context.Context) (oauth2.TokenSource, error)

	// Strategy reports which strategy the resolver implements.
	Strategy() Strategy
}

// ResolverConfig carries everything both strategies may need.
type ResolverConfig struct {
	// Strategy is "file", "static" or empty. Empty selects static when
	// TokenJSON is set and file otherwise.
	Strategy string

	// CredentialsJSON is inline client credentials. The static strategy
	// requires it; the file strategy prefers it over CredentialsPath.
	CredentialsJSON string

	// TokenJSON is the static strategy's pre-issued token.
	TokenJSON string

	CredentialsPath string
	TokenPath       string

	// Store overrides the file store built from TokenPath.
	Store TokenStore

	// Authorizer runs the consent flow when no record exists. Nil disables it.
	Authorizer  Authorizer
	AuthTimeout time.Duration

	// Endpoint overrides the OAuth endpoint. Defaults to Google's, or to the
	// credentials document's URIs where one is parsed. Stored records refresh
	// against the token_uri saved with them.
	Endpoint *oauth2.Endpoint
	Scopes   []string

	// HTTPClient is used for token endpoint calls.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  logging.Logger
}

// ParseStrategy resolves the configured strategy name.
func ParseStrategy(name string, hasStaticToken bool) (Strategy, error) {
	switch Strategy(name) {
	case "":
		if hasStaticToken {
			return StrategyStatic, nil
		}
		return StrategyFile, nil
	case StrategyFile, StrategyStatic:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown credential strategy %q, must be one of: file, static", name)
	}
}

// NewResolver builds the resolver for the selected strategy.
func NewResolver(cfg ResolverConfig) (Resolver, error) {
	strategy, err := ParseStrategy(cfg.Strategy, cfg.TokenJSON != "")
	if err != nil {
		return nil, err
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	cfg.Logger = logging.OrDefault(cfg.Logger)

	switch strategy {
	case StrategyStatic:
		return NewStaticResolver(cfg), nil
	default:
		return NewFileResolver(cfg), nil
	}
}

func recordResolution(ctx context.Context, m *instrumentation.Metrics, strategy Strategy, err error) {
	result := instrumentation.OAuthResultSuccess
	if err != nil {
		result = instrumentation.OAuthResultFailure
	}
	m.RecordCredentialResolution(ctx, string(strategy), result)
}
