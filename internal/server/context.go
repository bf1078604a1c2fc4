package server

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
)

// SpaceCreator creates a meeting space with an already-valid token source.
type SpaceCreator interface {
	CreateSpace(ctx context.Context, ts oauth2.TokenSource) (*meet.Space, error)
}

// ServerContext holds the dependencies shared by the HTTP front door,
// the health checks and the MCP tools.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	resolver google.Resolver
	creator  SpaceCreator
	metrics  *instrumentation.Metrics
	logger   logging.Logger
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. metrics and logger may be nil.
func NewServerContext(ctx context.Context, resolver google.Resolver, creator SpaceCreator, metrics *instrumentation.Metrics, logger logging.Logger) (*ServerContext, error) {
	if resolver == nil {
		return nil, errors.New("credential resolver is required")
	}
	if creator == nil {
		return nil, errors.New("space creator is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		resolver: resolver,
		creator:  creator,
		metrics:  metrics,
		logger:   logging.OrDefault(logger),
	}, nil
}

// Context returns the server context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Resolver returns the credential resolver.
func (sc *ServerContext) Resolver() google.Resolver {
	return sc.resolver
}

// Metrics returns the metrics recorder. It may be nil, which records nothing.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the logger.
func (sc *ServerContext) Logger() logging.Logger {
	return sc.logger
}

// CreateMeeting resolves credentials and creates one meeting space.
// Errors are *google.AuthError or *meet.RemoteError.
func (sc *ServerContext) CreateMeeting(ctx context.Context) (*meet.Space, error) {
	ts, err := sc.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return sc.creator.CreateSpace(ctx, ts)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown marks the context as shut down and cancels it. It is idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
