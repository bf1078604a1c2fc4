package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
)

const (
	// CreateMeetPath creates a meeting space and returns its join URL.
	CreateMeetPath = "/api/create-meet"

	// MCPPath serves the MCP streamable HTTP transport when enabled.
	MCPPath = "/mcp"

	// LivenessText is the body of GET /.
	LivenessText = "meetlink server is running"

	// CreateMeetFailure is the only error text clients ever see.
	CreateMeetFailure = "Failed to create Meet URL"

	// DefaultRequestTimeout bounds one create request end to end.
	DefaultRequestTimeout = 30 * time.Second
)

// Config configures the HTTP front door.
type Config struct {
	// Addr is the listen address, e.g. ":3001".
	Addr string

	// RootRedirect makes GET / redirect to CreateMeetPath.
	RootRedirect bool

	RequestTimeout time.Duration

	// RateLimit is requests per second per client on CreateMeetPath; 0 disables.
	RateLimit  float64
	RateBurst  int
	TrustProxy bool

	// MCPHandler, when set, is mounted at MCPPath.
	MCPHandler http.Handler
}

type createMeetResponse struct {
	MeetURL string `json:"meetUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP front door.
type Server struct {
	cfg     Config
	sc      *ServerContext
	health  *HealthChecker
	limiter *RateLimiter
	logger  logging.Logger
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New builds the server and its routes.
func New(sc *ServerContext, cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{
		cfg:    cfg,
		sc:     sc,
		health: NewHealthChecker(sc),
		logger: sc.Logger(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	var create http.Handler = http.HandlerFunc(s.handleCreateMeet)
	if s.limiter != nil {
		create = s.limiter.Middleware(create)
	}
	mux.Handle("GET "+CreateMeetPath, create)

	if s.cfg.MCPHandler != nil {
		mux.Handle(MCPPath, s.cfg.MCPHandler)
	}

	s.health.RegisterHealthEndpoints(mux)

	return withRequestID(instrument(s.sc.Metrics(), mux))
}

// Handler returns the complete handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health returns the server's health checker.
func (s *Server) Health() *HealthChecker {
	return s.health
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.cfg.RootRedirect {
		http.Redirect(w, r, CreateMeetPath, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, LivenessText)
}

func (s *Server) handleCreateMeet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	space, err := s.sc.CreateMeeting(ctx)
	if err != nil {
		s.logCreateFailure(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: CreateMeetFailure})
		return
	}

	s.logger.Info("Created Meet URL",
		logging.RequestID(RequestIDFromContext(r.Context())),
		"space", space.Name,
	)
	writeJSON(w, http.StatusOK, createMeetResponse{MeetURL: space.MeetingURI})
}

// logCreateFailure logs the full cause; the client only sees CreateMeetFailure.
func (s *Server) logCreateFailure(ctx context.Context, err error) {
	args := []any{
		logging.RequestID(RequestIDFromContext(ctx)),
		"trace_id", instrumentation.GetTraceID(ctx),
		logging.Strategy(string(s.sc.Resolver().Strategy())),
		logging.Err(err),
	}

	var authErr *google.AuthError
	var remoteErr *meet.RemoteError
	switch {
	case errors.As(err, &authErr):
		args = append(args, "auth_error_kind", string(authErr.Kind))
	case errors.As(err, &remoteErr):
		args = append(args, "remote_status", remoteErr.StatusCode())
	}

	s.logger.Error("Error creating Meet URL", args...)
}

// writeJSON writes body without a trailing newline.
func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal is Start, closing ready once the listener is bound.
func (s *Server) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room for a create request to hit its own deadline first.
		WriteTimeout: s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	if ready != nil {
		close(ready)
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
