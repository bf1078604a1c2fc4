package google

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/logging"
)

// DefaultCallbackPath is the path the loopback authorizer listens on.
const DefaultCallbackPath = "/oauth2callback"

// Authorizer obtains a token through user consent. cfg must not be modified.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// consentURL builds the consent URL. Offline access with forced approval
// makes Google return a refresh token even for a previously approved client.
func consentURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// LoopbackAuthorizer runs the installed-app flow: it listens on a loopback
// port, prints the consent URL and waits for Google to redirect back with
// the authorization code.
type LoopbackAuthorizer struct {
	// Host defaults to 127.0.0.1.
	Host string

	// Port 0 picks a free port.
	Port int

	// Out receives the consent URL. Defaults to os.Stderr.
	Out io.Writer

	// OpenBrowser, if set, is called with the consent URL.
	OpenBrowser func(authURL string) error

	Logger logging.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize implements Authorizer.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	logger := logging.OrDefault(a.Logger)

	host := a.Host
	if host == "" {
		host = "127.0.0.1"
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(a.Port)))
	if err != nil {
		return nil, newAuthError(KindExchange, "failed to start OAuth callback listener", err)
	}

	conf := *cfg
	conf.RedirectURL = "http://" + ln.Addr().String() + DefaultCallbackPath
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	var once sync.Once
	deliver := func(res callbackResult) {
		once.Do(func() { results <- res })
	}

	mux := http.NewServeMux()
	mux.HandleFunc(DefaultCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			logger.Warn("Rejected OAuth callback with mismatched state")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization denied: "+e, http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "Authentication successful. You can close this window.\n")
		deliver(callbackResult{code: code})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := consentURL(&conf, state)
	out := a.Out
	if out == nil {
		out = os.Stderr
	}
	_, _ = fmt.Fprintf(out, "Authorize this app by visiting this url:\n\n%s\n\n", authURL)
	logger.Info("Waiting for OAuth consent", "redirect_url", conf.RedirectURL)

	if a.OpenBrowser != nil {
		if err := a.OpenBrowser(authURL); err != nil {
			logger.Warn("Failed to open browser", logging.Err(err))
		}
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, newAuthError(KindExchange, "authorization was not completed", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, newAuthError(KindExchange, "authorization failed", res.err)
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return nil, newAuthError(KindExchange, "failed to exchange authorization code", err)
	}
	return tok, nil
}

// TerminalAuthorizer prints the consent URL and reads the authorization code
// (or the full redirect URL) from In.
type TerminalAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

// Authorize implements Authorizer.
func (a *TerminalAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	in, out := a.In, a.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	state := uuid.NewString()
	_, _ = fmt.Fprintf(out, "Visit the following URL to authorize meetlink:\n\n%s\n\n", consentURL(cfg, state))
	_, _ = fmt.Fprint(out, "Paste the authorization code or the URL you were redirected to: ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			lines <- scanner.Text()
			return
		}
		if err := scanner.Err(); err != nil {
			errs <- err
			return
		}
		errs <- io.EOF
	}()

	var input string
	select {
	case <-ctx.Done():
		return nil, newAuthError(KindExchange, "authorization was not completed", ctx.Err())
	case err := <-errs:
		return nil, newAuthError(KindExchange, "failed to read authorization code", err)
	case input = <-lines:
	}

	code, err := extractCode(strings.TrimSpace(input), state)
	if err != nil {
		return nil, newAuthError(KindExchange, "invalid authorization input", err)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, newAuthError(KindExchange, "failed to exchange authorization code", err)
	}
	return tok, nil
}

// extractCode accepts either a bare code or a redirect URL carrying code and state.
func extractCode(input, state string) (string, error) {
	if input == "" {
		return "", errors.New("empty input")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	q := u.Query()
	if got := q.Get("state"); got != "" && got != state {
		return "", errors.New("state mismatch")
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect URL has no code parameter")
	}
	return code, nil
}
