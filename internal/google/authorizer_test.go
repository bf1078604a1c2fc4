package google

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testOAuthConfig(server *tokenServer) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Endpoint:     *server.endpoint(),
		Scopes:       DefaultScopes,
		RedirectURL:  "http://localhost",
	}
}

func TestLoopbackAuthorizer_CompletesFlow(t *testing.T) {
	server := newTokenServer(t)
	cfg := testOAuthConfig(server)

	var out bytes.Buffer
	statuses := make(chan int, 2)
	auth := &LoopbackAuthorizer{
		Out: &out,
		OpenBrowser: func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			q := u.Query()
			redirect := q.Get("redirect_uri")
			state := q.Get("state")

			go func() {
				// A callback carrying a foreign state is rejected.
				resp, err := http.Get(redirect + "?code=evil&state=forged")
				if err == nil {
					statuses <- resp.StatusCode
					_ = resp.Body.Close()
				}
				resp, err = http.Get(redirect + "?code=good-code&state=" + url.QueryEscape(state))
				if err == nil {
					statuses <- resp.StatusCode
					_ = resp.Body.Close()
				}
			}()
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := auth.Authorize(ctx, cfg)
	require.NoError(t, err)

	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-from-exchange", tok.RefreshToken)
	assert.Equal(t, "good-code", server.lastCode())
	assert.Equal(t, http.StatusBadRequest, <-statuses)
	assert.Equal(t, http.StatusOK, <-statuses)

	assert.Contains(t, out.String(), "access_type=offline")
	assert.Contains(t, out.String(), "prompt=consent")
	// The caller's config is left untouched.
	assert.Equal(t, "http://localhost", cfg.RedirectURL)
}

func TestLoopbackAuthorizer_Denied(t *testing.T) {
	server := newTokenServer(t)

	auth := &LoopbackAuthorizer{
		Out: io.Discard,
		OpenBrowser: func(authURL string) error {
			u, _ := url.Parse(authURL)
			q := u.Query()
			go func() {
				resp, err := http.Get(q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state")))
				if err == nil {
					_ = resp.Body.Close()
				}
			}()
			return nil
		},
	}

	_, err := auth.Authorize(context.Background(), testOAuthConfig(server))
	requireAuthError(t, err, KindExchange)
	assert.Equal(t, int32(0), server.calls.Load())
}

func TestLoopbackAuthorizer_ContextCancelled(t *testing.T) {
	server := newTokenServer(t)
	auth := &LoopbackAuthorizer{Out: io.Discard}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := auth.Authorize(ctx, testOAuthConfig(server))
	requireAuthError(t, err, KindExchange)
}

func TestTerminalAuthorizer(t *testing.T) {
	server := newTokenServer(t)

	var out bytes.Buffer
	auth := &TerminalAuthorizer{In: strings.NewReader("pasted-code\n"), Out: &out}

	tok, err := auth.Authorize(context.Background(), testOAuthConfig(server))
	require.NoError(t, err)

	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "pasted-code", server.lastCode())
	assert.Contains(t, out.String(), server.URL+"/auth")
}

func TestTerminalAuthorizer_EmptyInput(t *testing.T) {
	server := newTokenServer(t)
	auth := &TerminalAuthorizer{In: strings.NewReader(""), Out: io.Discard}

	_, err := auth.Authorize(context.Background(), testOAuthConfig(server))
	requireAuthError(t, err, KindExchange)
	assert.Equal(t, int32(0), server.calls.Load())
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare code", input: "4/0AbCd", want: "4/0AbCd"},
		{name: "redirect url", input: "http://localhost/?code=abc&state=s1&scope=x", want: "abc"},
		{name: "redirect url without state", input: "http://localhost/?code=abc", want: "abc"},
		{name: "state mismatch", input: "http://localhost/?code=abc&state=other", wantErr: true},
		{name: "url without code", input: "http://localhost/?state=s1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractCode(tt.input, "s1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
