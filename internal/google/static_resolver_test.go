package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAuthError(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr), "expected *AuthError, got %v", err)
	assert.Equal(t, kind, authErr.Kind)
}

func TestStaticResolver_RefreshTokenProducesUsableSource(t *testing.T) {
	server := newTokenServer(t)
	dir := t.TempDir()
	t.Chdir(dir)

	r := NewStaticResolver(ResolverConfig{
		CredentialsJSON: credentialsJSON(server.URL + "/token"),
		TokenJSON:       `{"refresh_token":"r"}`,
		HTTPClient:      server.Client(),
	})
	assert.Equal(t, StrategyStatic, r.Strategy())

	ts, err := r.Resolve(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)

	// The refreshed token is reused, not fetched again.
	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.calls.Load())

	// Nothing is written to the working directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStaticResolver_ConfigErrorsNeverContactTokenEndpoint(t *testing.T) {
	server := newTokenServer(t)
	creds := credentialsJSON(server.URL + "/token")

	tests := []struct {
		name        string
		credentials string
		token       string
		kind        ErrorKind
	}{
		{"missing credentials", "", `{"refresh_token":"r"}`, KindCredentials},
		{"malformed credentials", "{oops", `{"refresh_token":"r"}`, KindCredentials},
		{"missing token", creds, "", KindConfig},
		{"malformed token", creds, "[1,2", KindConfig},
		{"token without access or refresh token", creds, `{"token_type":"Bearer"}`, KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStaticResolver(ResolverConfig{CredentialsJSON: tt.credentials, TokenJSON: tt.token})

			// The stored error is returned on every call.
			for range 2 {
				_, err := r.Resolve(context.Background())
				requireAuthError(t, err, tt.kind)
			}
		})
	}

	assert.Equal(t, int32(0), server.calls.Load())
}

func TestStaticResolver_AccessTokenWithoutRefresh(t *testing.T) {
	server := newTokenServer(t)
	creds := credentialsJSON(server.URL + "/token")

	t.Run("valid", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		r := NewStaticResolver(ResolverConfig{
			CredentialsJSON: creds,
			TokenJSON:       `{"access_token":"preissued","token_type":"Bearer","expiry":"` + expiry + `"}`,
		})

		ts, err := r.Resolve(context.Background())
		require.NoError(t, err)

		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "preissued", tok.AccessToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour).UnixMilli()
		r := NewStaticResolver(ResolverConfig{
			CredentialsJSON: creds,
			TokenJSON:       `{"access_token":"old","expiry_date":` + formatInt(expired) + `}`,
		})

		_, err := r.Resolve(context.Background())
		requireAuthError(t, err, KindConfig)
		assert.Contains(t, err.Error(), "no refresh token")
	})

	assert.Equal(t, int32(0), server.calls.Load())
}

func TestStaticResolver_RefreshFailure(t *testing.T) {
	server := newTokenServer(t)
	server.setFail(true)

	r := NewStaticResolver(ResolverConfig{
		CredentialsJSON: credentialsJSON(server.URL + "/token"),
		TokenJSON:       `{"refresh_token":"revoked"}`,
	})

	_, err := r.Resolve(context.Background())
	requireAuthError(t, err, KindToken)
}

func TestStaticResolver_RefreshHonoursRequestDeadline(t *testing.T) {
	release := make(chan struct{})
	hanging := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(hanging.Close)
	t.Cleanup(func() { close(release) })

	r := NewStaticResolver(ResolverConfig{
		CredentialsJSON: credentialsJSON(hanging.URL + "/token"),
		TokenJSON:       `{"refresh_token":"r"}`,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		requireAuthError(t, err, KindToken)
	case <-time.After(3 * time.Second):
		t.Fatal("Resolve ignored the request deadline")
	}
}

func TestStaticResolver_RefreshedTokenSurvivesFailedRequest(t *testing.T) {
	server := newTokenServer(t)

	r := NewStaticResolver(ResolverConfig{
		CredentialsJSON: credentialsJSON(server.URL + "/token"),
		TokenJSON:       `{"refresh_token":"r"}`,
	})

	// A cancelled request neither refreshes nor poisons later ones.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(cancelled)
	requireAuthError(t, err, KindToken)

	ts, err := r.Resolve(context.Background())
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "r", tok.RefreshToken)

	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.calls.Load())
}

func TestStaticResolver_EndpointOverride(t *testing.T) {
	server := newTokenServer(t)

	r := NewStaticResolver(ResolverConfig{
		CredentialsJSON: credentialsJSON("https://unreachable.invalid/token"),
		TokenJSON:       `{"refresh_token":"r"}`,
		Endpoint:        server.endpoint(),
	})

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.calls.Load())
}

func TestNewResolver_StrategySelection(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		token    string
		want     Strategy
		wantErr  bool
	}{
		{name: "auto without token", want: StrategyFile},
		{name: "auto with token", token: `{"refresh_token":"r"}`, want: StrategyStatic},
		{name: "explicit file ignores token", strategy: "file", token: `{"refresh_token":"r"}`, want: StrategyFile},
		{name: "explicit static", strategy: "static", want: StrategyStatic},
		{name: "unknown", strategy: "keychain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(ResolverConfig{
				Strategy:  tt.strategy,
				TokenJSON: tt.token,
				TokenPath: "token.json",
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Strategy())
		})
	}
}
