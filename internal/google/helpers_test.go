package google

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
)

// tokenServer is a fake OAuth token endpoint.
type tokenServer struct {
	*httptest.Server
	calls atomic.Int32

	mu     sync.Mutex
	grants []string
	codes  []string
	fail   bool
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ts.mu.Lock()
		ts.grants = append(ts.grants, r.PostForm.Get("grant_type"))
		ts.codes = append(ts.codes, r.PostForm.Get("code"))
		fail := ts.fail
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
			return
		}

		resp := map[string]any{
			"access_token": fmt.Sprintf("access-%d", n),
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if r.PostForm.Get("grant_type") == "authorization_code" {
			resp["refresh_token"] = "refresh-from-exchange"
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) setFail(fail bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.fail = fail
}

func (ts *tokenServer) lastCode() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.codes) == 0 {
		return ""
	}
	return ts.codes[len(ts.codes)-1]
}

func (ts *tokenServer) endpoint() *oauth2.Endpoint {
	return &oauth2.Endpoint{
		AuthURL:   ts.URL + "/auth",
		TokenURL:  ts.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// credentialsJSON returns an "installed" client credentials document whose
// token_uri points at tokenURL.
func credentialsJSON(tokenURL string) string {
	return fmt.Sprintf(`{"installed":{"client_id":"test-client","client_secret":"test-secret","auth_uri":"https://accounts.example.com/o/oauth2/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenURL)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
