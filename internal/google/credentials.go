package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// AuthorizedUserType is the "type" value of a stored credential record.
const AuthorizedUserType = "authorized_user"

// ParseClientCredentials builds an OAuth2 config from a Google Cloud console
// client credentials document. Both the "installed" and "web" layouts are
// accepted; the document's token_uri and auth_uri are honoured.
func ParseClientCredentials(data []byte, scopes ...string) (*oauth2.Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, newAuthError(KindCredentials, "client credentials are empty", nil)
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	cfg, err := googleoauth.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, newAuthError(KindCredentials, "failed to parse client credentials", err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, newAuthError(KindCredentials, "client credentials lack client_id or client_secret", nil)
	}

	return cfg, nil
}

// CredentialRecord is the token file persisted by the file strategy.
type CredentialRecord struct {
	Type         string     `json:"type"`
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"client_secret"`
	RefreshToken string     `json:"refresh_token"`
	AccessToken  string     `json:"access_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`

	// TokenURI is kept when the client credentials named a token endpoint
	// other than Google's, so refreshes go where the exchange went.
	TokenURI string `json:"token_uri,omitempty"`
}

// NewCredentialRecord captures the client identity and token for persistence.
func NewCredentialRecord(cfg *oauth2.Config, tok *oauth2.Token) *CredentialRecord {
	rec := &CredentialRecord{
		Type:         AuthorizedUserType,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}
	if cfg.Endpoint.TokenURL != "" && cfg.Endpoint.TokenURL != googleoauth.Endpoint.TokenURL {
		rec.TokenURI = cfg.Endpoint.TokenURL
	}
	rec.SetToken(tok)
	return rec
}

// SetToken replaces the stored token fields. An empty refresh token keeps the
// previous one, matching how Google omits it from refresh responses.
func (r *CredentialRecord) SetToken(tok *oauth2.Token) {
	if tok.RefreshToken != "" {
		r.RefreshToken = tok.RefreshToken
	}
	r.AccessToken = tok.AccessToken
	r.TokenType = tok.TokenType
	r.Expiry = nil
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		r.Expiry = &expiry
	}
}

// Token returns the record's token. A record without an access token yields
// an already-expired token so the first use triggers a refresh.
func (r *CredentialRecord) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	if r.Expiry != nil {
		tok.Expiry = *r.Expiry
	}
	if tok.AccessToken == "" {
		tok.Expiry = time.Unix(1, 0)
	}
	return tok
}

// Config returns an OAuth2 config for the record's client against endpoint,
// or against Google's endpoint (with the record's TokenURI) when endpoint is nil.
func (r *CredentialRecord) Config(endpoint *oauth2.Endpoint, scopes ...string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	ep := googleoauth.Endpoint
	if endpoint != nil {
		ep = *endpoint
	} else if r.TokenURI != "" {
		ep.TokenURL = r.TokenURI
	}
	return &oauth2.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		Endpoint:     ep,
		Scopes:       scopes,
	}
}

// Validate reports whether the record can produce a token.
func (r *CredentialRecord) Validate() error {
	if r.Type != "" && r.Type != AuthorizedUserType {
		return fmt.Errorf("unsupported credential type %q", r.Type)
	}
	if r.ClientID == "" {
		return errors.New("credential record has no client_id")
	}
	if r.RefreshToken == "" && r.AccessToken == "" {
		return errors.New("credential record has neither refresh_token nor access_token")
	}
	return nil
}

// staticToken is the GOOGLE_TOKEN document. Expiry may be given as RFC 3339
// (expiry) or as Unix milliseconds (expiry_date).
type staticToken struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	Expiry       *time.Time `json:"expiry"`
	ExpiryDate   *int64     `json:"expiry_date"`
}

// ParseStaticToken decodes a pre-issued token document.
func ParseStaticToken(data []byte) (*oauth2.Token, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, newAuthError(KindConfig, "token is empty", nil)
	}

	var st staticToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, newAuthError(KindConfig, "failed to parse token", err)
	}
	if st.AccessToken == "" && st.RefreshToken == "" {
		return nil, newAuthError(KindConfig, "token has neither access_token nor refresh_token", nil)
	}

	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
	}
	switch {
	case st.Expiry != nil:
		tok.Expiry = *st.Expiry
	case st.ExpiryDate != nil:
		tok.Expiry = time.UnixMilli(*st.ExpiryDate)
	}
	if tok.AccessToken == "" {
		tok.Expiry = time.Unix(1, 0)
	}

	return tok, nil
}
