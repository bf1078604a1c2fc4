package google

import "fmt"

// ErrorKind classifies an AuthError.
type ErrorKind string

const (
	// KindConfig is a missing or malformed setting, or a static token that
	// expired with no way to refresh it.
	KindConfig ErrorKind = "config"

	// KindCredentials is an unreadable or invalid client credentials document.
	KindCredentials ErrorKind = "credentials"

	// KindToken is a missing, unusable or unrefreshable token.
	KindToken ErrorKind = "token"

	// KindExchange is a failed interactive authorization or code exchange.
	KindExchange ErrorKind = "exchange"
)

// AuthError is returned by every Resolver failure.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(kind ErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}
