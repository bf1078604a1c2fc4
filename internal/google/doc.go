// Package google resolves OAuth2 credentials for the Google Meet API.
//
// A Resolver hands out a ready-to-use oauth2.TokenSource. Two strategies exist:
//
//   - file: a credential record cached on disk (the authorized_user layout),
//     refreshed tokens written back, with an optional interactive consent
//     flow when no record exists yet.
//   - static: client credentials and a pre-issued token taken from
//     configuration. Nothing is read from or written to disk and no
//     interactive step ever runs.
//
// Every failure surfaces as an *AuthError whose Kind tells configuration
// problems apart from token and exchange failures.
package google
