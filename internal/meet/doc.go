// Package meet creates Google Meet meeting spaces through the Meet API v2.
//
// A Client issues exactly one spaces.create call per CreateSpace with an
// empty space body, so every call yields a fresh space with its own join URL.
// There is no retry, backoff or cache. The token source handed in must
// already be valid; the client never refreshes or re-authorizes.
//
// Failures are returned as *RemoteError, which exposes the HTTP status of
// the remote response where there was one.
package meet
