package meet

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// Space is the part of a created meeting space callers use.
type Space struct {
	// Name is the resource name of the space
	// Format: spaces/{space}
	Name string

	// MeetingURI is the URI to join the meeting
	MeetingURI string

	// MeetingCode is the meeting code (e.g., "abc-defg-hij")
	MeetingCode string

	// AccessType is who can join without knocking, as reported by the API.
	AccessType string
}

// ErrMissingMeetingURI marks a create response without a join URL.
var ErrMissingMeetingURI = errors.New("response has no meetingUri")

// RemoteError wraps any failure of a Meet API call: transport errors,
// non-2xx responses and malformed responses.
type RemoteError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	return fmt.Sprintf("meet %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of the remote response, or 0 when the
// call failed before a response arrived.
func (e *RemoteError) StatusCode() int {
	var apiErr *googleapi.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
