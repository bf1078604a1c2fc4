package google

// MeetSpaceCreatedScope allows creating meeting spaces and managing the
// spaces the app created. It is the only scope meetlink requests.
const MeetSpaceCreatedScope = "https://www.googleapis.com/auth/meetings.space.created"

// DefaultScopes are the scopes requested when a resolver is not given any.
var DefaultScopes = []string{MeetSpaceCreatedScope}
