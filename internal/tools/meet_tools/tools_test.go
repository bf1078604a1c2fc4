package meet_tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
	"github.com/teemow/meetlink/internal/server"
)

type stubResolver struct{ err error }

func (r stubResolver) Resolve(context.Context) (oauth2.TokenSource, error) {
	if r.err != nil {
		return nil, r.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}), nil
}

func (stubResolver) Strategy() google.Strategy { return google.StrategyStatic }

type stubCreator struct {
	err   error
	calls int
}

func (c *stubCreator) CreateSpace(context.Context, oauth2.TokenSource) (*meet.Space, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &meet.Space{
		Name:        "spaces/abc",
		MeetingURI:  "https://meet.google.com/abc-defg-hij",
		MeetingCode: "abc-defg-hij",
	}, nil
}

func newServerContext(t *testing.T, resolver google.Resolver, creator server.SpaceCreator) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), resolver, creator, nil, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestHandleCreateSpace_Success(t *testing.T) {
	creator := &stubCreator{}
	sc := newServerContext(t, stubResolver{}, creator)

	result, err := handleCreateSpace(context.Background(), mcp.CallToolRequest{}, sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var got createSpaceResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", got.MeetURL)
	assert.Equal(t, "spaces/abc", got.Name)
	assert.Equal(t, "abc-defg-hij", got.MeetingCode)
	assert.Equal(t, 1, creator.calls)
}

func TestHandleCreateSpace_Failures(t *testing.T) {
	tests := []struct {
		name        string
		resolverErr error
		creatorErr  error
	}{
		{
			name:        "credentials unavailable",
			resolverErr: &google.AuthError{Kind: google.KindToken, Message: "no cached token"},
		},
		{
			name:       "remote failure",
			creatorErr: &meet.RemoteError{Op: meet.OpCreateSpace, Err: errors.New("boom")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newServerContext(t, stubResolver{err: tt.resolverErr}, &stubCreator{err: tt.creatorErr})

			result, err := handleCreateSpace(context.Background(), mcp.CallToolRequest{}, sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Equal(t, server.CreateMeetFailure, resultText(t, result))
		})
	}
}

func TestRegisterMeetTools_CallThroughServer(t *testing.T) {
	creator := &stubCreator{}
	sc := newServerContext(t, stubResolver{}, creator)

	s := mcpserver.NewMCPServer("meetlink-test", "test", mcpserver.WithToolCapabilities(true))
	RegisterMeetTools(s, sc)

	msg := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"meet_create_space","arguments":{}}}`
	resp := s.HandleMessage(context.Background(), json.RawMessage(msg))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://meet.google.com/abc-defg-hij")
	assert.Equal(t, 1, creator.calls)
}
