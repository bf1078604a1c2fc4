package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
)

type fakeResolver struct {
	strategy google.Strategy
	err      error
	calls    atomic.Int32
}

func (f *fakeResolver) Resolve(context.Context) (oauth2.TokenSource, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), nil
}

func (f *fakeResolver) Strategy() google.Strategy {
	if f.strategy == "" {
		return google.StrategyStatic
	}
	return f.strategy
}

// fakeCreator returns a distinct space per call unless err is set.
// When block is set, CreateSpace waits for ctx to end.
type fakeCreator struct {
	mu    sync.Mutex
	err   error
	block bool
	calls int
}

func (f *fakeCreator) CreateSpace(ctx context.Context, ts oauth2.TokenSource) (*meet.Space, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	err := f.err
	block := f.block
	f.mu.Unlock()

	if _, tokErr := ts.Token(); tokErr != nil {
		return nil, tokErr
	}
	if block {
		<-ctx.Done()
		return nil, &meet.RemoteError{Op: meet.OpCreateSpace, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	code := []string{"abc-defg-hij", "klm-nopq-rst", "uvw-xyza-bcd"}[(n-1)%3]
	return &meet.Space{
		Name:        "spaces/" + code,
		MeetingURI:  "https://meet.google.com/" + code,
		MeetingCode: code,
	}, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestServerContext(t *testing.T, resolver google.Resolver, creator SpaceCreator) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), resolver, creator, nil, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
