package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetlink/internal/google"
)

func TestNewServerContext_RequiresDependencies(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, &fakeCreator{}, nil, nil)
	assert.Error(t, err)

	_, err = NewServerContext(context.Background(), &fakeResolver{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestServerContext_CreateMeeting(t *testing.T) {
	t.Run("resolves then creates", func(t *testing.T) {
		resolver := &fakeResolver{}
		creator := &fakeCreator{}
		sc := newTestServerContext(t, resolver, creator)

		space, err := sc.CreateMeeting(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://meet.google.com/abc-defg-hij", space.MeetingURI)
		assert.EqualValues(t, 1, resolver.calls.Load())
		assert.Equal(t, 1, creator.count())
	})

	t.Run("resolution failure skips creation", func(t *testing.T) {
		authErr := &google.AuthError{Kind: google.KindToken, Message: "no cached token"}
		creator := &fakeCreator{}
		sc := newTestServerContext(t, &fakeResolver{err: authErr}, creator)

		_, err := sc.CreateMeeting(context.Background())

		var got *google.AuthError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, google.KindToken, got.Kind)
		assert.Equal(t, 0, creator.count())
	})
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t, &fakeResolver{}, &fakeCreator{})
	assert.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())

	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)
}
