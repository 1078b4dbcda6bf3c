package chatsurface

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

func TestLoopbackPostMessageRecordsChannelPost(t *testing.T) {
	l := NewLoopback()
	ts, err := l.PostMessage(context.Background(), "#general", "T1", "hello", interfaces.ActionButton{Label: "Helpful"})
	require.NoError(t, err)
	assert.NotEmpty(t, ts)

	posts := l.ChannelPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "#general", posts[0].Target)
	assert.Equal(t, "hello", posts[0].Text)
	require.Len(t, posts[0].Actions, 1)
	assert.Equal(t, "Helpful", posts[0].Actions[0].Label)
}

func TestLoopbackLookupUserByEmailUsesRegisteredMapping(t *testing.T) {
	l := NewLoopback()
	l.RegisterUser("owner@example.com", "U1")

	userID, found, err := l.LookupUserByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "U1", userID)

	_, found, err = l.LookupUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoopbackPostDirectMessageRecordsActions(t *testing.T) {
	l := NewLoopback()
	err := l.PostDirectMessage(context.Background(), "U1", "check this out", []interfaces.ActionButton{{Label: "Acknowledge"}})
	require.NoError(t, err)

	require.Len(t, l.directPosts, 1)
	assert.Equal(t, "U1", l.directPosts[0].Target)
	assert.Equal(t, "check this out", l.directPosts[0].Text)
	require.Len(t, l.directPosts[0].Actions, 1)
	assert.Equal(t, "Acknowledge", l.directPosts[0].Actions[0].Label)
}
