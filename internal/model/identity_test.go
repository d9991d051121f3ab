package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentity(t *testing.T) {
	t.Run("username only resolves legacy mode", func(t *testing.T) {
		id, err := ResolveIdentity(Handshake{Username: "alice"})
		require.NoError(t, err)
		assert.Equal(t, ModeLegacy, id.Mode)
		assert.Equal(t, "alice", id.Username)
		assert.Empty(t, id.Room)
		assert.Empty(t, id.StreamKey)
	})

	t.Run("username and room resolves room mode", func(t *testing.T) {
		id, err := ResolveIdentity(Handshake{Username: "alice", Room: "R1"})
		require.NoError(t, err)
		assert.Equal(t, ModeRoom, id.Mode)
		assert.Equal(t, "R1", id.Room)
		assert.Empty(t, id.StreamKey)
	})

	t.Run("full shape binds title as stream key", func(t *testing.T) {
		id, err := ResolveIdentity(Handshake{
			Username: "alice",
			Room:     "R1",
			Token:    "tok",
			Title:    "signing-42",
		})
		require.NoError(t, err)
		assert.Equal(t, ModeFull, id.Mode)
		assert.Equal(t, "signing-42", id.StreamKey)
		assert.Equal(t, "tok", id.Token)
	})

	t.Run("missing username is rejected", func(t *testing.T) {
		_, err := ResolveIdentity(Handshake{Room: "R1"})
		assert.ErrorIs(t, err, ErrUsernameRequired)
	})

	t.Run("token without room is rejected", func(t *testing.T) {
		_, err := ResolveIdentity(Handshake{Username: "alice", Token: "tok", Title: "s"})
		assert.ErrorIs(t, err, ErrRoomRequired)
	})

	t.Run("token without title is rejected", func(t *testing.T) {
		_, err := ResolveIdentity(Handshake{Username: "alice", Token: "tok", Room: "R1"})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})
}

func TestPolicyFor(t *testing.T) {
	relay := []EventKind{
		EventNotaryAvailable, EventNotarySendTools, EventNotaryEditTools,
		EventNotaryDeleteTools, EventNotaryCompleteSession, EventNotaryCancelSession,
		EventRemove, EventInviteParticipants, EventUserLeaveCompleted,
	}
	for _, k := range relay {
		p, ok := PolicyFor(k)
		require.True(t, ok, k)
		assert.Equal(t, FanoutRoomRelay, p, k)
	}

	inclusive := []EventKind{
		EventJoinRoomMessage, EventOwnerCompleteSession, EventOwnerCancelledSession,
		EventPlaySound, EventStopRecording, EventShowRecordingNotice,
	}
	for _, k := range inclusive {
		p, ok := PolicyFor(k)
		require.True(t, ok, k)
		assert.Equal(t, FanoutRoomInclusive, p, k)
	}

	global := []EventKind{
		EventNotaryNewRequest, EventNotaryAcceptRequest,
		EventNotaryRejectRequest, EventNotaryCancelRequest,
	}
	for _, k := range global {
		p, ok := PolicyFor(k)
		require.True(t, ok, k)
		assert.Equal(t, FanoutGlobal, p, k)
	}

	_, ok := PolicyFor("no-such-event")
	assert.False(t, ok)
}
