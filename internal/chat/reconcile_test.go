// ABOUTME: Tests for the optimistic reconciliation timeline
// ABOUTME: Covers provisional replacement, snapshot supersession, pin/delete application

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/chat-gateway/internal/store"
)

func provisional(projectID, senderID, text string) *store.ChatMessage {
	return &store.ChatMessage{
		ID:        NewProvisionalID(),
		ProjectID: projectID,
		SenderID:  senderID,
		Message:   text,
	}
}

func confirmed(id, projectID, senderID, text string) *store.ChatMessage {
	return &store.ChatMessage{
		ID:        id,
		ProjectID: projectID,
		SenderID:  senderID,
		Message:   text,
	}
}

func TestProvisionalIDNamespace(t *testing.T) {
	id := NewProvisionalID()
	assert.True(t, IsProvisional(id))
	assert.False(t, IsProvisional("0b39cf1e-5b66-4a44-b01c-0ac32ff7ab72"))
}

func TestConfirm_ReplacesProvisionalWithoutDuplication(t *testing.T) {
	tl := NewTimeline()

	pending := provisional("p1", "u1", "hello")
	tl.AppendProvisional(pending)
	require.Equal(t, 1, tl.Len())

	tl.Confirm(confirmed("srv-1", "p1", "u1", "hello"))

	msgs := tl.Messages()
	require.Len(t, msgs, 1, "merged state must contain exactly one entry")
	assert.Equal(t, "srv-1", msgs[0].ID, "final entry is keyed by the server id")
}

func TestConfirm_ReplacesOldestMatchingProvisional(t *testing.T) {
	tl := NewTimeline()

	first := provisional("p1", "u1", "same text")
	second := provisional("p1", "u1", "same text")
	tl.AppendProvisional(first)
	tl.AppendProvisional(second)

	tl.Confirm(confirmed("srv-1", "p1", "u1", "same text"))

	msgs := tl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "srv-1", msgs[0].ID, "oldest provisional is replaced in place")
	assert.Equal(t, second.ID, msgs[1].ID)
}

func TestConfirm_OtherSendersAppend(t *testing.T) {
	tl := NewTimeline()
	tl.AppendProvisional(provisional("p1", "u1", "mine"))

	// Another member's message arrives: no provisional match, appended.
	tl.Confirm(confirmed("srv-2", "p1", "u2", "theirs"))

	require.Equal(t, 2, tl.Len())
	assert.Equal(t, "srv-2", tl.Messages()[1].ID)
}

func TestConfirm_DuplicateDeliveryIsIdempotent(t *testing.T) {
	tl := NewTimeline()

	msg := confirmed("srv-1", "p1", "u1", "hello")
	tl.Confirm(msg)
	tl.Confirm(msg)

	assert.Equal(t, 1, tl.Len())
}

func TestApplySnapshot_SupersedesLocalState(t *testing.T) {
	tl := NewTimeline()
	tl.AppendProvisional(provisional("p1", "u1", "never confirmed"))
	tl.Confirm(confirmed("stale-1", "p1", "u2", "old view"))

	authoritative := []*store.ChatMessage{
		confirmed("srv-1", "p1", "u2", "first"),
		confirmed("srv-2", "p1", "u1", "second"),
	}
	tl.ApplySnapshot(authoritative)

	msgs := tl.Messages()
	require.Len(t, msgs, 2, "snapshot replaces, never merges")
	assert.Equal(t, "srv-1", msgs[0].ID)
	assert.Equal(t, "srv-2", msgs[1].ID)
}

func TestAppendProvisional_RejectsServerIDs(t *testing.T) {
	tl := NewTimeline()
	tl.AppendProvisional(confirmed("srv-1", "p1", "u1", "not provisional"))
	assert.Equal(t, 0, tl.Len())
}

func TestApplyPinnedAndDeleted(t *testing.T) {
	tl := NewTimeline()
	tl.Confirm(confirmed("srv-1", "p1", "u1", "hello"))

	by := "boss-1"
	tl.ApplyPinned(&store.ChatMessage{ID: "srv-1", ProjectID: "p1", SenderID: "u1", Message: "hello", IsPinned: true, PinnedBy: &by})
	assert.True(t, tl.Messages()[0].IsPinned)

	// Unknown ids are ignored.
	tl.ApplyPinned(confirmed("ghost", "p1", "u1", "x"))
	tl.ApplyDeleted("ghost")
	assert.Equal(t, 1, tl.Len())

	tl.ApplyDeleted("srv-1")
	assert.Equal(t, 0, tl.Len())
}
