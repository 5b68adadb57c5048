// ABOUTME: Tests for the SQLite store
// ABOUTME: Covers append ordering, pin audit pair, idempotent delete, directory ops

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/chat-gateway/internal/permission"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testMessage(projectID, senderID, text string) *ChatMessage {
	return &ChatMessage{
		ProjectID: projectID,
		SenderID:  senderID,
		Sender: SenderSnapshot{
			Name:  "Dana",
			Email: "dana@example.com",
			Role:  "EMPLOYEE",
		},
		Message: text,
	}
}

func TestAppendMessage_AssignsServerID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := testMessage("p1", "u1", "hello")
	msg.ID = "pending-123" // client-supplied ids are never honored

	stored, err := s.AppendMessage(ctx, msg)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.NotEqual(t, "pending-123", stored.ID)
	assert.False(t, stored.IsPinned)
	assert.Nil(t, stored.PinnedBy)
	assert.Nil(t, stored.PinnedAt)
	assert.NotNil(t, stored.Attachments)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestListProjectMessages_PersistedOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var want []string
	for i := 0; i < 10; i++ {
		stored, err := s.AppendMessage(ctx, testMessage("p1", "u1", fmt.Sprintf("msg %d", i)))
		require.NoError(t, err)
		want = append(want, stored.ID)
	}
	// A message in another room must not leak into the snapshot.
	_, err := s.AppendMessage(ctx, testMessage("p2", "u1", "elsewhere"))
	require.NoError(t, err)

	msgs, err := s.ListProjectMessages(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	for i, m := range msgs {
		assert.Equal(t, want[i], m.ID)
		assert.Equal(t, fmt.Sprintf("msg %d", i), m.Message)
	}
}

func TestListProjectMessages_EmptyProject(t *testing.T) {
	s := newTestStore(t)

	msgs, err := s.ListProjectMessages(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs)
}

func TestAppendMessage_RoundTripsAttachments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := testMessage("p1", "u1", "")
	msg.Attachments = []string{"https://files.example.com/a.png", "https://files.example.com/b.pdf"}

	stored, err := s.AppendMessage(ctx, msg)
	require.NoError(t, err)

	got, err := s.GetMessage(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Attachments, got.Attachments)
}

func TestSetMessagePinned_AuditPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.AppendMessage(ctx, testMessage("p1", "u1", "pin me"))
	require.NoError(t, err)

	pinned, err := s.SetMessagePinned(ctx, stored.ID, true, "boss-1")
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
	require.NotNil(t, pinned.PinnedBy)
	assert.Equal(t, "boss-1", *pinned.PinnedBy)
	require.NotNil(t, pinned.PinnedAt)

	unpinned, err := s.SetMessagePinned(ctx, stored.ID, false, "boss-1")
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	assert.Nil(t, unpinned.PinnedBy)
	assert.Nil(t, unpinned.PinnedAt)
}

func TestSetMessagePinned_UnknownID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SetMessagePinned(context.Background(), "missing", true, "boss-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMessage_TerminalAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.AppendMessage(ctx, testMessage("p1", "u1", "bye"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage(ctx, stored.ID))

	_, err = s.GetMessage(ctx, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := s.ListProjectMessages(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "deleted message must not reappear in snapshots")

	// Second delete is a no-op success, not an error.
	require.NoError(t, s.DeleteMessage(ctx, stored.ID))
}

func TestEmployeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emp := &Employee{
		ID:    "emp-1",
		Name:  "Dana",
		Email: "dana@example.com",
		Role:  permission.RoleEmployee,
		Flags: permission.FlagSet{permission.CapViewProjects: true},
	}
	require.NoError(t, s.UpsertEmployee(ctx, emp))

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Name)
	assert.Equal(t, permission.RoleEmployee, got.Role)
	assert.True(t, got.Flags[permission.CapViewProjects])
	assert.False(t, got.Flags[permission.CapDeleteProjects])
}

func TestGetEmployee_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEmployee(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignPermissions_OverwriteAndMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertEmployee(ctx, &Employee{
		ID:    "emp-1",
		Name:  "Dana",
		Email: "dana@example.com",
		Role:  permission.RoleEmployee,
		Flags: permission.FlagSet{permission.CapViewProjects: true, permission.CapViewTasks: true},
	}))

	// Merge overlays, keeping existing flags.
	merged, err := s.AssignPermissions(ctx, "emp-1", permission.FlagSet{permission.CapCreateTasks: true}, true)
	require.NoError(t, err)
	assert.True(t, merged.Flags[permission.CapViewProjects])
	assert.True(t, merged.Flags[permission.CapCreateTasks])

	// Overwrite replaces the stored set entirely.
	replaced, err := s.AssignPermissions(ctx, "emp-1", permission.FlagSet{permission.CapExportData: true}, false)
	require.NoError(t, err)
	assert.True(t, replaced.Flags[permission.CapExportData])
	assert.False(t, replaced.Flags[permission.CapViewProjects])

	_, err = s.AssignPermissions(ctx, "ghost", permission.FlagSet{}, true)
	assert.ErrorIs(t, err, ErrNotFound)
}
