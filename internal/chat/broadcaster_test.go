// ABOUTME: Tests for the room broadcaster
// ABOUTME: Covers fan-out, exclusion, and per-recipient failure isolation

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewbase/chat-gateway/internal/permission"
	"github.com/crewbase/chat-gateway/internal/room"
)

func TestBroadcast_ReachesEveryMember(t *testing.T) {
	registry := room.NewRegistry(nil)
	b := NewBroadcaster(registry, nil)

	conns := []*fakeConn{{id: "c1"}, {id: "c2"}, {id: "c3"}}
	for _, c := range conns {
		registry.Join(c, "p1", "u-"+c.id, permission.RoleEmployee)
	}

	b.Broadcast("p1", EventNewMessage, "payload", nil)

	for _, c := range conns {
		assert.Len(t, c.received(EventNewMessage), 1, "conn %s", c.id)
	}
}

func TestBroadcast_ExcludesOriginator(t *testing.T) {
	registry := room.NewRegistry(nil)
	b := NewBroadcaster(registry, nil)

	origin := &fakeConn{id: "origin"}
	other := &fakeConn{id: "other"}
	registry.Join(origin, "p1", "u1", permission.RoleEmployee)
	registry.Join(other, "p1", "u2", permission.RoleEmployee)

	b.Broadcast("p1", EventUserTyping, "payload", origin)

	assert.Empty(t, origin.received(EventUserTyping))
	assert.Len(t, other.received(EventUserTyping), 1)
}

func TestBroadcast_DeadConnectionDoesNotBlockOthers(t *testing.T) {
	registry := room.NewRegistry(nil)
	b := NewBroadcaster(registry, nil)

	alive1 := &fakeConn{id: "alive1"}
	dead := &fakeConn{id: "dead", failSend: true}
	alive2 := &fakeConn{id: "alive2"}
	registry.Join(alive1, "p1", "u1", permission.RoleEmployee)
	registry.Join(dead, "p1", "u2", permission.RoleEmployee)
	registry.Join(alive2, "p1", "u3", permission.RoleEmployee)

	require.NotPanics(t, func() {
		b.Broadcast("p1", EventNewMessage, "payload", nil)
	})

	assert.Len(t, alive1.received(EventNewMessage), 1)
	assert.Len(t, alive2.received(EventNewMessage), 1)
	assert.Empty(t, dead.sends)
}

func TestBroadcast_EmptyRoomIsNoop(t *testing.T) {
	registry := room.NewRegistry(nil)
	b := NewBroadcaster(registry, nil)

	require.NotPanics(t, func() {
		b.Broadcast("empty", EventNewMessage, "payload", nil)
	})
}
