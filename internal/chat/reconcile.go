// ABOUTME: Optimistic reconciliation contract - provisional ids and the merge rule
// ABOUTME: Timeline is the reference client-side view every UI must reproduce

package chat

import (
	"strings"

	"github.com/google/uuid"

	"github.com/crewbase/chat-gateway/internal/store"
)

// ProvisionalPrefix is the reserved id namespace for client-generated
// provisional messages. Server ids are bare UUIDs, so the namespaces can
// never collide and the server never echoes a client-supplied id.
const ProvisionalPrefix = "pending-"

// NewProvisionalID allocates an id in the provisional namespace.
func NewProvisionalID() string {
	return ProvisionalPrefix + uuid.New().String()
}

// IsProvisional reports whether the id belongs to the provisional namespace.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}

// Timeline is the client-side view of one room's messages. It encodes the
// reconciliation contract the server's payload shapes are designed for:
//
//   - a snapshot (project-messages) replaces the whole view, never merges;
//   - a confirmed message (new-message) replaces the oldest matching
//     provisional entry instead of duplicating it;
//   - pin updates and deletions apply by server id.
//
// It lives server-side so the contract is executable and tested, and so Go
// clients (tooling, tests) share one implementation.
type Timeline struct {
	order []string
	byID  map[string]*store.ChatMessage
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{byID: make(map[string]*store.ChatMessage)}
}

// ApplySnapshot replaces the entire view with the authoritative ordered
// history. Any provisional entries are discarded - the server's snapshot
// supersedes local state entirely.
func (t *Timeline) ApplySnapshot(msgs []*store.ChatMessage) {
	t.order = t.order[:0]
	t.byID = make(map[string]*store.ChatMessage, len(msgs))
	for _, m := range msgs {
		t.order = append(t.order, m.ID)
		t.byID[m.ID] = m
	}
}

// AppendProvisional renders a locally submitted message immediately under a
// provisional id, ahead of server confirmation.
func (t *Timeline) AppendProvisional(msg *store.ChatMessage) {
	if !IsProvisional(msg.ID) {
		// Only provisional ids may be appended locally; confirmed
		// messages arrive through Confirm.
		return
	}
	if _, ok := t.byID[msg.ID]; ok {
		return
	}
	t.order = append(t.order, msg.ID)
	t.byID[msg.ID] = msg
}

// Confirm applies a server-confirmed message. If a provisional entry for
// the same logical send exists (same sender, same room, identical content),
// the oldest such entry is replaced in place; otherwise the message is
// appended. The result is keyed by the server id either way.
func (t *Timeline) Confirm(confirmed *store.ChatMessage) {
	if _, ok := t.byID[confirmed.ID]; ok {
		t.byID[confirmed.ID] = confirmed
		return
	}

	for i, id := range t.order {
		if !IsProvisional(id) {
			continue
		}
		pending := t.byID[id]
		if pending.SenderID == confirmed.SenderID &&
			pending.ProjectID == confirmed.ProjectID &&
			pending.Message == confirmed.Message {
			delete(t.byID, id)
			t.order[i] = confirmed.ID
			t.byID[confirmed.ID] = confirmed
			return
		}
	}

	t.order = append(t.order, confirmed.ID)
	t.byID[confirmed.ID] = confirmed
}

// ApplyPinned replaces the stored message with its updated pin state.
func (t *Timeline) ApplyPinned(updated *store.ChatMessage) {
	if _, ok := t.byID[updated.ID]; ok {
		t.byID[updated.ID] = updated
	}
}

// ApplyDeleted removes the message from the view.
func (t *Timeline) ApplyDeleted(messageID string) {
	if _, ok := t.byID[messageID]; !ok {
		return
	}
	delete(t.byID, messageID)
	for i, id := range t.order {
		if id == messageID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Messages returns the current view in order.
func (t *Timeline) Messages() []*store.ChatMessage {
	out := make([]*store.ChatMessage, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// Len returns the number of entries in the view.
func (t *Timeline) Len() int {
	return len(t.order)
}
