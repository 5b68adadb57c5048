// ABOUTME: Room fan-out delivering confirmed events to every member connection
// ABOUTME: Per-recipient failure isolation - one dead socket never blocks the rest

package chat

import (
	"log/slog"

	"github.com/crewbase/chat-gateway/internal/room"
)

// Broadcaster fans a confirmed server-side event out to every connection
// currently registered in a room.
type Broadcaster struct {
	registry *room.Registry
	logger   *slog.Logger
}

// NewBroadcaster creates a broadcaster over the given registry. Pass nil
// logger for default.
func NewBroadcaster(registry *room.Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		registry: registry,
		logger:   logger.With("component", "broadcaster"),
	}
}

// Broadcast delivers the event to every member of the project room. If
// exclude is non-nil that connection is skipped (the typing-indicator case);
// all other event types include the originator so multi-device sessions
// stay in sync.
//
// Delivery failures are logged per recipient and never abort delivery to
// the remaining members. Dead connections are reaped by the transport's
// disconnect path, not here.
func (b *Broadcaster) Broadcast(projectID, event string, payload any, exclude room.Conn) {
	for _, m := range b.registry.MembersOf(projectID) {
		if exclude != nil && m.Conn.ID() == exclude.ID() {
			continue
		}
		if err := m.Conn.Send(event, payload); err != nil {
			b.logger.Debug("dropped delivery to dead connection",
				"project_id", projectID,
				"event", event,
				"conn_id", m.Conn.ID(),
				"error", err)
		}
	}
}
