// ABOUTME: In-memory pub/sub for chat domain events
// ABOUTME: Audit and notification collaborators subscribe without polling

package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crewbase/chat-gateway/internal/store"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// EventType identifies a domain event kind.
type EventType string

const (
	EventTypeMessageCreated EventType = "message.created"
	EventTypeMessagePinned  EventType = "message.pinned"
	EventTypeMessageDeleted EventType = "message.deleted"
)

// Event is a domain event emitted after a chat mutation is persisted and
// broadcast. Message is nil for deletions - deleted content stays gone.
type Event struct {
	Type      EventType
	ProjectID string
	MessageID string
	ActorID   string
	Message   *store.ChatMessage
	At        time.Time
}

// Events provides in-memory pub/sub for domain events. Subscribers receive
// every event regardless of project; filtering is the subscriber's job.
type Events struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	logger      *slog.Logger
}

// NewEvents creates an event bus. Pass nil logger for default.
func NewEvents(logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "chat-events"),
	}
}

// Subscribe registers a subscriber. Returns the event channel and a
// subscription id for Unsubscribe. The subscription is cleaned up
// automatically when ctx is cancelled.
func (e *Events) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	e.mu.Lock()
	e.subscribers[subID] = ch
	e.mu.Unlock()

	e.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		e.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish delivers the event to all subscribers. Non-blocking: events are
// dropped for subscribers whose channels are full.
//
// The sends happen under the read lock. Unsubscribe and Close take the
// write lock before closing a channel, so a channel can never be closed
// while a publish is mid-send on it.
func (e *Events) Publish(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
			e.logger.Debug("dropped event for slow subscriber",
				"type", event.Type,
				"message_id", event.MessageID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (e *Events) Unsubscribe(subID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.subscribers[subID]
	if !ok {
		return
	}
	delete(e.subscribers, subID)
	close(ch)

	e.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the bus and closes all subscriber channels.
func (e *Events) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for subID, ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, subID)
	}
}
