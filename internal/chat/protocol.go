// ABOUTME: Wire protocol event names shared by the chat core and transports
// ABOUTME: These names are the integration contract with the UI layer

package chat

// Client-to-server events.
const (
	EventJoinProject   = "join-project"
	EventLeaveProject  = "leave-project"
	EventSendMessage   = "send-message"
	EventPinMessage    = "pin-message"
	EventUnpinMessage  = "unpin-message"
	EventDeleteMessage = "delete-message"
	EventTyping        = "typing"
)

// Server-to-client events.
const (
	// EventProjectMessages carries the full ordered history snapshot pushed
	// to a joining connection. It supersedes any locally cached state
	// entirely - clients replace, never merge.
	EventProjectMessages = "project-messages"

	// EventNewMessage carries a single confirmed ChatMessage, delivered to
	// every room member including the sender's own connections so that
	// multi-device sessions reconcile their provisional copies.
	EventNewMessage = "new-message"

	// EventMessagePinned carries the full updated message after a pin or
	// unpin transition.
	EventMessagePinned = "message-pinned"

	// EventMessageDeleted carries only the deleted message id, never the
	// content - deleted text must not resurface on the wire.
	EventMessageDeleted = "message-deleted"

	// EventUserTyping is best-effort and excludes the originator.
	EventUserTyping = "user-typing"

	// EventError is delivered to the originating connection only.
	EventError = "error"
)

// MessageDeleted is the payload for EventMessageDeleted.
type MessageDeleted struct {
	MessageID string `json:"messageId"`
}

// UserTyping is the payload for EventUserTyping.
type UserTyping struct {
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorPayload is the payload for EventError.
type ErrorPayload struct {
	Message string `json:"message"`
}
