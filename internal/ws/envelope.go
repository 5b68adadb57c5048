// ABOUTME: Wire envelope and client payload shapes with validation tags
// ABOUTME: Every frame is {"event": name, "data": payload}

package ws

import "encoding/json"

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinProjectPayload is the client payload for join-project. UserID and
// Role travel on the wire for contract compatibility with the UI layer but
// the server authorizes against the handshake identity instead.
type JoinProjectPayload struct {
	ProjectID string `json:"projectId" validate:"required"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
}

// LeaveProjectPayload is the client payload for leave-project.
type LeaveProjectPayload struct {
	ProjectID string `json:"projectId" validate:"required"`
}

// SendMessagePayload is the client payload for send-message. Attachment
// URLs are resolved by the upload endpoint before this event is emitted.
type SendMessagePayload struct {
	ProjectID   string   `json:"projectId" validate:"required"`
	UserID      string   `json:"userId"`
	Role        string   `json:"role"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty" validate:"omitempty,dive,url"`
}

// MessageRefPayload is the client payload for pin-message, unpin-message
// and delete-message.
type MessageRefPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	ProjectID string `json:"projectId" validate:"required"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
}

// TypingPayload is the client payload for typing.
type TypingPayload struct {
	ProjectID string `json:"projectId" validate:"required"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName" validate:"required"`
	IsTyping  bool   `json:"isTyping"`
}
