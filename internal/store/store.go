// ABOUTME: Store interfaces and data types for chat-gateway persistence
// ABOUTME: Defines ChatMessage, Employee and the MessageStore/Directory contracts

package store

import (
	"context"
	"errors"
	"time"

	"github.com/crewbase/chat-gateway/internal/permission"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// SenderSnapshot captures the sender's display identity at send time so
// history renders without a join and survives later profile edits.
type SenderSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ChatMessage is one persisted entry in a project's chat log.
//
// PinnedBy and PinnedAt are both nil or both set. SenderID never changes
// after creation. A message belongs to exactly one project.
type ChatMessage struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"projectId"`
	SenderID    string         `json:"senderId"`
	Sender      SenderSnapshot `json:"senderSnapshot"`
	Message     string         `json:"message"`
	Attachments []string       `json:"attachments"`
	IsPinned    bool           `json:"isPinned"`
	PinnedBy    *string        `json:"pinnedBy"`
	PinnedAt    *time.Time     `json:"pinnedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Employee is an identity record: who someone is and what they may do.
// The chat layer reads these to re-validate role and flags server-side
// instead of trusting client-supplied fields.
type Employee struct {
	ID        string
	Name      string
	Email     string
	Role      permission.Role
	Flags     permission.FlagSet
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor returns the (role, flags) tuple the permission evaluator consumes.
func (e *Employee) Actor() permission.Actor {
	return permission.Actor{Role: e.Role, Flags: e.Flags}
}

// MessageStore is the persisted chat log the session protocol writes through.
type MessageStore interface {
	// AppendMessage assigns the message a server id and sequence, persists
	// it, and returns the stored row.
	AppendMessage(ctx context.Context, msg *ChatMessage) (*ChatMessage, error)

	// ListProjectMessages returns a project's messages in persisted order.
	ListProjectMessages(ctx context.Context, projectID string) ([]*ChatMessage, error)

	// GetMessage returns a single message or ErrNotFound.
	GetMessage(ctx context.Context, id string) (*ChatMessage, error)

	// SetMessagePinned updates the pin state and its audit pair, returning
	// the updated row. Unpinning clears pinnedBy/pinnedAt together.
	SetMessagePinned(ctx context.Context, id string, pinned bool, by string) (*ChatMessage, error)

	// DeleteMessage hard-deletes the message. Deleting an id that no longer
	// exists is a no-op success so duplicate client retries stay cheap.
	DeleteMessage(ctx context.Context, id string) error
}

// Directory is the identity/role collaborator.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	UpsertEmployee(ctx context.Context, emp *Employee) error
	ListEmployees(ctx context.Context) ([]*Employee, error)

	// AssignPermissions is the only mutation path for permission flags.
	// With merge true the given flags overlay the stored set; otherwise
	// they replace it entirely.
	AssignPermissions(ctx context.Context, employeeID string, flags permission.FlagSet, merge bool) (*Employee, error)
}

// Store combines every persistence concern plus lifecycle.
type Store interface {
	MessageStore
	Directory
	Close() error
}
