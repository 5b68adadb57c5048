// ABOUTME: Session protocol service - join, send, pin, delete, typing
// ABOUTME: Membership precedes persistence; role checks re-fetch the directory

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewbase/chat-gateway/internal/permission"
	"github.com/crewbase/chat-gateway/internal/room"
	"github.com/crewbase/chat-gateway/internal/store"
)

// Service drives the chat session protocol. One instance serves the whole
// process; per-connection state lives in the room registry. Construct it at
// the composition root - there is deliberately no package-level instance.
type Service struct {
	messages    store.MessageStore
	directory   store.Directory
	registry    *room.Registry
	broadcaster *Broadcaster
	events      *Events
	perms       *permission.Evaluator
	logger      *slog.Logger
}

// NewService wires a chat service from its collaborators. Pass nil logger
// for default.
func NewService(messages store.MessageStore, directory store.Directory, registry *room.Registry, broadcaster *Broadcaster, events *Events, perms *permission.Evaluator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		messages:    messages,
		directory:   directory,
		registry:    registry,
		broadcaster: broadcaster,
		events:      events,
		perms:       perms,
		logger:      logger.With("component", "chat"),
	}
}

// Join registers the connection as a member of the project room and pushes
// the authoritative history snapshot to that connection only.
//
// Join has no permission gate: room membership is not authorization to
// mutate. Re-joining is idempotent, which is also the reconnect path - the
// server retains nothing for a dropped transport session, so the client
// simply joins again.
func (s *Service) Join(ctx context.Context, conn room.Conn, projectID, userID string) error {
	emp, err := s.lookupEmployee(ctx, userID)
	if err != nil {
		return err
	}

	s.registry.Join(conn, projectID, emp.ID, emp.Role)

	history, err := s.messages.ListProjectMessages(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if err := conn.Send(EventProjectMessages, history); err != nil {
		// The connection died between join and push; the disconnect path
		// will purge it. Membership stays consistent either way.
		s.logger.Debug("history push failed", "project_id", projectID, "conn_id", conn.ID(), "error", err)
	}

	s.logger.Info("joined project chat",
		"project_id", projectID,
		"user_id", emp.ID,
		"role", emp.Role,
		"conn_id", conn.ID())
	return nil
}

// Leave removes the connection's membership in the room. No broadcast:
// presence is out of scope.
func (s *Service) Leave(conn room.Conn, projectID string) {
	s.registry.Leave(conn, projectID)
}

// Disconnect purges all memberships for the connection across all rooms.
// Called by the transport when the underlying socket drops.
func (s *Service) Disconnect(conn room.Conn) {
	s.registry.Purge(conn)
}

// Send validates, persists, and fans out a message to the whole room -
// including the sender's own connections, whose provisional copies are
// reconciled against the confirmed payload.
//
// Attachment URLs are assumed already resolved by the file-storage
// collaborator; the chat core does not orchestrate uploads.
func (s *Service) Send(ctx context.Context, conn room.Conn, projectID, text string, attachments []string) (*store.ChatMessage, error) {
	member, ok := s.registry.MemberOf(conn, projectID)
	if !ok {
		return nil, ErrNotJoined
	}

	if text == "" && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: message requires text or at least one attachment", ErrValidation)
	}

	emp, err := s.lookupEmployee(ctx, member.UserID)
	if err != nil {
		return nil, err
	}

	msg := &store.ChatMessage{
		ProjectID: projectID,
		SenderID:  emp.ID,
		Sender: store.SenderSnapshot{
			Name:  emp.Name,
			Email: emp.Email,
			Role:  string(emp.Role),
		},
		Message:     text,
		Attachments: attachments,
	}

	stored, err := s.messages.AppendMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	s.broadcaster.Broadcast(projectID, EventNewMessage, stored, nil)
	s.publish(EventTypeMessageCreated, stored.ProjectID, stored.ID, emp.ID, stored)

	return stored, nil
}

// Pin sets or clears the pin state of a message. Pinning is BOSS-only in
// this domain - a role check, not a generic permission flag - and the role
// is re-fetched from the directory rather than trusted from the client.
func (s *Service) Pin(ctx context.Context, conn room.Conn, projectID, messageID string, pinned bool) (*store.ChatMessage, error) {
	member, ok := s.registry.MemberOf(conn, projectID)
	if !ok {
		return nil, ErrNotJoined
	}

	emp, err := s.lookupEmployee(ctx, member.UserID)
	if err != nil {
		return nil, err
	}
	if emp.Role != permission.RoleBoss {
		return nil, fmt.Errorf("%w: only the boss may pin or unpin messages", ErrUnauthorized)
	}

	// The message must belong to the room the client named, or the
	// confirmation would broadcast into a room that never had it.
	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading message: %w", err)
	}
	if msg.ProjectID != projectID {
		return nil, ErrNotFound
	}

	updated, err := s.messages.SetMessagePinned(ctx, messageID, pinned, emp.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating pin state: %w", err)
	}

	s.broadcaster.Broadcast(projectID, EventMessagePinned, updated, nil)
	s.publish(EventTypeMessagePinned, projectID, messageID, emp.ID, updated)

	return updated, nil
}

// Delete hard-deletes a message. The actor must be the original sender or
// BOSS. The broadcast carries only the message id, never the content.
//
// Deleting an id that no longer exists is a no-op success so duplicate
// client retries stay quiet.
func (s *Service) Delete(ctx context.Context, conn room.Conn, projectID, messageID string) error {
	member, ok := s.registry.MemberOf(conn, projectID)
	if !ok {
		return ErrNotJoined
	}

	emp, err := s.lookupEmployee(ctx, member.UserID)
	if err != nil {
		return err
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}

	// A message in another project does not exist as far as this room is
	// concerned: treat it like the absent-id case and leave it untouched.
	if msg.ProjectID != projectID {
		return nil
	}

	if emp.Role != permission.RoleBoss && msg.SenderID != emp.ID {
		return fmt.Errorf("%w: only the sender or the boss may delete a message", ErrUnauthorized)
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	s.broadcaster.Broadcast(projectID, EventMessageDeleted, MessageDeleted{MessageID: messageID}, nil)
	s.publish(EventTypeMessageDeleted, projectID, messageID, emp.ID, nil)

	return nil
}

// Typing relays a typing indicator to the other members of the room. No
// persistence, no acknowledgment; the server does not deduplicate rapid
// toggles - clients debounce before emitting.
func (s *Service) Typing(conn room.Conn, projectID, userName string, isTyping bool) error {
	if !s.registry.IsMember(conn, projectID) {
		return ErrNotJoined
	}

	s.broadcaster.Broadcast(projectID, EventUserTyping, UserTyping{
		UserName: userName,
		IsTyping: isTyping,
	}, conn)
	return nil
}

// Evaluator exposes the permission evaluator for collaborators that gate
// non-chat operations (e.g. the permission-assignment API).
func (s *Service) Evaluator() *permission.Evaluator {
	return s.perms
}

// lookupEmployee re-validates identity against the directory. Every gated
// operation goes through here instead of trusting client-supplied role or
// user id fields.
func (s *Service) lookupEmployee(ctx context.Context, userID string) (*store.Employee, error) {
	emp, err := s.directory.GetEmployee(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownEmployee
	}
	if err != nil {
		return nil, fmt.Errorf("looking up employee: %w", err)
	}
	return emp, nil
}

func (s *Service) publish(t EventType, projectID, messageID, actorID string, msg *store.ChatMessage) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		Type:      t,
		ProjectID: projectID,
		MessageID: messageID,
		ActorID:   actorID,
		Message:   msg,
		At:        time.Now(),
	})
}
