// ABOUTME: Room registry mapping project rooms to live member connections
// ABOUTME: Idempotent join, no-op leave, full purge on transport disconnect

package room

import (
	"log/slog"
	"sync"

	"github.com/crewbase/chat-gateway/internal/permission"
)

// Conn is the minimal connection surface the registry and broadcaster need.
// The websocket transport implements it; tests use in-memory fakes.
type Conn interface {
	// ID uniquely identifies the connection for the life of the transport
	// session.
	ID() string

	// Send enqueues an event for delivery. It must not block; a dead or
	// saturated connection returns an error instead.
	Send(event string, payload any) error
}

// Member is one connection's membership in a room.
type Member struct {
	Conn   Conn
	UserID string
	Role   permission.Role
}

// Registry tracks room membership for live connections. All methods are
// safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// rooms maps projectID -> connID -> membership.
	rooms map[string]map[string]Member

	// conns maps connID -> set of projectIDs, for O(rooms-of-conn) purge.
	conns map[string]map[string]struct{}

	logger *slog.Logger
}

// NewRegistry creates an empty registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]map[string]Member),
		conns:  make(map[string]map[string]struct{}),
		logger: logger.With("component", "room-registry"),
	}
}

// Join adds the connection to the project room. Re-joining with the same
// connection is idempotent and refreshes the stored user/role, which covers
// the client's re-join after a reconnect.
func (r *Registry) Join(conn Conn, projectID, userID string, role permission.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[projectID] == nil {
		r.rooms[projectID] = make(map[string]Member)
	}
	r.rooms[projectID][conn.ID()] = Member{Conn: conn, UserID: userID, Role: role}

	if r.conns[conn.ID()] == nil {
		r.conns[conn.ID()] = make(map[string]struct{})
	}
	r.conns[conn.ID()][projectID] = struct{}{}

	r.logger.Debug("joined room", "project_id", projectID, "user_id", userID, "conn_id", conn.ID())
}

// Leave removes the connection's membership in the project room. Leaving a
// room the connection never joined is a no-op.
func (r *Registry) Leave(conn Conn, projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(conn.ID(), projectID)
}

// Purge removes every membership held by the connection, across all rooms.
// Called on transport disconnect so the broadcaster never sees a dangling
// member.
func (r *Registry) Purge(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for projectID := range r.conns[conn.ID()] {
		r.remove(conn.ID(), projectID)
	}
}

// remove deletes one membership entry. Caller holds the write lock.
func (r *Registry) remove(connID, projectID string) {
	members, ok := r.rooms[projectID]
	if !ok {
		return
	}
	if _, ok := members[connID]; !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, projectID)
	}

	if projects, ok := r.conns[connID]; ok {
		delete(projects, projectID)
		if len(projects) == 0 {
			delete(r.conns, connID)
		}
	}

	r.logger.Debug("left room", "project_id", projectID, "conn_id", connID)
}

// MembersOf returns a snapshot of the room's current members. The copy lets
// callers iterate without holding the registry lock during delivery.
func (r *Registry) MembersOf(projectID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[projectID]
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	return out
}

// IsMember reports whether the connection currently belongs to the room.
// The session protocol checks this before accepting any room mutation.
func (r *Registry) IsMember(conn Conn, projectID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[projectID][conn.ID()]
	return ok
}

// MemberOf returns the membership entry for the connection in the room.
func (r *Registry) MemberOf(conn Conn, projectID string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.rooms[projectID][conn.ID()]
	return m, ok
}
