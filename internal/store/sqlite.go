// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides message/employee persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crewbase/chat-gateway/internal/permission"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path. The schema is
// created if it doesn't exist and parent directories are created as needed.
// Pass ":memory:" for an ephemeral store (used by tests).
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
//
// chat_messages.seq is a monotonic insert sequence: ListProjectMessages
// orders by it, so list order equals append order regardless of clock skew
// between rows created in the same millisecond.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS chat_messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			project_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			sender_email TEXT NOT NULL,
			sender_role TEXT NOT NULL,
			message TEXT NOT NULL,
			attachments TEXT NOT NULL DEFAULT '[]',
			is_pinned INTEGER NOT NULL DEFAULT 0,
			pinned_by TEXT,
			pinned_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK ((pinned_by IS NULL) = (pinned_at IS NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_project
			ON chat_messages(project_id, seq);

		CREATE TABLE IF NOT EXISTS employees (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL,
			flags_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (role IN ('BOSS', 'EMPLOYEE'))
		);

		CREATE INDEX IF NOT EXISTS idx_employees_email ON employees(email);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendMessage persists a message with a fresh server-assigned id.
// Client-supplied ids are never honored - the server is the sole allocator
// of real ids, which is what makes provisional-id reconciliation safe.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *ChatMessage) (*ChatMessage, error) {
	now := time.Now().UTC()

	stored := *msg
	stored.ID = uuid.New().String()
	stored.IsPinned = false
	stored.PinnedBy = nil
	stored.PinnedAt = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Attachments == nil {
		stored.Attachments = []string{}
	}

	attachments, err := json.Marshal(stored.Attachments)
	if err != nil {
		return nil, fmt.Errorf("encoding attachments: %w", err)
	}

	query := `
		INSERT INTO chat_messages
			(id, project_id, sender_id, sender_name, sender_email, sender_role,
			 message, attachments, is_pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		stored.ID,
		stored.ProjectID,
		stored.SenderID,
		stored.Sender.Name,
		stored.Sender.Email,
		stored.Sender.Role,
		stored.Message,
		string(attachments),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	s.logger.Debug("message appended", "message_id", stored.ID, "project_id", stored.ProjectID)
	return &stored, nil
}

// ListProjectMessages returns the project's messages in persisted order.
func (s *SQLiteStore) ListProjectMessages(ctx context.Context, projectID string) ([]*ChatMessage, error) {
	query := messageColumns + ` WHERE project_id = ? ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	messages := []*ChatMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

// GetMessage returns a single message or ErrNotFound.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*ChatMessage, error) {
	query := messageColumns + ` WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SetMessagePinned updates the pin state and audit pair in one transition.
func (s *SQLiteStore) SetMessagePinned(ctx context.Context, id string, pinned bool, by string) (*ChatMessage, error) {
	now := time.Now().UTC()

	var res sql.Result
	var err error
	if pinned {
		query := `
			UPDATE chat_messages
			SET is_pinned = 1, pinned_by = ?, pinned_at = ?, updated_at = ?
			WHERE id = ?
		`
		res, err = s.db.ExecContext(ctx, query, by, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), id)
	} else {
		query := `
			UPDATE chat_messages
			SET is_pinned = 0, pinned_by = NULL, pinned_at = NULL, updated_at = ?
			WHERE id = ?
		`
		res, err = s.db.ExecContext(ctx, query, now.Format(time.RFC3339Nano), id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating pin state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking pin update: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetMessage(ctx, id)
}

// DeleteMessage hard-deletes a message. Absent ids are a no-op success.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

// messageColumns is the shared SELECT prefix for message scans.
const messageColumns = `
	SELECT id, project_id, sender_id, sender_name, sender_email, sender_role,
	       message, attachments, is_pinned, pinned_by, pinned_at, created_at, updated_at
	FROM chat_messages`

// rowScanner abstracts *sql.Row and *sql.Rows for scanMessage.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*ChatMessage, error) {
	var (
		msg         ChatMessage
		attachments string
		pinnedBy    sql.NullString
		pinnedAt    sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&msg.ID,
		&msg.ProjectID,
		&msg.SenderID,
		&msg.Sender.Name,
		&msg.Sender.Email,
		&msg.Sender.Role,
		&msg.Message,
		&attachments,
		&msg.IsPinned,
		&pinnedBy,
		&pinnedAt,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	if err := json.Unmarshal([]byte(attachments), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("decoding attachments: %w", err)
	}
	if msg.Attachments == nil {
		msg.Attachments = []string{}
	}

	if pinnedBy.Valid {
		msg.PinnedBy = &pinnedBy.String
	}
	if pinnedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, pinnedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing pinned_at: %w", err)
		}
		msg.PinnedAt = &t
	}

	if msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if msg.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &msg, nil
}

// GetEmployee returns the identity record for the given id or ErrNotFound.
func (s *SQLiteStore) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	query := `
		SELECT id, name, email, role, flags_json, created_at, updated_at
		FROM employees WHERE id = ?
	`
	return s.scanEmployee(s.db.QueryRowContext(ctx, query, id))
}

// UpsertEmployee creates or replaces an employee record.
func (s *SQLiteStore) UpsertEmployee(ctx context.Context, emp *Employee) error {
	now := time.Now().UTC()
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = now
	}
	emp.UpdatedAt = now

	flags, err := json.Marshal(emp.Flags)
	if err != nil {
		return fmt.Errorf("encoding flags: %w", err)
	}

	query := `
		INSERT INTO employees (id, name, email, role, flags_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			flags_json = excluded.flags_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		emp.ID,
		emp.Name,
		emp.Email,
		string(emp.Role),
		string(flags),
		emp.CreatedAt.Format(time.RFC3339Nano),
		emp.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting employee: %w", err)
	}

	s.logger.Debug("employee upserted", "employee_id", emp.ID, "role", emp.Role)
	return nil
}

// ListEmployees returns every employee ordered by name.
func (s *SQLiteStore) ListEmployees(ctx context.Context) ([]*Employee, error) {
	query := `
		SELECT id, name, email, role, flags_json, created_at, updated_at
		FROM employees ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	employees := []*Employee{}
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return employees, nil
}

// AssignPermissions overwrites or merges an employee's flag set. This is the
// only mutation path for flags; the chat layer never writes them.
func (s *SQLiteStore) AssignPermissions(ctx context.Context, employeeID string, flags permission.FlagSet, merge bool) (*Employee, error) {
	emp, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if merge {
		emp.Flags = emp.Flags.Merge(flags)
	} else {
		emp.Flags = flags.Clone()
	}

	if err := s.UpsertEmployee(ctx, emp); err != nil {
		return nil, err
	}

	s.logger.Info("permissions assigned", "employee_id", employeeID, "merge", merge)
	return emp, nil
}

func (s *SQLiteStore) scanEmployee(row rowScanner) (*Employee, error) {
	var (
		emp       Employee
		role      string
		flagsJSON string
		createdAt string
		updatedAt string
	)

	err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &role, &flagsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning employee: %w", err)
	}

	emp.Role = permission.Role(role)
	if err := json.Unmarshal([]byte(flagsJSON), &emp.Flags); err != nil {
		return nil, fmt.Errorf("decoding flags: %w", err)
	}
	if emp.Flags == nil {
		emp.Flags = permission.FlagSet{}
	}

	if emp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if emp.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &emp, nil
}
