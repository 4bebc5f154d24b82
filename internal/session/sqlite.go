// ABOUTME: SQLite implementation of the session Store using modernc.org/sqlite
// ABOUTME: Provides thread/message persistence with automatic schema creation

package session

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
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path. The schema is
// automatically created if it doesn't exist; parent directories are created
// if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "session-store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
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

	logger.Info("session store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			channel TEXT NOT NULL,
			external_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_threads_channel_external
			ON threads(channel, external_id);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (thread_id) REFERENCES threads(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread_created
			ON messages(thread_id, created_at);

		CREATE TABLE IF NOT EXISTS provider_state (
			thread_id TEXT NOT NULL,
			provider_key TEXT NOT NULL,
			state_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (thread_id, provider_key)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// EnsureThread returns the thread for (channel, externalID), creating it on
// first use.
func (s *SQLiteStore) EnsureThread(ctx context.Context, channel, externalID string) (*Thread, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, channel, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(channel, external_id) DO UPDATE SET updated_at = excluded.updated_at
	`, uuid.New().String(), channel, externalID, now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting thread: %w", err)
	}

	var t Thread
	err = s.db.QueryRowContext(ctx, `
		SELECT id, channel, external_id, created_at, updated_at
		FROM threads WHERE channel = ? AND external_id = ?
	`, channel, externalID).Scan(&t.ID, &t.Channel, &t.ExternalID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}

	return &t, nil
}

// AppendMessage records a message, assigning ID and CreatedAt when unset.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	if msg.ThreadID == "" {
		return fmt.Errorf("message thread_id is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, role, sender, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ThreadID, msg.Role, msg.Sender, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE threads SET updated_at = ? WHERE id = ?`, msg.CreatedAt, msg.ThreadID)
	if err != nil {
		return fmt.Errorf("touching thread: %w", err)
	}

	return nil
}

// History returns the most recent messages in chronological order.
func (s *SQLiteStore) History(ctx context.Context, threadID string, limit int) ([]*Message, error) {
	query := `
		SELECT id, thread_id, role, sender, content, created_at
		FROM (
			SELECT id, thread_id, role, sender, content, created_at
			FROM messages WHERE thread_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, id ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite: negative limit means unlimited
	}

	rows, err := s.db.QueryContext(ctx, query, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// SetProviderState stores opaque state for (threadID, providerKey).
func (s *SQLiteStore) SetProviderState(ctx context.Context, threadID, providerKey string, state map[string]string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling provider state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO provider_state (thread_id, provider_key, state_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id, provider_key) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, threadID, providerKey, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving provider state: %w", err)
	}
	return nil
}

// GetProviderState returns previously stored state, or nil when absent.
func (s *SQLiteStore) GetProviderState(ctx context.Context, threadID, providerKey string) (map[string]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT state_json FROM provider_state
		WHERE thread_id = ? AND provider_key = ?
	`, threadID, providerKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading provider state: %w", err)
	}

	var state map[string]string
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("unmarshaling provider state: %w", err)
	}
	return state, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
