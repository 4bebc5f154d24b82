// ABOUTME: Persistent agent memory backed by SQLite
// ABOUTME: Stores free-text notes per thread with substring search

package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Note is one remembered fact, scoped to a thread.
type Note struct {
	ID        string
	ThreadID  string
	Content   string
	CreatedAt time.Time
}

// Store persists agent memory notes across sessions.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) a memory database at the given path.
func NewStore(path string) (*Store, error) {
	logger := slog.Default().With("component", "memory-store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_thread ON notes(thread_id, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("memory store initialized", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Save records a note and returns it with ID and timestamp assigned.
func (s *Store) Save(ctx context.Context, threadID, content string) (*Note, error) {
	if content == "" {
		return nil, fmt.Errorf("note content is required")
	}

	note := &Note{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, thread_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, note.ID, note.ThreadID, note.Content, note.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting note: %w", err)
	}

	return note, nil
}

// Search returns notes in a thread whose content contains the query,
// most recent first.
func (s *Store) Search(ctx context.Context, threadID, query string) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, content, created_at
		FROM notes
		WHERE thread_id = ? AND content LIKE '%' || ? || '%'
		ORDER BY created_at DESC
	`, threadID, query)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// List returns all notes in a thread, most recent first.
func (s *Store) List(ctx context.Context, threadID string) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, content, created_at
		FROM notes
		WHERE thread_id = ?
		ORDER BY created_at DESC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// Delete removes a note by id. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanNotes(rows *sql.Rows) ([]*Note, error) {
	var notes []*Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.ThreadID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}
