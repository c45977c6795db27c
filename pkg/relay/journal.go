package relay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrJournalClosed is returned when dispatching to a closed journal.
var ErrJournalClosed = errors.New("journal: store is closed")

// JournalEntry is one appended dispatch, as read back from the log.
type JournalEntry struct {
	ID        string
	Event     string
	Payload   Payload
	CreatedAt time.Time
}

// JournalDispatcher appends event payloads to a local SQLite log. The
// target address is a file path, or ":memory:" for testing. The
// journal is an audit destination like any other target; it does not
// participate in delivery to other targets.
type JournalDispatcher struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewJournalDispatcher opens (or creates) the journal at path.
func NewJournalDispatcher(path string) (*JournalDispatcher, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	// WAL keeps concurrent readers cheap
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_event
		ON events(event)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create index: %w", err)
	}

	return &JournalDispatcher{db: db}, nil
}

// Dispatch implements Dispatcher by appending one row per emission.
func (d *JournalDispatcher) Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error {
	payload, err := json.Marshal(NewPayload(event, args, kwargs))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrJournalClosed
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO events (id, event, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), event, payload, time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// Entries returns the appended entries for an event key, oldest first.
func (d *JournalDispatcher) Entries(ctx context.Context, event string) ([]JournalEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrJournalClosed
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, event, payload, created_at FROM events
		WHERE event = ?
		ORDER BY created_at ASC, rowid ASC
	`, event)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var (
			entry     JournalEntry
			raw       []byte
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Event, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if err := json.Unmarshal(raw, &entry.Payload); err != nil {
			return nil, fmt.Errorf("journal: decode payload: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close implements io.Closer.
func (d *JournalDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}
