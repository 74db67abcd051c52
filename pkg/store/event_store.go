// Package store persists the audit trail in SQLite. The in-memory engines
// stay the source of truth; the store is the durable, replayable record of
// every mutation.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veristake/veristake/pkg/audit"
)

// EventStore is an append-only SQLite log of audit events.
type EventStore struct {
	db *sql.DB
}

// Open opens (or creates) the event store at path. Use ":memory:" in tests.
func Open(path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	s := &EventStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewEventStore wraps an existing database handle.
func NewEventStore(db *sql.DB) (*EventStore, error) {
	s := &EventStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EventStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		payload JSON
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_events(entity_id);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Append writes one event.
func (s *EventStore) Append(ctx context.Context, e audit.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, event_type, action, entity_id, timestamp, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, string(e.Type), e.Action, e.EntityID, e.Timestamp.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ByEntity returns up to limit events for one entity, oldest first.
func (s *EventStore) ByEntity(ctx context.Context, entityID string, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, event_type, action, entity_id, timestamp, payload
		FROM audit_events
		WHERE entity_id = ?
		ORDER BY timestamp, id
		LIMIT ?`, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the newest limit events, newest first.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, event_type, action, entity_id, timestamp, payload
		FROM audit_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Count returns the total number of stored events.
func (s *EventStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&n)
	return n, err
}

// Close closes the underlying handle.
func (s *EventStore) Close() error {
	return s.db.Close()
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var out []audit.Event
	for rows.Next() {
		var (
			e       audit.Event
			typ     string
			ts      time.Time
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &typ, &e.Action, &e.EntityID, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = audit.EventType(typ)
		e.Timestamp = ts
		if payload.Valid && payload.String != "" && payload.String != "null" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
