package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------
// SQLiteSaveStore
// ---------------------------------------------------------

// SQLiteSaveStore implements KeyValueStore on the saves table.
type SQLiteSaveStore struct {
	db *sql.DB
}

func NewSQLiteSaveStore(db *sql.DB) *SQLiteSaveStore {
	return &SQLiteSaveStore{db: db}
}

func (s *SQLiteSaveStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE save_key = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read save %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (s *SQLiteSaveStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO saves (save_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(save_key) DO UPDATE SET
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now()); err != nil {
		return fmt.Errorf("failed to write save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSaveStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE save_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete save %s: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------
// SQLiteEventRepository
// ---------------------------------------------------------

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor_id, target_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType,
		event.ActorID, event.TargetID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType,
			&e.ActorID, &e.TargetID, &payloadStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySession(ctx context.Context, sessionID string) ([]GameEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, eventType string) ([]GameEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, target_id, payload FROM events WHERE event_type = ? ORDER BY timestamp ASC, rowid ASC`
	return r.getMany(ctx, query, eventType)
}

// Ensure the SQLite types implement the repository interfaces
var (
	_ KeyValueStore   = (*SQLiteSaveStore)(nil)
	_ EventRepository = (*SQLiteEventRepository)(nil)
)
