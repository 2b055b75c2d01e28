// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no record.
var ErrNotFound = errors.New("record not found")

// KeyValueStore is the durable keyed store behind the save game.
type KeyValueStore interface {
	// Get returns the value under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// GameEvent mirrors the engine event structure for persistence.
// The engine should NOT import this; the binaries translate.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetBySession retrieves all events of one run, oldest first.
	GetBySession(ctx context.Context, sessionID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type across runs.
	GetByEventType(ctx context.Context, eventType string) ([]GameEvent, error)
}
