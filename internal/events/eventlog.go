// Package events provides the append-only history of everything the engine did.
// The combat log on GameState is for the player; this log is for replays and recaps.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeGameStarted      EventType = "GAME_STARTED"
	EventTypeEnemyEncountered EventType = "ENEMY_ENCOUNTERED"
	EventTypeAnswerCorrect    EventType = "ANSWER_CORRECT"
	EventTypeAnswerWrong      EventType = "ANSWER_WRONG"
	EventTypeEnemyDefeated    EventType = "ENEMY_DEFEATED"
	EventTypeItemPurchased    EventType = "ITEM_PURCHASED"
	EventTypeItemDropped      EventType = "ITEM_DROPPED"
	EventTypeTimerExpired     EventType = "TIMER_EXPIRED"
	EventTypeBossEmpowered    EventType = "BOSS_EMPOWERED"
	EventTypeMerchantOpened   EventType = "MERCHANT_OPENED"
	EventTypeGameWon          EventType = "GAME_WON"
	EventTypeGameLost         EventType = "GAME_LOST"
	EventTypeGameReset        EventType = "GAME_RESET"
)

// GameEvent represents an immutable record of an engine transition.
type GameEvent struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	ActorID   string                 `json:"actor_id"`  // "PLAYER" or an enemy ID
	TargetID  string                 `json:"target_id"` // optional
	Payload   map[string]interface{} `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events.
// A persister, when present, is fed by one writer goroutine in append order.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	queue     chan GameEvent
	closed    bool

	errMu   sync.Mutex
	onError func(error)

	pendingMu sync.Mutex
	drained   *sync.Cond
	pending   int

	writerDone chan struct{}
}

// QueueSize bounds the events waiting for the persister; Append blocks beyond it.
const QueueSize = 256

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	el := &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
	el.drained = sync.NewCond(&el.pendingMu)
	if persister != nil {
		el.queue = make(chan GameEvent, QueueSize)
		el.writerDone = make(chan struct{})
		go el.writer()
	}
	return el
}

// OnPersistError registers a callback for write-through failures.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.errMu.Lock()
	el.onError = fn
	el.errMu.Unlock()
}

// Append adds a new event to the log, filling ID and Timestamp when empty.
// After Close the event is kept in memory only.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	el.events = append(el.events, event)
	if el.queue != nil && !el.closed {
		el.pendingMu.Lock()
		el.pending++
		el.pendingMu.Unlock()
		el.queue <- event
	}
	return event
}

// writer persists queued events one at a time. It never takes mu.
func (el *EventLog) writer() {
	defer close(el.writerDone)

	for e := range el.queue {
		if err := el.persister.Append(e); err != nil {
			el.errMu.Lock()
			onError := el.onError
			el.errMu.Unlock()
			if onError != nil {
				onError(err)
			}
		}

		el.pendingMu.Lock()
		el.pending--
		if el.pending == 0 {
			el.drained.Broadcast()
		}
		el.pendingMu.Unlock()
	}
}

// Flush blocks until every event appended so far has reached the persister.
func (el *EventLog) Flush() {
	el.pendingMu.Lock()
	for el.pending > 0 {
		el.drained.Wait()
	}
	el.pendingMu.Unlock()
}

// Close drains the queue and stops the writer. Safe to call more than once.
func (el *EventLog) Close() {
	el.mu.Lock()
	if el.queue == nil {
		el.mu.Unlock()
		return
	}
	if !el.closed {
		el.closed = true
		close(el.queue)
	}
	el.mu.Unlock()

	<-el.writerDone
}

// BySession returns all events of one run, oldest first.
func (el *EventLog) BySession(sessionID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}

// ByType returns all events of one type, oldest first.
func (el *EventLog) ByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// Len returns the number of events recorded.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
