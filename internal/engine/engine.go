package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/question"
	"github.com/pythagorasdungeon/server/internal/domain/rules"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
)

const (
	DefaultPacingDelay  = 2 * time.Second
	DefaultSaveTimeout  = 2 * time.Second
	DefaultTickInterval = 100 * time.Millisecond
)

// Saver persists one run together with its countdown.
// *storage.SaveGame satisfies it.
type Saver interface {
	Save(ctx context.Context, state game.GameState, timer game.BossTimer) error
	Load(ctx context.Context) (game.Saved, bool)
	Clear(ctx context.Context) error
}

// Snapshot is a deep copy of everything the views render.
// Revision increases on every mutation, including ticks.
type Snapshot struct {
	GameState game.GameState `json:"gameState"`
	BossTimer game.BossTimer `json:"bossTimer"`
	Revision  uint64         `json:"revision"`
}

// Engine is the single source of truth for a run.
// All exported methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	state game.GameState
	timer game.BossTimer

	saver     Saver
	eventLog  *events.EventLog
	logger    *logger.Logger
	rng       rules.Roller
	scheduler Scheduler
	ticker    *Ticker

	pacingDelay  time.Duration
	saveTimeout  time.Duration
	tickInterval time.Duration

	// generation identifies the current run; deferred work bound to an older one is dropped.
	generation    uint64
	cancelPending func() bool
	revision      uint64

	startOnce sync.Once
	closeOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoller replaces the random source.
func WithRoller(r rules.Roller) Option {
	return func(e *Engine) { e.rng = r }
}

// WithScheduler replaces the clock used for the pacing delay.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithPacingDelay sets the pause between a kill and the next encounter.
func WithPacingDelay(d time.Duration) Option {
	return func(e *Engine) { e.pacingDelay = d }
}

// WithTickInterval sets how often the countdown steps once Start is called.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// WithSaveTimeout bounds each persistence call.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) { e.saveTimeout = d }
}

// NewEngine restores the last saved run or starts a fresh one.
// saver and eventLog may be nil.
func NewEngine(saver Saver, eventLog *events.EventLog, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		saver:        saver,
		eventLog:     eventLog,
		logger:       log,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		scheduler:    RealScheduler{},
		pacingDelay:  DefaultPacingDelay,
		saveTimeout:  DefaultSaveTimeout,
		tickInterval: DefaultTickInterval,
		timer:        game.InactiveTimer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ticker = NewTicker(e, e.tickInterval, log)

	e.mu.Lock()
	defer e.mu.Unlock()

	if saved, ok := e.load(); ok {
		e.state = saved.GameState
		e.timer = saved.BossTimer
		if e.state.SessionID == "" {
			e.state.SessionID = uuid.NewString()
		}
		e.logger.Info(fmt.Sprintf("Resumed run %s (status=%s, enemy=%d)", e.state.SessionID, e.state.GameStatus, e.state.CurrentEnemyIndex))
		e.resume()
	} else {
		e.state = e.CreateNewGame()
		e.logger.Info("No usable save found. Fresh run " + e.state.SessionID)
	}
	return e
}

// resume repairs states that were saved in the middle of a transition.
func (e *Engine) resume() {
	if e.state.GameStatus != game.StatusCombat {
		return
	}
	switch {
	case e.state.CurrentEnemy == nil:
		// Saved during the pause after a kill: the next battle was never started.
		e.startNextBattle()
	case e.state.CurrentQuestion == nil:
		q := question.Generate(e.rng, e.state.CurrentEnemy.Difficulty)
		e.state.CurrentQuestion = &q
		e.touch()
	}
}

// Start spawns the countdown ticker. Calls after the first do nothing.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.logger.Info("Starting Pythagoras Dungeon engine...")
		go e.ticker.Start(ctx)
	})
}

// Close stops the ticker and drops any pending pacing callback.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.ticker.Stop()

		e.mu.Lock()
		e.generation++
		e.cancelPacing()
		e.mu.Unlock()

		e.logger.Info("Engine closed.")
	})
}

// CreateNewGame returns the state of a fresh run. It does not install it.
func (e *Engine) CreateNewGame() game.GameState {
	return game.NewGameState(uuid.NewString())
}

// GameState returns a deep copy of the current run.
func (e *Engine) GameState() game.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// BossTimer returns a copy of the countdown.
func (e *Engine) BossTimer() game.BossTimer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer
}

// Snapshot returns the run, the countdown and the revision in one consistent read.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		GameState: e.state.Clone(),
		BossTimer: e.timer,
		Revision:  e.revision,
	}
}

// Redacted returns a copy of s without the answer to the current question,
// for snapshots that leave the process.
func (s Snapshot) Redacted() Snapshot {
	if q := s.GameState.CurrentQuestion; q != nil {
		hidden := *q
		hidden.Answer = 0
		s.GameState.CurrentQuestion = &hidden
	}
	return s
}

// Revision returns the mutation counter.
func (e *Engine) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// SessionID returns the identifier of the current run.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SessionID
}

// SetPlayerName renames the hero.
func (e *Engine) SetPlayerName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Player.Name = name
	e.touch()
	e.persist()
}

// StartGame leaves the menu and starts the first encounter.
func (e *Engine) StartGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.GameStatus = game.StatusPlaying
	e.emit(events.EventTypeGameStarted, "PLAYER", "", map[string]interface{}{
		"name": e.state.Player.Name,
	}, "Run started")
	e.startNextBattle()
}

// ResetGame deletes the save and installs a fresh run in the menu.
// A pacing callback scheduled by the previous run becomes a no-op.
func (e *Engine) ResetGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.state.SessionID

	if e.saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
		if err := e.saver.Clear(ctx); err != nil {
			e.logger.Error("Failed to clear save: " + err.Error())
		}
		cancel()
	}

	e.generation++
	e.cancelPacing()

	e.state = e.CreateNewGame()
	e.timer = game.InactiveTimer()
	e.touch()

	e.emit(events.EventTypeGameReset, "PLAYER", previous, nil, "New session "+e.state.SessionID)
}

// touch marks the state as changed for pollers. Caller holds mu.
func (e *Engine) touch() {
	e.revision++
}

// persist saves the run. Failures are logged and never abort the command. Caller holds mu.
func (e *Engine) persist() {
	if e.saver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	if err := e.saver.Save(ctx, e.state, e.timer); err != nil {
		e.logger.Error("Save failed, continuing without persistence: " + err.Error())
	}
}

func (e *Engine) load() (game.Saved, bool) {
	if e.saver == nil {
		return game.Saved{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()
	return e.saver.Load(ctx)
}

// emit records a transition in the event log and the console. Caller holds mu.
func (e *Engine) emit(t events.EventType, actorID, targetID string, payload map[string]interface{}, details string) {
	if e.eventLog != nil {
		e.eventLog.Append(events.GameEvent{
			SessionID: e.state.SessionID,
			Type:      t,
			ActorID:   actorID,
			TargetID:  targetID,
			Payload:   payload,
		})
	}
	e.logger.Event(string(t), actorID, details)
}
