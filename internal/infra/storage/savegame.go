package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/item"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// DefaultSaveKey is the record key the browser build stores under.
const DefaultSaveKey = "pythagorasDungeon_save"

var errUnrecognizedSave = errors.New("unrecognized save format")

// SaveGame is the persistence adapter of the engine: one record, one key.
type SaveGame struct {
	store  KeyValueStore
	key    string
	logger *logger.Logger
}

// NewSaveGame creates a save adapter over store. An empty key uses DefaultSaveKey.
func NewSaveGame(store KeyValueStore, key string, log *logger.Logger) *SaveGame {
	if key == "" {
		key = DefaultSaveKey
	}
	return &SaveGame{store: store, key: key, logger: log}
}

// Key returns the record key.
func (s *SaveGame) Key() string {
	return s.key
}

// Save writes the run and its clock as one record.
func (s *SaveGame) Save(ctx context.Context, state game.GameState, timer game.BossTimer) error {
	start := time.Now()

	data, err := json.Marshal(game.Saved{GameState: state, BossTimer: timer})
	if err == nil {
		err = s.store.Put(ctx, s.key, data)
	}
	if err != nil {
		err = fmt.Errorf("failed to save game: %w", err)
	}

	metrics.Get().RecordSave(time.Since(start), err)
	return err
}

// Load restores the last saved run. It returns false when there is no usable
// save; unreadable or corrupt records are logged and treated as absent.
func (s *SaveGame) Load(ctx context.Context) (game.Saved, bool) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Failed to read save: " + err.Error())
		}
		return game.Saved{}, false
	}

	saved, err := DecodeSave(data)
	if err != nil {
		s.logger.Warn("Ignoring corrupt save: " + err.Error())
		return game.Saved{}, false
	}
	return saved, true
}

// Clear removes the record.
func (s *SaveGame) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear save: %w", err)
	}
	return nil
}

// DecodeSave parses both record shapes:
// the current {gameState, bossTimer} envelope and the legacy bare GameState.
func DecodeSave(data []byte) (game.Saved, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return game.Saved{}, err
	}

	var out game.Saved

	if raw, ok := probe["gameState"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.GameState); err != nil {
			return game.Saved{}, fmt.Errorf("failed to decode gameState: %w", err)
		}
		out.BossTimer = game.InactiveTimer()
		if rawTimer, ok := probe["bossTimer"]; ok && !isNull(rawTimer) {
			if err := json.Unmarshal(rawTimer, &out.BossTimer); err != nil {
				return game.Saved{}, fmt.Errorf("failed to decode bossTimer: %w", err)
			}
		}
	} else {
		if _, ok := probe["player"]; !ok {
			return game.Saved{}, errUnrecognizedSave
		}
		if err := json.Unmarshal(data, &out.GameState); err != nil {
			return game.Saved{}, fmt.Errorf("failed to decode legacy save: %w", err)
		}
		// Legacy saves carried no clock; a mid-combat one gets a fresh countdown.
		gs := out.GameState
		if gs.CurrentEnemy != nil && gs.GameStatus == game.StatusCombat {
			out.BossTimer = game.TimerFor(*gs.CurrentEnemy)
		} else {
			out.BossTimer = game.InactiveTimer()
		}
	}

	if err := validate(&out.GameState); err != nil {
		return game.Saved{}, err
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// validate rejects states the views cannot render and fills nil slices.
func validate(gs *game.GameState) error {
	switch gs.CurrentPhase {
	case game.PhaseDungeon, game.PhaseThrone, game.PhaseMerchant, game.PhaseComplete:
	default:
		return fmt.Errorf("unknown phase %q", gs.CurrentPhase)
	}

	switch gs.GameStatus {
	case game.StatusMenu, game.StatusPlaying, game.StatusCombat,
		game.StatusMerchant, game.StatusVictory, game.StatusDefeat:
	default:
		return fmt.Errorf("unknown status %q", gs.GameStatus)
	}

	if gs.CurrentEnemyIndex < 0 || gs.CurrentEnemyIndex > enemy.Count {
		return fmt.Errorf("enemy index %d out of range", gs.CurrentEnemyIndex)
	}

	if gs.CombatLog == nil {
		gs.CombatLog = []string{}
	}
	if gs.Player.Items == nil {
		gs.Player.Items = []item.Item{}
	}
	return nil
}
