package engine

import (
	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/question"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// StartNextBattle advances the run to whatever comes after the current index:
// the next encounter, a merchant stop or victory.
func (e *Engine) StartNextBattle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startNextBattle()
}

// LeaveMerchant closes the shop and enters the Throne Room.
// A run that already reached the boss resumes at the boss.
func (e *Engine) LeaveMerchant() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.CurrentPhase = game.PhaseThrone
	if e.state.CurrentEnemyIndex >= enemy.FinalBossIndex {
		e.state.CurrentEnemyIndex = enemy.FinalBossIndex
	} else {
		e.state.CurrentEnemyIndex = enemy.DungeonSize
	}
	e.touch()
	e.startNextBattle()
}

// startNextBattle implements StartNextBattle. Caller holds mu.
func (e *Engine) startNextBattle() {
	idx := e.state.CurrentEnemyIndex

	switch e.state.CurrentPhase {
	case game.PhaseDungeon:
		if idx >= enemy.DungeonSize {
			e.state.CurrentPhase = game.PhaseMerchant
			e.openMerchant()
			return
		}

	case game.PhaseThrone:
		if idx >= enemy.Count {
			e.state.GameStatus = game.StatusVictory
			e.timer.Active = false
			e.touch()
			e.emit(events.EventTypeGameWon, "PLAYER", "", map[string]interface{}{
				"score": e.state.Player.Score,
				"gold":  e.state.Player.Gold,
			}, "The dungeon is cleared")
			metrics.Get().RecordOutcome(true)
			e.persist()
			return
		}
		if idx == enemy.FinalBossIndex && !e.state.VisitedFinalMerchant {
			e.state.VisitedFinalMerchant = true
			e.openMerchant()
			return
		}

	default:
		return
	}

	foe, ok := enemy.At(idx)
	if !ok {
		e.logger.Warn("startNextBattle: no enemy at index, ignoring")
		return
	}
	e.enterCombat(foe)
}

// openMerchant shows the shop and fully heals the hero. Caller holds mu.
func (e *Engine) openMerchant() {
	e.state.GameStatus = game.StatusMerchant
	e.state.Player.Heal()
	e.touch()

	e.emit(events.EventTypeMerchantOpened, "PLAYER", "", map[string]interface{}{
		"gold":  e.state.Player.Gold,
		"index": e.state.CurrentEnemyIndex,
	}, "Merchant opened")
	e.persist()
}

// enterCombat starts an encounter with a fresh copy of foe. Caller holds mu.
func (e *Engine) enterCombat(foe enemy.Enemy) {
	q := question.Generate(e.rng, foe.Difficulty)

	e.state.CurrentEnemy = &foe
	e.state.GameStatus = game.StatusCombat
	e.state.CurrentQuestion = &q
	e.state.CombatLog = []string{"You encountered " + foe.Name + "!"}
	e.timer = game.TimerFor(foe)
	e.touch()

	e.emit(events.EventTypeEnemyEncountered, foe.ID, "PLAYER", map[string]interface{}{
		"index":      e.state.CurrentEnemyIndex,
		"difficulty": foe.Difficulty,
	}, "Encountered "+foe.Name)
	e.persist()
}

// schedulePacing starts the next battle after the pacing delay,
// unless the run changes generation first. Caller holds mu.
func (e *Engine) schedulePacing() {
	e.cancelPacing()

	gen := e.generation
	e.cancelPending = e.scheduler.AfterFunc(e.pacingDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if gen != e.generation {
			return
		}
		e.cancelPending = nil

		// Another command may already have moved the run on.
		if e.state.GameStatus != game.StatusCombat || e.state.CurrentEnemy != nil {
			return
		}
		e.startNextBattle()
	})
}

// cancelPacing drops the pending pacing callback, if any. Caller holds mu.
func (e *Engine) cancelPacing() {
	if e.cancelPending != nil {
		e.cancelPending()
		e.cancelPending = nil
	}
}
