package engine

import (
	"strconv"

	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// BossEmpowerment is how much damage the final boss gains per timeout.
const BossEmpowerment = 1

// UpdateBossTimer steps the answer countdown once. Driven by the Ticker.
// The timeout fires exactly once, on the step that reaches zero.
func (e *Engine) UpdateBossTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.timer.Active {
		return
	}

	expired := e.timer.Step()
	metrics.Get().RecordTimerTick(expired)
	e.touch()

	if !expired {
		return
	}

	foe := e.state.CurrentEnemy
	if foe == nil {
		e.persist()
		return
	}

	if e.timer.IsBoss {
		foe.Damage += BossEmpowerment
		e.state.Log("The Supreme Mage grew more powerful!")
		e.emit(events.EventTypeBossEmpowered, foe.ID, "", map[string]interface{}{
			"damage": foe.Damage,
		}, "Boss damage is now "+strconv.Itoa(foe.Damage))
	} else {
		dealt := e.enemyAttack()
		e.state.Log("Time's up! The enemy attacked!")
		e.emit(events.EventTypeTimerExpired, foe.ID, "PLAYER", map[string]interface{}{
			"damage": dealt,
		}, "Timeout against "+foe.Name)

		if e.state.Player.IsDead() {
			e.playerDefeated()
			e.persist()
			return
		}
	}

	e.nextQuestion()
	e.timer.Reset()
	e.persist()
}
