package game

import (
	"math"

	"github.com/pythagorasdungeon/server/internal/domain/enemy"
)

// TimerStep is how much time one tick removes from the countdown.
const TimerStep = 0.1

// BossTimer is the per-encounter answer countdown.
type BossTimer struct {
	Active   bool    `json:"active"`
	TimeLeft float64 `json:"timeLeft"`
	MaxTime  float64 `json:"maxTime"`
	IsBoss   bool    `json:"isBoss,omitempty"`
}

// InactiveTimer is the zeroed timer used outside of combat.
func InactiveTimer() BossTimer {
	return BossTimer{Active: false, TimeLeft: 0, MaxTime: 10}
}

// TimerFor starts a fresh countdown for an encounter with e.
func TimerFor(e enemy.Enemy) BossTimer {
	d := e.TimerSeconds()
	return BossTimer{
		Active:   true,
		TimeLeft: d,
		MaxTime:  d,
		IsBoss:   e.Ability == enemy.AbilityTimer,
	}
}

// Step removes one TimerStep, clamped at zero and rounded to one decimal.
// It returns true exactly when this step took the timer from above zero to zero.
func (t *BossTimer) Step() bool {
	prev := t.TimeLeft
	next := math.Round((t.TimeLeft-TimerStep)*10) / 10
	if next < 0 {
		next = 0
	}
	t.TimeLeft = next
	return prev > 0 && next == 0
}

// Reset refills the countdown.
func (t *BossTimer) Reset() {
	t.TimeLeft = t.MaxTime
}

// Saved is the unit of persistence: one run and its clock.
type Saved struct {
	GameState GameState `json:"gameState"`
	BossTimer BossTimer `json:"bossTimer"`
}
