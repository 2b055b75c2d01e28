package engine

import (
	"fmt"

	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/item"
	"github.com/pythagorasdungeon/server/internal/domain/question"
	"github.com/pythagorasdungeon/server/internal/domain/rules"
	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// SubmitAnswer resolves one round of combat.
// It returns whether value was correct, and false without effect when no
// encounter is live.
func (e *Engine) SubmitAnswer(value int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.CurrentQuestion == nil || e.state.CurrentEnemy == nil {
		return false
	}
	if e.state.GameStatus != game.StatusCombat {
		return false
	}

	correct := value == e.state.CurrentQuestion.Answer
	metrics.Get().RecordAnswer(correct)

	if correct {
		e.playerAttack()
	} else {
		dealt := e.enemyAttack()
		e.emit(events.EventTypeAnswerWrong, e.state.CurrentEnemy.ID, "PLAYER", map[string]interface{}{
			"answer":   value,
			"expected": e.state.CurrentQuestion.Answer,
			"damage":   dealt,
		}, fmt.Sprintf("Wrong answer %d to %s", value, e.state.CurrentQuestion.Question))
	}

	switch {
	case !e.state.CurrentEnemy.IsAlive():
		e.enemyDefeated()
	case e.state.Player.IsDead():
		e.playerDefeated()
	default:
		e.timer.Reset()
		e.nextQuestion()
	}

	e.touch()
	e.persist()
	return correct
}

// playerAttack applies a correct answer to the current enemy. Caller holds mu.
func (e *Engine) playerAttack() {
	foe := e.state.CurrentEnemy
	hit := rules.ResolvePlayerAttack(e.rng, e.state.Player, *foe)

	if hit.Defended {
		e.state.Log(foe.Name + " defended the attack!")
	}

	foe.Health -= hit.Damage

	crit := ""
	if hit.Critical {
		crit = " (CRITICAL!)"
	}
	e.state.Log(fmt.Sprintf("You dealt %d damage%s!", hit.Damage, crit))

	if foe.Ability == enemy.AbilityFury && foe.IsAlive() {
		e.state.Log(foe.Name + " became furious!")
	}

	e.emit(events.EventTypeAnswerCorrect, "PLAYER", foe.ID, map[string]interface{}{
		"damage":   hit.Damage,
		"critical": hit.Critical,
		"defended": hit.Defended,
	}, fmt.Sprintf("Hit %s for %d (hp %d)", foe.Name, hit.Damage, foe.Health))
}

// enemyAttack applies one hit by the current enemy and returns the damage dealt.
// Shared by wrong answers and timeouts. Caller holds mu.
func (e *Engine) enemyAttack() int {
	foe := e.state.CurrentEnemy
	hit := rules.ResolveEnemyAttack(e.rng, e.state.Player, *foe)

	if hit.Dodged {
		e.state.Log("You dodged the attack!")
		return 0
	}
	if hit.Blocked {
		e.state.Log("You blocked part of the attack!")
	}

	e.state.Player.TakeDamage(hit.Damage)
	e.state.Player.LoseScore(rules.ScorePenalty)
	e.state.Log(fmt.Sprintf("%s dealt %d damage!", foe.Name, hit.Damage))

	if foe.Ability == enemy.AbilitySteal {
		e.state.Player.LoseGold(hit.Stolen)
		e.state.Log(fmt.Sprintf("%s stole %d coins!", foe.Name, hit.Stolen))
	}
	return hit.Damage
}

// enemyDefeated pays out the kill and schedules the next encounter. Caller holds mu.
func (e *Engine) enemyDefeated() {
	foe := *e.state.CurrentEnemy

	e.state.Player.Gold += foe.GoldReward
	e.state.Log(foe.Name + " was defeated!")
	e.state.Log(fmt.Sprintf("You earned %d gold coins!", foe.GoldReward))

	earned := foe.GoldReward
	if foe.Ability == enemy.AbilityTreasure {
		earned += e.dropTreasure(foe)
	}

	e.state.CurrentEnemyIndex++
	e.timer.Active = false
	e.state.CurrentEnemy = nil
	e.state.CurrentQuestion = nil

	metrics.Get().RecordEnemyDefeated()
	e.emit(events.EventTypeEnemyDefeated, foe.ID, "PLAYER", map[string]interface{}{
		"gold":  earned,
		"index": e.state.CurrentEnemyIndex,
	}, foe.Name+" defeated")

	e.schedulePacing()
}

// dropTreasure rolls the Mimic's loot: a free item the hero does not own yet,
// or a handful of gold when nothing drops. It returns the bonus gold. Caller holds mu.
func (e *Engine) dropTreasure(foe enemy.Enemy) int {
	var available []item.Item
	for _, it := range item.Catalog() {
		if !e.state.Player.Owns(it.ID) {
			available = append(available, it)
		}
	}

	if len(available) > 0 && e.rng.Float64() < rules.TreasureDropChance {
		loot := available[e.rng.IntN(len(available))]
		e.state.Player.Grant(loot)
		e.state.Log(fmt.Sprintf("The %s dropped: %s! You got a free item.", foe.Name, loot.Name))
		e.emit(events.EventTypeItemDropped, foe.ID, loot.ID, map[string]interface{}{
			"effect": string(loot.Effect),
		}, loot.Name+" dropped")
		return 0
	}

	bonus := rules.TreasureBonus(e.rng)
	e.state.Player.Gold += bonus
	e.state.Log(fmt.Sprintf("The %s had no items, but you found %d gold coins.", foe.Name, bonus))
	return bonus
}

// playerDefeated ends the run. Caller holds mu.
func (e *Engine) playerDefeated() {
	e.state.GameStatus = game.StatusDefeat
	e.timer.Active = false

	metrics.Get().RecordOutcome(false)
	e.emit(events.EventTypeGameLost, "PLAYER", e.state.CurrentEnemy.ID, map[string]interface{}{
		"score": e.state.Player.Score,
		"index": e.state.CurrentEnemyIndex,
	}, "The hero has fallen")
}

// nextQuestion draws a new question at the current enemy's difficulty. Caller holds mu.
func (e *Engine) nextQuestion() {
	q := question.Generate(e.rng, e.state.CurrentEnemy.Difficulty)
	e.state.CurrentQuestion = &q
}
