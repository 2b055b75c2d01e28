// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/player"
)

// Roller is the source of randomness for every roll in the game.
// *math/rand/v2.Rand satisfies it.
type Roller interface {
	Float64() float64 // [0, 1)
	IntN(n int) int   // [0, n)
}

const (
	ScorePenalty       = 50  // per wrong answer or timeout hit
	DefendChance       = 0.2 // Living Armor
	TreasureDropChance = 0.6 // Mimic
	CritMultiplier     = 2
)

// Chance rolls a percentage. 0 never succeeds, 100 or more always does.
func Chance(r Roller, pct int) bool {
	return r.Float64() < float64(pct)/100
}

// Between returns a uniform integer in [lo, hi].
func Between(r Roller, lo, hi int) int {
	return r.IntN(hi-lo+1) + lo
}

// PlayerAttack is the outcome of a correct answer.
type PlayerAttack struct {
	Damage   int
	Critical bool
	Defended bool
}

// ResolvePlayerAttack rolls a hit against e.
// Rolls in order: critical, then the enemy's defend check if it has one.
func ResolvePlayerAttack(r Roller, p player.Player, e enemy.Enemy) PlayerAttack {
	out := PlayerAttack{Damage: p.Damage}

	if Chance(r, p.CritChance) {
		out.Damage *= CritMultiplier
		out.Critical = true
	}

	if e.Ability == enemy.AbilityDefend && r.Float64() < DefendChance {
		out.Damage = max(0, out.Damage-1)
		out.Defended = true
	}

	return out
}

// EnemyAttack is the outcome of a wrong answer or a timeout.
type EnemyAttack struct {
	Dodged  bool
	Blocked bool
	Damage  int
	Stolen  int // gold the enemy tries to take; the purse floors at zero
}

// ResolveEnemyAttack rolls an attack by e.
// Rolls in order: dodge, block, then the steal amount for thieves.
// A dodge ends the attack before any other roll.
func ResolveEnemyAttack(r Roller, p player.Player, e enemy.Enemy) EnemyAttack {
	if Chance(r, p.DodgeChance) {
		return EnemyAttack{Dodged: true}
	}

	out := EnemyAttack{Damage: e.Damage}
	if Chance(r, p.BlockChance) {
		out.Damage = max(0, out.Damage-1)
		out.Blocked = true
	}

	if e.Ability == enemy.AbilitySteal {
		out.Stolen = Between(r, 1, 3)
	}

	return out
}

// TreasureBonus is the consolation gold when the Mimic drops nothing.
func TreasureBonus(r Roller) int {
	return Between(r, 3, 7)
}
