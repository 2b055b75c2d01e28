// Package player defines the hero controlled by the person at the keyboard.
// This package is PURE and must NOT import any infrastructure packages.
package player

import (
	"github.com/pythagorasdungeon/server/internal/domain/item"
)

// Starting stats for a new run.
const (
	StartingHealth = 10
	StartingDamage = 1
	StartingScore  = 1000
)

// Player represents the state of the hero during a run.
type Player struct {
	Name      string `json:"name"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"maxHealth"`
	Damage    int    `json:"damage"`
	Gold      int    `json:"gold"`
	Score     int    `json:"score"`

	Items []item.Item `json:"items"` // Acquisition order

	// Cumulative percentages. Not clamped at 100.
	CritChance  int `json:"critChance"`
	BlockChance int `json:"blockChance"`
	DodgeChance int `json:"dodgeChance"`
}

// NewPlayer creates a fresh hero with default starting stats.
func NewPlayer() Player {
	return Player{
		Health:    StartingHealth,
		MaxHealth: StartingHealth,
		Damage:    StartingDamage,
		Score:     StartingScore,
		Items:     []item.Item{},
	}
}

// Clone returns a copy that shares no memory with p.
func (p Player) Clone() Player {
	items := make([]item.Item, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}

// Owns reports whether an item with id has been acquired this run.
func (p Player) Owns(id string) bool {
	for _, it := range p.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Grant stores a snapshot of it and applies its stat effect.
func (p *Player) Grant(it item.Item) {
	p.Items = append(p.Items, it.Snapshot())

	switch it.Effect {
	case item.EffectCritChance:
		p.CritChance += 20
	case item.EffectMaxHealth:
		p.MaxHealth += 2
		p.Health += 2
	case item.EffectBlockChance:
		p.BlockChance += 10
	case item.EffectDodgeChance:
		p.DodgeChance += 10
	}
}

// TakeDamage lowers health, never below zero.
func (p *Player) TakeDamage(dmg int) {
	p.Health -= dmg
	if p.Health < 0 {
		p.Health = 0
	}
}

// LoseScore applies a score penalty, never below zero.
func (p *Player) LoseScore(n int) {
	p.Score -= n
	if p.Score < 0 {
		p.Score = 0
	}
}

// LoseGold removes gold, never below zero.
func (p *Player) LoseGold(n int) {
	p.Gold -= n
	if p.Gold < 0 {
		p.Gold = 0
	}
}

// Heal restores the hero to full health.
func (p *Player) Heal() {
	p.Health = p.MaxHealth
}

// IsDead reports whether the run is lost.
func (p Player) IsDead() bool {
	return p.Health <= 0
}
