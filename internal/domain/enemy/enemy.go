// Package enemy defines the scripted roster of foes the player fights.
// This package is PURE and must NOT import any infrastructure packages.
package enemy

import "fmt"

// Ability is the special behaviour attached to an enemy.
// The set is closed: every use site switches over the constants below.
type Ability int

const (
	AbilityNone     Ability = iota
	AbilitySteal            // Goblin: steals 1-3 gold when it hits
	AbilityFury             // Ogre: flavour text when wounded
	AbilityDefend           // Living Armor: 20% chance to shave 1 damage
	AbilityTreasure         // Mimic: may drop a free item on defeat
	AbilityTimer            // Supreme Mage: grows stronger when the clock runs out
)

var abilityNames = map[Ability]string{
	AbilityNone:     "",
	AbilitySteal:    "steal",
	AbilityFury:     "fury",
	AbilityDefend:   "defend",
	AbilityTreasure: "treasure",
	AbilityTimer:    "timer",
}

// String returns the wire tag of the ability ("" for none).
func (a Ability) String() string {
	return abilityNames[a]
}

// MarshalText encodes the ability as its wire tag.
func (a Ability) MarshalText() ([]byte, error) {
	name, ok := abilityNames[a]
	if !ok {
		return nil, fmt.Errorf("unknown ability %d", int(a))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a wire tag. Unknown tags are rejected.
func (a *Ability) UnmarshalText(text []byte) error {
	s := string(text)
	for k, v := range abilityNames {
		if v == s {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown ability %q", s)
}

// Enemy is both a roster template and, once copied, a combat instance.
type Enemy struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Health      int     `json:"health"`
	MaxHealth   int     `json:"maxHealth"`
	Damage      int     `json:"damage"`
	Difficulty  int     `json:"difficulty"` // 1-6, same scale as question difficulty
	Ability     Ability `json:"specialAbility,omitempty"`
	Description string  `json:"description"`
	GoldReward  int     `json:"goldReward"`
	Image       string  `json:"image,omitempty"`
}

// IsAlive reports whether the enemy still has health left.
func (e Enemy) IsAlive() bool {
	return e.Health > 0
}

// TimerSeconds is the answer window granted against this enemy.
func (e Enemy) TimerSeconds() float64 {
	if e.Ability == AbilityTimer {
		return 10
	}
	return 15
}

const (
	DungeonSize    = 3 // indices 0-2
	FinalBossIndex = 5
	Count          = 6
)

var roster = [Count]Enemy{
	// Stage 1: the Dungeon
	{
		ID:          "skeleton",
		Name:        "Skeleton",
		Health:      4,
		MaxHealth:   4,
		Damage:      1,
		Difficulty:  1,
		Description: "A plain skeleton with no special abilities.",
		GoldReward:  5,
		Image:       "skeleton",
	},
	{
		ID:          "goblin",
		Name:        "Goblin",
		Health:      3,
		MaxHealth:   3,
		Damage:      1,
		Difficulty:  2,
		Ability:     AbilitySteal,
		Description: "A greedy goblin that steals gold whenever it lands a hit.",
		GoldReward:  7,
		Image:       "goblin",
	},
	{
		ID:          "ogre",
		Name:        "The Ogre",
		Health:      6,
		MaxHealth:   6,
		Damage:      2,
		Difficulty:  3,
		Ability:     AbilityFury,
		Description: "An ogre that flies into a rage when wounded.",
		GoldReward:  12,
		Image:       "ogre",
	},
	// Stage 2: the Throne Room
	{
		ID:          "living_armor",
		Name:        "Living Armor",
		Health:      4,
		MaxHealth:   4,
		Damage:      2,
		Difficulty:  4,
		Ability:     AbilityDefend,
		Description: "Enchanted armor with a 20% chance to deflect attacks.",
		GoldReward:  15,
		Image:       "armor",
	},
	{
		ID:          "mimic",
		Name:        "Mimic",
		Health:      5,
		MaxHealth:   5,
		Damage:      1,
		Difficulty:  5,
		Ability:     AbilityTreasure,
		Description: "A fake chest that pays out dangerous rewards when beaten.",
		GoldReward:  18,
		Image:       "mimic",
	},
	{
		ID:          "supreme_mage",
		Name:        "The Supreme Mage of Pythagoras' Divine Mathematics",
		Health:      8,
		MaxHealth:   8,
		Damage:      2,
		Difficulty:  6,
		Ability:     AbilityTimer,
		Description: "The final boss. His power grows with every second you waste.",
		GoldReward:  28,
		Image:       "mage",
	},
}

// Roster returns a copy of the full ordered roster.
func Roster() []Enemy {
	out := make([]Enemy, Count)
	copy(out, roster[:])
	return out
}

// At returns a fresh combat instance of the template at index i.
func At(i int) (Enemy, bool) {
	if i < 0 || i >= Count {
		return Enemy{}, false
	}
	return roster[i], true
}
