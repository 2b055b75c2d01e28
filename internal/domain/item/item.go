// Package item defines the merchant's catalog.
// This package is PURE and must NOT import any infrastructure packages.
package item

import "fmt"

// Effect is the single stat bonus an item grants.
type Effect string

const (
	EffectCritChance  Effect = "critChance"
	EffectMaxHealth   Effect = "maxHealth"
	EffectBlockChance Effect = "blockChance"
	EffectDodgeChance Effect = "dodgeChance"
)

// UnmarshalText rejects effect tags outside the catalog.
func (e *Effect) UnmarshalText(text []byte) error {
	switch v := Effect(text); v {
	case EffectCritChance, EffectMaxHealth, EffectBlockChance, EffectDodgeChance:
		*e = v
		return nil
	default:
		return fmt.Errorf("unknown item effect %q", string(text))
	}
}

// Item is a catalog entry. Copies held by a player are snapshots with Owned set.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Effect      Effect `json:"effect"`
	Owned       bool   `json:"owned"`
}

var catalog = []Item{
	{
		ID:          "luck_potion",
		Name:        "Luck Potion",
		Description: "Grants a 20% chance of a critical hit (2x damage).",
		Price:       12,
		Effect:      EffectCritChance,
	},
	{
		ID:          "vitality_potion",
		Name:        "Vitality Potion",
		Description: "Raises maximum health by 2.",
		Price:       12,
		Effect:      EffectMaxHealth,
	},
	{
		ID:          "shield",
		Name:        "Shield",
		Description: "10% chance to block 1 point of damage.",
		Price:       18,
		Effect:      EffectBlockChance,
	},
	{
		ID:          "boots",
		Name:        "Boots",
		Description: "10% chance to dodge an attack entirely.",
		Price:       25,
		Effect:      EffectDodgeChance,
	},
}

// Catalog returns a copy of the shop catalog in display order.
func Catalog() []Item {
	out := make([]Item, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Item, bool) {
	for _, it := range catalog {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Snapshot returns the copy stored on a player when the item is acquired.
func (i Item) Snapshot() Item {
	i.Owned = true
	return i
}
