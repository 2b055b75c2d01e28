package player

import (
	"testing"

	"github.com/pythagorasdungeon/server/internal/domain/item"
)

func TestGrantAppliesEffect(t *testing.T) {
	tests := []struct {
		id     string
		assert func(p Player) bool
	}{
		{"luck_potion", func(p Player) bool { return p.CritChance == 20 }},
		{"vitality_potion", func(p Player) bool { return p.MaxHealth == 12 && p.Health == 12 }},
		{"shield", func(p Player) bool { return p.BlockChance == 10 }},
		{"boots", func(p Player) bool { return p.DodgeChance == 10 }},
	}

	for _, tt := range tests {
		p := NewPlayer()
		it, ok := item.Lookup(tt.id)
		if !ok {
			t.Fatalf("missing catalog item %s", tt.id)
		}
		p.Grant(it)

		if !tt.assert(p) {
			t.Errorf("%s: effect not applied: %+v", tt.id, p)
		}
		if !p.Owns(tt.id) || !p.Items[0].Owned {
			t.Errorf("%s: not recorded as owned", tt.id)
		}
	}
}

func TestFloors(t *testing.T) {
	p := NewPlayer()
	p.TakeDamage(25)
	p.LoseScore(5000)
	p.LoseGold(3)

	if p.Health != 0 || p.Score != 0 || p.Gold != 0 {
		t.Errorf("expected all floors at zero, got health=%d score=%d gold=%d", p.Health, p.Score, p.Gold)
	}
	if !p.IsDead() {
		t.Errorf("expected player dead at 0 health")
	}
}

func TestCatalogIsNotShared(t *testing.T) {
	p := NewPlayer()
	boots, _ := item.Lookup("boots")
	p.Grant(boots)

	fresh, _ := item.Lookup("boots")
	if fresh.Owned {
		t.Errorf("granting an item mutated the catalog")
	}
	if NewPlayer().Owns("boots") {
		t.Errorf("ownership leaked into a new player")
	}
}

func TestQueriesWorkOnCopies(t *testing.T) {
	p := NewPlayer()
	shield, _ := item.Lookup("shield")
	p.Grant(shield)

	if !p.Clone().Owns("shield") {
		t.Errorf("a clone should report the items of its original")
	}
	if NewPlayer().IsDead() {
		t.Errorf("a fresh hero is alive")
	}

	byName := map[string]Player{"hero": p}
	if !byName["hero"].Owns("shield") || byName["hero"].IsDead() {
		t.Errorf("queries on a map value disagree with the player")
	}
}
