package rules

import (
	"testing"

	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/player"
)

// scripted replays fixed rolls; exhausted queues return the last value.
type scripted struct {
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scripted) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func TestChanceBounds(t *testing.T) {
	for _, f := range []float64{0, 0.25, 0.999999} {
		r := &scripted{floats: []float64{f}}
		if Chance(r, 0) {
			t.Errorf("0%% succeeded on roll %v", f)
		}
		if !Chance(r, 100) {
			t.Errorf("100%% failed on roll %v", f)
		}
		if !Chance(r, 140) {
			t.Errorf("140%% failed on roll %v", f)
		}
	}
}

func TestPlayerAttackCritical(t *testing.T) {
	skeleton, _ := enemy.At(0)
	p := player.NewPlayer()
	p.Damage = 3

	p.CritChance = 100
	got := ResolvePlayerAttack(&scripted{floats: []float64{0.99}}, p, skeleton)
	if !got.Critical || got.Damage != 6 {
		t.Errorf("crit 100%%: expected 6 critical damage, got %+v", got)
	}

	p.CritChance = 0
	got = ResolvePlayerAttack(&scripted{floats: []float64{0}}, p, skeleton)
	if got.Critical || got.Damage != 3 {
		t.Errorf("crit 0%%: expected 3 plain damage, got %+v", got)
	}
}

func TestPlayerAttackDefendFloorsAtZero(t *testing.T) {
	armor, _ := enemy.At(3)
	p := player.NewPlayer()

	// first roll: crit check (0% so ignored), second: defend succeeds
	got := ResolvePlayerAttack(&scripted{floats: []float64{0.1, 0.1}}, p, armor)
	if !got.Defended || got.Damage != 0 {
		t.Errorf("expected defended hit for 0, got %+v", got)
	}

	got = ResolvePlayerAttack(&scripted{floats: []float64{0.1, 0.5}}, p, armor)
	if got.Defended || got.Damage != 1 {
		t.Errorf("expected undefended hit for 1, got %+v", got)
	}
}

func TestEnemyAttack(t *testing.T) {
	ogre, _ := enemy.At(2)
	goblin, _ := enemy.At(1)

	tests := []struct {
		name   string
		foe    enemy.Enemy
		dodge  int
		block  int
		ints   []int
		expect EnemyAttack
	}{
		{"plain hit", ogre, 0, 0, nil, EnemyAttack{Damage: 2}},
		{"dodged", ogre, 100, 100, nil, EnemyAttack{Dodged: true}},
		{"blocked", ogre, 0, 100, nil, EnemyAttack{Damage: 1, Blocked: true}},
		{"goblin steals", goblin, 0, 0, []int{2}, EnemyAttack{Damage: 1, Stolen: 3}},
		{"goblin blocked to zero", goblin, 0, 100, []int{0}, EnemyAttack{Damage: 0, Blocked: true, Stolen: 1}},
		{"goblin dodged steals nothing", goblin, 100, 0, []int{2}, EnemyAttack{Dodged: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := player.NewPlayer()
			p.DodgeChance = tt.dodge
			p.BlockChance = tt.block

			got := ResolveEnemyAttack(&scripted{floats: []float64{0.5}, ints: tt.ints}, p, tt.foe)
			if got != tt.expect {
				t.Errorf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestTreasureBonusRange(t *testing.T) {
	for i := 0; i < 5; i++ {
		got := TreasureBonus(&scripted{ints: []int{i}})
		if got != 3+i {
			t.Errorf("roll %d: expected %d, got %d", i, 3+i, got)
		}
	}
}
