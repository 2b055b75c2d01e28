package game

import (
	"testing"

	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/item"
	"github.com/pythagorasdungeon/server/internal/domain/question"
)

func TestCloneIsIndependent(t *testing.T) {
	s := NewGameState("S1")
	ogre, _ := enemy.At(2)
	s.CurrentEnemy = &ogre
	s.CurrentQuestion = &question.MathQuestion{Question: "1 + 1", Answer: 2, Difficulty: 1}
	s.Log("You encountered The Ogre!")
	shield, _ := item.Lookup("shield")
	s.Player.Grant(shield)

	c := s.Clone()
	c.CurrentEnemy.Health = 0
	c.CurrentQuestion.Answer = 99
	c.CombatLog[0] = "tampered"
	c.Player.Items[0].Price = 0
	c.Player.Gold = 500

	if s.CurrentEnemy.Health != 6 {
		t.Errorf("enemy health leaked through clone: %d", s.CurrentEnemy.Health)
	}
	if s.CurrentQuestion.Answer != 2 {
		t.Errorf("question leaked through clone: %d", s.CurrentQuestion.Answer)
	}
	if s.CombatLog[0] != "You encountered The Ogre!" {
		t.Errorf("combat log leaked through clone: %q", s.CombatLog[0])
	}
	if s.Player.Items[0].Price != 18 || s.Player.Gold != 0 {
		t.Errorf("player leaked through clone: %+v", s.Player)
	}
}

func TestTimerStepEdge(t *testing.T) {
	timer := BossTimer{Active: true, TimeLeft: 0.3, MaxTime: 10}

	if timer.Step() || timer.TimeLeft != 0.2 {
		t.Fatalf("expected 0.2 and no edge, got %v", timer.TimeLeft)
	}
	if timer.Step() || timer.TimeLeft != 0.1 {
		t.Fatalf("expected 0.1 and no edge, got %v", timer.TimeLeft)
	}
	if !timer.Step() || timer.TimeLeft != 0 {
		t.Fatalf("expected edge at zero, got %v", timer.TimeLeft)
	}
	if timer.Step() {
		t.Errorf("edge fired twice")
	}
}

func TestTimerStepNoDrift(t *testing.T) {
	timer := TimerFor(enemy.Enemy{})
	steps := 0
	for !timer.Step() {
		steps++
		if steps > 1000 {
			t.Fatal("timer never reached zero")
		}
	}
	if steps+1 != 150 {
		t.Errorf("expected 150 steps for 15s, got %d", steps+1)
	}
}

func TestTimerFor(t *testing.T) {
	mage, _ := enemy.At(enemy.FinalBossIndex)
	bt := TimerFor(mage)
	if !bt.Active || !bt.IsBoss || bt.MaxTime != 10 || bt.TimeLeft != 10 {
		t.Errorf("boss timer wrong: %+v", bt)
	}

	goblin, _ := enemy.At(1)
	bt = TimerFor(goblin)
	if !bt.Active || bt.IsBoss || bt.MaxTime != 15 {
		t.Errorf("regular timer wrong: %+v", bt)
	}
}
