// Package game defines the aggregate root of a run: GameState and its BossTimer.
// This package is PURE and must NOT import any infrastructure packages.
package game

import (
	"github.com/pythagorasdungeon/server/internal/domain/enemy"
	"github.com/pythagorasdungeon/server/internal/domain/player"
	"github.com/pythagorasdungeon/server/internal/domain/question"
)

// Phase is the stage of the dungeon the run is in.
type Phase string

const (
	PhaseDungeon  Phase = "dungeon"
	PhaseThrone   Phase = "throne"
	PhaseMerchant Phase = "merchant"
	PhaseComplete Phase = "complete"
)

// Status is what the views should be showing.
type Status string

const (
	StatusMenu     Status = "menu"
	StatusPlaying  Status = "playing"
	StatusCombat   Status = "combat"
	StatusMerchant Status = "merchant"
	StatusVictory  Status = "victory"
	StatusDefeat   Status = "defeat"
)

// IsTerminal reports whether the run has ended.
func (s Status) IsTerminal() bool {
	return s == StatusVictory || s == StatusDefeat
}

// GameState is everything the views need to render a run.
type GameState struct {
	SessionID            string                 `json:"sessionId,omitempty"`
	Player               player.Player          `json:"player"`
	CurrentEnemy         *enemy.Enemy           `json:"currentEnemy"`
	CurrentPhase         Phase                  `json:"currentPhase"`
	CurrentEnemyIndex    int                    `json:"currentEnemyIndex"` // 0-6, 6 = roster exhausted
	GameStatus           Status                 `json:"gameStatus"`
	CurrentQuestion      *question.MathQuestion `json:"currentQuestion"`
	CombatLog            []string               `json:"combatLog"` // oldest first
	VisitedFinalMerchant bool                   `json:"visitedFinalMerchant"`
}

// NewGameState returns the state of a run that has not started yet.
func NewGameState(sessionID string) GameState {
	return GameState{
		SessionID:         sessionID,
		Player:            player.NewPlayer(),
		CurrentPhase:      PhaseDungeon,
		CurrentEnemyIndex: 0,
		GameStatus:        StatusMenu,
		CombatLog:         []string{},
	}
}

// Clone returns a deep copy of s.
func (s GameState) Clone() GameState {
	out := s
	out.Player = s.Player.Clone()

	if s.CurrentEnemy != nil {
		e := *s.CurrentEnemy
		out.CurrentEnemy = &e
	}
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		out.CurrentQuestion = &q
	}

	out.CombatLog = make([]string, len(s.CombatLog))
	copy(out.CombatLog, s.CombatLog)
	return out
}

// Log appends a line to the combat log.
func (s *GameState) Log(msg string) {
	s.CombatLog = append(s.CombatLog, msg)
}

// InCombat reports whether an encounter is live.
func (s *GameState) InCombat() bool {
	return s.CurrentEnemy != nil && s.CurrentQuestion != nil
}
