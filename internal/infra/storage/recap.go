package storage

import (
	"context"
	"fmt"
)

// Recapper rebuilds the end-of-run summary from the event log.
// State = f(events): nothing here reads the save record.
type Recapper struct {
	eventRepo EventRepository
}

// NewRecapper creates a new run summariser.
func NewRecapper(eventRepo EventRepository) *Recapper {
	return &Recapper{eventRepo: eventRepo}
}

// Recap is the statistics block shown on the end screen.
type Recap struct {
	SessionID       string   `json:"session_id"`
	Outcome         string   `json:"outcome"` // "victory", "defeat" or "in_progress"
	FinalScore      int      `json:"final_score"`
	EnemiesDefeated []string `json:"enemies_defeated"`
	GoldEarned      int      `json:"gold_earned"`
	GoldSpent       int      `json:"gold_spent"`
	DamageTaken     int      `json:"damage_taken"`
	CorrectAnswers  int      `json:"correct_answers"`
	WrongAnswers    int      `json:"wrong_answers"`
	Timeouts        int      `json:"timeouts"`
	ItemsAcquired   []string `json:"items_acquired"`
}

// Event type names, duplicated from the engine's vocabulary so storage stays independent.
const (
	recapAnswerCorrect = "ANSWER_CORRECT"
	recapAnswerWrong   = "ANSWER_WRONG"
	recapEnemyDefeated = "ENEMY_DEFEATED"
	recapItemPurchased = "ITEM_PURCHASED"
	recapItemDropped   = "ITEM_DROPPED"
	recapTimerExpired  = "TIMER_EXPIRED"
	recapBossEmpowered = "BOSS_EMPOWERED"
	recapGameWon       = "GAME_WON"
	recapGameLost      = "GAME_LOST"
)

// RecapSession summarises one run.
func (r *Recapper) RecapSession(ctx context.Context, sessionID string) (*Recap, error) {
	events, err := r.eventRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for session: %w", err)
	}

	recap := &Recap{
		SessionID:       sessionID,
		Outcome:         "in_progress",
		EnemiesDefeated: []string{},
		ItemsAcquired:   []string{},
	}

	for _, e := range events {
		r.applyEvent(recap, e)
	}
	return recap, nil
}

// applyEvent folds one event into the summary.
func (r *Recapper) applyEvent(recap *Recap, e GameEvent) {
	switch e.EventType {
	case recapAnswerCorrect:
		recap.CorrectAnswers++
	case recapAnswerWrong:
		recap.WrongAnswers++
		recap.DamageTaken += payloadInt(e.Payload, "damage")
	case recapTimerExpired:
		recap.Timeouts++
		recap.DamageTaken += payloadInt(e.Payload, "damage")
	case recapBossEmpowered:
		recap.Timeouts++
	case recapEnemyDefeated:
		recap.EnemiesDefeated = append(recap.EnemiesDefeated, e.ActorID)
		recap.GoldEarned += payloadInt(e.Payload, "gold")
	case recapItemPurchased:
		recap.ItemsAcquired = append(recap.ItemsAcquired, e.TargetID)
		recap.GoldSpent += payloadInt(e.Payload, "price")
	case recapItemDropped:
		recap.ItemsAcquired = append(recap.ItemsAcquired, e.TargetID)
	case recapGameWon:
		recap.Outcome = "victory"
		recap.FinalScore = payloadInt(e.Payload, "score")
	case recapGameLost:
		recap.Outcome = "defeat"
		recap.FinalScore = payloadInt(e.Payload, "score")
	}
}

// payloadInt reads a number that may have been through a JSON round-trip.
func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
