package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pythagorasdungeon/server/internal/events"
	"github.com/pythagorasdungeon/server/internal/infra/storage"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
)

// SessionSource reports the run currently in progress.
type SessionSource interface {
	SessionID() string
}

// HistoryHandler serves the event history and end-of-run recaps.
type HistoryHandler struct {
	eventLog *events.EventLog
	recapper *storage.Recapper
	sessions SessionSource
	logger   *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(el *events.EventLog, recapper *storage.Recapper, sessions SessionSource, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		eventLog: el,
		recapper: recapper,
		sessions: sessions,
		logger:   log,
	}
}

// HistoryEvent is an event formatted for the views.
type HistoryEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Type      string                 `json:"type"`
	Actor     string                 `json:"actor"`
	Target    string                 `json:"target,omitempty"`
	Summary   string                 `json:"summary"`
	Impact    string                 `json:"impact"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HistoryResponse is the API response for the history listing.
type HistoryResponse struct {
	SessionID   string         `json:"session_id"`
	TotalEvents int            `json:"total_events"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Events      []HistoryEvent `json:"events"`
}

// HandleHistory lists the events of one run.
// GET /api/history?session=XXX&type=ENEMY_DEFEATED&limit=N
func (hh *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := hh.sessionParam(r)
	eventType := r.URL.Query().Get("type")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			hh.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list := []HistoryEvent{}
	for _, e := range hh.eventLog.BySession(sessionID) {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		list = append(list, hh.convert(e))
	}
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}

	response := HistoryResponse{
		SessionID:   sessionID,
		TotalEvents: len(list),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      list,
	}
	if eventType != "" {
		response.FilteredBy = eventType
	}

	hh.writeJSON(w, response)
}

// HandleEventDetail returns one event with its full payload.
// GET /api/history/event?id=XXX
func (hh *HistoryHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("id")
	if eventID == "" {
		hh.jsonError(w, "Missing id", http.StatusBadRequest)
		return
	}

	for _, e := range hh.eventLog.Replay() {
		if e.ID == eventID {
			detail := hh.convert(e)
			detail.Details = e.Payload
			hh.writeJSON(w, detail)
			return
		}
	}

	hh.jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleRecap returns the end screen statistics of one run.
// GET /api/recap?session=XXX
func (hh *HistoryHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := hh.sessionParam(r)

	// The recap reads the repository, which trails the in-memory log.
	hh.eventLog.Flush()

	recap, err := hh.recapper.RecapSession(r.Context(), sessionID)
	if err != nil {
		hh.logger.Error("Recap failed: " + err.Error())
		hh.jsonError(w, "Recap unavailable", http.StatusInternalServerError)
		return
	}

	hh.logger.Event("RECAP_SERVED", "VIEWS", "Session:"+sessionID+" Outcome:"+recap.Outcome)
	hh.writeJSON(w, recap)
}

// HandleStats returns aggregate counts over every recorded run.
// GET /api/history/stats
func (hh *HistoryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := hh.eventLog.Replay()
	stats := map[string]int{
		"total_events":     len(all),
		"runs_started":     0,
		"enemies_defeated": 0,
		"victories":        0,
		"defeats":          0,
		"timeouts":         0,
		"items_acquired":   0,
	}

	for _, e := range all {
		switch e.Type {
		case events.EventTypeGameStarted:
			stats["runs_started"]++
		case events.EventTypeEnemyDefeated:
			stats["enemies_defeated"]++
		case events.EventTypeGameWon:
			stats["victories"]++
		case events.EventTypeGameLost:
			stats["defeats"]++
		case events.EventTypeTimerExpired, events.EventTypeBossEmpowered:
			stats["timeouts"]++
		case events.EventTypeItemPurchased, events.EventTypeItemDropped:
			stats["items_acquired"]++
		}
	}

	hh.writeJSON(w, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the history API routes.
func (hh *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history", hh.HandleHistory)
	mux.HandleFunc("/api/history/event", hh.HandleEventDetail)
	mux.HandleFunc("/api/history/stats", hh.HandleStats)
	mux.HandleFunc("/api/recap", hh.HandleRecap)
}

// sessionParam defaults to the run in progress.
func (hh *HistoryHandler) sessionParam(r *http.Request) string {
	if s := r.URL.Query().Get("session"); s != "" {
		return s
	}
	return hh.sessions.SessionID()
}

// convert transforms an internal event to the public format.
func (hh *HistoryHandler) convert(e events.GameEvent) HistoryEvent {
	return HistoryEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05"),
		Type:      string(e.Type),
		Actor:     e.ActorID,
		Target:    e.TargetID,
		Summary:   summarize(e),
		Impact:    impact(e),
	}
}

// summarize creates a human-readable line.
func summarize(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeGameStarted:
		return "A new descent into the dungeon began."
	case events.EventTypeEnemyEncountered:
		return fmt.Sprintf("A %s blocked the way.", e.ActorID)
	case events.EventTypeAnswerCorrect:
		return fmt.Sprintf("Correct answer: %v damage dealt.", e.Payload["damage"])
	case events.EventTypeAnswerWrong:
		return fmt.Sprintf("Wrong answer: %v damage taken.", e.Payload["damage"])
	case events.EventTypeEnemyDefeated:
		return fmt.Sprintf("%s was defeated for %v gold.", e.ActorID, e.Payload["gold"])
	case events.EventTypeItemPurchased:
		return fmt.Sprintf("Bought %s for %v gold.", e.TargetID, e.Payload["price"])
	case events.EventTypeItemDropped:
		return fmt.Sprintf("%s dropped %s.", e.ActorID, e.TargetID)
	case events.EventTypeTimerExpired:
		return "Time ran out and the enemy struck."
	case events.EventTypeBossEmpowered:
		return "The Supreme Mage grew stronger."
	case events.EventTypeMerchantOpened:
		return "The merchant's stall opened."
	case events.EventTypeGameWon:
		return fmt.Sprintf("Victory with %v points.", e.Payload["score"])
	case events.EventTypeGameLost:
		return fmt.Sprintf("Defeat with %v points.", e.Payload["score"])
	case events.EventTypeGameReset:
		return "The run was abandoned."
	default:
		return "Something happened..."
	}
}

// impact classifies the event for the player.
func impact(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeAnswerWrong, events.EventTypeTimerExpired,
		events.EventTypeBossEmpowered, events.EventTypeGameLost:
		return "NEGATIVE"
	case events.EventTypeAnswerCorrect, events.EventTypeEnemyDefeated,
		events.EventTypeItemPurchased, events.EventTypeItemDropped, events.EventTypeGameWon:
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

func (hh *HistoryHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hh.logger.Error("Failed to write response: " + err.Error())
	}
}

// jsonError sends an error response.
func (hh *HistoryHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
