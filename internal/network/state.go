package network

import (
	"encoding/json"
	"net/http"

	"github.com/pythagorasdungeon/server/internal/engine"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
)

// SnapshotSource is anything that can produce an engine snapshot.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// StateHandler serves one-shot snapshots for views that poll over HTTP.
// GET /api/state
func StateHandler(src SnapshotSource, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(src.Snapshot().Redacted()); err != nil {
			log.Error("Failed to write snapshot: " + err.Error())
		}
	}
}
