// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers gameplay and infrastructure counters.
type Collector struct {
	// Gameplay
	AnswersCorrect  int64
	AnswersWrong    int64
	EnemiesDefeated int64
	Purchases       int64
	Victories       int64
	Defeats         int64

	// Timer
	TimerTicks    int64
	TimerExpiries int64

	// Persistence
	SaveWrites     int64
	SaveErrors     int64
	SaveLatencySum int64 // nanoseconds
	SaveLatencyMax int64
	LastSaveTime   time.Time

	// WebSocket
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordAnswer counts a submitted answer.
func (c *Collector) RecordAnswer(correct bool) {
	if correct {
		atomic.AddInt64(&c.AnswersCorrect, 1)
	} else {
		atomic.AddInt64(&c.AnswersWrong, 1)
	}
}

// RecordEnemyDefeated counts a kill.
func (c *Collector) RecordEnemyDefeated() {
	atomic.AddInt64(&c.EnemiesDefeated, 1)
}

// RecordPurchase counts a successful shop purchase.
func (c *Collector) RecordPurchase() {
	atomic.AddInt64(&c.Purchases, 1)
}

// RecordOutcome counts a finished run.
func (c *Collector) RecordOutcome(victory bool) {
	if victory {
		atomic.AddInt64(&c.Victories, 1)
	} else {
		atomic.AddInt64(&c.Defeats, 1)
	}
}

// RecordTimerTick counts a countdown step; expired marks the zero crossing.
func (c *Collector) RecordTimerTick(expired bool) {
	atomic.AddInt64(&c.TimerTicks, 1)
	if expired {
		atomic.AddInt64(&c.TimerExpiries, 1)
	}
}

// RecordSave records a save attempt.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	atomic.AddInt64(&c.SaveWrites, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.SaveLatencyMax) {
		atomic.StoreInt64(&c.SaveLatencyMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
		return
	}

	c.mu.Lock()
	c.LastSaveTime = time.Now()
	c.mu.Unlock()
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	saves := atomic.LoadInt64(&c.SaveWrites)
	var saveAvg float64
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6 // ms
	}

	lastSave := "never"
	if !c.LastSaveTime.IsZero() {
		lastSave = humanize.Time(c.LastSaveTime)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"started":        humanize.Time(c.StartTime),

		"gameplay": map[string]interface{}{
			"answers_correct":  atomic.LoadInt64(&c.AnswersCorrect),
			"answers_wrong":    atomic.LoadInt64(&c.AnswersWrong),
			"enemies_defeated": atomic.LoadInt64(&c.EnemiesDefeated),
			"purchases":        atomic.LoadInt64(&c.Purchases),
			"victories":        atomic.LoadInt64(&c.Victories),
			"defeats":          atomic.LoadInt64(&c.Defeats),
		},

		"timer": map[string]interface{}{
			"ticks":    atomic.LoadInt64(&c.TimerTicks),
			"expiries": atomic.LoadInt64(&c.TimerExpiries),
		},

		"saves": map[string]interface{}{
			"written":        saves,
			"errors":         atomic.LoadInt64(&c.SaveErrors),
			"avg_latency_ms": saveAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.SaveLatencyMax)) / 1e6,
			"last_save":      lastSave,
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /api/metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP dungeon_answers_total Answers submitted\n")
		fmt.Fprintf(w, "# TYPE dungeon_answers_total counter\n")
		fmt.Fprintf(w, "dungeon_answers_total{result=\"correct\"} %d\n", atomic.LoadInt64(&c.AnswersCorrect))
		fmt.Fprintf(w, "dungeon_answers_total{result=\"wrong\"} %d\n\n", atomic.LoadInt64(&c.AnswersWrong))

		fmt.Fprintf(w, "# HELP dungeon_enemies_defeated_total Enemies defeated\n")
		fmt.Fprintf(w, "# TYPE dungeon_enemies_defeated_total counter\n")
		fmt.Fprintf(w, "dungeon_enemies_defeated_total %d\n\n", atomic.LoadInt64(&c.EnemiesDefeated))

		fmt.Fprintf(w, "# HELP dungeon_timer_expiries_total Countdowns that reached zero\n")
		fmt.Fprintf(w, "# TYPE dungeon_timer_expiries_total counter\n")
		fmt.Fprintf(w, "dungeon_timer_expiries_total %d\n\n", atomic.LoadInt64(&c.TimerExpiries))

		fmt.Fprintf(w, "# HELP dungeon_save_errors_total Failed save writes\n")
		fmt.Fprintf(w, "# TYPE dungeon_save_errors_total counter\n")
		fmt.Fprintf(w, "dungeon_save_errors_total %d\n\n", atomic.LoadInt64(&c.SaveErrors))

		fmt.Fprintf(w, "# HELP dungeon_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE dungeon_ws_connections gauge\n")
		fmt.Fprintf(w, "dungeon_ws_connections %d\n", atomic.LoadInt64(&c.WSConnectionsActive))
	}
}
