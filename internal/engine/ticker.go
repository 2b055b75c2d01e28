package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pythagorasdungeon/server/internal/platform/logger"
)

// Tickable is stepped once per tick.
type Tickable interface {
	UpdateBossTimer()
}

// Ticker drives the answer countdown at a fixed interval.
// It knows nothing about combat; it only calls UpdateBossTimer.
type Ticker struct {
	target   Tickable
	interval time.Duration
	logger   *logger.Logger

	running  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTicker creates a countdown driver. A non-positive interval uses DefaultTickInterval.
func NewTicker(target Tickable, interval time.Duration, log *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		target:   target,
		interval: interval,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop. Call in a goroutine.
// Only the first call runs; later calls return immediately.
func (t *Ticker) Start(ctx context.Context) {
	if !t.running.CompareAndSwap(false, true) {
		t.logger.Warn("Countdown ticker already running.")
		return
	}
	t.logger.Info("Countdown ticker started (" + t.interval.String() + ")")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Countdown ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Countdown ticker stopped manually.")
			return
		case <-ticker.C:
			t.target.UpdateBossTimer()
		}
	}
}

// Stop ends the loop. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}
