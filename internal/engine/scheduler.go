package engine

import "time"

// Scheduler runs deferred work. AfterFunc returns a function that cancels the
// call and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

// RealScheduler schedules on the wall clock.
type RealScheduler struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}
