package periodic

import "time"

// Timer is a one-shot timer supplied by a Runtime.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Runtime is the task spawning and timer facility a Periodic runs on.
// Name identifies the spawned task ("<periodic name>-main", "<periodic name>-<cycle>")
// and may be used by implementations for tracing or accounting.
type Runtime interface {
	Go(name string, fn func())
	NewTimer(d time.Duration) Timer
}

// DefaultRuntime runs tasks on plain goroutines and uses time.Timer.
func DefaultRuntime() Runtime {
	return goRuntime{}
}

type goRuntime struct{}

func (goRuntime) Go(_ string, fn func()) {
	go fn()
}

func (goRuntime) NewTimer(d time.Duration) Timer {
	return stdTimer{t: time.NewTimer(d)}
}

type stdTimer struct {
	t *time.Timer
}

func (t stdTimer) C() <-chan time.Time { return t.t.C }

func (t stdTimer) Stop() bool { return t.t.Stop() }
