package periodic

import "time"

// Status is a point-in-time view of a Periodic for observability.
type Status struct {
	Name     string
	Interval time.Duration
	// Running is the intended state; Looping reports whether a driving loop is
	// actually cycling. Looping stays false while a delayed Start waits, stays
	// true while a delayed Stop waits, and turns false after a work failure.
	Running bool
	Looping bool
	// Cycles counts work executions started across all Starts.
	Cycles    uint64
	InFlight  int
	Completed uint64
	Failed    uint64
	// LastError is the most recent work failure. It is not cleared on success.
	LastError    error
	LoopError    error
	LastStarted  time.Time
	LastFinished time.Time
}

// Ready reports whether at least one run has stored a result.
func (s Status) Ready() bool { return s.Completed > 0 }

// Status returns a snapshot without touching the result guard.
func (p *Periodic[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Name:         p.name,
		Interval:     p.interval,
		Running:      p.running,
		Cycles:       p.stats.cycles,
		InFlight:     p.stats.inFlight,
		Completed:    p.stats.completed,
		Failed:       p.stats.failed,
		LastError:    p.stats.lastErr,
		LastStarted:  p.stats.lastStarted,
		LastFinished: p.stats.lastFinished,
	}
	if l := p.loop; l != nil {
		st.LoopError = l.err
		select {
		case <-l.done:
		default:
			st.Looping = l.driving
		}
	}
	return st
}
