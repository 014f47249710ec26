// Package periodic runs a unit of work every interval and keeps its latest
// result.
//
// Features:
//   - Inert construction, explicit Start/Stop with optional delay
//   - Typed result slot guarded by a FIFO-fair lock
//   - Overlap instead of backpressure when work outlasts the interval
//   - Optional pending placeholder instead of ErrResultNotReady
//   - Injectable Runtime (goroutines and timers), parent context, hooks
//   - Structured logging with slog
//
// Basic usage:
//
//	p, err := periodic.New(func(ctx context.Context) (Rates, error) {
//		return fetchRates(ctx, "EUR")
//	}, 30*time.Second, periodic.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if err := p.Start(0); err != nil {
//		return err
//	}
//	defer p.Stop(0)
//
//	rates, err := p.Latest(ctx)
//
// # Cadence
//
// Every cycle spawns one work execution and starts a timer for the interval.
// When the work finishes first, the loop still waits for the timer, so cycles
// start roughly every interval. When the timer fires first, the next cycle
// starts at once and the earlier execution keeps running: executions of
// different cycles may overlap. Timing is best effort.
//
// # Result
//
// Each successful execution stores its value under the result guard. Readers
// and writers are served in the order they asked for the guard, so a reader
// queued between two writers sees the first write and is never starved. Result
// reports ErrResultNotReady until the first successful run unless the Periodic
// was created WithIgnoreFailures(true); then it returns a pending Value.
//
// # Lifecycle and failures
//
// Start fails with ErrAlreadyRunning and Stop with ErrAlreadyStopped when the
// intended state already matches; both wrap shared.ErrInvalidState.
//
// Stop cancels the driving loop only. Executions in flight keep running under
// the parent context and may store a result after Stop returns.
//
// A work error that is not a cancellation, or a panic, terminates the driving
// loop. Nothing is retried and Running keeps reporting true: Running is the
// caller's intent, not the loop's health. Use Err, Done or Status to observe a
// loop that died. Stop still succeeds afterwards and a new Start begins a fresh
// loop.
package periodic
