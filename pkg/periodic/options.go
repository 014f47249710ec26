package periodic

import (
	"context"
	"log/slog"
	"time"
)

// Hooks are optional observability callbacks. They run synchronously on the
// work goroutine (or the driving loop for OnLoopExit) and must not block.
// A panic in OnRunStart fails the run like a panic in the work itself; panics
// in OnRunFinish and OnLoopExit are logged and dropped.
type Hooks struct {
	OnRunStart  func(name string, cycle uint64)
	OnRunFinish func(name string, cycle uint64, duration time.Duration, err error)
	OnLoopExit  func(name string, err error)
}

type options struct {
	name           string
	ignoreFailures bool
	logger         *slog.Logger
	runtime        Runtime
	ctx            context.Context
	hooks          Hooks
}

// Option configures a Periodic.
type Option func(*options)

// WithIgnoreFailures pre-populates the result slot with the pending placeholder,
// so Result returns it instead of ErrResultNotReady before the first completion.
func WithIgnoreFailures(v bool) Option {
	return func(o *options) { o.ignoreFailures = v }
}

// WithName overrides the name derived from the work function.
// The resulting name is "Periodic-<name>". Derived names drop the import path
// and package, so closures come out as "New.func1"; set a name for those.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRuntime sets the task and timer facility. Defaults to DefaultRuntime().
func WithRuntime(r Runtime) Option {
	return func(o *options) {
		if r != nil {
			o.runtime = r
		}
	}
}

// WithContext sets the parent context. Work runs under it, and its cancellation
// also ends the driving loop. Stop never cancels it.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithHooks sets observability hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}
