package periodic

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"periodicd/internal/shared"
)

// WorkFunc is the unit of work invoked once per cycle. Arguments are bound by
// closing over them.
type WorkFunc[T any] func(ctx context.Context) (T, error)

// Periodic invokes a unit of work every interval and keeps the latest
// successfully produced value.
type Periodic[T any] struct {
	work     WorkFunc[T]
	interval time.Duration
	name     string
	ignore   bool
	logger   *slog.Logger
	runtime  Runtime
	parent   context.Context
	hooks    Hooks

	guard  *guard
	result Value[T] // guarded by guard

	mu      sync.Mutex
	running bool
	loop    *loop
	stats   stats
}

// loop is one incarnation of the driving loop, created by Start.
type loop struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	// failed receives the first failure of any work execution spawned by this
	// loop, including executions that outlived their cycle.
	failed chan error
	err    error
	// driving is set once the delay, if any, has elapsed and drive has begun.
	driving bool
}

type stats struct {
	cycles       uint64
	inFlight     int
	completed    uint64
	failed       uint64
	lastErr      error
	lastStarted  time.Time
	lastFinished time.Time
}

// New creates an inert Periodic. Nothing runs until Start.
func New[T any](work WorkFunc[T], interval time.Duration, opts ...Option) (*Periodic[T], error) {
	if work == nil {
		return nil, ErrNilWork
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s is not positive", ErrInvalidInterval, interval)
	}

	o := options{
		logger:  slog.Default(),
		runtime: DefaultRuntime(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = funcName(work)
	}
	name := "Periodic-" + o.name

	return &Periodic[T]{
		work:     work,
		interval: interval,
		name:     name,
		ignore:   o.ignoreFailures,
		logger:   o.logger.With("component", "periodic", "name", name),
		runtime:  o.runtime,
		parent:   o.ctx,
		hooks:    o.hooks,
		guard:    newGuard(),
		result:   Pending[T](),
	}, nil
}

// Name returns "Periodic-<work name>".
func (p *Periodic[T]) Name() string { return p.name }

// Interval returns the target duration between cycle starts.
func (p *Periodic[T]) Interval() time.Duration { return p.interval }

// Running reports the intended state set by Start and Stop. A work failure ends
// the driving loop without clearing it; see Err.
func (p *Periodic[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins the driving loop immediately, or after delay when delay > 0.
func (p *Periodic[T]) Start(delay time.Duration) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.running = true

	ctx, cancel := context.WithCancel(p.parent)
	l := &loop{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		failed: make(chan error, 1),
	}
	p.loop = l
	p.mu.Unlock()

	p.logger.Info("periodic starting", "interval", p.interval, "delay", delay)
	p.runtime.Go(p.name+"-main", func() {
		if delay > 0 && !p.sleep(ctx, delay) {
			close(l.done)
			return
		}
		p.drive(l)
	})
	return nil
}

// Stop cancels the driving loop immediately, or after delay when delay > 0.
// Work executions already in flight are not cancelled and may still update the
// result after Stop returns.
func (p *Periodic[T]) Stop(delay time.Duration) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrAlreadyStopped
	}
	p.running = false
	l := p.loop
	p.mu.Unlock()

	p.logger.Info("periodic stopping", "delay", delay)
	if delay <= 0 {
		l.cancel()
		return nil
	}
	p.runtime.Go(p.name+"-stop", func() {
		t := p.runtime.NewTimer(delay)
		select {
		case <-t.C():
		case <-l.done:
			t.Stop()
		}
		l.cancel()
	})
	return nil
}

// Result returns the latest completed value. It waits for the result guard in
// arrival order; ctx bounds that wait.
//
// Before the first successful run it returns ErrResultNotReady, or the pending
// placeholder when the Periodic was created WithIgnoreFailures(true).
func (p *Periodic[T]) Result(ctx context.Context) (Value[T], error) {
	if err := p.guard.lock(ctx); err != nil {
		return Pending[T](), err
	}
	v := p.result
	p.guard.unlock()

	if v.IsPending() && !p.ignore {
		return v, ErrResultNotReady
	}
	return v, nil
}

// Latest returns the latest completed value itself, or ErrResultNotReady while
// the result slot is pending regardless of the ignore-failures mode.
func (p *Periodic[T]) Latest(ctx context.Context) (T, error) {
	v, err := p.Result(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	val, ok := v.Get()
	if !ok {
		return val, ErrResultNotReady
	}
	return val, nil
}

// Err returns the failure that terminated the most recent driving loop, or nil.
func (p *Periodic[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loop == nil {
		return nil
	}
	return p.loop.err
}

// Done returns a channel closed when the most recent driving loop has exited.
// Before the first Start it returns a closed channel.
func (p *Periodic[T]) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loop == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.loop.done
}

// drive is the driving loop. It returns when its context is cancelled or a work
// execution fails.
func (p *Periodic[T]) drive(l *loop) {
	defer close(l.done)
	defer l.cancel()

	p.mu.Lock()
	l.driving = true
	p.mu.Unlock()

	var err error
	for c := uint64(1); ; c++ {
		exit, cerr := p.cycle(l, c)
		if exit {
			err = cerr
			break
		}
	}

	p.mu.Lock()
	l.err = err
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("periodic loop terminated by work failure", "error", err)
	} else {
		p.logger.Info("periodic loop stopped")
	}
	if p.hooks.OnLoopExit != nil {
		p.safeHook("OnLoopExit", func() { p.hooks.OnLoopExit(p.name, err) })
	}
}

// cycle spawns one work execution and waits for both the work and the interval
// timer, bounded by the interval. Work that outlives the interval keeps running.
func (p *Periodic[T]) cycle(l *loop, c uint64) (bool, error) {
	done := make(chan error, 1)
	p.spawn(l, c, done)

	timer := p.runtime.NewTimer(p.interval)
	select {
	case <-l.ctx.Done():
		timer.Stop()
		return true, nil
	case err := <-l.failed:
		timer.Stop()
		return true, terminal(err)
	case err := <-done:
		if err != nil {
			timer.Stop()
			return true, terminal(err)
		}
		select {
		case <-l.ctx.Done():
			timer.Stop()
			return true, nil
		case err := <-l.failed:
			timer.Stop()
			return true, terminal(err)
		case <-timer.C():
		}
	case <-timer.C():
		p.logger.Debug("work outlived interval, starting next cycle", "cycle", c)
	}
	return false, nil
}

// terminal classifies a work failure that ends the loop: cancellation is a
// normal shutdown and yields nil.
func terminal(err error) error {
	if shared.IsCanceled(err) {
		return nil
	}
	return err
}

func (p *Periodic[T]) spawn(l *loop, c uint64, done chan<- error) {
	name := fmt.Sprintf("%s-%d", p.name, c)
	p.runtime.Go(name, func() {
		err := p.execute(c)
		done <- err
		if err != nil {
			select {
			case l.failed <- err:
			default:
			}
		}
	})
}

// execute runs the unit of work once and stores a successful result.
func (p *Periodic[T]) execute(c uint64) (err error) {
	start := p.beginRun(c)

	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
			p.logger.Error("work panicked", "cycle", c, "panic", r)
		}
		p.finishRun(c, start, err)
	}()

	if p.hooks.OnRunStart != nil {
		p.hooks.OnRunStart(p.name, c)
	}
	v, err := p.work(p.parent)
	if err != nil {
		return err
	}

	// The writer must not be dropped, so it ignores the parent context here.
	_ = p.guard.lock(context.Background())
	p.result = Ready(v)
	p.guard.unlock()
	return nil
}

func (p *Periodic[T]) beginRun(c uint64) time.Time {
	now := time.Now()
	p.mu.Lock()
	p.stats.cycles++
	p.stats.inFlight++
	p.stats.lastStarted = now
	p.mu.Unlock()

	p.logger.Debug("run started", "cycle", c)
	return now
}

func (p *Periodic[T]) finishRun(c uint64, start time.Time, err error) {
	now := time.Now()
	duration := now.Sub(start)

	p.mu.Lock()
	p.stats.inFlight--
	p.stats.lastFinished = now
	if err == nil {
		p.stats.completed++
	} else if !shared.IsCanceled(err) {
		p.stats.failed++
		p.stats.lastErr = err
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("run finished with error", "cycle", c, "duration", duration, "error", err)
	} else {
		p.logger.Debug("run completed", "cycle", c, "duration", duration)
	}
	if p.hooks.OnRunFinish != nil {
		p.safeHook("OnRunFinish", func() { p.hooks.OnRunFinish(p.name, c, duration, err) })
	}
}

// safeHook runs a hook outside the work's recover scope, logging its panic.
func (p *Periodic[T]) safeHook(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("hook panicked", "hook", hook, "panic", r)
		}
	}()
	fn()
}

// sleep waits for d on the runtime timer. It reports false if ctx ended first.
func (p *Periodic[T]) sleep(ctx context.Context, d time.Duration) bool {
	t := p.runtime.NewTimer(d)
	select {
	case <-t.C():
		return true
	case <-ctx.Done():
		t.Stop()
		return false
	}
}

// funcName returns the bare symbol name of fn, e.g. "awakeMsg" for
// "example.com/pkg.awakeMsg" and "(*Client).Fetch" for a method value.
func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "work"
	}
	return symbolName(f.Name())
}

// symbolName strips the import path and package from a linker symbol. Dots in
// the last path element are escaped as %2e by the linker, so the first dot
// after the last slash always ends the package name.
func symbolName(full string) string {
	name := full
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
