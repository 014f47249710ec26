package periodic

import (
	"fmt"
	"runtime/debug"

	"periodicd/internal/shared"
)

var (
	// ErrAlreadyRunning is returned by Start when the scheduler is already running.
	ErrAlreadyRunning = fmt.Errorf("%w: periodic already running", shared.ErrInvalidState)

	// ErrAlreadyStopped is returned by Stop when the scheduler is not running.
	ErrAlreadyStopped = fmt.Errorf("%w: periodic already stopped", shared.ErrInvalidState)

	// ErrResultNotReady is returned by Result when no run has completed successfully yet
	// and failures are not ignored.
	ErrResultNotReady = fmt.Errorf("%w: periodic result not ready", shared.ErrNotReady)

	// ErrInvalidInterval is returned by New for non-positive intervals and by ParseInterval.
	ErrInvalidInterval = fmt.Errorf("%w: invalid interval", shared.ErrValidation)

	// ErrNilWork is returned by New when the unit of work is nil.
	ErrNilWork = fmt.Errorf("%w: work function is nil", shared.ErrValidation)
)

// PanicError wraps a value recovered from a panicking unit of work.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("periodic: work panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
