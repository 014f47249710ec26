package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinels wrapped by package errors. Classify with KindOf or errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrTimeout           = errors.New("operation timed out")
	ErrDependencyFailure = errors.New("dependency failure")

	// ErrInvalidState rejects an operation the current lifecycle state does not
	// allow, such as starting something that already runs.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotReady reports a value that has not been produced yet.
	ErrNotReady = errors.New("not ready")
)

// Kind is the category of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindConflict
	KindTimeout
	KindDependencyFailure
	// KindCanceled has no sentinel. It is detected from context.Canceled.
	KindCanceled
	KindInvalidState
	KindNotReady
)

var kindNames = map[Kind]string{
	KindNotFound:          "NotFound",
	KindValidation:        "Validation",
	KindUnauthorized:      "Unauthorized",
	KindConflict:          "Conflict",
	KindTimeout:           "Timeout",
	KindDependencyFailure: "DependencyFailure",
	KindCanceled:          "Canceled",
	KindInvalidState:      "InvalidState",
	KindNotReady:          "NotReady",
}

// String returns the name of k, "Unknown" for unclassified kinds.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// kindPriorities is the order KindOf checks kinds in. Cancellation and
// timeouts win over anything they are joined with.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil},
	{KindTimeout, ErrTimeout},
	{KindNotFound, ErrNotFound},
	{KindValidation, ErrValidation},
	{KindUnauthorized, ErrUnauthorized},
	{KindConflict, ErrConflict},
	{KindInvalidState, ErrInvalidState},
	{KindNotReady, ErrNotReady},
	{KindDependencyFailure, ErrDependencyFailure},
}

// KindOf classifies err by the first kind in priority order found in its chain,
// errors.Join branches included. Unrecognized and nil errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, p := range kindPriorities {
		switch p.kind {
		case KindCanceled:
			if IsCanceled(err) {
				return KindCanceled
			}
		case KindTimeout:
			if IsTimeout(err) {
				return KindTimeout
			}
		default:
			if errors.Is(err, p.err) {
				return p.kind
			}
		}
	}
	return KindUnknown
}

func sentinelOf(kind Kind) error {
	for _, p := range kindPriorities {
		if p.kind == kind {
			return p.err
		}
	}
	return nil
}

// MarkKind attaches kind to a third-party error so KindOf reports it, keeping
// err reachable through errors.Is. An error that already has kind is returned
// as is, and so is any error marked with KindUnknown or KindCanceled.
func MarkKind(err error, kind Kind) error {
	sentinel := sentinelOf(kind)
	if err == nil {
		return sentinel
	}
	if sentinel == nil || KindOf(err) == kind {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap returns "context: err". Nil stays nil and an empty context adds nothing.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf is Wrap with a formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsCanceled reports whether err carries context.Canceled.
func IsCanceled(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsTimeout reports deadline expiry, ErrTimeout and net.Error timeouts.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsInvalidState reports whether err rejects an operation in the current
// lifecycle state.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsNotReady reports whether err is about a value not produced yet.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
