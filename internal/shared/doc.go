// Package shared contains the error taxonomy used across periodicd.
//
// # Sentinels and kinds
//
// Packages wrap one of the sentinel errors (ErrNotFound, ErrValidation,
// ErrConflict, ErrInvalidState, ErrNotReady, ...) so callers can classify a
// failure without knowing where it came from:
//
//	var ErrAlreadyRunning = fmt.Errorf("%w: periodic already running", shared.ErrInvalidState)
//
//	switch shared.KindOf(err) {
//	case shared.KindInvalidState:
//	    return http.StatusConflict
//	case shared.KindNotReady:
//	    return http.StatusServiceUnavailable
//	}
//
// # Kind priority
//
// When several kinds are present (errors.Join), KindOf returns the first match:
//
//	Priority | Kind
//	---------|----------------------
//	1        | KindCanceled
//	2        | KindTimeout
//	3        | KindNotFound
//	4        | KindValidation
//	5        | KindUnauthorized
//	6        | KindConflict
//	7        | KindInvalidState
//	8        | KindNotReady
//	9        | KindDependencyFailure
//
// # Wrapping
//
// Wrap and Wrapf add context, MarkKind attaches a kind to a third-party error:
//
//	if err != nil {
//	    return shared.Wrap(shared.MarkKind(err, shared.KindDependencyFailure), "open sqlite probe target")
//	}
//
// Cancellation is not an error kind to mark. Detect it with IsCanceled.
package shared
