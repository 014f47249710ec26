package periodic

import "fmt"

// Value is the content of the result slot: either a completed result of the unit
// of work or the pending placeholder. It is compared by tag, never by identity.
type Value[T any] struct {
	v     T
	ready bool
}

// Ready wraps a completed result.
func Ready[T any](v T) Value[T] {
	return Value[T]{v: v, ready: true}
}

// Pending returns the placeholder stored before the first successful run.
func Pending[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the result and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.ready
}

// IsReady reports whether v holds a completed result.
func (v Value[T]) IsReady() bool { return v.ready }

// IsPending reports whether v is the placeholder.
func (v Value[T]) IsPending() bool { return !v.ready }

func (v Value[T]) String() string {
	if !v.ready {
		return "<pending>"
	}
	return fmt.Sprint(v.v)
}
