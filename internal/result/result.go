// Package result provides a two-variant Result type and its combinators.
package result

// Result holds either a success value or a failure error, never both.
// Build values with Success or Failure; the zero value reads as a failure
// carrying the zero E.
type Result[T, E any] struct {
	ok    bool
	value T
	err   E
}

// Success constructs an ok Result carrying value.
func Success[T, E any](value T) Result[T, E] {
	return Result[T, E]{ok: true, value: value}
}

// Failure constructs a failed Result carrying err.
func Failure[T, E any](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// Ok reports whether r is the success variant.
func (r Result[T, E]) Ok() bool {
	return r.ok
}

// Value returns the success value and true, or the zero T and false.
func (r Result[T, E]) Value() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Error returns the failure value and true, or the zero E and false.
func (r Result[T, E]) Error() (E, bool) {
	if r.ok {
		var zero E
		return zero, false
	}
	return r.err, true
}

// Map applies fn to the success value. Failures pass through and fn is not called.
func Map[T, U, E any](r Result[T, E], fn func(T) U) Result[U, E] {
	if !r.ok {
		return Failure[U](r.err)
	}
	return Success[U, E](fn(r.value))
}

// MapError applies fn to the failure value. Successes pass through.
func MapError[T, E, F any](r Result[T, E], fn func(E) F) Result[T, F] {
	if r.ok {
		return Success[T, F](r.value)
	}
	return Failure[T](fn(r.err))
}

// Chain sequences fn after r. A failure in r short-circuits; a failure returned
// by fn becomes the new result.
func Chain[T, U, E any](r Result[T, E], fn func(T) Result[U, E]) Result[U, E] {
	if !r.ok {
		return Failure[U](r.err)
	}
	return fn(r.value)
}

// GetData returns the success value, or fallback for failures.
func GetData[T, E any](r Result[T, E], fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// GetError returns the failure value, or fallback for successes.
func GetError[T, E any](r Result[T, E], fallback E) E {
	if r.ok {
		return fallback
	}
	return r.err
}
