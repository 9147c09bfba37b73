// Package result provides a resolved success/failure container.
package result

import "errors"

// Result holds either a value or an error. The state is fixed when the
// Result is constructed; there is no pending state.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err creates a failed Result. A nil err is replaced by ErrNoError so the
// Result is still a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrNoError
	}
	return Result[T]{err: err}
}

// ErrNoError marks a Result created with Err(nil).
var ErrNoError = errors.New("result: failure without error")

// IsOk reports whether the Result succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Error returns the failure, or nil on success.
func (r Result[T]) Error() error { return r.err }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// MustUnwrap returns the value and panics on failure.
func (r Result[T]) MustUnwrap() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

// ValueOr returns the value, or fallback on failure.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Map transforms a successful value. Failures pass through untouched.
// This is a PURE function.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(fn(r.value))
}

// Then chains a fallible step onto a successful value.
func Then[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return fn(r.value)
}
