// Package foundation provides small generic utilities shared across packages.
package foundation

import "fmt"

// Unit is the empty value for results that carry no payload.
type Unit = struct{}

// Result represents an operation that either succeeded with a value or
// failed with an error. Store operations return Result instead of a bare
// error so that best-effort persistence failures are explicit values the
// caller logs rather than conditions that propagate and crash.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a successful Result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a failed Result.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the operation succeeded.
func (r Result[T]) IsOk() bool { return r.err == nil }

// IsErr reports whether the operation failed.
func (r Result[T]) IsErr() bool { return r.err != nil }

// Err returns the error, nil when Ok.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value, panicking on an Err result.
func (r Result[T]) Unwrap() T {
	if r.err != nil {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value if Ok, otherwise the fallback.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// ToTuple converts the Result to the conventional (value, error) pair.
func (r Result[T]) ToTuple() (T, error) {
	return r.value, r.err
}
