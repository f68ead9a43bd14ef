// Package result provides a two-variant Success/Failure container used by
// the domain layer to return validation outcomes as values.
package result

import "fmt"

// Result holds either a value (Success) or an error (Failure), never both.
type Result[T, E any] struct {
	value T
	err   E
	ok    bool
}

// Ok wraps v in a Success.
func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{value: v, ok: true}
}

// Fail wraps e in a Failure.
func Fail[T, E any](e E) Result[T, E] {
	return Result[T, E]{err: e}
}

func (r Result[T, E]) IsSuccess() bool { return r.ok }

func (r Result[T, E]) IsFailure() bool { return !r.ok }

// Value returns the contained value, or the zero T on Failure.
func (r Result[T, E]) Value() T { return r.value }

// Err returns the contained error, or the zero E on Success.
func (r Result[T, E]) Err() E { return r.err }

// Get unpacks the result into Go's usual (value, error) pair.
func (r Result[T, E]) Get() (T, E) { return r.value, r.err }

func (r Result[T, E]) GetOrElse(def T) T {
	if r.ok {
		return r.value
	}
	return def
}

func (r Result[T, E]) String() string {
	if r.ok {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%v)", r.err)
}

// Map applies fn to a Success value. A Failure passes through unchanged.
func Map[T, U, E any](r Result[T, E], fn func(T) U) Result[U, E] {
	if !r.ok {
		return Fail[U](r.err)
	}
	return Ok[U, E](fn(r.value))
}

// FlatMap chains result-returning operations, stopping at the first Failure.
func FlatMap[T, U, E any](r Result[T, E], fn func(T) Result[U, E]) Result[U, E] {
	if !r.ok {
		return Fail[U](r.err)
	}
	return fn(r.value)
}

// MapError transforms the error of a Failure. A Success passes through.
func MapError[T, E, F any](r Result[T, E], fn func(E) F) Result[T, F] {
	if r.ok {
		return Ok[T, F](r.value)
	}
	return Fail[T](fn(r.err))
}

// Combine collects all values when every result succeeds, otherwise it
// returns the first Failure in order.
func Combine[T, E any](rs ...Result[T, E]) Result[[]T, E] {
	values := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.ok {
			return Fail[[]T](r.err)
		}
		values = append(values, r.value)
	}
	return Ok[[]T, E](values)
}

// FromCall runs fn and converts its outcome into a Result. A non-nil error,
// or a panic inside fn, becomes a Failure mapped through handler.
func FromCall[T, E any](fn func() (T, error), handler func(error) E) (res Result[T, E]) {
	defer func() {
		if p := recover(); p != nil {
			res = Fail[T](handler(fmt.Errorf("recovered: %v", p)))
		}
	}()

	v, err := fn()
	if err != nil {
		return Fail[T](handler(err))
	}
	return Ok[T, E](v)
}

// Try is FromCall with the error kept as is.
func Try[T any](fn func() (T, error)) Result[T, error] {
	return FromCall(fn, func(err error) error { return err })
}
