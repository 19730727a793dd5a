// Package rx holds cardinality-typed, cold, asynchronous result handles.
//
// A handle is a function value. Creating one is inert;
// every call of Get, Iter or Wait starts a fresh pipeline with the given context.
//
//   - Single[T] resolves to zero or one value.
//   - Many[T] emits zero to many values, pulled with a range loop.
//   - Completion carries no value, only success or failure.
//
// Not found is not an error: a Single that has nothing to emit reports ok == false.
//
// A Many is terminated by the first error it yields; nothing is emitted after it.
// Breaking out of the range loop cancels the pipeline silently, without a failure.
// Cancelling the context while the pipeline is active is reported as the terminal error ctx.Err().
package rx

import (
	"context"
	"iter"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/pkg/iterkit"
)

const ErrNilHandle errorkit.Error = "rx: nil handle"

// Single is a lazily evaluated handle that resolves to at most one value.
// The bool result reports whether a value was emitted.
type Single[T any] func(ctx context.Context) (T, bool, error)

// Get subscribes to the Single and waits for its outcome.
func (s Single[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	if s == nil {
		return zero, false, ErrNilHandle
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v, ok, err := s(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	return v, true, nil
}

// Many is a lazily evaluated handle that emits zero or more values.
type Many[T any] func(ctx context.Context) iter.Seq2[T, error]

// Iter subscribes to the Many.
//
// The returned sequence yields at most one error, and it is always the last element.
// The context is checked before the first and between emissions.
func (m Many[T]) Iter(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if m == nil {
			iterkit.Error[T](ErrNilHandle)(yield)
			return
		}
		if err := ctx.Err(); err != nil {
			yield(zero, err)
			return
		}
		for v, err := range m(ctx) {
			if err != nil {
				yield(zero, err)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Collect subscribes to the Many and gathers every emitted value.
func (m Many[T]) Collect(ctx context.Context) ([]T, error) {
	return iterkit.CollectErr(m.Iter(ctx))
}

// ForEach subscribes to the Many and calls fn with every value.
// An error from fn cancels the pipeline and is returned.
func (m Many[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for v, err := range m.Iter(ctx) {
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// Completion is a lazily evaluated handle that signals success or failure.
type Completion func(ctx context.Context) error

// Wait subscribes to the Completion and blocks until it finishes.
func (c Completion) Wait(ctx context.Context) error {
	if c == nil {
		return ErrNilHandle
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c(ctx)
}
