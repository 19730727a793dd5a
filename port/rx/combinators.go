package rx

import (
	"context"
	"iter"

	"go.llib.dev/rxcrud/pkg/iterkit"
)

// Map transforms the value of a Single.
// An empty Single stays empty, fn is not called.
func Map[A, B any](s Single[A], fn func(A) (B, error)) Single[B] {
	return func(ctx context.Context) (B, bool, error) {
		var zero B
		a, ok, err := s.Get(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		b, err := fn(a)
		if err != nil {
			return zero, false, err
		}
		return b, true, nil
	}
}

// FlatMap chains a Single that depends on the value of another one.
func FlatMap[A, B any](s Single[A], fn func(ctx context.Context, v A) Single[B]) Single[B] {
	return func(ctx context.Context) (B, bool, error) {
		var zero B
		a, ok, err := s.Get(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		return fn(ctx, a).Get(ctx)
	}
}

// MapMany transforms every value of a Many.
// The first error returned by fn terminates the stream.
func MapMany[A, B any](m Many[A], fn func(A) (B, error)) Many[B] {
	return func(ctx context.Context) iter.Seq2[B, error] {
		return iterkit.TakeWhileOK(iterkit.MapErr(m.Iter(ctx), fn))
	}
}

// DefaultIfEmpty emits v when the Single completes without a value.
func DefaultIfEmpty[T any](s Single[T], v T) Single[T] {
	return func(ctx context.Context) (T, bool, error) {
		got, ok, err := s.Get(ctx)
		if err != nil {
			return got, false, err
		}
		if !ok {
			return v, true, nil
		}
		return got, true, nil
	}
}

// First emits the first value of the Many, then cancels it.
func First[T any](m Many[T]) Single[T] {
	return func(ctx context.Context) (T, bool, error) {
		return iterkit.FirstErr(m.Iter(ctx))
	}
}

// ToMany emits the value of the Single, if any.
func ToMany[T any](s Single[T]) Many[T] {
	return func(ctx context.Context) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			v, ok, err := s.Get(ctx)
			if err != nil {
				yield(v, err)
				return
			}
			if ok {
				yield(v, nil)
			}
		}
	}
}

// Then subscribes to next only after the Completion finished successfully.
func Then[T any](c Completion, next Single[T]) Single[T] {
	return func(ctx context.Context) (T, bool, error) {
		if err := c.Wait(ctx); err != nil {
			var zero T
			return zero, false, err
		}
		return next.Get(ctx)
	}
}

// Count emits the number of values the Many produced.
func Count[T any](m Many[T]) Single[int64] {
	return func(ctx context.Context) (int64, bool, error) {
		n, err := iterkit.CountErr(m.Iter(ctx))
		if err != nil {
			return 0, false, err
		}
		return int64(n), true, nil
	}
}

// Ignore drops the values of a Many and reports only its outcome.
func Ignore[T any](m Many[T]) Completion {
	return func(ctx context.Context) error {
		_, err := iterkit.CountErr(m.Iter(ctx))
		return err
	}
}
