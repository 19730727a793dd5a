package rx

import (
	"context"
	"iter"

	"go.llib.dev/rxcrud/pkg/iterkit"
)

func Just[T any](v T) Single[T] {
	return func(context.Context) (T, bool, error) { return v, true, nil }
}

func Empty[T any]() Single[T] {
	return func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, nil
	}
}

func Fail[T any](err error) Single[T] {
	return func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, err
	}
}

func Of[T any](vs ...T) Many[T] { return FromSlice(vs) }

// FromSlice emits the elements of the slice in order.
// The slice is not copied.
func FromSlice[T any](vs []T) Many[T] {
	return func(context.Context) iter.Seq2[T, error] {
		return iterkit.ToErrSeq(iterkit.Slice(vs))
	}
}

func FromSeq[T any](seq iter.Seq[T]) Many[T] {
	return func(context.Context) iter.Seq2[T, error] {
		return iterkit.ToErrSeq(seq)
	}
}

func FromSeq2[T any](seq iter.Seq2[T, error]) Many[T] {
	return func(context.Context) iter.Seq2[T, error] { return seq }
}

// FromChan emits the values received from the channel until it is closed.
//
// A channel can be drained only once,
// so unlike the other constructors, the result is not re-triggerable.
func FromChan[T any](ch <-chan T) Many[T] {
	return func(ctx context.Context) iter.Seq2[T, error] {
		return iterkit.ChanCtx(ctx, ch)
	}
}

func None[T any]() Many[T] {
	return func(context.Context) iter.Seq2[T, error] {
		return iterkit.Empty2[T, error]()
	}
}

func Error[T any](err error) Many[T] {
	return func(context.Context) iter.Seq2[T, error] {
		return iterkit.Error[T](err)
	}
}

func Done() Completion {
	return func(context.Context) error { return nil }
}

func Failed(err error) Completion {
	return func(context.Context) error { return err }
}
