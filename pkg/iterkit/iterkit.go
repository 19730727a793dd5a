// Package iterkit holds helpers for range-over-func iterators.
//
// The failable form of a sequence is ErrSeq, an iter.Seq2 that pairs every value with an error.
package iterkit

import (
	"context"
	"iter"

	"go.llib.dev/rxcrud/pkg/errorkit"
)

// ErrSeq is an iterator that can tell if a currently returned value has an issue or not.
type ErrSeq[T any] = iter.Seq2[T, error]

type ErrFunc = func() error

type I1[T any] interface {
	iter.Seq[T] | ErrSeq[T]
}

// Slice iterates over the elements of the slice in order.
// The slice is not copied.
func Slice[T any](vs []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}

func Collect[T any](i iter.Seq[T]) []T {
	if i == nil {
		return nil
	}
	var vs []T
	for v := range i {
		vs = append(vs, v)
	}
	return vs
}

// Error returns an iterator that only yields err.
func Error[T any](err error) ErrSeq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Empty iterator is used to represent nil result with Null object pattern
func Empty[T any]() iter.Seq[T] {
	return func(yield func(T) bool) {}
}

// Empty2 iterator is used to represent nil result with Null object pattern
func Empty2[T1, T2 any]() iter.Seq2[T1, T2] {
	return func(yield func(T1, T2) bool) {}
}

// First returns the first value of the iterator and stops it.
func First[T any](i iter.Seq[T]) (T, bool) {
	for v := range i {
		return v, true
	}
	var zero T
	return zero, false
}

// First2 returns the first pair of the iterator and stops it.
func First2[K, V any](i iter.Seq2[K, V]) (K, V, bool) {
	for k, v := range i {
		return k, v, true
	}
	var (
		zeroK K
		zeroV V
	)
	return zeroK, zeroV, false
}

// FirstErr returns the first value of a failable iterator.
// An error yielded in place of the first value is returned as is.
func FirstErr[T any](i ErrSeq[T]) (T, bool, error) {
	v, err, ok := First2(i)
	if !ok {
		return v, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func Map[To any, From any](i iter.Seq[From], transform func(From) To) iter.Seq[To] {
	return func(yield func(To) bool) {
		for v := range i {
			if !yield(transform(v)) {
				break
			}
		}
	}
}

// MapErr transforms the values of a plain or a failable iterator with a failable transform.
// Errors of the source are passed through without calling transform.
func MapErr[To any, From any, Iter I1[From]](i Iter, transform func(From) (To, error)) ErrSeq[To] {
	var src ErrSeq[From] = castToErrSeq[From](i)
	return func(yield func(To, error) bool) {
		for v, err := range src {
			if err != nil {
				var zero To
				if !yield(zero, err) {
					return
				}
				continue
			}
			if !yield(transform(v)) {
				return
			}
		}
	}
}

func castToErrSeq[T any, Iter I1[T]](i Iter) ErrSeq[T] {
	switch i := any(i).(type) {
	case iter.Seq[T]:
		return ToErrSeq(i)
	case ErrSeq[T]:
		return i
	default:
		panic("unreachable")
	}
}

// Count iterates over and counts the total iterations number.
func Count[T any](i iter.Seq[T]) int {
	var total int
	for range i {
		total++
	}
	return total
}

func Count2[K, V any](i iter.Seq2[K, V]) int {
	var total int
	for range i {
		total++
	}
	return total
}

// Chan creates an iterator out from a channel
func Chan[T any](ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		if ch == nil {
			return
		}
		for v := range ch {
			if !yield(v) {
				return
			}
		}
	}
}

// ChanCtx creates a failable iterator out from a channel.
// A blocked receive is interrupted by the cancellation of ctx, which is yielded as ctx.Err().
func ChanCtx[T any](ctx context.Context, ch <-chan T) ErrSeq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			select {
			case <-ctx.Done():
				yield(zero, ctx.Err())
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// ToErrSeq turns an iter.Seq[T] into an ErrSeq[T],
// and uses the error functions to yield potential issues with the iteration.
func ToErrSeq[T any](i iter.Seq[T], errFuncs ...ErrFunc) ErrSeq[T] {
	return func(yield func(T, error) bool) {
		for v := range i {
			if !yield(v, nil) {
				return
			}
		}
		if 0 < len(errFuncs) {
			var errs []error
			for _, fn := range errFuncs {
				if fn != nil {
					errs = append(errs, fn())
				}
			}
			if err := errorkit.Merge(errs...); err != nil {
				var zero T
				yield(zero, err)
			}
		}
	}
}

// TakeWhileOK passes through the values of i until the first error,
// which is yielded as the last element.
func TakeWhileOK[T any](i ErrSeq[T]) ErrSeq[T] {
	return func(yield func(T, error) bool) {
		for v, err := range i {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// CollectErr gathers the values of a failable iterator and merges the errors it yielded.
func CollectErr[T any](i iter.Seq2[T, error]) ([]T, error) {
	if i == nil {
		return nil, nil
	}
	var (
		vs   []T
		errs []error
	)
	for v, err := range i {
		if err == nil {
			vs = append(vs, v)
		} else {
			errs = append(errs, err)
		}
	}
	return vs, errorkit.Merge(errs...)
}

// CountErr counts the values of a failable iterator and stops at the first error.
func CountErr[T any](i ErrSeq[T]) (int, error) {
	var total int
	for _, err := range i {
		if err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}
