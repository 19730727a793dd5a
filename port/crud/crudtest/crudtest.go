// Package crudtest holds assertion helpers for reactive repositories.
package crudtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.llib.dev/testcase/assert"
	"go.llib.dev/testcase/pp"

	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/extid"
	"go.llib.dev/rxcrud/port/rx"
)

var Waiter = assert.Waiter{
	WaitDuration: time.Millisecond,
	Timeout:      5 * time.Second,
}

var Eventually = assert.Retry{
	Strategy: &Waiter,
}

// Get subscribes to the Single and asserts that it did not fail.
func Get[T any](tb testing.TB, ctx context.Context, s rx.Single[T]) (T, bool) {
	tb.Helper()
	assert.NotNil(tb, s, "nil rx.Single handle")
	v, ok, err := s.Get(ctx)
	assert.NoError(tb, err)
	return v, ok
}

// Collect subscribes to the Many and asserts that it completed without failure.
func Collect[T any](tb testing.TB, ctx context.Context, m rx.Many[T]) []T {
	tb.Helper()
	assert.NotNil(tb, m, "nil rx.Many handle")
	vs, err := m.Collect(ctx)
	assert.NoError(tb, err)
	return vs
}

// Wait subscribes to the Completion and asserts that it completed without failure.
func Wait(tb testing.TB, ctx context.Context, c rx.Completion) {
	tb.Helper()
	assert.NotNil(tb, c, "nil rx.Completion handle")
	assert.NoError(tb, c.Wait(ctx))
}

// Count asserts that count emits exactly one value, and returns it.
func Count(tb testing.TB, ctx context.Context, subject crud.Counter) int64 {
	tb.Helper()
	n, ok := Get(tb, ctx, subject.Count())
	assert.True(tb, ok, "count is expected to emit exactly one value")
	return n
}

type Helper[ENT, ID any] struct {
	IDA extid.Accessor[ENT, ID]
}

func (h Helper[ENT, ID]) HasID(tb testing.TB, ent ENT) ID {
	tb.Helper()
	id, ok := h.IDA.Lookup(ent)
	assert.True(tb, ok, assert.MessageF("expected to find external ID in %s", pp.Format(ent)))
	return id
}

// Save persists the entity, and deletes it at the end of the test.
// The saved representation is returned.
func (h Helper[ENT, ID]) Save(tb testing.TB, ctx context.Context, subject crud.Saver[ENT], ent ENT) ENT {
	tb.Helper()
	s, err := subject.Save(ent)
	assert.NoError(tb, err)
	saved, ok := Get(tb, ctx, s)
	assert.True(tb, ok, "save is expected to emit the saved entity")
	id := h.HasID(tb, saved)
	tb.Cleanup(func() {
		del, ok := subject.(crud.ByIDDeleter[ID])
		if !ok {
			tb.Logf("skipping cleanup as %T doesn't implement crud.ByIDDeleter", subject)
			return
		}
		c, err := del.DeleteByID(id)
		if err == nil {
			_ = c.Wait(context.WithoutCancel(ctx))
		}
	})
	return saved
}

func (h Helper[ENT, ID]) IsPresent(tb testing.TB, ctx context.Context, subject crud.ByIDFinder[ENT, ID], id ID) ENT {
	tb.Helper()
	var ent ENT
	msg := fmt.Sprintf("it was expected that %T with id %#v will be findable", ent, id)
	Eventually.Assert(tb, func(it testing.TB) {
		s, err := subject.FindByID(id)
		assert.Must(it).NoError(err)
		v, found, err := s.Get(ctx)
		assert.Must(it).NoError(err)
		assert.Must(it).True(found, assert.Message(msg))
		ent = v
	})
	return ent
}

func (h Helper[ENT, ID]) IsAbsent(tb testing.TB, ctx context.Context, subject crud.ByIDFinder[ENT, ID], id ID) {
	tb.Helper()
	msg := fmt.Sprintf("it was expected that %T with id %#v will be absent", *new(ENT), id)
	Eventually.Assert(tb, func(it testing.TB) {
		s, err := subject.FindByID(id)
		assert.Must(it).NoError(err)
		_, found, err := s.Get(ctx)
		assert.Must(it).NoError(err)
		assert.Must(it).False(found, assert.Message(msg))
	})
}

// DeleteAll empties the subject and waits until the count reaches zero.
func DeleteAll(tb testing.TB, ctx context.Context, subject interface {
	crud.AllDeleter
	crud.Counter
}) {
	tb.Helper()
	Wait(tb, ctx, subject.DeleteAll())
	Eventually.Assert(tb, func(it testing.TB) {
		n, ok, err := subject.Count().Get(ctx)
		assert.Must(it).NoError(err)
		assert.Must(it).True(ok)
		assert.Must(it).Equal(int64(0), n)
	})
}
