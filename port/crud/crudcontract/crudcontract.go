// Package crudcontract is the conformance harness of the reactive repository contract.
//
// Every role interface of package crud has a contract here.
// Run them against an implementation with testcase.RunSuite:
//
//	testcase.RunSuite(t, crudcontract.Repository[Foo, FooID](repo, crudcontract.Config[Foo, FooID]{
//		MakeEntity: MakeFoo,
//	}))
//
// The contracts create their fixtures through the subject itself,
// so optional parts of a contract are skipped when the subject doesn't implement
// the role needed to prepare or observe them (e.g. crud.Saver or crud.Counter).
package crudcontract

import (
	"context"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/zerokit"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudtest"
	"go.llib.dev/rxcrud/port/crud/extid"
	"go.llib.dev/rxcrud/port/option"
)

type Option[ENT, ID any] = option.Option[Config[ENT, ID]]

type Config[ENT, ID any] struct {
	// MakeContext returns the context used to consume the handles of the subject.
	MakeContext func(testing.TB) context.Context
	// MakeEntity creates a populated entity without an identifier.
	MakeEntity func(testing.TB) ENT
	// ChangeEntity modifies the non-identifier fields of an entity,
	// to represent a newer version of it.
	ChangeEntity func(testing.TB, *ENT)
	// IDA is the ID accessor. Configure it when ENT uses neither the `ext:"id"` tag nor an ID field.
	IDA extid.Accessor[ENT, ID]
	// InsertOnly declares that saving an already stored entity is not a replacement.
	InsertOnly bool
	// AllowEmptySave declares that save may complete without emitting the saved entity.
	AllowEmptySave bool
}

func (c *Config[ENT, ID]) Init() {
	c.MakeContext = func(testing.TB) context.Context { return context.Background() }
	c.MakeEntity = func(tb testing.TB) ENT {
		t := testcase.ToT(&tb)
		ent := t.Random.Make(*new(ENT)).(ENT)
		var zero ID
		if !zerokit.IsNil(ent) {
			_ = c.IDA.Set(&ent, zero)
		}
		return ent
	}
	c.ChangeEntity = func(tb testing.TB, ptr *ENT) {
		id, _ := c.IDA.Lookup(*ptr)
		v := c.MakeEntity(tb)
		assert.NoError(tb, c.IDA.Set(&v, id))
		*ptr = v
	}
}

func (c Config[ENT, ID]) Configure(oth *Config[ENT, ID]) {
	if c.MakeContext != nil {
		oth.MakeContext = c.MakeContext
	}
	if c.MakeEntity != nil {
		oth.MakeEntity = c.MakeEntity
	}
	if c.ChangeEntity != nil {
		oth.ChangeEntity = c.ChangeEntity
	}
	if c.IDA != nil {
		oth.IDA = c.IDA
	}
	oth.InsertOnly = oth.InsertOnly || c.InsertOnly
	oth.AllowEmptySave = oth.AllowEmptySave || c.AllowEmptySave
}

func (c Config[ENT, ID]) helper() crudtest.Helper[ENT, ID] {
	return crudtest.Helper[ENT, ID]{IDA: c.IDA}
}

func (c Config[ENT, ID]) lookupID(ent ENT) (ID, bool) {
	if zerokit.IsNil(ent) {
		var zero ID
		return zero, false
	}
	return c.IDA.Lookup(ent)
}

// saveFixture stores a new entity through the subject, and removes it at the end of the test.
func saveFixture[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any) ENT {
	t.Helper()
	saver, ok := subject.(crud.Saver[ENT])
	if !ok {
		t.Skipf("%T doesn't implement crud.Saver, fixtures can't be prepared", subject)
	}
	return c.helper().Save(t, c.MakeContext(t), saver, c.MakeEntity(t))
}

// makeAbsentID returns an identifier that was valid once, but no longer points to a stored entity.
func makeAbsentID[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any) ID {
	t.Helper()
	deleter, ok := subject.(crud.ByIDDeleter[ID])
	if !ok {
		t.Skipf("%T doesn't implement crud.ByIDDeleter, an absent id can't be prepared", subject)
	}
	id := c.helper().HasID(t, saveFixture(t, c, subject))
	del, err := deleter.DeleteByID(id)
	assert.NoError(t, err)
	crudtest.Wait(t, c.MakeContext(t), del)
	if finder, ok := subject.(crud.ByIDFinder[ENT, ID]); ok {
		c.helper().IsAbsent(t, c.MakeContext(t), finder, id)
	}
	return id
}

// countOf returns the current count, or skips the test when the subject can't count.
func countOf[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any) int64 {
	t.Helper()
	counter, ok := subject.(crud.Counter)
	if !ok {
		t.Skipf("%T doesn't implement crud.Counter", subject)
	}
	return crudtest.Count(t, c.MakeContext(t), counter)
}

func isPresent[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any, id ID) (ENT, bool) {
	t.Helper()
	finder, ok := subject.(crud.ByIDFinder[ENT, ID])
	if !ok {
		var zero ENT
		return zero, false
	}
	return c.helper().IsPresent(t, c.MakeContext(t), finder, id), true
}

func isAbsent[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any, id ID) {
	t.Helper()
	if finder, ok := subject.(crud.ByIDFinder[ENT, ID]); ok {
		c.helper().IsAbsent(t, c.MakeContext(t), finder, id)
	}
}

// shouldBeInvalid asserts the synchronous rejection of an absent argument.
func shouldBeInvalid[H any](t *testcase.T, handle H, err error) {
	t.Helper()
	assert.ErrorIs(t, crud.ErrInvalidArgument, err)
	assert.True(t, zerokit.IsNil(handle), "no handle is expected with an invalid argument")
}

func skipUnlessNilable[ENT any](t *testcase.T) {
	if !zerokit.IsNilable[ENT]() {
		t.Skipf("%T can't be nil", *new(ENT))
	}
}

func cancelledContext(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	return ctx
}
