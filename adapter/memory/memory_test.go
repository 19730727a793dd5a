package memory_test

import (
	"context"
	"iter"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/adapter/memory"
	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/comproto/comprotocontract"
	"go.llib.dev/rxcrud/port/crud/crudcontract"
	"go.llib.dev/rxcrud/port/crud/crudtest"
	"go.llib.dev/rxcrud/port/rx"
	"go.llib.dev/rxcrud/testing/testent"
)

func TestRepository(t *testing.T) {
	m := memory.NewMemory()
	testcase.RunSuite(t,
		crudcontract.Repository[testent.Foo, testent.FooID](
			memory.NewRepository[testent.Foo, testent.FooID](m),
			crudcontract.Config[testent.Foo, testent.FooID]{
				MakeEntity:   testent.MakeFoo,
				ChangeEntity: testent.ChangeFoo,
			}),
		crudcontract.Repository[testent.Note, testent.NoteID](
			memory.NewRepository[testent.Note, testent.NoteID](m),
			crudcontract.Config[testent.Note, testent.NoteID]{
				MakeEntity:   testent.MakeNote,
				ChangeEntity: testent.ChangeNote,
			}),
		crudcontract.Repository[*testent.Foo, testent.FooID](
			memory.NewRepository[*testent.Foo, testent.FooID](m),
			crudcontract.Config[*testent.Foo, testent.FooID]{
				MakeEntity: func(tb testing.TB) *testent.Foo {
					v := testent.MakeFoo(tb)
					return &v
				},
				ChangeEntity: func(tb testing.TB, ptr **testent.Foo) {
					testent.ChangeFoo(tb, *ptr)
				},
			}),
		comprotocontract.OnePhaseCommitProtocol(m),
	)
}

func TestMemory(t *testing.T) {
	s := testcase.NewSpec(t)

	subject := testcase.Let(s, func(t *testcase.T) *memory.Memory {
		return memory.NewMemory()
	})
	ns := testcase.Let(s, func(t *testcase.T) string {
		return t.Random.StringNWithCharset(8, "abcdef")
	})

	s.Test("values are isolated by namespace", func(t *testcase.T) {
		ctx := context.Background()
		subject.Get(t).Set(ctx, ns.Get(t), "k", 42)
		v, ok := subject.Get(t).Get(ctx, ns.Get(t), "k")
		assert.True(t, ok)
		assert.Equal[any](t, 42, v)
		_, ok = subject.Get(t).Get(ctx, ns.Get(t)+"-other", "k")
		assert.False(t, ok)
	})

	s.Describe("transactions", func(s *testcase.Spec) {
		tx := testcase.Let(s, func(t *testcase.T) context.Context {
			ctx, err := subject.Get(t).BeginTx(context.Background())
			assert.Must(t).NoError(err)
			return ctx
		})

		s.Test("changes are only visible within the transaction until commit", func(t *testcase.T) {
			subject.Get(t).Set(tx.Get(t), ns.Get(t), "k", "v")
			_, ok := subject.Get(t).Get(context.Background(), ns.Get(t), "k")
			assert.False(t, ok)
			_, ok = subject.Get(t).Get(tx.Get(t), ns.Get(t), "k")
			assert.True(t, ok)

			assert.NoError(t, subject.Get(t).CommitTx(tx.Get(t)))
			v, ok := subject.Get(t).Get(context.Background(), ns.Get(t), "k")
			assert.True(t, ok)
			assert.Equal[any](t, "v", v)
		})

		s.Test("rollback discards the changes", func(t *testcase.T) {
			subject.Get(t).Set(context.Background(), ns.Get(t), "k", "before")
			assert.True(t, subject.Get(t).Del(tx.Get(t), ns.Get(t), "k"))
			_, ok := subject.Get(t).Get(tx.Get(t), ns.Get(t), "k")
			assert.False(t, ok)

			assert.NoError(t, subject.Get(t).RollbackTx(tx.Get(t)))
			v, ok := subject.Get(t).Get(context.Background(), ns.Get(t), "k")
			assert.True(t, ok)
			assert.Equal[any](t, "before", v)
		})

		s.Test("rolling back a nested transaction rolls back its parent as well", func(t *testcase.T) {
			inner, err := subject.Get(t).BeginTx(tx.Get(t))
			assert.Must(t).NoError(err)
			assert.NoError(t, subject.Get(t).RollbackTx(inner))
			assert.ErrorIs(t, context.Canceled, tx.Get(t).Err())
		})
	})
}

func TestStore(t *testing.T) {
	s := testcase.NewSpec(t)

	m := testcase.Let(s, func(t *testcase.T) *memory.Memory {
		return memory.NewMemory()
	})
	subject := testcase.Let(s, func(t *testcase.T) *memory.Store[testent.Note, testent.NoteID] {
		return memory.NewStore[testent.Note, testent.NoteID](m.Get(t))
	})

	s.Test("Save assigns a serial identifier to entities without one", func(t *testcase.T) {
		ctx := context.Background()
		n1, n2 := testent.MakeNote(t), testent.MakeNote(t)
		assert.NoError(t, subject.Get(t).Save(ctx, &n1))
		assert.NoError(t, subject.Get(t).Save(ctx, &n2))
		assert.NotEqual(t, n1.ID, 0)
		assert.True(t, n1.ID < n2.ID)
	})

	s.Test("Save keeps a configured identifier generator", func(t *testcase.T) {
		id := testent.NoteID(t.Random.IntBetween(1, 1000))
		subject.Get(t).MakeID = func(context.Context) (testent.NoteID, error) { return id, nil }
		n := testent.MakeNote(t)
		assert.NoError(t, subject.Get(t).Save(context.Background(), &n))
		assert.Equal(t, id, n.ID)
	})

	s.Test("DeleteByID reports an unknown id as not found", func(t *testcase.T) {
		err := subject.Get(t).DeleteByID(context.Background(), testent.NoteID(t.Random.IntBetween(1, 1000)))
		assert.Error(t, err)
	})

	s.Test("operations fail with a finished transaction", func(t *testcase.T) {
		tx, err := m.Get(t).BeginTx(context.Background())
		assert.Must(t).NoError(err)
		assert.NoError(t, m.Get(t).CommitTx(tx))
		n := testent.MakeNote(t)
		assert.Error(t, subject.Get(t).Save(tx, &n))
	})

	s.Test("FindAll lists the entities in a stable order", func(t *testcase.T) {
		ctx := context.Background()
		for range 3 {
			n := testent.MakeNote(t)
			assert.NoError(t, subject.Get(t).Save(ctx, &n))
		}
		var first, second []testent.Note
		for v, err := range subject.Get(t).FindAll(ctx) {
			assert.NoError(t, err)
			first = append(first, v)
		}
		for v, err := range subject.Get(t).FindAll(ctx) {
			assert.NoError(t, err)
			second = append(second, v)
		}
		assert.Equal(t, 3, len(first))
		assert.Equal(t, first, second)
	})

	s.Test("stored entities are copies of the saved and the returned values", func(t *testcase.T) {
		ctx := context.Background()
		store := memory.NewStore[*testent.Foo, testent.FooID](m.Get(t))
		in := testent.MakeFoo(t)
		ptr := &in
		assert.NoError(t, store.Save(ctx, &ptr))
		assert.NotEmpty(t, ptr.ID)

		ptr.Bar = "changed without save"
		got, ok, err := store.FindByID(ctx, ptr.ID)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, got != ptr)
		assert.NotEqual(t, "changed without save", got.Bar)

		got.Baz = "changed on the found value"
		again, ok, err := store.FindByID(ctx, ptr.ID)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NotEqual(t, "changed on the found value", again.Baz)
	})

	s.Test("Repository.Save leaves the given entity untouched", func(t *testcase.T) {
		ctx := context.Background()
		repo := memory.NewRepository[*testent.Foo, testent.FooID](m.Get(t))
		in := testent.MakeFoo(t)
		single, err := repo.Save(&in)
		assert.Must(t).NoError(err)
		saved, ok, err := single.Get(ctx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, saved != &in)
		assert.NotEmpty(t, saved.ID)
		assert.Empty(t, in.ID)
	})

	s.Test("an Atomic save stream is rolled back when the input fails", func(t *testcase.T) {
		ctx := context.Background()
		repo := memory.NewRepository[testent.Note, testent.NoteID](m.Get(t))
		expErr := t.Random.Error()
		input := rx.Many[testent.Note](func(ctx context.Context) iter.Seq2[testent.Note, error] {
			return func(yield func(testent.Note, error) bool) {
				if !yield(testent.MakeNote(t), nil) {
					return
				}
				yield(testent.Note{}, expErr)
			}
		})
		saved, err := repo.SaveStream(input)
		assert.Must(t).NoError(err)
		_, err = comproto.Atomic(m.Get(t), saved).Collect(ctx)
		assert.ErrorIs(t, expErr, err)
		assert.Equal(t, int64(0), crudtest.Count(t, ctx, repo))
	})
}
