package comproto_test

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/rx"
)

func ExampleFinishTx() {
	db, err := sql.Open(`fake`, `DSN`)
	if err != nil {
		panic(err)
	}

	myMethod := func(ctx context.Context) (returnError error) {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer comproto.FinishTx(&returnError, tx.Commit, tx.Rollback)
		return nil
	}

	_ = myMethod
}

type StubCommitProtocol struct {
	BeginErr    error
	CommitErr   error
	RollbackErr error

	Began, Committed, RolledBack int
}

func (cm *StubCommitProtocol) BeginTx(ctx context.Context) (context.Context, error) {
	if cm.BeginErr != nil {
		return nil, cm.BeginErr
	}
	cm.Began++
	return ctx, nil
}

func (cm *StubCommitProtocol) CommitTx(context.Context) error {
	cm.Committed++
	return cm.CommitErr
}

func (cm *StubCommitProtocol) RollbackTx(context.Context) error {
	cm.RolledBack++
	return cm.RollbackErr
}

func TestFinishTx(t *testing.T) {
	s := testcase.NewSpec(t)

	var (
		CommitErr  = errors.New("CommitErr")
		rolledBack = testcase.LetValue(s, false)
		rollback   = func(t *testcase.T) func() error {
			return func() error {
				rolledBack.Set(t, true)
				return nil
			}
		}
	)

	s.Test(`nil error pointer panics`, func(t *testcase.T) {
		assert.Panic(t, func() { comproto.FinishTx(nil, nil, rollback(t)) })
	})

	s.Test(`no error commits and returns the commit error`, func(t *testcase.T) {
		var err error
		comproto.FinishTx(&err, func() error { return CommitErr }, rollback(t))
		assert.Equal(t, CommitErr, err)
		assert.False(t, rolledBack.Get(t))
	})

	s.Test(`error rolls back and keeps the root cause`, func(t *testcase.T) {
		expErr := t.Random.Error()
		err := expErr
		comproto.FinishTx(&err, func() error { return CommitErr }, rollback(t))
		assert.True(t, rolledBack.Get(t))
		assert.Equal(t, expErr, err)
	})
}

func TestFinishOnePhaseCommit(t *testing.T) {
	s := testcase.NewSpec(t)

	cm := testcase.Let(s, func(t *testcase.T) *StubCommitProtocol {
		return &StubCommitProtocol{RollbackErr: errors.New("RollbackErr")}
	})

	s.Test(`commit`, func(t *testcase.T) {
		var err error
		comproto.FinishOnePhaseCommit(&err, cm.Get(t), context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 1, cm.Get(t).Committed)
	})

	s.Test(`rollback merges the rollback error`, func(t *testcase.T) {
		expErr := t.Random.Error()
		err := expErr
		comproto.FinishOnePhaseCommit(&err, cm.Get(t), context.Background())
		assert.Equal(t, 1, cm.Get(t).RolledBack)
		assert.ErrorIs(t, expErr, err)
		assert.ErrorIs(t, cm.Get(t).RollbackErr, err)
	})
}

func TestAtomic(t *testing.T) {
	s := testcase.NewSpec(t)

	var (
		cm  = testcase.Let(s, func(t *testcase.T) *StubCommitProtocol { return &StubCommitProtocol{} })
		ctx = testcase.Let(s, func(t *testcase.T) context.Context { return context.Background() })
	)

	s.Describe("Many", func(s *testcase.Spec) {
		s.Test("completion commits", func(t *testcase.T) {
			vs, err := comproto.Atomic(cm.Get(t), rx.Of(1, 2, 3)).Collect(ctx.Get(t))
			assert.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, vs)
			assert.Equal(t, 1, cm.Get(t).Committed)
			assert.Equal(t, 0, cm.Get(t).RolledBack)
		})

		s.Test("failure rolls back", func(t *testcase.T) {
			expErr := t.Random.Error()
			failing := rx.Many[int](func(context.Context) iter.Seq2[int, error] {
				return func(yield func(int, error) bool) {
					if !yield(1, nil) {
						return
					}
					yield(0, expErr)
				}
			})
			vs, err := comproto.Atomic(cm.Get(t), failing).Collect(ctx.Get(t))
			assert.ErrorIs(t, expErr, err)
			assert.Equal(t, []int{1}, vs)
			assert.Equal(t, 0, cm.Get(t).Committed)
			assert.Equal(t, 1, cm.Get(t).RolledBack)
		})

		s.Test("consumer cancellation keeps the work done", func(t *testcase.T) {
			for range comproto.Atomic(cm.Get(t), rx.Of(1, 2, 3)).Iter(ctx.Get(t)) {
				break
			}
			assert.Equal(t, 1, cm.Get(t).Committed)
			assert.Equal(t, 0, cm.Get(t).RolledBack)
		})

		s.Test("a failing commit after consumer cancellation is logged", func(t *testcase.T) {
			cm.Get(t).CommitErr = t.Random.Error()
			core, logs := observer.New(zapcore.WarnLevel)
			for range comproto.Atomic(cm.Get(t), rx.Of(1, 2, 3), comproto.WithLogger(zap.New(core))).Iter(ctx.Get(t)) {
				break
			}
			assert.Equal(t, 1, cm.Get(t).Committed)
			entries := logs.All()
			assert.Equal(t, 1, len(entries))
			assert.Equal[any](t, cm.Get(t).CommitErr.Error(), entries[0].ContextMap()["error"])
		})

		s.Test("begin failure", func(t *testcase.T) {
			cm.Get(t).BeginErr = t.Random.Error()
			_, err := comproto.Atomic(cm.Get(t), rx.Of(1)).Collect(ctx.Get(t))
			assert.ErrorIs(t, cm.Get(t).BeginErr, err)
		})

		s.Test("every subscription has its own transaction", func(t *testcase.T) {
			m := comproto.Atomic(cm.Get(t), rx.Of(1))
			_, _ = m.Collect(ctx.Get(t))
			_, _ = m.Collect(ctx.Get(t))
			assert.Equal(t, 2, cm.Get(t).Began)
		})
	})

	s.Describe("Single", func(s *testcase.Spec) {
		s.Test("success commits", func(t *testcase.T) {
			v, ok, err := comproto.AtomicSingle(cm.Get(t), rx.Just(42)).Get(ctx.Get(t))
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 42, v)
			assert.Equal(t, 1, cm.Get(t).Committed)
		})

		s.Test("commit failure is reported", func(t *testcase.T) {
			cm.Get(t).CommitErr = t.Random.Error()
			_, ok, err := comproto.AtomicSingle(cm.Get(t), rx.Just(42)).Get(ctx.Get(t))
			assert.ErrorIs(t, cm.Get(t).CommitErr, err)
			assert.False(t, ok)
		})
	})

	s.Describe("Completion", func(s *testcase.Spec) {
		s.Test("failure rolls back", func(t *testcase.T) {
			expErr := t.Random.Error()
			err := comproto.AtomicCompletion(cm.Get(t), rx.Failed(expErr)).Wait(ctx.Get(t))
			assert.ErrorIs(t, expErr, err)
			assert.Equal(t, 1, cm.Get(t).RolledBack)
		})
	})
}
