// Package comprotocontract verifies OnePhaseCommitProtocol suppliers,
// including how their transactions behave under the reactive boundaries of package comproto.
package comprotocontract

import (
	"context"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/zerokit"
	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/contract"
	"go.llib.dev/rxcrud/port/option"
	"go.llib.dev/rxcrud/port/rx"
)

type Option = option.Option[Config]

type Config struct {
	MakeContext func(testing.TB) context.Context
}

func (c *Config) Init() {
	c.MakeContext = func(testing.TB) context.Context { return context.Background() }
}

func (c Config) Configure(oth *Config) {
	oth.MakeContext = zerokit.Coalesce(c.MakeContext, oth.MakeContext)
}

func OnePhaseCommitProtocol(subject comproto.OnePhaseCommitProtocol, opts ...Option) contract.Contract {
	c := option.ToConfig[Config](opts)
	s := testcase.NewSpec(nil)
	s.HasSideEffect()

	s.Test(`BeginTx + CommitTx finishes the transaction context`, func(t *testcase.T) {
		tx, err := subject.BeginTx(c.MakeContext(t))
		assert.Must(t).NoError(err)
		assert.Must(t).NoError(subject.CommitTx(tx))
		assert.ErrorIs(t, context.Canceled, tx.Err())
		assert.Error(t, subject.CommitTx(tx), "a finished transaction can't be committed again")
		assert.Error(t, subject.RollbackTx(tx), "a finished transaction can't be rolled back")
	})

	s.Test(`BeginTx + RollbackTx finishes the transaction context`, func(t *testcase.T) {
		tx, err := subject.BeginTx(c.MakeContext(t))
		assert.Must(t).NoError(err)
		assert.Must(t).NoError(subject.RollbackTx(tx))
		assert.ErrorIs(t, context.Canceled, tx.Err())
		assert.Error(t, subject.RollbackTx(tx))
		assert.Error(t, subject.CommitTx(tx))
	})

	s.Test(`nested BeginTx is accepted, and the inner commit keeps the outer transaction alive`, func(t *testcase.T) {
		tx1, err := subject.BeginTx(c.MakeContext(t))
		assert.Must(t).NoError(err)
		tx2, err := subject.BeginTx(tx1)
		assert.Must(t).NoError(err)

		assert.Must(t).NoError(subject.CommitTx(tx2))
		assert.ErrorIs(t, context.Canceled, tx2.Err())
		assert.NoError(t, tx1.Err())

		assert.Must(t).NoError(subject.CommitTx(tx1))
		assert.ErrorIs(t, context.Canceled, tx1.Err())
	})

	s.When("context has an error", func(s *testcase.Spec) {
		cancel := testcase.Let[func()](s, nil)
		ctx := testcase.Let(s, func(t *testcase.T) context.Context {
			ctx, cfn := context.WithCancel(c.MakeContext(t))
			cancel.Set(t, cfn)
			return ctx
		}).EagerLoading(s)

		s.Test("BeginTx returns the error", func(t *testcase.T) {
			cancel.Get(t)()
			_, err := subject.BeginTx(ctx.Get(t))
			assert.ErrorIs(t, ctx.Get(t).Err(), err)
		})

		s.Test("CommitTx returns the error", func(t *testcase.T) {
			tx, err := subject.BeginTx(ctx.Get(t))
			assert.Must(t).NoError(err)
			cancel.Get(t)()
			assert.ErrorIs(t, ctx.Get(t).Err(), subject.CommitTx(tx))
		})
	})

	s.Describe("reactive boundary", func(s *testcase.Spec) {
		s.Test("a completed Atomic stream finishes its transaction", func(t *testcase.T) {
			var txs []context.Context
			inTx := rx.Single[int](func(ctx context.Context) (int, bool, error) {
				txs = append(txs, ctx)
				return 1, true, nil
			})
			vs, err := comproto.Atomic(subject, rx.ToMany(inTx)).Collect(c.MakeContext(t))
			assert.NoError(t, err)
			assert.Equal(t, []int{1}, vs)
			assert.Equal(t, 1, len(txs))
			assert.ErrorIs(t, context.Canceled, txs[0].Err())
		})

		s.Test("a failing AtomicCompletion rolls its transaction back", func(t *testcase.T) {
			var tx context.Context
			expErr := t.Random.Error()
			err := comproto.AtomicCompletion(subject, func(ctx context.Context) error {
				tx = ctx
				return expErr
			}).Wait(c.MakeContext(t))
			assert.ErrorIs(t, expErr, err)
			assert.NotNil(t, tx)
			assert.ErrorIs(t, context.Canceled, tx.Err())
			assert.Error(t, subject.CommitTx(tx), "the transaction should be already finished")
		})
	})

	return s.AsSuite("OnePhaseCommitProtocol")
}
