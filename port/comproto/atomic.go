package comproto

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/port/option"
	"go.llib.dev/rxcrud/port/rx"
)

type AtomicOption = option.Option[AtomicConfig]

type AtomicConfig struct {
	// Logger receives the commit failures which can't be emitted anymore,
	// because the consumer already stopped the stream.
	Logger *zap.Logger
}

func (c *AtomicConfig) Init() { c.Logger = zap.NewNop() }

func WithLogger(l *zap.Logger) AtomicOption {
	return option.Func[AtomicConfig](func(c *AtomicConfig) { c.Logger = l })
}

// Atomic runs every subscription of the Many inside its own transaction.
//
// The transaction is committed when the stream completes, and rolled back when it fails.
// When the consumer stops early, the work done so far is committed,
// cancelling a stream never undoes what it already did.
// A failure of that commit has no consumer to be emitted to, so it is logged with the configured Logger.
func Atomic[T any](cm OnePhaseCommitProtocol, m rx.Many[T], opts ...AtomicOption) rx.Many[T] {
	c := option.ToConfig(opts)
	return func(ctx context.Context) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			var zero T
			tx, err := cm.BeginTx(ctx)
			if err != nil {
				yield(zero, err)
				return
			}
			for v, err := range m.Iter(tx) {
				if err != nil {
					yield(zero, errorkit.Merge(err, cm.RollbackTx(tx)))
					return
				}
				if !yield(v, nil) {
					if err := cm.CommitTx(tx); err != nil {
						c.Logger.Warn("commit of an early stopped atomic stream failed", zap.Error(err))
					}
					return
				}
			}
			if err := cm.CommitTx(tx); err != nil {
				yield(zero, err)
			}
		}
	}
}

// AtomicSingle runs every subscription of the Single inside its own transaction.
func AtomicSingle[T any](cm OnePhaseCommitProtocol, s rx.Single[T]) rx.Single[T] {
	return func(ctx context.Context) (_ T, _ bool, rErr error) {
		tx, err := cm.BeginTx(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		defer FinishOnePhaseCommit(&rErr, cm, tx)
		return s.Get(tx)
	}
}

// AtomicCompletion runs every subscription of the Completion inside its own transaction.
func AtomicCompletion(cm OnePhaseCommitProtocol, c rx.Completion) rx.Completion {
	return func(ctx context.Context) (rErr error) {
		tx, err := cm.BeginTx(ctx)
		if err != nil {
			return err
		}
		defer FinishOnePhaseCommit(&rErr, cm, tx)
		return c.Wait(tx)
	}
}
