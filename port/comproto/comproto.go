// Package comproto describes the commit protocol that forms an explicit transaction boundary
// around repository pipelines.
package comproto

import (
	"context"
	"fmt"

	"go.llib.dev/rxcrud/pkg/errorkit"
)

type OnePhaseCommitProtocol interface {
	// BeginTx creates a context with a transaction.
	// Every operation that receives this context executes within the transaction,
	// until CommitTx or RollbackTx is called with it.
	BeginTx(context.Context) (context.Context, error)
	// CommitTx makes the changes of the transaction visible and durable.
	CommitTx(context.Context) error
	// RollbackTx discards the changes made by the transaction.
	RollbackTx(context.Context) error
}

// FinishTx commits when the error pointer holds no error,
// otherwise it rolls back and keeps the original error.
//
//	defer comproto.FinishTx(&returnErr, tx.Commit, tx.Rollback)
func FinishTx(errp *error, commit, rollback func() error) {
	if errp == nil {
		panic(fmt.Errorf(`error pointer cannot be nil for Finish Tx methods`))
	}
	if *errp != nil {
		*errp = errorkit.Merge(*errp, rollback())
		return
	}
	*errp = commit()
}

func FinishOnePhaseCommit(errp *error, cm OnePhaseCommitProtocol, tx context.Context) {
	FinishTx(errp, func() error {
		return cm.CommitTx(tx)
	}, func() error {
		return cm.RollbackTx(tx)
	})
}
