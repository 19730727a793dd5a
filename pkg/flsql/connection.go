package flsql

import (
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"

	"go.llib.dev/rxcrud/pkg/errorkit"
)

const ErrNoTx errorkit.Error = "no transaction found in the given context"

// ConnectionAdapter is generic implementation to handle query interactions which are aware of transactions within the context.
//
// Nested transactions share the outermost driver transaction.
// Committing a nested transaction only finishes its context,
// rolling it back rolls back the outermost transaction as well.
//
// Example:
//
//	type Connection = flsql.ConnectionAdapter[sql.DB, sql.Tx]
type ConnectionAdapter[DB, TX any] struct {
	// DB is the underlying Database type to access.
	DB *DB
	// TxAdapter provides the mapping for a native driver specific TX type to be usable as a Queryable.
	TxAdapter func(tx *TX) Queryable
	// DBAdapter provides the mapping for a native driver specific DB type to be usable as a Queryable.
	DBAdapter func(db *DB) Queryable
	// Begin is a function that must create a new transaction that is also a connection.
	Begin func(ctx context.Context, db *DB) (*TX, error)
	// Commit is a function that must commit a given transaction.
	Commit func(ctx context.Context, tx *TX) error
	// Rollback is a function that must rollback a given transaction.
	Rollback func(ctx context.Context, tx *TX) error
	// OnClose [optional] is used to implement the io.Closer.
	OnClose func() error
	// ErrTxDone is the error returned when the transaction is already finished.
	//
	// default: sql.ErrTxDone
	ErrTxDone error
	// Logger [optional] receives the executed statements at debug level.
	Logger *zap.Logger
}

var _ Connection = ConnectionAdapter[struct{}, struct{}]{}

type ctxKeyTx struct{ db any }

type txInContext[TX any] struct {
	m      sync.Mutex
	parent *txInContext[TX]
	tx     *TX
	done   bool
	cancel func()
}

func (c ConnectionAdapter[DB, TX]) Close() error {
	if c.OnClose != nil {
		return c.OnClose()
	}
	return nil
}

func (c ConnectionAdapter[DB, TX]) BeginTx(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return ctx, err
	}
	parent, hasParent := c.lookupTx(ctx)
	var tx *TX
	if hasParent {
		tx = parent.tx
	} else {
		ntx, err := c.Begin(ctx, c.DB)
		if err != nil {
			return ctx, err
		}
		tx = ntx
	}
	ctx, cancel := context.WithCancel(ctx)
	return context.WithValue(ctx, c.ctxKey(), &txInContext[TX]{
		parent: parent,
		tx:     tx,
		cancel: cancel,
	}), nil
}

func (c ConnectionAdapter[DB, TX]) CommitTx(ctx context.Context) error {
	tx, ok := c.lookupTx(ctx)
	if !ok {
		return ErrNoTx
	}
	if err := ctx.Err(); err != nil {
		if tx.finish() && tx.parent == nil {
			_ = c.Rollback(context.WithoutCancel(ctx), tx.tx)
		}
		return err
	}
	if !tx.finish() {
		return c.txDoneErr()
	}
	defer tx.cancel()
	if tx.parent != nil {
		return nil
	}
	return c.Commit(ctx, tx.tx)
}

func (c ConnectionAdapter[DB, TX]) RollbackTx(ctx context.Context) error {
	tx, ok := c.lookupTx(ctx)
	if !ok {
		return ErrNoTx
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tx.finish() {
		return c.txDoneErr()
	}
	defer tx.cancel()
	for tx.parent != nil {
		tx = tx.parent
		if tx.finish() {
			tx.cancel()
		}
	}
	return c.Rollback(context.WithoutCancel(ctx), tx.tx)
}

func (c ConnectionAdapter[DB, TX]) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	conn := c.queryable(ctx)
	c.debugLog(ctx, "ExecContext", query, args)
	return conn.ExecContext(ctx, query, args...)
}

func (c ConnectionAdapter[DB, TX]) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	conn := c.queryable(ctx)
	c.debugLog(ctx, "QueryContext", query, args)
	return conn.QueryContext(ctx, query, args...)
}

func (c ConnectionAdapter[DB, TX]) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	conn := c.queryable(ctx)
	c.debugLog(ctx, "QueryRowContext", query, args)
	return conn.QueryRowContext(ctx, query, args...)
}

func (c ConnectionAdapter[DB, TX]) queryable(ctx context.Context) Queryable {
	if tx, ok := c.lookupTx(ctx); ok {
		return c.TxAdapter(tx.tx)
	}
	return c.DBAdapter(c.DB)
}

func (c ConnectionAdapter[DB, TX]) ctxKey() ctxKeyTx {
	return ctxKeyTx{db: c.DB}
}

func (c ConnectionAdapter[DB, TX]) lookupTx(ctx context.Context) (*txInContext[TX], bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(c.ctxKey()).(*txInContext[TX])
	return tx, ok
}

func (c ConnectionAdapter[DB, TX]) txDoneErr() error {
	if c.ErrTxDone != nil {
		return c.ErrTxDone
	}
	return sql.ErrTxDone
}

func (c ConnectionAdapter[DB, TX]) debugLog(ctx context.Context, method string, query string, args []any) {
	if c.Logger == nil {
		return
	}
	_, inTx := c.lookupTx(ctx)
	c.Logger.Debug("sql statement",
		zap.String("method", method),
		zap.String("query", query),
		zap.Any("args", args),
		zap.Bool("in-transaction", inTx))
}

// finish reports whether it was the call that finished the transaction.
func (tx *txInContext[TX]) finish() bool {
	tx.m.Lock()
	defer tx.m.Unlock()
	if tx.done {
		return false
	}
	tx.done = true
	return true
}

// SQLConnectionAdapter is a built-in ConnectionAdapter usage for the stdlib sql.DB/sql.Tx.
// This can be used with any sql driver that integrates with the sql stdlib.
func SQLConnectionAdapter(db *sql.DB) ConnectionAdapter[sql.DB, sql.Tx] {
	return ConnectionAdapter[sql.DB, sql.Tx]{
		DB: db,

		DBAdapter: QueryableSQL[*sql.DB],
		TxAdapter: QueryableSQL[*sql.Tx],

		Begin: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},

		Commit: func(ctx context.Context, tx *sql.Tx) error {
			return tx.Commit()
		},

		Rollback: func(ctx context.Context, tx *sql.Tx) error {
			return tx.Rollback()
		},

		OnClose: db.Close,
	}
}
