// Package postgresql provides crudkit stores backed by PostgreSQL through the pgx driver.
package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.llib.dev/rxcrud/pkg/flsql"
	"go.llib.dev/rxcrud/port/crud/crudkit"
)

type Connection = flsql.ConnectionAdapter[pgxpool.Pool, pgx.Tx]

func Connect(ctx context.Context, dsn string) (Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Connection{}, err
	}
	return Connection{
		DB: pool,

		DBAdapter: func(db *pgxpool.Pool) flsql.Queryable {
			return pgxQueryableAdapter[*pgxpool.Pool]{Q: db}
		},
		TxAdapter: func(tx *pgx.Tx) flsql.Queryable {
			return pgxQueryableAdapter[pgx.Tx]{Q: *tx}
		},

		Begin: func(ctx context.Context, db *pgxpool.Pool) (*pgx.Tx, error) {
			var (
				tx  pgx.Tx
				err error
			)
			if opts, ok := lookupTxOptions(ctx); ok {
				tx, err = db.BeginTx(ctx, opts)
			} else {
				tx, err = db.Begin(ctx)
			}
			if err != nil {
				return nil, err
			}
			return &tx, nil
		},

		Commit: func(ctx context.Context, tx *pgx.Tx) error {
			return (*tx).Commit(ctx)
		},

		Rollback: func(ctx context.Context, tx *pgx.Tx) error {
			return (*tx).Rollback(ctx)
		},

		OnClose: func() error {
			pool.Close()
			return nil
		},

		ErrTxDone: pgx.ErrTxClosed,
	}, nil
}

func NewStore[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID]) *flsql.Store[ENT, ID] {
	return flsql.NewStore(c, flsql.Postgres, m)
}

func NewRepository[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID], opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore(c, m), opts...)
}

type ctxKeyTxOptions struct{}

// WithTxOptions sets the options of the transactions started with the returned context.
// Nested transactions reuse the outermost transaction, so only its options take effect.
func WithTxOptions(ctx context.Context, opts pgx.TxOptions) context.Context {
	return context.WithValue(ctx, ctxKeyTxOptions{}, opts)
}

func lookupTxOptions(ctx context.Context) (pgx.TxOptions, bool) {
	opts, ok := ctx.Value(ctxKeyTxOptions{}).(pgx.TxOptions)
	return opts, ok
}

type pgxQueryableAdapter[Q pgxQueryable] struct{ Q Q }

type pgxQueryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (ca pgxQueryableAdapter[Q]) ExecContext(ctx context.Context, query string, args ...any) (flsql.Result, error) {
	r, err := ca.Q.Exec(ctx, query, args...)
	return sqlResultAdapter{CommandTag: r}, err
}

type sqlResultAdapter struct{ pgconn.CommandTag }

func (a sqlResultAdapter) RowsAffected() (int64, error) {
	return a.CommandTag.RowsAffected(), nil
}

func (ca pgxQueryableAdapter[Q]) QueryContext(ctx context.Context, query string, args ...any) (flsql.Rows, error) {
	rows, err := ca.Q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxRowsAdapter{Rows: rows}, nil
}

func (ca pgxQueryableAdapter[Q]) QueryRowContext(ctx context.Context, query string, args ...any) flsql.Row {
	return ca.Q.QueryRow(ctx, query, args...)
}

type pgxRowsAdapter struct{ pgx.Rows }

func (a pgxRowsAdapter) Close() error {
	a.Rows.Close()
	return a.Rows.Err()
}
