// Package flsql maps entities onto SQL tables through the database/sql style Queryable abstraction.
package flsql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/crud/extid"
)

// Connection represent an open connection.
// Connection will respect the transaction state in the received context.Context.
type Connection interface {
	comproto.OnePhaseCommitProtocol
	Queryable
	io.Closer
}

type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) Row
}

type Result interface {
	// RowsAffected returns the number of rows affected by an update, insert, or delete.
	RowsAffected() (int64, error)
}

type Rows interface {
	io.Closer
	// Err returns any error that occurred while reading.
	Err() error
	// Next prepares the next row for reading.
	// It returns false if no more rows are available.
	Next() bool
	Scanner
}

type Row interface {
	Scanner
}

type Scanner interface{ Scan(dest ...any) error }

type ColumnName string

// JoinColumnName formats each column name with format and joins them with sep.
func JoinColumnName(cns []ColumnName, format string, sep string) string {
	parts := make([]string, 0, len(cns))
	for _, n := range cns {
		parts = append(parts, fmt.Sprintf(format, n))
	}
	return strings.Join(parts, sep)
}

type MapScan[ENT any] func(v *ENT, s Scanner) error

func (ms MapScan[ENT]) Map(scanner Scanner) (ENT, error) {
	var value ENT
	err := ms(&value, scanner)
	return value, err
}

// Mapping is a table mapping.
type Mapping[ENT, ID any] struct {
	// TableName is the name of the table in the database.
	TableName string
	// IDColumn is the primary key column of the table.
	IDColumn ColumnName
	// ToQuery returns the column names to select,
	// and the scan function that maps a selected row in the same column order.
	ToQuery func(ctx context.Context) ([]ColumnName, MapScan[ENT])
	// ToArgs converts an entity into query arguments for INSERT statements.
	// It must include the IDColumn.
	ToArgs func(ENT) (QueryArgs, error)
	// NewID [optional] generates the identifier of an entity saved without one.
	//
	// default: the database assigns it, and it is read back with RETURNING.
	NewID func(context.Context) (ID, error)
	// ID [optional] is the identifier accessor of ENT.
	//
	// default: extid.Lookup / extid.Set
	ID extid.Accessor[ENT, ID]
}

type QueryArgs map[ColumnName]any

// SplitArgs splits the arguments into column names and values, ordered by column name.
func SplitArgs(cargs QueryArgs) ([]ColumnName, []any) {
	cols := make([]ColumnName, 0, len(cargs))
	for col := range cargs {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, cargs[col])
	}
	return cols, args
}

// RowsSeq maps each row of rows and closes rows at the end of the iteration.
func RowsSeq[T any](rows Rows, mapScan MapScan[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer rows.Close()
		for rows.Next() {
			v, err := mapScan.Map(rows)
			if err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

func QueryableSQL[SQLQ sqlQueryable](q SQLQ) Queryable {
	return QueryableAdapter{
		ExecFunc: func(ctx context.Context, query string, args ...any) (Result, error) {
			return q.ExecContext(ctx, query, args...)
		},
		QueryFunc: func(ctx context.Context, query string, args ...any) (Rows, error) {
			return q.QueryContext(ctx, query, args...)
		},
		QueryRowFunc: func(ctx context.Context, query string, args ...any) Row {
			return q.QueryRowContext(ctx, query, args...)
		},
	}
}

type sqlQueryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type QueryableAdapter struct {
	ExecFunc     func(ctx context.Context, query string, args ...any) (Result, error)
	QueryFunc    func(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, query string, args ...any) Row
}

func (a QueryableAdapter) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return a.ExecFunc(ctx, query, args...)
}

func (a QueryableAdapter) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return a.QueryFunc(ctx, query, args...)
}

func (a QueryableAdapter) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	return a.QueryRowFunc(ctx, query, args...)
}

type MigrationStep[C Queryable] struct {
	Up      func(C, context.Context) error
	UpQuery string

	Down      func(C, context.Context) error
	DownQuery string
}

func (m MigrationStep[C]) MigrateUp(c C, ctx context.Context) error {
	if m.Up != nil {
		return m.Up(c, ctx)
	}
	if m.UpQuery != "" {
		_, err := c.ExecContext(ctx, m.UpQuery)
		return err
	}
	return nil
}

func (m MigrationStep[C]) MigrateDown(c C, ctx context.Context) error {
	if m.Down != nil {
		return m.Down(c, ctx)
	}
	if m.DownQuery != "" {
		_, err := c.ExecContext(ctx, m.DownQuery)
		return err
	}
	return nil
}

// Migrate runs the steps in order, and returns a func that reverts them in reverse order.
func Migrate[C Queryable](ctx context.Context, c C, steps ...MigrationStep[C]) (func(context.Context) error, error) {
	var done []MigrationStep[C]
	down := func(ctx context.Context) error {
		for _, step := range slices.Backward(done) {
			if err := step.MigrateDown(c, ctx); err != nil {
				return err
			}
		}
		return nil
	}
	for _, step := range steps {
		if err := step.MigrateUp(c, ctx); err != nil {
			return down, err
		}
		done = append(done, step)
	}
	return down, nil
}
