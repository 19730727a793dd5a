package flsql

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudkit"
)

const (
	defaultPageSize    = 100
	defaultIDsPerQuery = 1000
)

// Store is a crudkit.Store over a single table.
//
// FindAll pages through the table by its primary key,
// so a slow consumer doesn't keep a cursor open on the connection.
type Store[ENT, ID any] struct {
	Connection Connection
	Mapping    Mapping[ENT, ID]
	Dialect    Dialect
	// PageSize is the number of rows FindAll fetches with one query.
	PageSize int
	// IDsPerQuery is the size of the IN list of one FindByIDs query.
	// It is capped at the Dialect's MaxParams.
	IDsPerQuery int
}

var (
	_ crudkit.Store[struct{ ID int }, int]       = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Counter                            = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Exister[int]                       = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.ByIDsFinder[struct{ ID int }, int] = (*Store[struct{ ID int }, int])(nil)
	_ comproto.OnePhaseCommitProtocol            = (*Store[struct{ ID int }, int])(nil)
)

func NewStore[ENT, ID any](c Connection, d Dialect, m Mapping[ENT, ID]) *Store[ENT, ID] {
	return &Store[ENT, ID]{Connection: c, Dialect: d, Mapping: m}
}

func (s *Store[ENT, ID]) Save(ctx context.Context, ptr *ENT) error {
	if ptr == nil {
		return crud.ErrInvalidArgument.F("nil %T pointer given to Save", ptr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.Mapping.ID.Lookup(*ptr); ok {
		return s.upsert(ctx, *ptr)
	}
	if s.Mapping.NewID != nil {
		id, err := s.Mapping.NewID(ctx)
		if err != nil {
			return err
		}
		if err := s.Mapping.ID.Set(ptr, id); err != nil {
			return err
		}
		return s.upsert(ctx, *ptr)
	}
	return s.insertReturningID(ctx, ptr)
}

func (s *Store[ENT, ID]) upsert(ctx context.Context, ent ENT) error {
	cargs, err := s.Mapping.ToArgs(ent)
	if err != nil {
		return err
	}
	cols, args := SplitArgs(cargs)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		s.Mapping.TableName,
		s.Dialect.columns(cols),
		s.Dialect.placeholders(0, len(cols)),
		s.Dialect.OnConflictUpdate(s.Dialect, s.Mapping.IDColumn, cols))
	_, err = s.Connection.ExecContext(ctx, query, args...)
	return err
}

func (s *Store[ENT, ID]) insertReturningID(ctx context.Context, ptr *ENT) error {
	cargs, err := s.Mapping.ToArgs(*ptr)
	if err != nil {
		return err
	}
	delete(cargs, s.Mapping.IDColumn)
	cols, args := SplitArgs(cargs)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.Mapping.TableName,
		s.Dialect.columns(cols),
		s.Dialect.placeholders(0, len(cols)),
		s.Dialect.Quote(string(s.Mapping.IDColumn)))
	var id ID
	if err := s.Connection.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return err
	}
	return s.Mapping.ID.Set(ptr, id)
}

func (s *Store[ENT, ID]) FindByID(ctx context.Context, id ID) (ENT, bool, error) {
	var zero ENT
	cols, mapScan := s.Mapping.ToQuery(ctx)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.Dialect.columns(cols), s.Mapping.TableName, s.idColumn(), s.Dialect.Placeholder(1))
	rows, err := s.Connection.QueryContext(ctx, query, id)
	if err != nil {
		return zero, false, err
	}
	for ent, err := range RowsSeq(rows, mapScan) {
		return ent, err == nil, err
	}
	return zero, false, nil
}

func (s *Store[ENT, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		s.Mapping.TableName, s.idColumn(), s.Dialect.Placeholder(1))
	var n int64
	if err := s.Connection.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return false, err
	}
	return 0 < n, nil
}

func (s *Store[ENT, ID]) FindAll(ctx context.Context) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		var (
			zero  ENT
			after *ID
		)
		for {
			page, err := s.page(ctx, after)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, ent := range page {
				if !yield(ent, nil) {
					return
				}
			}
			if len(page) < s.pageSize() {
				return
			}
			last, ok := s.Mapping.ID.Lookup(page[len(page)-1])
			if !ok {
				yield(zero, fmt.Errorf("%T entity without an identifier in the result set", zero))
				return
			}
			after = &last
		}
	}
}

func (s *Store[ENT, ID]) page(ctx context.Context, after *ID) ([]ENT, error) {
	cols, mapScan := s.Mapping.ToQuery(ctx)
	var (
		query = fmt.Sprintf("SELECT %s FROM %s", s.Dialect.columns(cols), s.Mapping.TableName)
		args  []any
	)
	if after != nil {
		query += fmt.Sprintf(" WHERE %s > %s", s.idColumn(), s.Dialect.Placeholder(1))
		args = append(args, *after)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d", s.idColumn(), s.pageSize())
	rows, err := s.Connection.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var ents []ENT
	for ent, err := range RowsSeq(rows, mapScan) {
		if err != nil {
			return nil, err
		}
		ents = append(ents, ent)
	}
	return ents, nil
}

func (s *Store[ENT, ID]) FindByIDs(ctx context.Context, ids ...ID) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		if len(ids) == 0 {
			return
		}
		cols, mapScan := s.Mapping.ToQuery(ctx)
		for chunk := range slices.Chunk(ids, s.idsPerQuery()) {
			query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
				s.Dialect.columns(cols), s.Mapping.TableName, s.idColumn(), s.Dialect.placeholders(0, len(chunk)))
			args := make([]any, 0, len(chunk))
			for _, id := range chunk {
				args = append(args, id)
			}
			rows, err := s.Connection.QueryContext(ctx, query, args...)
			if err != nil {
				var zero ENT
				yield(zero, err)
				return
			}
			for ent, err := range RowsSeq(rows, mapScan) {
				if !yield(ent, err) || err != nil {
					return
				}
			}
		}
	}
}

func (s *Store[ENT, ID]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.Connection.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.Mapping.TableName)).Scan(&n)
	return n, err
}

func (s *Store[ENT, ID]) DeleteByID(ctx context.Context, id ID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.Mapping.TableName, s.idColumn(), s.Dialect.Placeholder(1))
	result, err := s.Connection.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return crud.ErrNotFound.F("%T entity not found by id: %v", *new(ENT), id)
	}
	return nil
}

func (s *Store[ENT, ID]) DeleteAll(ctx context.Context) error {
	_, err := s.Connection.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.Mapping.TableName))
	return err
}

func (s *Store[ENT, ID]) BeginTx(ctx context.Context) (context.Context, error) {
	return s.Connection.BeginTx(ctx)
}

func (s *Store[ENT, ID]) CommitTx(ctx context.Context) error {
	return s.Connection.CommitTx(ctx)
}

func (s *Store[ENT, ID]) RollbackTx(ctx context.Context) error {
	return s.Connection.RollbackTx(ctx)
}

func (s *Store[ENT, ID]) idColumn() string {
	return s.Dialect.Quote(string(s.Mapping.IDColumn))
}

func (s *Store[ENT, ID]) idsPerQuery() int {
	n := s.IDsPerQuery
	if n < 1 {
		n = defaultIDsPerQuery
	}
	if limit := s.Dialect.MaxParams; 0 < limit && limit < n {
		n = limit
	}
	return n
}

func (s *Store[ENT, ID]) pageSize() int {
	if s.PageSize < 1 {
		return defaultPageSize
	}
	return s.PageSize
}
