package memory

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"

	"go.llib.dev/rxcrud/pkg/reflectkit"
	"go.llib.dev/rxcrud/pkg/zerokit"
	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudkit"
	"go.llib.dev/rxcrud/port/crud/extid"
)

// NewStore returns a Store that keeps its entities in the ENT type's own namespace of m.
func NewStore[ENT, ID any](m *Memory) *Store[ENT, ID] {
	return NewStoreWithNamespace[ENT, ID](m, reflect.TypeOf((*ENT)(nil)).Elem().String())
}

func NewStoreWithNamespace[ENT, ID any](m *Memory, ns string) *Store[ENT, ID] {
	return &Store[ENT, ID]{Memory: m, Namespace: ns}
}

// NewRepository is a shorthand for a crudkit.Repository over a Store of m.
func NewRepository[ENT, ID any](m *Memory, opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore[ENT, ID](m), opts...)
}

type Store[ENT, ID any] struct {
	Memory    *Memory
	Namespace string
	// IDA is the identifier accessor of ENT.
	IDA extid.Accessor[ENT, ID]
	// MakeID generates the identifier of entities saved without one.
	// Defaults to MakeID.
	MakeID func(context.Context) (ID, error)
}

var (
	_ crudkit.Store[struct{ ID string }, string]       = (*Store[struct{ ID string }, string])(nil)
	_ crudkit.Counter                                  = (*Store[struct{ ID string }, string])(nil)
	_ crudkit.Exister[string]                          = (*Store[struct{ ID string }, string])(nil)
	_ crudkit.ByIDsFinder[struct{ ID string }, string] = (*Store[struct{ ID string }, string])(nil)
	_ comproto.OnePhaseCommitProtocol                  = (*Store[struct{ ID string }, string])(nil)
)

func (s *Store[ENT, ID]) Save(ctx context.Context, ptr *ENT) error {
	if ptr == nil {
		return crud.ErrInvalidArgument.F("nil %T pointer given to Save", ptr)
	}
	if err := s.checkCtx(ctx); err != nil {
		return err
	}
	id, ok := s.IDA.Lookup(*ptr)
	if !ok {
		newID, err := s.mkID(ctx)
		if err != nil {
			return err
		}
		if err := s.IDA.Set(ptr, newID); err != nil {
			return err
		}
		id = newID
	}
	s.Memory.Set(ctx, s.Namespace, s.key(id), reflectkit.Clone(*ptr))
	return nil
}

func (s *Store[ENT, ID]) FindByID(ctx context.Context, id ID) (ENT, bool, error) {
	var zero ENT
	if err := s.checkCtx(ctx); err != nil {
		return zero, false, err
	}
	v, ok := s.Memory.Get(ctx, s.Namespace, s.key(id))
	if !ok {
		return zero, false, nil
	}
	return reflectkit.Clone(v.(ENT)), true, nil
}

func (s *Store[ENT, ID]) FindAll(ctx context.Context) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		if err := s.checkCtx(ctx); err != nil {
			var zero ENT
			yield(zero, err)
			return
		}
		vs := s.Memory.All(ctx, s.Namespace)
		for _, key := range slices.Sorted(maps.Keys(vs)) {
			if !yield(reflectkit.Clone(vs[key].(ENT)), nil) {
				return
			}
		}
	}
}

func (s *Store[ENT, ID]) FindByIDs(ctx context.Context, ids ...ID) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		for _, id := range ids {
			ent, found, err := s.FindByID(ctx, id)
			if err != nil {
				yield(ent, err)
				return
			}
			if !found {
				continue
			}
			if !yield(ent, nil) {
				return
			}
		}
	}
}

func (s *Store[ENT, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	_, found, err := s.FindByID(ctx, id)
	return found, err
}

func (s *Store[ENT, ID]) Count(ctx context.Context) (int64, error) {
	if err := s.checkCtx(ctx); err != nil {
		return 0, err
	}
	return int64(len(s.Memory.All(ctx, s.Namespace))), nil
}

func (s *Store[ENT, ID]) DeleteByID(ctx context.Context, id ID) error {
	if err := s.checkCtx(ctx); err != nil {
		return err
	}
	if !s.Memory.Del(ctx, s.Namespace, s.key(id)) {
		return crud.ErrNotFound.F("%T entity not found by id: %v", *new(ENT), id)
	}
	return nil
}

func (s *Store[ENT, ID]) DeleteAll(ctx context.Context) error {
	if err := s.checkCtx(ctx); err != nil {
		return err
	}
	for key := range s.Memory.All(ctx, s.Namespace) {
		s.Memory.Del(ctx, s.Namespace, key)
	}
	return nil
}

func (s *Store[ENT, ID]) BeginTx(ctx context.Context) (context.Context, error) {
	return s.Memory.BeginTx(ctx)
}

func (s *Store[ENT, ID]) CommitTx(ctx context.Context) error {
	return s.Memory.CommitTx(ctx)
}

func (s *Store[ENT, ID]) RollbackTx(ctx context.Context) error {
	return s.Memory.RollbackTx(ctx)
}

func (s *Store[ENT, ID]) checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := s.Memory.LookupTx(ctx); ok && tx.isDone() {
		return errTxDone
	}
	return nil
}

func (s *Store[ENT, ID]) mkID(ctx context.Context) (ID, error) {
	if s.MakeID != nil {
		return s.MakeID(ctx)
	}
	return MakeID[ID](ctx)
}

func (s *Store[ENT, ID]) key(id ID) string {
	if zerokit.IsNil(id) {
		return ""
	}
	return fmt.Sprintf("%v", id)
}
