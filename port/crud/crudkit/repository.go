// Package crudkit implements the reactive repository contract on top of a primitive Store.
//
// The Repository validates arguments synchronously, turns every operation into a cold rx handle,
// and shares one pipeline between the eager and the streaming batch forms.
package crudkit

import (
	"context"
	"errors"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"

	"go.llib.dev/rxcrud/pkg/iterkit"
	"go.llib.dev/rxcrud/pkg/reflectkit"
	"go.llib.dev/rxcrud/pkg/zerokit"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/option"
	"go.llib.dev/rxcrud/port/rx"
)

type Repository[ENT, ID any] struct {
	Store Store[ENT, ID]
	Config[ENT, ID]
}

var _ crud.Repository[struct{ ID int }, int] = (*Repository[struct{ ID int }, int])(nil)

func NewRepository[ENT, ID any](store Store[ENT, ID], opts ...Option[ENT, ID]) *Repository[ENT, ID] {
	return &Repository[ENT, ID]{
		Store:  store,
		Config: option.ToConfig(opts),
	}
}

func (r *Repository[ENT, ID]) Save(ent ENT) (rx.Single[ENT], error) {
	if zerokit.IsNil(ent) {
		return nil, crud.ErrInvalidArgument.F("nil %T given to Save", ent)
	}
	return single(r, "save", func(ctx context.Context) (ENT, bool, error) {
		return r.save(ctx, ent)
	}), nil
}

// save works on a copy, so the caller's entity is never written by the Store.
func (r *Repository[ENT, ID]) save(ctx context.Context, ent ENT) (ENT, bool, error) {
	v := reflectkit.Clone(ent)
	if err := r.Store.Save(ctx, &v); err != nil {
		var zero ENT
		return zero, false, err
	}
	return v, true, nil
}

func (r *Repository[ENT, ID]) SaveMany(ents ...ENT) (rx.Many[ENT], error) {
	for i, ent := range ents {
		if zerokit.IsNil(ent) {
			return nil, crud.ErrInvalidArgument.F("nil %T at index %d given to SaveMany", ent, i)
		}
	}
	return r.saveStream("save-many", rx.FromSlice(slices.Clone(ents))), nil
}

func (r *Repository[ENT, ID]) SaveStream(ents rx.Many[ENT]) (rx.Many[ENT], error) {
	if ents == nil {
		return nil, crud.ErrInvalidArgument.F("nil input stream given to SaveStream")
	}
	return r.saveStream("save-stream", ents), nil
}

func (r *Repository[ENT, ID]) saveStream(op string, ents rx.Many[ENT]) rx.Many[ENT] {
	return many(r, op, func(ctx context.Context) iter.Seq2[ENT, error] {
		return func(yield func(ENT, error) bool) {
			var zero ENT
			for ent, err := range ents.Iter(ctx) {
				if err != nil {
					yield(zero, err)
					return
				}
				if zerokit.IsNil(ent) {
					yield(zero, crud.ErrInvalidArgument.F("nil %T in the input stream", ent))
					return
				}
				v, _, err := r.save(ctx, ent)
				if err != nil {
					yield(zero, err)
					return
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	})
}

func (r *Repository[ENT, ID]) FindByID(id ID) (rx.Single[ENT], error) {
	if zerokit.IsZero(id) {
		return nil, crud.ErrInvalidArgument.F("zero %T given to FindByID", id)
	}
	return single(r, "find-by-id", func(ctx context.Context) (ENT, bool, error) {
		return r.Store.FindByID(ctx, id)
	}), nil
}

func (r *Repository[ENT, ID]) FindByIDFrom(id rx.Single[ID]) (rx.Single[ENT], error) {
	if id == nil {
		return nil, crud.ErrInvalidArgument.F("nil id source given to FindByIDFrom")
	}
	return single(r, "find-by-id", func(ctx context.Context) (ENT, bool, error) {
		var zero ENT
		v, ok, err := resolveID(ctx, id)
		if err != nil || !ok {
			return zero, false, err
		}
		return r.Store.FindByID(ctx, v)
	}), nil
}

func (r *Repository[ENT, ID]) ExistsByID(id ID) (rx.Single[bool], error) {
	if zerokit.IsZero(id) {
		return nil, crud.ErrInvalidArgument.F("zero %T given to ExistsByID", id)
	}
	return single(r, "exists-by-id", func(ctx context.Context) (bool, bool, error) {
		found, err := r.exists(ctx, id)
		return found, err == nil, err
	}), nil
}

func (r *Repository[ENT, ID]) ExistsByIDFrom(id rx.Single[ID]) (rx.Single[bool], error) {
	if id == nil {
		return nil, crud.ErrInvalidArgument.F("nil id source given to ExistsByIDFrom")
	}
	return single(r, "exists-by-id", func(ctx context.Context) (bool, bool, error) {
		v, ok, err := resolveID(ctx, id)
		if err != nil {
			return false, false, err
		}
		if !ok {
			return false, true, nil
		}
		found, err := r.exists(ctx, v)
		return found, err == nil, err
	}), nil
}

func (r *Repository[ENT, ID]) exists(ctx context.Context, id ID) (bool, error) {
	if e, ok := r.Store.(Exister[ID]); ok {
		return e.ExistsByID(ctx, id)
	}
	_, found, err := r.Store.FindByID(ctx, id)
	return found, err
}

func resolveID[ID any](ctx context.Context, src rx.Single[ID]) (ID, bool, error) {
	id, ok, err := src.Get(ctx)
	if err != nil || !ok {
		return id, false, err
	}
	if zerokit.IsZero(id) {
		return id, false, crud.ErrInvalidArgument.F("id source resolved to a zero %T", id)
	}
	return id, true, nil
}

func (r *Repository[ENT, ID]) FindAll() rx.Many[ENT] {
	return many(r, "find-all", r.Store.FindAll)
}

func (r *Repository[ENT, ID]) FindByIDs(ids ...ID) (rx.Many[ENT], error) {
	for i, id := range ids {
		if zerokit.IsZero(id) {
			return nil, crud.ErrInvalidArgument.F("zero %T at index %d given to FindByIDs", id, i)
		}
	}
	ids = slices.Clone(ids)
	if f, ok := r.Store.(ByIDsFinder[ENT, ID]); ok {
		return many(r, "find-by-ids", func(ctx context.Context) iter.Seq2[ENT, error] {
			if len(ids) == 0 {
				return iterkit.Empty2[ENT, error]()
			}
			return f.FindByIDs(ctx, ids...)
		}), nil
	}
	return r.findByIDStream("find-by-ids", rx.FromSlice(ids)), nil
}

func (r *Repository[ENT, ID]) FindByIDStream(ids rx.Many[ID]) (rx.Many[ENT], error) {
	if ids == nil {
		return nil, crud.ErrInvalidArgument.F("nil input stream given to FindByIDStream")
	}
	return r.findByIDStream("find-by-id-stream", ids), nil
}

func (r *Repository[ENT, ID]) findByIDStream(op string, ids rx.Many[ID]) rx.Many[ENT] {
	return many(r, op, func(ctx context.Context) iter.Seq2[ENT, error] {
		return func(yield func(ENT, error) bool) {
			var zero ENT
			for id, err := range ids.Iter(ctx) {
				if err != nil {
					yield(zero, err)
					return
				}
				if zerokit.IsZero(id) {
					yield(zero, crud.ErrInvalidArgument.F("zero %T in the input stream", id))
					return
				}
				ent, found, err := r.Store.FindByID(ctx, id)
				if err != nil {
					yield(zero, err)
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
	})
}

func (r *Repository[ENT, ID]) Count() rx.Single[int64] {
	return single(r, "count", func(ctx context.Context) (int64, bool, error) {
		if c, ok := r.Store.(Counter); ok {
			n, err := c.Count(ctx)
			return n, err == nil, err
		}
		n, err := iterkit.CountErr(r.Store.FindAll(ctx))
		return int64(n), err == nil, err
	})
}

func (r *Repository[ENT, ID]) DeleteByID(id ID) (rx.Completion, error) {
	if zerokit.IsZero(id) {
		return nil, crud.ErrInvalidArgument.F("zero %T given to DeleteByID", id)
	}
	return completion(r, "delete-by-id", func(ctx context.Context) error {
		return r.deleteByID(ctx, id)
	}), nil
}

func (r *Repository[ENT, ID]) deleteByID(ctx context.Context, id ID) error {
	if err := r.Store.DeleteByID(ctx, id); err != nil && !errors.Is(err, crud.ErrNotFound) {
		return err
	}
	return nil
}

func (r *Repository[ENT, ID]) lookupID(ent ENT) (ID, bool) {
	var zero ID
	if zerokit.IsNil(ent) {
		return zero, false
	}
	return r.IDA.Lookup(ent)
}

func (r *Repository[ENT, ID]) Delete(ent ENT) (rx.Completion, error) {
	id, ok := r.lookupID(ent)
	if !ok {
		return nil, crud.ErrInvalidArgument.F("%T without an identifier given to Delete", ent)
	}
	return completion(r, "delete", func(ctx context.Context) error {
		return r.deleteByID(ctx, id)
	}), nil
}

func (r *Repository[ENT, ID]) DeleteMany(ents ...ENT) (rx.Completion, error) {
	for i, ent := range ents {
		if _, ok := r.lookupID(ent); !ok {
			return nil, crud.ErrInvalidArgument.F("%T without an identifier at index %d given to DeleteMany", ent, i)
		}
	}
	return r.deleteStream("delete-many", rx.FromSlice(slices.Clone(ents))), nil
}

func (r *Repository[ENT, ID]) DeleteStream(ents rx.Many[ENT]) (rx.Completion, error) {
	if ents == nil {
		return nil, crud.ErrInvalidArgument.F("nil input stream given to DeleteStream")
	}
	return r.deleteStream("delete-stream", ents), nil
}

func (r *Repository[ENT, ID]) deleteStream(op string, ents rx.Many[ENT]) rx.Completion {
	return completion(r, op, func(ctx context.Context) error {
		if r.DeleteConcurrency < 2 {
			for ent, err := range ents.Iter(ctx) {
				if err != nil {
					return err
				}
				id, ok := r.lookupID(ent)
				if !ok {
					return crud.ErrInvalidArgument.F("%T without an identifier in the input stream", ent)
				}
				if err := r.deleteByID(ctx, id); err != nil {
					return err
				}
			}
			return nil
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.DeleteConcurrency)
		var iterErr error
		for ent, err := range ents.Iter(gctx) {
			if err != nil {
				iterErr = err
				break
			}
			id, ok := r.lookupID(ent)
			if !ok {
				iterErr = crud.ErrInvalidArgument.F("%T without an identifier in the input stream", ent)
				break
			}
			g.Go(func() error { return r.deleteByID(gctx, id) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return iterErr
	})
}

func (r *Repository[ENT, ID]) DeleteAll() rx.Completion {
	return completion(r, "delete-all", r.Store.DeleteAll)
}
