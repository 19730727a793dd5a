package crudkit

import (
	"context"
	"iter"
)

// Store is the primitive, synchronous storage that a Repository orchestrates.
type Store[ENT, ID any] interface {
	// Save inserts or replaces the entity.
	// Fields managed by the storage, such as a generated identifier, are set on the pointed entity.
	Save(ctx context.Context, ptr *ENT) error
	FindByID(ctx context.Context, id ID) (ENT, bool, error)
	FindAll(ctx context.Context) iter.Seq2[ENT, error]
	// DeleteByID removes the entity. It may report crud.ErrNotFound for unknown ids.
	DeleteByID(ctx context.Context, id ID) error
	DeleteAll(ctx context.Context) error
}

// Counter is an optional Store capability, used instead of counting FindAll.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// ByIDsFinder is an optional Store capability for eager multi-id lookups.
// Ids without a stored entity are skipped.
type ByIDsFinder[ENT, ID any] interface {
	FindByIDs(ctx context.Context, ids ...ID) iter.Seq2[ENT, error]
}

// Exister is an optional Store capability, used instead of FindByID for existence checks.
type Exister[ID any] interface {
	ExistsByID(ctx context.Context, id ID) (bool, error)
}
