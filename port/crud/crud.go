// Package crud defines the reactive repository contract.
//
// Every operation returns a cold handle from package rx: nothing touches the backend
// until the handle is consumed, and every consumption is a fresh execution.
//
// Absent arguments are rejected synchronously with ErrInvalidArgument and a nil handle,
// before any backend interaction. Absent means:
//   - a nil entity of a nil-able ENT type;
//   - the zero value of ID;
//   - a nil rx.Single or rx.Many input.
//
// Looking up something that does not exist is not an error,
// the result completes empty instead.
//
// Batch operations are fail-fast: the first failure terminates the result,
// items processed before it stay processed, and nothing is retried.
package crud

import "go.llib.dev/rxcrud/port/rx"

type Saver[ENT any] interface {
	// Save persists the entity, inserting it or replacing the stored version.
	// The result emits the saved representation, including identifiers or other fields
	// assigned by the backend. Use the emitted value for further operations.
	Save(ent ENT) (rx.Single[ENT], error)
}

type BatchSaver[ENT any] interface {
	// SaveMany saves every entity and emits the saved representations.
	SaveMany(ents ...ENT) (rx.Many[ENT], error)
	// SaveStream saves entities as they arrive on the input stream,
	// and emits each saved representation.
	// The result completes only after the input completed and every item was saved.
	// A failing input terminates the result with the input's error.
	SaveStream(ents rx.Many[ENT]) (rx.Many[ENT], error)
}

type ByIDFinder[ENT, ID any] interface {
	// FindByID emits the entity stored under the id, or completes empty.
	FindByID(id ID) (rx.Single[ENT], error)
	// FindByIDFrom resolves the id first, then behaves like FindByID.
	// When the id source completes empty, the result completes empty as well.
	FindByIDFrom(id rx.Single[ID]) (rx.Single[ENT], error)
}

type Exister[ID any] interface {
	// ExistsByID emits exactly one boolean.
	ExistsByID(id ID) (rx.Single[bool], error)
	// ExistsByIDFrom resolves the id first, then behaves like ExistsByID.
	// When the id source completes empty, the result emits false.
	ExistsByIDFrom(id rx.Single[ID]) (rx.Single[bool], error)
}

type AllFinder[ENT any] interface {
	// FindAll emits every stored entity. The order is not defined.
	FindAll() rx.Many[ENT]
}

type ByIDsFinder[ENT, ID any] interface {
	// FindByIDs emits the entities that exist under the given ids.
	// Ids without a stored entity are skipped.
	FindByIDs(ids ...ID) (rx.Many[ENT], error)
	// FindByIDStream is the streaming form of FindByIDs.
	FindByIDStream(ids rx.Many[ID]) (rx.Many[ENT], error)
}

type Counter interface {
	// Count emits exactly one value, the number of stored entities.
	Count() rx.Single[int64]
}

type ByIDDeleter[ID any] interface {
	// DeleteByID removes the entity stored under the id.
	// Deleting an unknown id completes normally.
	DeleteByID(id ID) (rx.Completion, error)
}

type Deleter[ENT any] interface {
	// Delete removes the stored entity by the identifier of the given one.
	// An entity without an identifier is an invalid argument.
	Delete(ent ENT) (rx.Completion, error)
	// DeleteMany removes every given entity.
	DeleteMany(ents ...ENT) (rx.Completion, error)
	// DeleteStream removes entities as they arrive on the input stream.
	DeleteStream(ents rx.Many[ENT]) (rx.Completion, error)
}

type AllDeleter interface {
	// DeleteAll removes every stored entity.
	DeleteAll() rx.Completion
}

// Repository is the full reactive repository contract.
type Repository[ENT, ID any] interface {
	Saver[ENT]
	BatchSaver[ENT]
	ByIDFinder[ENT, ID]
	Exister[ID]
	AllFinder[ENT]
	ByIDsFinder[ENT, ID]
	Counter
	ByIDDeleter[ID]
	Deleter[ENT]
	AllDeleter
}
