package crudcontract

import (
	"go.llib.dev/testcase"

	"go.llib.dev/rxcrud/port/contract"
	"go.llib.dev/rxcrud/port/crud"
)

// Repository combines the contracts of every role of crud.Repository.
func Repository[ENT, ID any](subject crud.Repository[ENT, ID], opts ...Option[ENT, ID]) contract.Contract {
	s := testcase.NewSpec(nil)
	s.Context("Saver", Saver[ENT, ID](subject, opts...).Spec)
	s.Context("BatchSaver", BatchSaver[ENT, ID](subject, opts...).Spec)
	s.Context("ByIDFinder", ByIDFinder[ENT, ID](subject, opts...).Spec)
	s.Context("Exister", Exister[ENT, ID](subject, opts...).Spec)
	s.Context("AllFinder", AllFinder[ENT, ID](subject, opts...).Spec)
	s.Context("ByIDsFinder", ByIDsFinder[ENT, ID](subject, opts...).Spec)
	s.Context("Counter", Counter[ENT, ID](subject, opts...).Spec)
	s.Context("ByIDDeleter", ByIDDeleter[ENT, ID](subject, opts...).Spec)
	s.Context("Deleter", Deleter[ENT, ID](subject, opts...).Spec)
	s.Context("AllDeleter", AllDeleter[ENT, ID](subject, opts...).Spec)
	return s.AsSuite("Repository")
}
