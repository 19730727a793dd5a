package crudcontract

import (
	"context"
	"iter"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/port/contract"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudtest"
	"go.llib.dev/rxcrud/port/option"
	"go.llib.dev/rxcrud/port/rx"
)

func ByIDDeleter[ENT, ID any](subject crud.ByIDDeleter[ID], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	s.Describe(".DeleteByID", func(s *testcase.Spec) {
		var (
			ctx = testcase.Let(s, func(t *testcase.T) context.Context {
				return c.MakeContext(t)
			})
			id = testcase.Let[ID](s, nil)
		)
		act := func(t *testcase.T) (rx.Completion, error) {
			return subject.DeleteByID(id.Get(t))
		}

		s.When("the id is absent", func(s *testcase.Spec) {
			id.Let(s, func(t *testcase.T) ID {
				var zero ID
				return zero
			})

			s.Then("it is rejected synchronously with invalid argument", func(t *testcase.T) {
				del, err := act(t)
				shouldBeInvalid(t, del, err)
			})
		})

		s.When("no entity is stored under the id", func(s *testcase.Spec) {
			id.Let(s, func(t *testcase.T) ID {
				return makeAbsentID(t, c, subject)
			})

			s.Then("it completes normally", func(t *testcase.T) {
				del, err := act(t)
				assert.NoError(t, err)
				crudtest.Wait(t, ctx.Get(t), del)
			})
		})

		s.When("an entity is stored under the id", func(s *testcase.Spec) {
			id.Let(s, func(t *testcase.T) ID {
				return c.helper().HasID(t, saveFixture(t, c, subject))
			}).EagerLoading(s)

			s.Then("the entity is no longer findable", func(t *testcase.T) {
				del, err := act(t)
				assert.NoError(t, err)
				crudtest.Wait(t, ctx.Get(t), del)
				isAbsent(t, c, subject, id.Get(t))
			})

			s.Then("other entities are left untouched", func(t *testcase.T) {
				other := c.helper().HasID(t, saveFixture(t, c, subject))
				del, err := act(t)
				assert.NoError(t, err)
				crudtest.Wait(t, ctx.Get(t), del)
				isPresent(t, c, subject, other)
			})

			s.Then("nothing is deleted until the result is consumed", func(t *testcase.T) {
				del, err := act(t)
				assert.NoError(t, err)
				assert.NotNil(t, del)
				if _, ok := isPresent(t, c, subject, id.Get(t)); !ok {
					t.Skipf("%T doesn't implement crud.ByIDFinder", subject)
				}
			})

			s.Then("consuming the result again completes normally", func(t *testcase.T) {
				del, err := act(t)
				assert.NoError(t, err)
				crudtest.Wait(t, ctx.Get(t), del)
				crudtest.Wait(t, ctx.Get(t), del)
				isAbsent(t, c, subject, id.Get(t))
			})

			s.Then("a cancelled context fails the deletion", func(t *testcase.T) {
				del, err := act(t)
				assert.NoError(t, err)
				assert.ErrorIs(t, context.Canceled, del.Wait(cancelledContext(ctx.Get(t))))
			})
		})
	})

	return s.AsSuite("ByIDDeleter")
}

func Deleter[ENT, ID any](subject crud.Deleter[ENT], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".Delete", func(s *testcase.Spec) {
		s.Test("an absent entity is rejected synchronously with invalid argument", func(t *testcase.T) {
			skipUnlessNilable[ENT](t)
			var zero ENT
			del, err := subject.Delete(zero)
			shouldBeInvalid(t, del, err)
		})

		s.Test("an entity without an identifier is rejected synchronously with invalid argument", func(t *testcase.T) {
			del, err := subject.Delete(c.MakeEntity(t))
			shouldBeInvalid(t, del, err)
		})

		s.Test("the stored entity is deleted by its identifier", func(t *testcase.T) {
			saved := saveFixture(t, c, subject)
			other := saveFixture(t, c, subject)
			del, err := subject.Delete(saved)
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), del)
			isAbsent(t, c, subject, c.helper().HasID(t, saved))
			isPresent(t, c, subject, c.helper().HasID(t, other))
		})

		s.Test("deleting an entity that is no longer stored completes normally", func(t *testcase.T) {
			saved := saveFixture(t, c, subject)
			first, err := subject.Delete(saved)
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), first)
			second, err := subject.Delete(saved)
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), second)
		})
	})

	s.Describe(".DeleteMany", func(s *testcase.Spec) {
		s.Test("an entity without an identifier is rejected synchronously with invalid argument", func(t *testcase.T) {
			saved := saveFixture(t, c, subject)
			del, err := subject.DeleteMany(saved, c.MakeEntity(t))
			shouldBeInvalid(t, del, err)
			isPresent(t, c, subject, c.helper().HasID(t, saved))
		})

		s.Test("no entity completes normally", func(t *testcase.T) {
			del, err := subject.DeleteMany()
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), del)
		})

		s.Test("every given entity is deleted, the rest is left untouched", func(t *testcase.T) {
			var (
				a     = saveFixture(t, c, subject)
				b     = saveFixture(t, c, subject)
				other = saveFixture(t, c, subject)
			)
			del, err := subject.DeleteMany(a, b)
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), del)
			isAbsent(t, c, subject, c.helper().HasID(t, a))
			isAbsent(t, c, subject, c.helper().HasID(t, b))
			isPresent(t, c, subject, c.helper().HasID(t, other))
		})

		s.Test("nothing is deleted until the result is consumed", func(t *testcase.T) {
			a := saveFixture(t, c, subject)
			del, err := subject.DeleteMany(a)
			assert.NoError(t, err)
			assert.NotNil(t, del)
			isPresent(t, c, subject, c.helper().HasID(t, a))
		})
	})

	s.Describe(".DeleteStream", func(s *testcase.Spec) {
		s.Test("absent input stream is rejected synchronously with invalid argument", func(t *testcase.T) {
			del, err := subject.DeleteStream(nil)
			shouldBeInvalid(t, del, err)
		})

		s.Test("entities are deleted as they arrive", func(t *testcase.T) {
			var (
				a = saveFixture(t, c, subject)
				b = saveFixture(t, c, subject)
			)
			del, err := subject.DeleteStream(rx.Of(a, b))
			assert.NoError(t, err)
			crudtest.Wait(t, ctx.Get(t), del)
			isAbsent(t, c, subject, c.helper().HasID(t, a))
			isAbsent(t, c, subject, c.helper().HasID(t, b))
		})

		s.Test("a failing input terminates it with the error, earlier items stay deleted", func(t *testcase.T) {
			var (
				expErr = t.Random.Error()
				a      = saveFixture(t, c, subject)
			)
			input := rx.Many[ENT](func(context.Context) iter.Seq2[ENT, error] {
				return func(yield func(ENT, error) bool) {
					if !yield(a, nil) {
						return
					}
					var zero ENT
					yield(zero, expErr)
				}
			})
			del, err := subject.DeleteStream(input)
			assert.NoError(t, err)
			assert.ErrorIs(t, expErr, del.Wait(ctx.Get(t)))
			isAbsent(t, c, subject, c.helper().HasID(t, a))
		})

		s.Test("an entity without an identifier in the input terminates it with invalid argument", func(t *testcase.T) {
			del, err := subject.DeleteStream(rx.Of(c.MakeEntity(t)))
			assert.NoError(t, err)
			assert.ErrorIs(t, crud.ErrInvalidArgument, del.Wait(ctx.Get(t)))
		})
	})

	return s.AsSuite("Deleter")
}

func AllDeleter[ENT, ID any](subject crud.AllDeleter, opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".DeleteAll", func(s *testcase.Spec) {
		s.Test("count is zero afterwards", func(t *testcase.T) {
			saveFixture(t, c, subject)
			saveFixture(t, c, subject)
			crudtest.Wait(t, ctx.Get(t), subject.DeleteAll())
			assert.Equal(t, int64(0), countOf(t, c, subject))
		})

		s.Test("stored entities are no longer findable", func(t *testcase.T) {
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			crudtest.Wait(t, ctx.Get(t), subject.DeleteAll())
			isAbsent(t, c, subject, id)
		})

		s.Test("an empty repository completes normally", func(t *testcase.T) {
			crudtest.Wait(t, ctx.Get(t), subject.DeleteAll())
			crudtest.Wait(t, ctx.Get(t), subject.DeleteAll())
		})

		s.Test("nothing is deleted until the result is consumed", func(t *testcase.T) {
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			assert.NotNil(t, subject.DeleteAll())
			isPresent(t, c, subject, id)
		})
	})

	return s.AsSuite("AllDeleter")
}
