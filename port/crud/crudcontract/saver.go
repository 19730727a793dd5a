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

func Saver[ENT, ID any](subject crud.Saver[ENT], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	s.Describe(".Save", func(s *testcase.Spec) {
		var (
			ctx = testcase.Let(s, func(t *testcase.T) context.Context {
				return c.MakeContext(t)
			})
			ent = testcase.Let(s, func(t *testcase.T) ENT {
				return c.MakeEntity(t)
			})
		)
		act := func(t *testcase.T) (rx.Single[ENT], error) {
			return subject.Save(ent.Get(t))
		}
		consume := func(t *testcase.T) ENT {
			single, err := act(t)
			assert.NoError(t, err)
			saved, ok, err := single.Get(ctx.Get(t))
			assert.NoError(t, err)
			if !ok && c.AllowEmptySave {
				t.Skip("save completed empty, which is allowed by the configuration")
			}
			assert.True(t, ok, "save is expected to emit the saved entity")
			if id, ok := c.lookupID(saved); ok {
				t.Defer(func() { tryDelete(t, c, subject, id) })
			}
			return saved
		}

		s.When("the entity is absent", func(s *testcase.Spec) {
			ent.Let(s, func(t *testcase.T) ENT {
				skipUnlessNilable[ENT](t)
				var zero ENT
				return zero
			})

			s.Then("it is rejected synchronously with invalid argument", func(t *testcase.T) {
				single, err := act(t)
				shouldBeInvalid(t, single, err)
			})
		})

		s.Then("it emits the saved entity with an identifier", func(t *testcase.T) {
			saved := consume(t)
			c.helper().HasID(t, saved)
		})

		s.Then("the saved entity can be read back", func(t *testcase.T) {
			saved := consume(t)
			id := c.helper().HasID(t, saved)
			got, ok := isPresent(t, c, subject, id)
			if !ok {
				t.Skipf("%T doesn't implement crud.ByIDFinder", subject)
			}
			assert.Equal(t, saved, got)
		})

		s.Then("nothing is saved until the result is consumed", func(t *testcase.T) {
			before := countOf(t, c, subject)
			single, err := act(t)
			assert.NoError(t, err)
			assert.NotNil(t, single)
			assert.Equal(t, before, countOf(t, c, subject))
		})

		s.When("the context is cancelled before consumption", func(s *testcase.Spec) {
			ctx.Let(s, func(t *testcase.T) context.Context {
				return cancelledContext(ctx.Super(t))
			})

			s.Then("it fails with the cancellation error and saves nothing", func(t *testcase.T) {
				before := countOf(t, c, subject)
				single, err := act(t)
				assert.NoError(t, err)
				_, ok, err := single.Get(ctx.Get(t))
				assert.ErrorIs(t, context.Canceled, err)
				assert.False(t, ok)
				assert.Equal(t, before, countOf(t, c, subject))
			})
		})

		s.When("the entity is already stored", func(s *testcase.Spec) {
			ent.Let(s, func(t *testcase.T) ENT {
				if c.InsertOnly {
					t.Skip("save is configured as insert only")
				}
				v := saveFixture(t, c, subject)
				c.ChangeEntity(t, &v)
				return v
			}).EagerLoading(s)

			s.Then("the stored version is replaced", func(t *testcase.T) {
				saved := consume(t)
				id := c.helper().HasID(t, saved)
				expID, _ := c.lookupID(ent.Get(t))
				assert.Equal(t, expID, id)
				if got, ok := isPresent(t, c, subject, id); ok {
					assert.Equal(t, saved, got)
				}
			})

			s.Then("the total count doesn't increase", func(t *testcase.T) {
				before := countOf(t, c, subject)
				consume(t)
				assert.Equal(t, before, countOf(t, c, subject))
			})
		})
	})

	return s.AsSuite("Saver")
}

func BatchSaver[ENT, ID any](subject crud.BatchSaver[ENT], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	collect := func(t *testcase.T, m rx.Many[ENT]) []ENT {
		t.Helper()
		vs := crudtest.Collect(t, ctx.Get(t), m)
		for _, v := range vs {
			if id, ok := c.lookupID(v); ok {
				t.Defer(func() { tryDelete(t, c, subject, id) })
			}
		}
		return vs
	}

	s.Describe(".SaveMany", func(s *testcase.Spec) {
		ents := testcase.Let(s, func(t *testcase.T) []ENT {
			return []ENT{c.MakeEntity(t), c.MakeEntity(t), c.MakeEntity(t)}
		})
		act := func(t *testcase.T) (rx.Many[ENT], error) {
			return subject.SaveMany(ents.Get(t)...)
		}

		s.When("one of the entities is absent", func(s *testcase.Spec) {
			ents.Let(s, func(t *testcase.T) []ENT {
				skipUnlessNilable[ENT](t)
				var zero ENT
				vs := ents.Super(t)
				vs[t.Random.IntN(len(vs))] = zero
				return vs
			})

			s.Then("it is rejected synchronously with invalid argument, and nothing is saved", func(t *testcase.T) {
				counter, isCounter := subject.(crud.Counter)
				var before int64
				if isCounter {
					before = crudtest.Count(t, c.MakeContext(t), counter)
				}
				many, err := act(t)
				shouldBeInvalid(t, many, err)
				if isCounter {
					assert.Equal(t, before, crudtest.Count(t, c.MakeContext(t), counter))
				}
			})
		})

		s.When("no entity is given", func(s *testcase.Spec) {
			ents.Let(s, func(t *testcase.T) []ENT { return nil })

			s.Then("it completes without emitting", func(t *testcase.T) {
				many, err := act(t)
				assert.NoError(t, err)
				assert.Empty(t, collect(t, many))
			})
		})

		s.Then("it emits a saved representation for every entity", func(t *testcase.T) {
			many, err := act(t)
			assert.NoError(t, err)
			saved := collect(t, many)
			assert.Equal(t, len(ents.Get(t)), len(saved))
			for _, v := range saved {
				id := c.helper().HasID(t, v)
				if got, ok := isPresent(t, c, subject, id); ok {
					assert.Equal(t, v, got)
				}
			}
		})

		s.Then("count increases by the number of new entities", func(t *testcase.T) {
			before := countOf(t, c, subject)
			many, err := act(t)
			assert.NoError(t, err)
			saved := collect(t, many)
			assert.Equal(t, before+int64(len(ents.Get(t))), countOf(t, c, subject))

			if c.InsertOnly {
				return
			}
			again, err := subject.SaveMany(saved...)
			assert.NoError(t, err)
			collect(t, again)
			assert.Equal(t, before+int64(len(ents.Get(t))), countOf(t, c, subject),
				"re-saving stored entities should not add new ones")
		})

		s.Then("nothing is saved until the result is consumed", func(t *testcase.T) {
			before := countOf(t, c, subject)
			many, err := act(t)
			assert.NoError(t, err)
			assert.NotNil(t, many)
			assert.Equal(t, before, countOf(t, c, subject))
		})
	})

	s.Describe(".SaveStream", func(s *testcase.Spec) {
		s.Test("absent input stream is rejected synchronously with invalid argument", func(t *testcase.T) {
			many, err := subject.SaveStream(nil)
			shouldBeInvalid(t, many, err)
		})

		s.Test("the result emits as the input arrives, and completes after the input completed", func(t *testcase.T) {
			const total = 3
			in := make(chan ENT, 1)
			in <- c.MakeEntity(t)
			many, err := subject.SaveStream(rx.FromChan(in))
			assert.NoError(t, err)

			var n int
			for v, err := range many.Iter(ctx.Get(t)) {
				assert.NoError(t, err)
				id := c.helper().HasID(t, v)
				t.Defer(func() { tryDelete(t, c, subject, id) })
				n++
				if n < total {
					in <- c.MakeEntity(t)
				} else {
					close(in)
				}
			}
			assert.Equal(t, total, n)
		})

		s.Test("a failing input terminates the result with its error, earlier items stay saved", func(t *testcase.T) {
			var (
				expErr = t.Random.Error()
				first  = c.MakeEntity(t)
			)
			input := rx.Many[ENT](func(context.Context) iter.Seq2[ENT, error] {
				return func(yield func(ENT, error) bool) {
					if !yield(first, nil) {
						return
					}
					var zero ENT
					yield(zero, expErr)
				}
			})
			many, err := subject.SaveStream(input)
			assert.NoError(t, err)

			var (
				saved    []ENT
				gotErr   error
				afterErr bool
			)
			for v, err := range many.Iter(ctx.Get(t)) {
				if gotErr != nil {
					afterErr = true
				}
				if err != nil {
					gotErr = err
					continue
				}
				saved = append(saved, v)
			}
			assert.False(t, afterErr, "nothing should be emitted after the terminal failure")
			assert.ErrorIs(t, expErr, gotErr)
			assert.Equal(t, 1, len(saved))
			id := c.helper().HasID(t, saved[0])
			t.Defer(func() { tryDelete(t, c, subject, id) })
			isPresent(t, c, subject, id)
		})

		s.Test("an absent element in the input terminates the result with invalid argument", func(t *testcase.T) {
			skipUnlessNilable[ENT](t)
			var zero ENT
			many, err := subject.SaveStream(rx.Of(c.MakeEntity(t), zero))
			assert.NoError(t, err)

			var gotErr error
			for v, err := range many.Iter(ctx.Get(t)) {
				if err != nil {
					gotErr = err
					break
				}
				if id, ok := c.lookupID(v); ok {
					t.Defer(func() { tryDelete(t, c, subject, id) })
				}
			}
			assert.ErrorIs(t, crud.ErrInvalidArgument, gotErr)
		})

		s.Test("cancelling the context mid-stream terminates the result with the cancellation error", func(t *testcase.T) {
			cctx, cancel := context.WithCancel(ctx.Get(t))
			defer cancel()
			many, err := subject.SaveStream(rx.Of(c.MakeEntity(t), c.MakeEntity(t), c.MakeEntity(t)))
			assert.NoError(t, err)

			var (
				n      int
				gotErr error
			)
			for v, err := range many.Iter(cctx) {
				if err != nil {
					gotErr = err
					break
				}
				n++
				if id, ok := c.lookupID(v); ok {
					t.Defer(func() { tryDelete(t, c, subject, id) })
				}
				cancel()
			}
			assert.Equal(t, 1, n)
			assert.ErrorIs(t, context.Canceled, gotErr)
		})
	})

	return s.AsSuite("BatchSaver")
}

// tryDelete removes a stored entity when the subject is able to.
func tryDelete[ENT, ID any](t *testcase.T, c Config[ENT, ID], subject any, id ID) {
	deleter, ok := subject.(crud.ByIDDeleter[ID])
	if !ok {
		return
	}
	del, err := deleter.DeleteByID(id)
	if err != nil {
		return
	}
	_ = del.Wait(context.WithoutCancel(c.MakeContext(t)))
}
