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

func ByIDFinder[ENT, ID any](subject crud.ByIDFinder[ENT, ID], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".FindByID", func(s *testcase.Spec) {
		id := testcase.Let[ID](s, nil)
		act := func(t *testcase.T) (rx.Single[ENT], error) {
			return subject.FindByID(id.Get(t))
		}

		s.When("the id is absent", func(s *testcase.Spec) {
			id.Let(s, func(t *testcase.T) ID {
				var zero ID
				return zero
			})

			s.Then("it is rejected synchronously with invalid argument", func(t *testcase.T) {
				single, err := act(t)
				shouldBeInvalid(t, single, err)
			})
		})

		s.When("no entity is stored under the id", func(s *testcase.Spec) {
			id.Let(s, func(t *testcase.T) ID {
				return makeAbsentID(t, c, subject)
			})

			s.Then("it completes empty without an error", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, ok := crudtest.Get(t, ctx.Get(t), single)
				assert.False(t, ok)
			})
		})

		s.When("an entity is stored under the id", func(s *testcase.Spec) {
			saved := testcase.Let(s, func(t *testcase.T) ENT {
				return saveFixture(t, c, subject)
			})
			id.Let(s, func(t *testcase.T) ID {
				return c.helper().HasID(t, saved.Get(t))
			})

			s.Then("it emits the stored entity", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				got, ok := crudtest.Get(t, ctx.Get(t), single)
				assert.True(t, ok)
				assert.Equal(t, saved.Get(t), got)
			})

			s.Then("the context cancellation is reported as failure", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, ok, err := single.Get(cancelledContext(ctx.Get(t)))
				assert.ErrorIs(t, context.Canceled, err)
				assert.False(t, ok)
			})
		})

		s.Test("every consumption of the same handle is a fresh lookup", func(t *testcase.T) {
			saved := saveFixture(t, c, subject)
			id := c.helper().HasID(t, saved)
			single, err := subject.FindByID(id)
			assert.NoError(t, err)
			got, ok := crudtest.Get(t, ctx.Get(t), single)
			assert.True(t, ok)
			assert.Equal(t, saved, got)

			tryDelete(t, c, subject, id)
			c.helper().IsAbsent(t, ctx.Get(t), subject, id)
			_, ok = crudtest.Get(t, ctx.Get(t), single)
			assert.False(t, ok, "the second consumption should observe the deletion")
		})
	})

	s.Describe(".FindByIDFrom", func(s *testcase.Spec) {
		src := testcase.Let[rx.Single[ID]](s, nil)
		act := func(t *testcase.T) (rx.Single[ENT], error) {
			return subject.FindByIDFrom(src.Get(t))
		}

		s.When("the id source is absent", func(s *testcase.Spec) {
			src.Let(s, func(t *testcase.T) rx.Single[ID] { return nil })

			s.Then("it is rejected synchronously with invalid argument", func(t *testcase.T) {
				single, err := act(t)
				shouldBeInvalid(t, single, err)
			})
		})

		s.When("the id source completes empty", func(s *testcase.Spec) {
			src.Let(s, func(t *testcase.T) rx.Single[ID] { return rx.Empty[ID]() })

			s.Then("it completes empty", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, ok := crudtest.Get(t, ctx.Get(t), single)
				assert.False(t, ok)
			})
		})

		s.When("the id source fails", func(s *testcase.Spec) {
			expErr := testcase.Let(s, func(t *testcase.T) error { return t.Random.Error() })
			src.Let(s, func(t *testcase.T) rx.Single[ID] { return rx.Fail[ID](expErr.Get(t)) })

			s.Then("it fails with the same error", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, ok, err := single.Get(ctx.Get(t))
				assert.ErrorIs(t, expErr.Get(t), err)
				assert.False(t, ok)
			})
		})

		s.When("the id source resolves to an absent id", func(s *testcase.Spec) {
			src.Let(s, func(t *testcase.T) rx.Single[ID] {
				var zero ID
				return rx.Just(zero)
			})

			s.Then("it fails with invalid argument", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, _, err = single.Get(ctx.Get(t))
				assert.ErrorIs(t, crud.ErrInvalidArgument, err)
			})
		})

		s.When("the id source resolves to an unknown id", func(s *testcase.Spec) {
			src.Let(s, func(t *testcase.T) rx.Single[ID] {
				return rx.Just(makeAbsentID(t, c, subject))
			})

			s.Then("it completes empty without an error", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				_, ok := crudtest.Get(t, ctx.Get(t), single)
				assert.False(t, ok)
			})
		})

		s.When("the id source resolves to a stored entity's id", func(s *testcase.Spec) {
			saved := testcase.Let(s, func(t *testcase.T) ENT {
				return saveFixture(t, c, subject)
			})
			subscriptions := testcase.LetValue(s, 0)
			src.Let(s, func(t *testcase.T) rx.Single[ID] {
				id := c.helper().HasID(t, saved.Get(t))
				return func(context.Context) (ID, bool, error) {
					subscriptions.Set(t, subscriptions.Get(t)+1)
					return id, true, nil
				}
			})

			s.Then("it emits the stored entity", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				got, ok := crudtest.Get(t, ctx.Get(t), single)
				assert.True(t, ok)
				assert.Equal(t, saved.Get(t), got)
			})

			s.Then("the id source is subscribed only on consumption", func(t *testcase.T) {
				single, err := act(t)
				assert.NoError(t, err)
				assert.Equal(t, 0, subscriptions.Get(t))
				crudtest.Get(t, ctx.Get(t), single)
				crudtest.Get(t, ctx.Get(t), single)
				assert.Equal(t, 2, subscriptions.Get(t))
			})
		})
	})

	return s.AsSuite("ByIDFinder")
}

func Exister[ENT, ID any](subject crud.Exister[ID], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	// exactlyOne asserts that the result emits one and only one boolean.
	exactlyOne := func(t *testcase.T, single rx.Single[bool]) bool {
		t.Helper()
		v, ok := crudtest.Get(t, ctx.Get(t), single)
		assert.True(t, ok, "exists is expected to emit exactly one value")
		return v
	}

	s.Describe(".ExistsByID", func(s *testcase.Spec) {
		s.Test("absent id is rejected synchronously with invalid argument", func(t *testcase.T) {
			var zero ID
			single, err := subject.ExistsByID(zero)
			shouldBeInvalid(t, single, err)
		})

		s.Test("unknown id emits false", func(t *testcase.T) {
			single, err := subject.ExistsByID(makeAbsentID(t, c, subject))
			assert.NoError(t, err)
			assert.False(t, exactlyOne(t, single))
		})

		s.Test("stored entity's id emits true", func(t *testcase.T) {
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			single, err := subject.ExistsByID(id)
			assert.NoError(t, err)
			assert.True(t, exactlyOne(t, single))
		})
	})

	s.Describe(".ExistsByIDFrom", func(s *testcase.Spec) {
		s.Test("absent id source is rejected synchronously with invalid argument", func(t *testcase.T) {
			single, err := subject.ExistsByIDFrom(nil)
			shouldBeInvalid(t, single, err)
		})

		s.Test("empty id source emits false", func(t *testcase.T) {
			single, err := subject.ExistsByIDFrom(rx.Empty[ID]())
			assert.NoError(t, err)
			assert.False(t, exactlyOne(t, single))
		})

		s.Test("failing id source fails the result", func(t *testcase.T) {
			expErr := t.Random.Error()
			single, err := subject.ExistsByIDFrom(rx.Fail[ID](expErr))
			assert.NoError(t, err)
			_, _, err = single.Get(ctx.Get(t))
			assert.ErrorIs(t, expErr, err)
		})

		s.Test("unknown id emits false", func(t *testcase.T) {
			single, err := subject.ExistsByIDFrom(rx.Just(makeAbsentID(t, c, subject)))
			assert.NoError(t, err)
			assert.False(t, exactlyOne(t, single))
		})

		s.Test("stored entity's id emits true", func(t *testcase.T) {
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			single, err := subject.ExistsByIDFrom(rx.Just(id))
			assert.NoError(t, err)
			assert.True(t, exactlyOne(t, single))
		})
	})

	return s.AsSuite("Exister")
}

func AllFinder[ENT, ID any](subject crud.AllFinder[ENT], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".FindAll", func(s *testcase.Spec) {
		s.Test("stored entities are emitted", func(t *testcase.T) {
			a := saveFixture(t, c, subject)
			b := saveFixture(t, c, subject)
			vs := crudtest.Collect(t, ctx.Get(t), subject.FindAll())
			assert.Contains(t, vs, a)
			assert.Contains(t, vs, b)
		})

		s.Test("after delete all, it completes without emitting", func(t *testcase.T) {
			deleter, ok := any(subject).(crud.AllDeleter)
			if !ok {
				t.Skipf("%T doesn't implement crud.AllDeleter", subject)
			}
			saveFixture(t, c, subject)
			crudtest.Wait(t, ctx.Get(t), deleter.DeleteAll())
			assert.Empty(t, crudtest.Collect(t, ctx.Get(t), subject.FindAll()))
		})

		s.Test("the handle is cold, a consumption sees the state at its own subscription", func(t *testcase.T) {
			many := subject.FindAll()
			saved := saveFixture(t, c, subject)
			assert.Contains(t, crudtest.Collect(t, ctx.Get(t), many), saved)
		})

		s.Test("stopping the consumption early is not a failure, and leaves the state intact", func(t *testcase.T) {
			var ids []ID
			for range 3 {
				ids = append(ids, c.helper().HasID(t, saveFixture(t, c, subject)))
			}
			var n int
			for _, err := range subject.FindAll().Iter(ctx.Get(t)) {
				assert.NoError(t, err)
				n++
				break
			}
			assert.Equal(t, 1, n)
			for _, id := range ids {
				isPresent(t, c, subject, id)
			}
		})

		s.Test("cancelling the context mid-stream terminates it with the cancellation error", func(t *testcase.T) {
			for range 3 {
				saveFixture(t, c, subject)
			}
			cctx, cancel := context.WithCancel(ctx.Get(t))
			defer cancel()

			var (
				n      int
				gotErr error
			)
			for _, err := range subject.FindAll().Iter(cctx) {
				if err != nil {
					gotErr = err
					break
				}
				n++
				cancel()
			}
			assert.Equal(t, 1, n)
			assert.ErrorIs(t, context.Canceled, gotErr)
		})
	})

	return s.AsSuite("AllFinder")
}

func ByIDsFinder[ENT, ID any](subject crud.ByIDsFinder[ENT, ID], opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".FindByIDs", func(s *testcase.Spec) {
		s.Test("an absent id is rejected synchronously with invalid argument", func(t *testcase.T) {
			var zero ID
			many, err := subject.FindByIDs(c.helper().HasID(t, saveFixture(t, c, subject)), zero)
			shouldBeInvalid(t, many, err)
		})

		s.Test("no id completes without emitting", func(t *testcase.T) {
			many, err := subject.FindByIDs()
			assert.NoError(t, err)
			assert.Empty(t, crudtest.Collect(t, ctx.Get(t), many))
		})

		s.Test("stored entities are emitted, unknown ids are skipped", func(t *testcase.T) {
			var (
				a       = saveFixture(t, c, subject)
				b       = saveFixture(t, c, subject)
				_       = saveFixture(t, c, subject)
				unknown = makeAbsentID(t, c, subject)
			)
			many, err := subject.FindByIDs(c.helper().HasID(t, a), unknown, c.helper().HasID(t, b))
			assert.NoError(t, err)
			assert.ContainsExactly(t, []ENT{a, b}, crudtest.Collect(t, ctx.Get(t), many))
		})
	})

	s.Describe(".FindByIDStream", func(s *testcase.Spec) {
		s.Test("absent input stream is rejected synchronously with invalid argument", func(t *testcase.T) {
			many, err := subject.FindByIDStream(nil)
			shouldBeInvalid(t, many, err)
		})

		s.Test("entities are emitted as the ids arrive", func(t *testcase.T) {
			var ents []ENT
			for range 3 {
				ents = append(ents, saveFixture(t, c, subject))
			}
			in := make(chan ID, 1)
			in <- c.helper().HasID(t, ents[0])
			many, err := subject.FindByIDStream(rx.FromChan(in))
			assert.NoError(t, err)

			var got []ENT
			for v, err := range many.Iter(ctx.Get(t)) {
				assert.NoError(t, err)
				got = append(got, v)
				if len(got) < len(ents) {
					in <- c.helper().HasID(t, ents[len(got)])
				} else {
					close(in)
				}
			}
			assert.Equal(t, ents, got)
		})

		s.Test("an absent id in the input terminates the result with invalid argument", func(t *testcase.T) {
			var zero ID
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			many, err := subject.FindByIDStream(rx.Of(id, zero))
			assert.NoError(t, err)
			vs, err := many.Collect(ctx.Get(t))
			assert.ErrorIs(t, crud.ErrInvalidArgument, err)
			assert.Equal(t, 1, len(vs))
		})

		s.Test("a failing input terminates the result with its error", func(t *testcase.T) {
			expErr := t.Random.Error()
			id := c.helper().HasID(t, saveFixture(t, c, subject))
			input := rx.Many[ID](func(context.Context) iter.Seq2[ID, error] {
				return func(yield func(ID, error) bool) {
					if !yield(id, nil) {
						return
					}
					var zero ID
					yield(zero, expErr)
				}
			})
			many, err := subject.FindByIDStream(input)
			assert.NoError(t, err)
			vs, err := many.Collect(ctx.Get(t))
			assert.ErrorIs(t, expErr, err)
			assert.Equal(t, 1, len(vs))
		})
	})

	return s.AsSuite("ByIDsFinder")
}

func Counter[ENT, ID any](subject crud.Counter, opts ...Option[ENT, ID]) contract.Contract {
	c := option.ToConfig(opts)
	s := testcase.NewSpec(nil)

	ctx := testcase.Let(s, func(t *testcase.T) context.Context {
		return c.MakeContext(t)
	})

	s.Describe(".Count", func(s *testcase.Spec) {
		s.Test("it emits exactly one value", func(t *testcase.T) {
			n := crudtest.Count(t, ctx.Get(t), subject)
			assert.True(t, 0 <= n)
		})

		s.Test("it follows the saved entities", func(t *testcase.T) {
			before := crudtest.Count(t, ctx.Get(t), subject)
			saveFixture(t, c, subject)
			saveFixture(t, c, subject)
			assert.Equal(t, before+2, crudtest.Count(t, ctx.Get(t), subject))
		})

		s.Test("it is zero after delete all", func(t *testcase.T) {
			deleter, ok := any(subject).(crud.AllDeleter)
			if !ok {
				t.Skipf("%T doesn't implement crud.AllDeleter", subject)
			}
			saveFixture(t, c, subject)
			crudtest.Wait(t, ctx.Get(t), deleter.DeleteAll())
			assert.Equal(t, int64(0), crudtest.Count(t, ctx.Get(t), subject))
		})

		s.Test("the handle is cold", func(t *testcase.T) {
			single := subject.Count()
			before, _ := crudtest.Get(t, ctx.Get(t), single)
			saveFixture(t, c, subject)
			after, _ := crudtest.Get(t, ctx.Get(t), single)
			assert.Equal(t, before+1, after)
		})
	})

	return s.AsSuite("Counter")
}
