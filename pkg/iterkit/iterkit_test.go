package iterkit_test

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.llib.dev/testcase/let"

	"go.llib.dev/rxcrud/pkg/iterkit"
)

func TestSlice(t *testing.T) {
	vs := []int{1, 2, 3}
	assert.Equal(t, vs, iterkit.Collect(iterkit.Slice(vs)))
	assert.Empty(t, iterkit.Collect(iterkit.Slice[int](nil)))
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, 0, iterkit.Count(iterkit.Empty[int]()))
	assert.Equal(t, 0, iterkit.Count2(iterkit.Empty2[int, error]()))
}

func TestError(t *testing.T) {
	expErr := errors.New("boom")
	vs, err := iterkit.CollectErr(iterkit.Error[int](expErr))
	assert.ErrorIs(t, expErr, err)
	assert.Empty(t, vs)
}

func TestFirst(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("first value", func(t *testcase.T) {
		v, ok := iterkit.First(iterkit.Slice([]int{42, 24}))
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	s.Test("empty", func(t *testcase.T) {
		_, ok := iterkit.First(iterkit.Empty[int]())
		assert.False(t, ok)
	})

	s.Test("the iteration is stopped after the first value", func(t *testcase.T) {
		var pulled int
		seq := func(yield func(int) bool) {
			for i := range 3 {
				pulled++
				if !yield(i) {
					return
				}
			}
		}
		_, ok := iterkit.First(seq)
		assert.True(t, ok)
		assert.Equal(t, 1, pulled)
	})
}

func TestFirstErr(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("value", func(t *testcase.T) {
		v, ok, err := iterkit.FirstErr(iterkit.ToErrSeq(iterkit.Slice([]string{"a", "b"})))
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a", v)
	})

	s.Test("empty", func(t *testcase.T) {
		_, ok, err := iterkit.FirstErr(iterkit.Empty2[string, error]())
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	s.Test("error in place of the first value", func(t *testcase.T) {
		expErr := t.Random.Error()
		_, ok, err := iterkit.FirstErr(iterkit.Error[string](expErr))
		assert.ErrorIs(t, expErr, err)
		assert.False(t, ok)
	})
}

func TestMap(t *testing.T) {
	got := iterkit.Collect(iterkit.Map(iterkit.Slice([]int{1, 2}), strconv.Itoa))
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestMapErr(t *testing.T) {
	s := testcase.NewSpec(t)
	s.Parallel()

	var (
		inputStream = testcase.Let(s, func(t *testcase.T) iter.Seq[string] {
			return iterkit.Slice([]string{`a`, `b`, `c`})
		})
		transform = testcase.Let(s, func(t *testcase.T) func(string) (string, error) {
			return func(in string) (string, error) {
				return strings.ToUpper(in), nil
			}
		})
	)
	act := func(t *testcase.T) iterkit.ErrSeq[string] {
		return iterkit.MapErr(inputStream.Get(t), transform.Get(t))
	}

	s.Then(`the new iterator will return values with enhanced by the map step`, func(t *testcase.T) {
		vs, err := iterkit.CollectErr(act(t))
		assert.Must(t).Nil(err)
		assert.Must(t).Equal([]string{`A`, `B`, `C`}, vs)
	})

	s.When(`some error happen during mapping`, func(s *testcase.Spec) {
		expectedErr := let.Error(s)

		transform.Let(s, func(t *testcase.T) func(string) (string, error) {
			return func(string) (string, error) {
				return "", expectedErr.Get(t)
			}
		})

		s.Then(`error returned`, func(t *testcase.T) {
			_, err := iterkit.CollectErr(act(t))
			assert.ErrorIs(t, err, expectedErr.Get(t))
		})

		s.Then(`TakeWhileOK terminates at the first error`, func(t *testcase.T) {
			assert.Equal(t, 1, iterkit.Count2(iterkit.TakeWhileOK(act(t))))
		})
	})

	s.Test(`errors of a failable source are passed through without calling transform`, func(t *testcase.T) {
		expErr := t.Random.Error()
		var calls int
		src := iterkit.Error[string](expErr)
		vs, err := iterkit.CollectErr(iterkit.MapErr(src, func(v string) (string, error) {
			calls++
			return v, nil
		}))
		assert.ErrorIs(t, expErr, err)
		assert.Empty(t, vs)
		assert.Equal(t, 0, calls)
	})
}

func TestChan(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)
	assert.Equal(t, []int{1, 2, 3}, iterkit.Collect(iterkit.Chan(ch)))
	assert.Empty(t, iterkit.Collect(iterkit.Chan[int](nil)))
}

func TestChanCtx(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("values until the channel is closed", func(t *testcase.T) {
		ch := make(chan int, 2)
		ch <- 1
		ch <- 2
		close(ch)
		vs, err := iterkit.CollectErr(iterkit.ChanCtx(context.Background(), ch))
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2}, vs)
	})

	s.Test("a blocked receive is interrupted by the cancellation", func(t *testcase.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := iterkit.CollectErr(iterkit.ChanCtx(ctx, make(chan int)))
		assert.ErrorIs(t, context.Canceled, err)
	})
}

func TestToErrSeq(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("values without error", func(t *testcase.T) {
		vs, err := iterkit.CollectErr(iterkit.ToErrSeq(iterkit.Slice([]int{1, 2})))
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2}, vs)
	})

	s.Test("the error of the error func is yielded last", func(t *testcase.T) {
		expErr := t.Random.Error()
		vs, err := iterkit.CollectErr(iterkit.ToErrSeq(iterkit.Slice([]int{1}), func() error { return expErr }))
		assert.ErrorIs(t, expErr, err)
		assert.Equal(t, []int{1}, vs)
	})
}

func TestCollectErr(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("nil iterator", func(t *testcase.T) {
		vs, err := iterkit.CollectErr[int](nil)
		assert.NoError(t, err)
		assert.Nil(t, vs)
	})

	s.Test("errors are merged", func(t *testcase.T) {
		err1, err2 := errors.New("1"), errors.New("2")
		seq := func(yield func(int, error) bool) {
			_ = yield(1, nil) && yield(0, err1) && yield(2, nil) && yield(0, err2)
		}
		vs, err := iterkit.CollectErr[int](seq)
		assert.Equal(t, []int{1, 2}, vs)
		assert.ErrorIs(t, err1, err)
		assert.ErrorIs(t, err2, err)
	})
}

func TestCountErr(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("counts every value", func(t *testcase.T) {
		n, err := iterkit.CountErr(iterkit.ToErrSeq(iterkit.Slice([]int{1, 2, 3})))
		assert.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	s.Test("stops at the first error", func(t *testcase.T) {
		expErr := t.Random.Error()
		var pulled int
		seq := func(yield func(int, error) bool) {
			pulled++
			if !yield(1, nil) {
				return
			}
			pulled++
			if !yield(0, expErr) {
				return
			}
			pulled++
			yield(2, nil)
		}
		n, err := iterkit.CountErr[int](seq)
		assert.ErrorIs(t, expErr, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, 2, pulled)
	})
}
