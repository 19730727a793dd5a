package zerokit_test

import (
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/zerokit"
)

type T struct{ V string }

func TestIsZero(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("zero values", func(t *testcase.T) {
		assert.True(t, zerokit.IsZero(0))
		assert.True(t, zerokit.IsZero(""))
		assert.True(t, zerokit.IsZero(T{}))
		assert.True(t, zerokit.IsZero[*T](nil))
		assert.True(t, zerokit.IsZero[any](nil))
	})

	s.Test("non zero values", func(t *testcase.T) {
		assert.False(t, zerokit.IsZero(t.Random.IntBetween(1, 42)))
		assert.False(t, zerokit.IsZero(t.Random.StringNWithCharset(3, "abc")))
		assert.False(t, zerokit.IsZero(T{V: "x"}))
		assert.False(t, zerokit.IsZero(&T{}))
	})
}

func TestIsNil(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("nil-able kinds", func(t *testcase.T) {
		assert.True(t, zerokit.IsNil[*T](nil))
		assert.True(t, zerokit.IsNil[map[string]int](nil))
		assert.True(t, zerokit.IsNil[[]int](nil))
		assert.True(t, zerokit.IsNil[any](nil))
		assert.False(t, zerokit.IsNil(&T{}))
		assert.True(t, zerokit.IsNilable[*T]())
	})

	s.Test("non nil-able kinds are never nil", func(t *testcase.T) {
		assert.False(t, zerokit.IsNil(0))
		assert.False(t, zerokit.IsNil(T{}))
		assert.False(t, zerokit.IsNilable[T]())
		assert.False(t, zerokit.IsNilable[string]())
	})
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", zerokit.Coalesce("", "b", "c"))
	assert.Equal(t, 0, zerokit.Coalesce[int]())
	assert.Equal(t, 42, zerokit.Coalesce(0, 0, 42))
}
