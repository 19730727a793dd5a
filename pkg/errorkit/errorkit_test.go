package errorkit_test

import (
	"errors"
	"fmt"
	"testing"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/errorkit"
)

const ErrExample errorkit.Error = "example error"

func TestError(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("Error returns the const value", func(t *testcase.T) {
		assert.Equal(t, "example error", ErrExample.Error())
	})

	s.Test("Wrap keeps both the owner and the wrapped error matchable", func(t *testcase.T) {
		oth := t.Random.Error()
		err := ErrExample.Wrap(oth)
		assert.ErrorIs(t, ErrExample, err)
		assert.ErrorIs(t, oth, err)
		assert.Contains(t, err.Error(), oth.Error())
	})

	s.Test("Wrap with nil returns the owner", func(t *testcase.T) {
		assert.Equal[error](t, ErrExample, ErrExample.Wrap(nil))
	})

	s.Test("F formats the detail", func(t *testcase.T) {
		err := ErrExample.F("id: %d", 42)
		assert.ErrorIs(t, ErrExample, err)
		assert.Contains(t, err.Error(), "id: 42")
	})
}

func TestMerge(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("nothing to merge", func(t *testcase.T) {
		assert.NoError(t, errorkit.Merge())
		assert.NoError(t, errorkit.Merge(nil, nil))
	})

	s.Test("single error is returned as is", func(t *testcase.T) {
		err := t.Random.Error()
		assert.Equal(t, err, errorkit.Merge(nil, err, nil))
	})

	s.Test("multiple errors stay matchable", func(t *testcase.T) {
		err1 := errors.New("boom")
		err2 := fmt.Errorf("wrapped: %w", ErrExample)
		err := errorkit.Merge(err1, err2)
		assert.ErrorIs(t, err1, err)
		assert.ErrorIs(t, ErrExample, err)
		assert.Contains(t, err.Error(), "boom")
		assert.Contains(t, err.Error(), "wrapped")
	})
}

func TestFinish(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("block error is merged into the return error", func(t *testcase.T) {
		var (
			returnErr = t.Random.Error()
			blkErr    = t.Random.Error()
		)
		errorkit.Finish(&returnErr, func() error { return blkErr })
		assert.ErrorIs(t, blkErr, returnErr)
	})

	s.Test("FinishOnError only runs on error", func(t *testcase.T) {
		var ran bool
		var returnErr error
		errorkit.FinishOnError(&returnErr, func() { ran = true })
		assert.False(t, ran)
		returnErr = t.Random.Error()
		errorkit.FinishOnError(&returnErr, func() { ran = true })
		assert.True(t, ran)
	})
}

func TestRecover(t *testing.T) {
	fn := func() (rErr error) {
		defer errorkit.Recover(&rErr)
		panic("boom")
	}
	err := fn()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, ok := errorkit.As[interface {
		error
		Unwrap() []error
	}](errorkit.Merge(err, ErrExample))
	assert.True(t, ok)
}
