package reflectkit_test

import (
	"reflect"
	"testing"
	"time"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/reflectkit"
)

type (
	Inner struct {
		Tags []string
	}
	Entity struct {
		ID      int
		Name    string
		Inner   *Inner
		Labels  map[string]*Inner
		Items   []Inner
		Any     any
		At      time.Time
		private *Inner
	}
)

func TestBaseValue(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("pointers are dereferenced", func(t *testcase.T) {
		v := 42
		p := &v
		assert.Equal[any](t, 42, reflectkit.BaseValueOf(&p).Interface())
	})

	s.Test("interfaces are unwrapped", func(t *testcase.T) {
		var v any = &Inner{}
		assert.Equal(t, reflect.TypeOf(Inner{}), reflectkit.BaseValue(reflect.ValueOf(&v)).Type())
	})

	s.Test("nil pointer results in an invalid value", func(t *testcase.T) {
		assert.False(t, reflectkit.BaseValueOf((*Inner)(nil)).IsValid())
	})
}

func TestClone(t *testing.T) {
	s := testcase.NewSpec(t)

	makeEntity := func(t *testcase.T) *Entity {
		return &Entity{
			ID:      t.Random.IntBetween(1, 100),
			Name:    t.Random.String(),
			Inner:   &Inner{Tags: []string{"a", "b"}},
			Labels:  map[string]*Inner{"k": {Tags: []string{"c"}}},
			Items:   []Inner{{Tags: []string{"d"}}},
			Any:     &Inner{Tags: []string{"e"}},
			At:      time.Now(),
			private: &Inner{},
		}
	}

	s.Test("the clone equals the original", func(t *testcase.T) {
		v := makeEntity(t)
		got := reflectkit.Clone(v)
		assert.Equal(t, v, got)
		assert.True(t, v != got)
	})

	s.Test("changes of the original don't reach the clone", func(t *testcase.T) {
		v := makeEntity(t)
		got := reflectkit.Clone(v)

		v.Name = "changed"
		v.Inner.Tags[0] = "changed"
		v.Labels["k"].Tags[0] = "changed"
		v.Labels["new"] = &Inner{}
		v.Items[0].Tags[0] = "changed"
		v.Any.(*Inner).Tags[0] = "changed"

		assert.NotEqual(t, "changed", got.Name)
		assert.Equal(t, "a", got.Inner.Tags[0])
		assert.Equal(t, "c", got.Labels["k"].Tags[0])
		assert.Equal(t, 1, len(got.Labels))
		assert.Equal(t, "d", got.Items[0].Tags[0])
		assert.Equal(t, "e", got.Any.(*Inner).Tags[0])
	})

	s.Test("unexported fields are copied as they are", func(t *testcase.T) {
		v := makeEntity(t)
		got := reflectkit.Clone(*v)
		assert.True(t, v.private == got.private)
	})

	s.Test("nil values", func(t *testcase.T) {
		assert.Nil(t, reflectkit.Clone[*Entity](nil))
		assert.Nil(t, reflectkit.Clone[any](nil))
		var e Entity
		got := reflectkit.Clone(e)
		assert.Nil(t, got.Inner)
		assert.Nil(t, got.Labels)
		assert.Nil(t, got.Items)
	})

	s.Test("plain values", func(t *testcase.T) {
		assert.Equal(t, 42, reflectkit.Clone(42))
		assert.Equal(t, "x", reflectkit.Clone("x"))
	})
}
