package env_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/rxcrud/pkg/env"
)

func TestLookup(t *testing.T) {
	s := testcase.NewSpec(t)

	key := testcase.Let(s, func(t *testcase.T) string {
		return "RXCRUD_TEST_" + t.Random.StringNWithCharset(8, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	})

	s.When("the variable is absent", func(s *testcase.Spec) {
		s.Then("nothing is found", func(t *testcase.T) {
			_, ok, err := env.Lookup[string](key.Get(t))
			assert.NoError(t, err)
			assert.False(t, ok)
		})

		s.Then("the default value is used", func(t *testcase.T) {
			v, ok, err := env.Lookup[int](key.Get(t), env.DefaultValue("42"))
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 42, v)
		})

		s.Then("required lookups fail", func(t *testcase.T) {
			_, _, err := env.Lookup[string](key.Get(t), env.Required())
			assert.ErrorIs(t, env.ErrMissingEnvironmentVariable, err)
		})
	})

	s.When("the variable is present", func(s *testcase.Spec) {
		s.Test("string", func(t *testcase.T) {
			testcase.SetEnv(t, key.Get(t), "foo")
			v, ok, err := env.Lookup[string](key.Get(t), env.DefaultValue("bar"))
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "foo", v)
		})

		s.Test("duration", func(t *testcase.T) {
			testcase.SetEnv(t, key.Get(t), "1h5m")
			v, _, err := env.Lookup[time.Duration](key.Get(t))
			assert.NoError(t, err)
			assert.Equal(t, time.Hour+5*time.Minute, v)
		})

		s.Test("bool", func(t *testcase.T) {
			testcase.SetEnv(t, key.Get(t), "true")
			v, _, err := env.Lookup[bool](key.Get(t))
			assert.NoError(t, err)
			assert.True(t, v)
		})

		s.Test("malformed value", func(t *testcase.T) {
			testcase.SetEnv(t, key.Get(t), "forty-two")
			_, ok, err := env.Lookup[int](key.Get(t))
			assert.Error(t, err)
			assert.False(t, ok)
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("missing files are ignored", func(t *testcase.T) {
		assert.NoError(t, env.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	s.Test("values from the file become visible", func(t *testcase.T) {
		const key = "RXCRUD_DOTENV_TEST_VALUE"
		t.UnsetEnv(key)
		path := filepath.Join(t.TempDir(), ".env")
		assert.NoError(t, os.WriteFile(path, []byte(key+"=hello\n"), 0600))
		assert.NoError(t, env.LoadDotEnv(path))
		t.Cleanup(func() { _ = os.Unsetenv(key) })
		v, ok, err := env.Lookup[string](key)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "hello", v)
	})
}
