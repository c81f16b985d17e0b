package envloadertest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-simpler.org/env"

	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/envloader"
)

func TestLoader_ResolvesComplete(t *testing.T) {
	snap, err := Loader(t, Complete()).EnvironmentVariables()
	require.NoError(t, err)
	assert.Equal(t, Complete(), snap)
}

func TestSource_IsACopy(t *testing.T) {
	s := Complete()
	src := Source(s)
	src[envloader.KeyURL] = "changed"

	assert.Equal(t, "http://x", s.URL())
}

func mapFixture(m env.Map, calls *int) *fixture {
	return &fixture{
		load: func() (envloader.Snapshot, error) {
			*calls++
			return envloader.New(envloader.WithSource(m), envloader.WithEnvFiles()).EnvironmentVariables()
		},
	}
}

func TestFixture_SkipsWhenUnconfigured(t *testing.T) {
	calls := 0
	f := mapFixture(env.Map{envloader.KeyURL: "http://x"}, &calls)

	var first, second *testing.T
	t.Run("first", func(t *testing.T) {
		first = t
		f.require(t)
		t.Error("require must not return when configuration is missing")
	})
	t.Run("second", func(t *testing.T) {
		second = t
		f.require(t)
	})

	assert.True(t, first.Skipped())
	assert.True(t, second.Skipped())
	assert.Equal(t, 1, calls, "environment must be resolved once")
}

func TestFixture_ReturnsCopies(t *testing.T) {
	calls := 0
	f := mapFixture(Source(Complete()), &calls)

	first := f.require(t)
	first[envloader.KeyURL] = "mutated"
	second := f.require(t)

	assert.Equal(t, Complete(), second)
	assert.Equal(t, 1, calls)
}

func TestRequire_AmbientEnvironment(t *testing.T) {
	for k, v := range Complete() {
		t.Setenv(k, v)
	}
	t.Chdir(t.TempDir())

	snap := Require(t)
	assert.Equal(t, Complete(), snap)

	snap[envloader.KeyPassword] = "mutated"
	assert.Equal(t, "secret", Require(t).Password())
}

func TestRequire_SkipMessageNamesMissingKeys(t *testing.T) {
	for _, k := range envloader.Keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	calls := 0
	f := &fixture{load: func() (envloader.Snapshot, error) {
		calls++
		return envloader.New(envloader.WithEnvFiles()).EnvironmentVariables()
	}}

	var sub *testing.T
	t.Run("unconfigured", func(t *testing.T) {
		sub = t
		f.require(t)
	})

	assert.True(t, sub.Skipped())
	require.Error(t, f.err)
	assert.Equal(t, "missing environment variables: URL, VALID_EMAIL, INVALID_EMAIL, PASSWORD", f.err.Error())
}
