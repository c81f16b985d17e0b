// Package envloadertest provides fixtures for tests that consume the
// parking garage test environment.
package envloadertest

import (
	"maps"
	"sync"
	"testing"

	"go-simpler.org/env"

	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/envloader"
)

// Complete returns a fully populated snapshot with harmless values.
func Complete() envloader.Snapshot {
	return envloader.Snapshot{
		envloader.KeyURL:          "http://x",
		envloader.KeyValidEmail:   "a@b.com",
		envloader.KeyInvalidEmail: "not-an-email",
		envloader.KeyPassword:     "secret",
	}
}

// Source returns an isolated env.Source holding the snapshot's values.
func Source(s envloader.Snapshot) env.Map {
	return env.Map(maps.Clone(s))
}

// Loader returns a loader over s that ignores .env files on disk.
func Loader(t testing.TB, s envloader.Snapshot) *envloader.Loader {
	t.Helper()
	return envloader.New(envloader.WithSource(Source(s)), envloader.WithEnvFiles())
}

// fixture loads a snapshot at most once and hands out copies of it.
type fixture struct {
	load func() (envloader.Snapshot, error)

	once sync.Once
	snap envloader.Snapshot
	err  error
}

func (f *fixture) require(t testing.TB) envloader.Snapshot {
	t.Helper()
	f.once.Do(func() {
		f.snap, f.err = f.load()
	})

	if f.err != nil {
		t.Skipf("test environment not configured: %v", f.err)
	}
	return maps.Clone(f.snap)
}

var ambient = &fixture{
	load: func() (envloader.Snapshot, error) {
		return envloader.New().EnvironmentVariables()
	},
}

// Require resolves the ambient environment once per test binary and skips
// the calling test when any recognized variable is missing. Each call
// returns its own copy of the snapshot.
func Require(t testing.TB) envloader.Snapshot {
	t.Helper()
	return ambient.require(t)
}
