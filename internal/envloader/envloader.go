package envloader

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Recognized variable names, in declaration order.
const (
	KeyURL          = "URL"
	KeyValidEmail   = "VALID_EMAIL"
	KeyInvalidEmail = "INVALID_EMAIL"
	KeyPassword     = "PASSWORD"
)

// DefaultEnvFile is loaded when no files are configured.
const DefaultEnvFile = ".env"

// Keys lists the recognized variables in declaration order. Missing-key
// errors always follow this order.
var Keys = []string{KeyURL, KeyValidEmail, KeyInvalidEmail, KeyPassword}

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports every required variable that was absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing environment variables: " + strings.Join(e.Missing, ", ")
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Loader resolves the test environment snapshot from an env.Source.
type Loader struct {
	source env.Source
	files  []string
	custom bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithSource replaces the process environment with src. Use env.Map in tests.
func WithSource(src env.Source) Option {
	return func(l *Loader) {
		l.source = src
		l.custom = true
	}
}

// WithEnvFiles sets the dotenv files to load instead of ".env".
func WithEnvFiles(files ...string) Option {
	return func(l *Loader) { l.files = files }
}

// New creates a Loader and seeds the environment from the configured
// dotenv files. Missing or unreadable files are not an error: lookups
// fall back to whatever the ambient environment already holds.
func New(opts ...Option) *Loader {
	l := &Loader{source: env.OS, files: []string{DefaultEnvFile}}
	for _, opt := range opts {
		opt(l)
	}

	if l.custom {
		l.source = layerFiles(l.source, l.files)
	} else {
		primeProcessEnv(l.files)
	}
	return l
}

// Source returns the lookup the loader reads from, including any file layer.
func (l *Loader) Source() env.Source {
	return l.source
}

// EnvironmentVariables reads the recognized variables and returns a fresh
// snapshot. If any are absent it returns a *ConfigurationError naming all
// of them. An empty value counts as present.
func (l *Loader) EnvironmentVariables() (Snapshot, error) {
	snap := make(Snapshot, len(Keys))
	var missing []string
	for _, key := range Keys {
		value, ok := l.source.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		snap[key] = value
	}

	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}
	return snap, nil
}

var (
	primeMu sync.Mutex
	primed  = make(map[string]struct{})
)

// primeProcessEnv loads each dotenv file into the process environment at
// most once per process, keyed by absolute path. godotenv never overrides
// variables already set. A file that does not exist is not remembered, so
// a later New picks it up once it appears; a malformed file is.
func primeProcessEnv(files []string) {
	primeMu.Lock()
	defer primeMu.Unlock()

	for _, file := range files {
		key, err := filepath.Abs(file)
		if err != nil {
			key = filepath.Clean(file)
		}
		if _, done := primed[key]; done {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				primed[key] = struct{}{}
			}
			slog.Debug("No env file loaded, using environment variables", "file", key, "error", err)
			continue
		}
		primed[key] = struct{}{}
		slog.Debug("Loaded env file", "file", key)
	}
}

// layerFiles returns a source that consults src first and the parsed
// dotenv files second, leaving the process environment untouched.
func layerFiles(src env.Source, files []string) env.Source {
	fallback := make(env.Map)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			slog.Debug("No env file read", "file", file, "error", err)
			continue
		}
		for k, v := range values {
			// Earlier files win, matching godotenv.Load.
			if _, ok := fallback[k]; !ok {
				fallback[k] = v
			}
		}
	}
	if len(fallback) == 0 {
		return src
	}
	return layered{primary: src, fallback: fallback}
}

type layered struct {
	primary  env.Source
	fallback env.Map
}

func (s layered) LookupEnv(key string) (string, bool) {
	if v, ok := s.primary.LookupEnv(key); ok {
		return v, true
	}
	return s.fallback.LookupEnv(key)
}
