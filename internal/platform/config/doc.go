// Package config provides the envcheck tool's own settings.
//
// Maps LOG_*, API_URL, LOGIN_PATH, PROBE_*, READY_* and METRICS_TEXTFILE to
// Config via go-simpler/env struct tags and validates them.
package config
