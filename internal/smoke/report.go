package smoke

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Probe string

const (
	ProbeReady        Probe = "ready"
	ProbeValidLogin   Probe = "valid_login"
	ProbeInvalidLogin Probe = "invalid_login"
)

// ProbeError describes why a probe failed. StatusCode is 0 when no
// response was received.
type ProbeError struct {
	Probe      Probe
	StatusCode int
	Err        error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("smoke probe %s: %v", e.Probe, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

type Result struct {
	Probe      Probe
	Passed     bool
	StatusCode int
	Duration   time.Duration
	Err        error
}

type resultJSON struct {
	Probe      Probe   `json:"probe"`
	Passed     bool    `json:"passed"`
	StatusCode int     `json:"status_code,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// MarshalJSON reports the duration in milliseconds and the error as its
// message.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Probe:      r.Probe,
		Passed:     r.Passed,
		StatusCode: r.StatusCode,
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
}

func (r Report) Failed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return true
		}
	}
	return false
}

// Err joins the errors of all failed probes, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if !res.Passed {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}
