package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"

	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/envloader"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/correlation"
	"github.com/juhasz-szabolcs/vizsgaremek-Parking-Garage/internal/platform/retry"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "envcheck-smoke"
)

// Observer receives every probe result, e.g. metrics.ProbeMetrics.
type Observer interface {
	Observe(probe string, passed bool, d time.Duration)
}

type Options struct {
	// APIURL is the backend base URL. Empty means the snapshot URL.
	APIURL    string
	LoginPath string
	Timeout   time.Duration
	// Retries is the number of extra attempts per login request.
	Retries  int
	Ready    retry.Policy
	Clock    clockwork.Clock
	Observer Observer
}

type Prober struct {
	snap     envloader.Snapshot
	client   *retryablehttp.Client
	loginURL string
	ready    retry.Policy
	clock    clockwork.Clock
	observer Observer
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// statusError is returned by the readiness check for responses that are
// not ready yet or never will be.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

func NewProber(snap envloader.Snapshot, opts Options) (*Prober, error) {
	base := opts.APIURL
	if base == "" {
		base = snap.URL()
	}
	loginURL, err := url.JoinPath(base, opts.LoginPath)
	if err != nil {
		return nil, fmt.Errorf("invalid login URL %q + %q: %w", base, opts.LoginPath, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = opts.Retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = slog.Default()
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ready := opts.Ready
	if ready.MaxAttempts < 1 {
		ready.MaxAttempts = 1
	}
	if ready.Clock == nil {
		ready.Clock = clock
	}

	return &Prober{
		snap:     snap,
		client:   client,
		loginURL: loginURL,
		ready:    ready,
		clock:    clock,
		observer: opts.Observer,
	}, nil
}

// Run executes the readiness check and, if it passes, both login probes.
// The report carries the run's correlation ID, taken from ctx or generated.
func (p *Prober) Run(ctx context.Context) Report {
	ctx, runID := correlation.Ensure(ctx)
	report := Report{RunID: runID}

	slog.InfoContext(ctx, "Smoke run starting", "url", p.snap.URL(), "login_url", p.loginURL)

	ready := p.WaitReady(ctx)
	report.Results = append(report.Results, ready)
	if !ready.Passed {
		slog.WarnContext(ctx, "Target not ready, skipping login probes")
		return report
	}

	report.Results = append(report.Results, p.ValidLogin(ctx), p.InvalidLogin(ctx))
	return report
}

// WaitReady polls the snapshot URL until it answers with a 2xx or 3xx.
// Server errors and connection failures are retried, 429 backs off longer
// and any other client error stops immediately.
func (p *Prober) WaitReady(ctx context.Context) Result {
	start := p.clock.Now()

	policy := p.ready
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.DebugContext(ctx, "Target not ready, retrying", "attempt", attempt, "error", err, "backoff", backoff)
	}

	code, err := retry.Do(ctx, policy, classifyReady, func(ctx context.Context, _ int) (int, error) {
		return p.get(ctx, p.snap.URL())
	})

	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			code = se.code
		}
	}
	return p.finish(ctx, ProbeReady, start, code, err)
}

// ValidLogin expects the valid account to log in successfully.
func (p *Prober) ValidLogin(ctx context.Context) Result {
	return p.login(ctx, ProbeValidLogin, p.snap.ValidEmail(), func(code int) bool {
		return code >= 200 && code < 300
	})
}

// InvalidLogin expects the invalid e-mail to be rejected.
func (p *Prober) InvalidLogin(ctx context.Context) Result {
	return p.login(ctx, ProbeInvalidLogin, p.snap.InvalidEmail(), func(code int) bool {
		return code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden
	})
}

func (p *Prober) login(ctx context.Context, probe Probe, email string, want func(int) bool) Result {
	start := p.clock.Now()

	body, err := json.Marshal(loginRequest{Email: email, Password: p.snap.Password()})
	if err != nil {
		return p.finish(ctx, probe, start, 0, fmt.Errorf("encode login request: %w", err))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.loginURL, body)
	if err != nil {
		return p.finish(ctx, probe, start, 0, fmt.Errorf("build login request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	correlation.SetHeader(ctx, req.Header)

	// With PassthroughErrorHandler the last response is returned even when
	// retries were exhausted; judge it by status like any other.
	resp, err := p.client.Do(req)
	if resp == nil {
		return p.finish(ctx, probe, start, 0, fmt.Errorf("login request failed: %w", err))
	}
	drain(resp)

	if !want(resp.StatusCode) {
		return p.finish(ctx, probe, start, resp.StatusCode, &statusError{code: resp.StatusCode})
	}
	return p.finish(ctx, probe, start, resp.StatusCode, nil)
}

func (p *Prober) get(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, &retry.PermanentError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	correlation.SetHeader(ctx, req.Header)

	resp, err := p.client.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	drain(resp)

	if resp.StatusCode >= 400 {
		return resp.StatusCode, &statusError{code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}

func classifyReady(err error) retry.Action {
	var perm *retry.PermanentError
	if errors.As(err, &perm) {
		return retry.Stop
	}

	var se *statusError
	if !errors.As(err, &se) {
		return retry.Retry
	}
	switch {
	case se.code == http.StatusTooManyRequests:
		return retry.After
	case se.code >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

func (p *Prober) finish(ctx context.Context, probe Probe, start time.Time, code int, err error) Result {
	res := Result{
		Probe:      probe,
		Passed:     err == nil,
		StatusCode: code,
		Duration:   p.clock.Since(start),
	}
	if err != nil {
		res.Err = &ProbeError{Probe: probe, StatusCode: code, Err: err}
	}

	if p.observer != nil {
		p.observer.Observe(string(probe), res.Passed, res.Duration)
	}

	if res.Passed {
		slog.InfoContext(ctx, "Smoke probe passed", "probe", probe, "status", code, "duration", res.Duration)
	} else {
		slog.ErrorContext(ctx, "Smoke probe failed", "probe", probe, "status", code, "error", res.Err)
	}
	return res
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
