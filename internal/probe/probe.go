// Package probe characterizes an endpoint's back-pressure behavior without
// violating it: a bounded burst of requests that honors Retry-After hints,
// self-limits its own rate, and reports what it saw.
package probe

import (
	"context"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
)

// Run aggregates the counters of one probe execution. It is created at
// probe start, reported once, and discarded.
type Run struct {
	Attempted   int
	Successes   int
	RateLimited int
	Skipped     int
	WaitTotal   time.Duration

	// Latencies in milliseconds, 1ms..60s, 3 significant figures.
	hist *hdrhistogram.Histogram
}

func newRun() *Run {
	return &Run{hist: hdrhistogram.New(1, 60_000, 3)}
}

func (r *Run) recordLatency(d time.Duration) {
	// Out-of-range values saturate rather than fail the probe.
	_ = r.hist.RecordValue(min64(d.Milliseconds(), 60_000))
}

// LatencyPercentile returns the observed latency at the given quantile in
// milliseconds, e.g. LatencyPercentile(95).
func (r *Run) LatencyPercentile(q float64) int64 {
	return r.hist.ValueAtQuantile(q)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Prober drives probe runs. The sleep function is injectable for tests.
type Prober struct {
	log   zerolog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Prober.
type Option func(*Prober)

// WithSleepFunc replaces the back-pressure sleep.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Prober) {
		p.sleep = f
	}
}

// New creates a Prober.
func New(log zerolog.Logger, options ...Option) *Prober {
	p := &Prober{
		log: log,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run issues up to settings.MaxRequests GET requests at the given path over
// the borrowed session and interprets the responses:
//
//   - 429: count it, wait Retry-After seconds if the server said so, else
//     the fallback wait, and keep going. A 429 consumes an iteration slot.
//   - 2xx: count a success.
//   - transport fault: log it, count a skipped iteration, keep going.
//
// Every iteration also waits the configured minimum inter-request delay so
// the probe self-limits even absent server back-pressure. The loop always
// consumes its full budget; only context cancellation cuts it short. The
// probe reports, it never asserts: the server's rate-limit policy is not
// under our control.
func (p *Prober) Run(ctx context.Context, session *http.Client, path string, settings config.ProbeSettings) (*Run, error) {
	run := newRun()

	pace := rate.Inf
	if settings.MinDelay > 0 {
		pace = rate.Every(settings.MinDelay)
	}
	limiter := rate.NewLimiter(pace, 1)
	// Spend the initial burst token so the wait after the first request
	// already enforces the minimum delay.
	limiter.Allow()

	for i := 0; i < settings.MaxRequests; i++ {
		run.Attempted++

		resp, err := session.Do(ctx, http.NewRequest("GET", path))
		if err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			p.log.Warn().Int("iteration", i+1).Err(err).Msg("probe request failed, skipping iteration")
			run.Skipped++
		} else {
			run.recordLatency(resp.Elapsed)

			switch {
			case resp.StatusCode == 429:
				run.RateLimited++
				wait := retryAfter(resp, settings.FallbackWait)
				p.log.Info().Dur("wait", wait).Msg("rate limit hit, honoring back-pressure")
				run.WaitTotal += wait
				if err := p.sleep(ctx, wait); err != nil {
					return run, err
				}
			case resp.IsSuccess():
				run.Successes++
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return run, err
		}
	}

	return run, nil
}

// retryAfter reads the Retry-After header as integer seconds, falling back
// when it is absent or malformed.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	raw := resp.GetHeader("Retry-After")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
