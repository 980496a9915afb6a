package http

import (
	"math"
	"time"

	"apiprobe/internal/config"
)

// RetryPolicy governs which failures are retried, how many times, and with
// what backoff. MaxAttempts counts the initial try.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase float64
	statuses    map[int]bool
	methods     map[string]bool
}

// NewRetryPolicy builds the policy from configuration with the standard
// retryable sets: statuses 429, 500, 502, 503, 504 and methods HEAD, GET,
// POST, PUT, DELETE.
func NewRetryPolicy(settings config.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: settings.MaxAttempts,
		BackoffBase: settings.BackoffBase,
		statuses: map[int]bool{
			429: true,
			500: true,
			502: true,
			503: true,
			504: true,
		},
		methods: map[string]bool{
			"HEAD":   true,
			"GET":    true,
			"POST":   true,
			"PUT":    true,
			"DELETE": true,
		},
	}
}

// RetryableStatus reports whether a response status calls for a retry.
func (p RetryPolicy) RetryableStatus(code int) bool {
	return p.statuses[code]
}

// RetryableMethod reports whether requests with this method may be retried.
func (p RetryPolicy) RetryableMethod(method string) bool {
	return p.methods[method]
}

// Backoff returns the delay before retrying after attempt n (1-indexed):
// BackoffBase^(n-1) seconds, capped by the per-request timeout budget.
func (p RetryPolicy) Backoff(attempt int, cap time.Duration) time.Duration {
	d := time.Duration(math.Pow(p.BackoffBase, float64(attempt-1)) * float64(time.Second))
	if cap > 0 && d > cap {
		return cap
	}
	return d
}
