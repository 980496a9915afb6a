package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"apiprobe/internal/config"
)

// poolSize bounds the reusable connection pool per host.
const poolSize = 10

// Client is one Session: a pooled HTTP transport bound to a single Target,
// with the retry policy applied below the caller. Sessions are created by
// the Registry and must not be constructed anywhere else.
type Client struct {
	httpClient *http.Client
	target     config.Target
	policy     RetryPolicy
	log        zerolog.Logger
	requests   atomic.Int64
	sleep      func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSleepFunc replaces the backoff sleep. Tests use it to observe waits
// without paying for them.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) {
		c.sleep = f
	}
}

// NewClient creates a session for the target. The transport dials lazily;
// no connection is opened until the first request.
func NewClient(target config.Target, policy RetryPolicy, log zerolog.Logger, options ...ClientOption) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: target.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: target.ConnectTimeout,
		MaxIdleConns:        poolSize,
		MaxIdleConnsPerHost: poolSize,
		MaxConnsPerHost:     poolSize,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		target:     target,
		policy:     policy,
		log:        log.With().Str("target", target.Name).Logger(),
		sleep:      sleepContext,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Target returns the immutable target this session is bound to.
func (c *Client) Target() config.Target {
	return c.target
}

// Requests returns the number of attempts issued over this session's
// lifetime, retries included.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// Close drains the session's idle pooled connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Do executes the request with the target's default read timeout as the
// per-attempt budget.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.do(ctx, req, c.target.ReadTimeout)
}

// DoWithTimeout executes the request with a per-call timeout override.
func (c *Client) DoWithTimeout(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	return c.do(ctx, req, timeout)
}

// do runs the attempt loop. Retryable statuses and transport faults on
// retryable methods are re-issued with exponential backoff; the caller gets
// the last response received, or the final transport error, never a
// partially retried state.
func (c *Client) do(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.target.ReadTimeout
	}
	start := time.Now()

	for attempt := 1; ; attempt++ {
		resp, err := c.attempt(ctx, req, timeout)
		c.requests.Add(1)

		if err == nil {
			c.log.Info().
				Str("method", req.Method).
				Str("path", req.Path).
				Int("status", resp.StatusCode).
				Int("attempt", attempt).
				Dur("elapsed", resp.Elapsed).
				Msg("request")

			exhausted := attempt >= c.policy.MaxAttempts
			if exhausted || !c.policy.RetryableStatus(resp.StatusCode) || !c.policy.RetryableMethod(req.Method) {
				resp.Elapsed = time.Since(start)
				return resp, nil
			}
		} else {
			c.log.Warn().
				Str("method", req.Method).
				Str("path", req.Path).
				Int("attempt", attempt).
				Err(err).
				Msg("request failed")

			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctx.Err())
			}
			if attempt >= c.policy.MaxAttempts || !c.policy.RetryableMethod(req.Method) {
				return nil, fmt.Errorf("%s %s: giving up after %d attempt(s): %w", req.Method, req.Path, attempt, err)
			}
		}

		if serr := c.sleep(ctx, c.policy.Backoff(attempt, timeout)); serr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, serr)
		}
	}
}

// attempt issues the request once with the timeout bound and reads the body
// fully so the connection returns to the pool.
func (c *Client) attempt(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	httpReq, err := req.build(c.target.BaseURL)
	if err != nil {
		return nil, err
	}

	// Target headers fill the gaps; per-request headers win.
	for key, value := range c.target.Headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq.WithContext(reqCtx))
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Elapsed:    time.Since(start),
		rawBody:    body,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
