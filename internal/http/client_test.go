package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"apiprobe/internal/config"
)

func testTarget(url string) config.Target {
	return config.Target{
		Name:           "test",
		BaseURL:        url,
		Headers:        map[string]string{"X-Default": "from-target", "User-Agent": config.UserAgent},
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    5 * time.Second,
	}
}

func testClient(t *testing.T, url string, maxAttempts int, options ...ClientOption) *Client {
	t.Helper()
	policy := NewRetryPolicy(config.RetrySettings{MaxAttempts: maxAttempts, BackoffBase: 2})
	options = append([]ClientOption{WithSleepFunc(func(context.Context, time.Duration) error { return nil })}, options...)
	c := NewClient(testTarget(url), policy, zerolog.Nop(), options...)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDoRetriesRetryableStatus(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var backoffs []time.Duration
	c := testClient(t, server.URL, 3, WithSleepFunc(func(_ context.Context, d time.Duration) error {
		backoffs = append(backoffs, d)
		return nil
	}))

	resp, err := c.Do(context.Background(), NewRequest("GET", "/thing"))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
	if len(backoffs) != 1 || backoffs[0] != time.Second {
		t.Errorf("Expected one backoff of 1s, got %v", backoffs)
	}
	if c.Requests() != 2 {
		t.Errorf("Expected request counter 2, got %d", c.Requests())
	}
}

func TestDoReturnsLastResponseWhenExhausted(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 3)

	resp, err := c.Do(context.Background(), NewRequest("GET", "/limited"))
	if err != nil {
		t.Fatalf("Expected the last response, got error: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Errorf("Expected status 429, got %d", resp.StatusCode)
	}
	if resp.GetHeader("Retry-After") != "7" {
		t.Errorf("Expected Retry-After header to survive, got %q", resp.GetHeader("Retry-After"))
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestDoDoesNotRetryNonRetryableStatus(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 3)

	resp, err := c.Do(context.Background(), NewRequest("GET", "/missing"))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected a single attempt, got %d", got)
	}
}

func TestDoAppliesTargetHeaders(t *testing.T) {
	var gotDefault, gotOverride, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDefault = r.Header.Get("X-Default")
		gotOverride = r.Header.Get("X-Override")
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	target := testTarget(server.URL)
	target.Headers["X-Override"] = "from-target"
	policy := NewRetryPolicy(config.RetrySettings{MaxAttempts: 1, BackoffBase: 2})
	c := NewClient(target, policy, zerolog.Nop())
	defer c.Close()

	req := NewRequest("GET", "/").WithHeader("X-Override", "from-request")
	if _, err := c.Do(context.Background(), req); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}

	if gotDefault != "from-target" {
		t.Errorf("Expected target header to apply, got %q", gotDefault)
	}
	if gotOverride != "from-request" {
		t.Errorf("Expected request header to win, got %q", gotOverride)
	}
	if gotAgent != config.UserAgent {
		t.Errorf("Expected user agent %q, got %q", config.UserAgent, gotAgent)
	}
}

func TestDoWithTimeoutGivesUpOnSlowServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 1)

	_, err := c.DoWithTimeout(context.Background(), NewRequest("GET", "/slow"), 30*time.Millisecond)
	if err == nil {
		t.Fatal("Expected a timeout error, got nil")
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := testClient(t, server.URL, 5, WithSleepFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := c.Do(ctx, NewRequest("GET", "/"))
	if err == nil {
		t.Fatal("Expected an error after cancellation, got nil")
	}
}

func TestDoSendsJSONBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := testClient(t, server.URL, 1)

	req := NewRequest("POST", "/posts").WithBody(map[string]interface{}{"title": "hello"})
	resp, err := c.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if gotBody != `{"title":"hello"}` {
		t.Errorf("Unexpected body: %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
}
