package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Response is the outcome of one executed request: final status, fully read
// body, and elapsed time across all attempts. It is produced per call and
// not retained by the transport.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Elapsed    time.Duration
	rawBody    []byte
}

// GetBody returns the response body.
func (r *Response) GetBody() []byte {
	return r.rawBody
}

// GetBodyAsString returns the response body as a string.
func (r *Response) GetBodyAsString() string {
	return string(r.rawBody)
}

// GetBodyAsJSON unmarshals the response body into the provided value.
func (r *Response) GetBodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.rawBody, v)
}

// GetHeader returns the value of the specified header.
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsClientError returns true if the status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// ExpectStatus returns nil when the status code is one of the expected
// codes, otherwise an assertion error carrying the expectation, the actual
// status and a body excerpt. Scenarios use this instead of catching errors
// around expected negative cases.
func (r *Response) ExpectStatus(expected ...int) error {
	for _, code := range expected {
		if r.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("expected status %s, got %d (body: %s)",
		joinCodes(expected), r.StatusCode, excerpt(r.rawBody, 200))
}

func joinCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return strings.Join(parts, " or ")
}

func excerpt(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		// Cut on a rune boundary so the excerpt stays valid UTF-8.
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
