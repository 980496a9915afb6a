package http

import (
	"io"
	"testing"
)

func TestRequestBuildJoinsPathAndQuery(t *testing.T) {
	req := NewRequest("GET", "/users").WithQueryParam("page", "2")

	httpReq, err := req.build("https://example.test/api")
	if err != nil {
		t.Fatalf("build returned error: %v", err)
	}
	if got := httpReq.URL.String(); got != "https://example.test/api/users?page=2" {
		t.Errorf("Unexpected URL: %s", got)
	}
}

func TestRequestBuildMarshalsBody(t *testing.T) {
	req := NewRequest("POST", "/posts").WithBody(map[string]int{"userId": 1})

	httpReq, err := req.build("https://example.test")
	if err != nil {
		t.Fatalf("build returned error: %v", err)
	}
	body, _ := io.ReadAll(httpReq.Body)
	if string(body) != `{"userId":1}` {
		t.Errorf("Unexpected body: %s", body)
	}
	if httpReq.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %q", httpReq.Header.Get("Content-Type"))
	}
}

func TestRequestBuildPassesStringBodyThrough(t *testing.T) {
	req := NewRequest("POST", "/raw").WithBody(`{"already":"json"}`)

	httpReq, err := req.build("https://example.test")
	if err != nil {
		t.Fatalf("build returned error: %v", err)
	}
	body, _ := io.ReadAll(httpReq.Body)
	if string(body) != `{"already":"json"}` {
		t.Errorf("Unexpected body: %s", body)
	}
}
