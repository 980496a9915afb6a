package http

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExpectStatusMatch(t *testing.T) {
	resp := &Response{StatusCode: 201}

	if err := resp.ExpectStatus(200, 201); err != nil {
		t.Errorf("Expected 201 to satisfy {200, 201}, got %v", err)
	}
}

func TestExpectStatusMismatch(t *testing.T) {
	resp := &Response{StatusCode: 404, rawBody: []byte(`{"error":"not found"}`)}

	err := resp.ExpectStatus(200)
	if err == nil {
		t.Fatal("Expected an error for status 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected the actual status in the error, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a body excerpt in the error, got %q", err.Error())
	}
}

func TestExpectStatusTruncatesLongBodies(t *testing.T) {
	resp := &Response{StatusCode: 500, rawBody: []byte(strings.Repeat("x", 1000))}

	err := resp.ExpectStatus(200)
	if err == nil {
		t.Fatal("Expected an error for status 500")
	}
	if len(err.Error()) > 400 {
		t.Errorf("Expected a bounded error message, got %d bytes", len(err.Error()))
	}
}

func TestExpectStatusKeepsExcerptValidUTF8(t *testing.T) {
	// A multi-byte rune straddling the excerpt cutoff must not be split.
	body := strings.Repeat("x", 198) + "héllo wörld"
	resp := &Response{StatusCode: 500, rawBody: []byte(body)}

	err := resp.ExpectStatus(200)
	if err == nil {
		t.Fatal("Expected an error for status 500")
	}
	if !utf8.ValidString(err.Error()) {
		t.Errorf("Expected a valid UTF-8 error message, got %q", err.Error())
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		code    int
		success bool
		client  bool
		server  bool
	}{
		{200, true, false, false},
		{204, true, false, false},
		{301, false, false, false},
		{404, false, true, false},
		{503, false, false, true},
	}
	for _, tc := range cases {
		resp := &Response{StatusCode: tc.code}
		if resp.IsSuccess() != tc.success {
			t.Errorf("IsSuccess(%d) = %v", tc.code, resp.IsSuccess())
		}
		if resp.IsClientError() != tc.client {
			t.Errorf("IsClientError(%d) = %v", tc.code, resp.IsClientError())
		}
		if resp.IsServerError() != tc.server {
			t.Errorf("IsServerError(%d) = %v", tc.code, resp.IsServerError())
		}
	}
}

func TestGetBodyAsJSON(t *testing.T) {
	resp := &Response{StatusCode: 200, rawBody: []byte(`{"id": 7, "title": "hello"}`)}

	var doc struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}
	if err := resp.GetBodyAsJSON(&doc); err != nil {
		t.Fatalf("GetBodyAsJSON returned error: %v", err)
	}
	if doc.ID != 7 || doc.Title != "hello" {
		t.Errorf("Unexpected decode result: %+v", doc)
	}
}
