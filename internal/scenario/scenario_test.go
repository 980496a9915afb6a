package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/internal/probe"
)

// testDeps wires a registry and prober against mock servers standing in
// for the two APIs. Probe sleeps are no-ops so runs stay fast.
func testDeps(jsonplaceholderURL, reqresURL string) *Deps {
	cfg := config.Default()
	for name, t := range cfg.Targets {
		t.ConnectTimeout = 2 * time.Second
		t.ReadTimeout = 5 * time.Second
		switch name {
		case config.TargetJSONPlaceholder:
			t.BaseURL = jsonplaceholderURL
		case config.TargetReqRes:
			t.BaseURL = reqresURL
		}
		cfg.Targets[name] = t
	}
	cfg.Retry.MaxAttempts = 1
	cfg.Probe = config.ProbeSettings{MaxRequests: 5, FallbackWait: time.Second}

	log := zerolog.Nop()
	return &Deps{
		Registry: http.NewRegistry(cfg, log),
		Cfg:      cfg,
		Prober:   probe.New(log, probe.WithSleepFunc(func(context.Context, time.Duration) error { return nil })),
		Log:      log,
	}
}

func writeJSON(w nethttp.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type post = map[string]interface{}

func samplePosts() []post {
	posts := make([]post, 0, 3)
	for i := 1; i <= 3; i++ {
		posts = append(posts, post{
			"userId": i,
			"id":     i,
			"title":  fmt.Sprintf("post %d", i),
			"body":   "content",
		})
	}
	return posts
}

// newPostsServer mocks the post/comment/user API. The mutate hook lets a
// test corrupt the served posts.
func newPostsServer(mutate func(posts []post) []post) *httptest.Server {
	mux := nethttp.NewServeMux()

	mux.HandleFunc("GET /posts", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		posts := samplePosts()
		if mutate != nil {
			posts = mutate(posts)
		}
		writeJSON(w, 200, posts)
	})
	mux.HandleFunc("GET /posts/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.PathValue("id") == "9999" {
			writeJSON(w, 404, post{})
			return
		}
		writeJSON(w, 200, samplePosts()[0])
	})
	mux.HandleFunc("POST /posts", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		created := post{"id": 101}
		for key, value := range gjson.ParseBytes(body).Map() {
			created[key] = value.Value()
		}
		writeJSON(w, 201, created)
	})
	mux.HandleFunc("PUT /posts/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, post{"id": 1})
	})
	mux.HandleFunc("DELETE /posts/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, post{})
	})
	mux.HandleFunc("GET /comments", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, []post{
			{"postId": 1, "id": 1, "name": "c", "email": "a@b.c", "body": "comment"},
			{"postId": 2, "id": 2, "name": "c", "email": "a@b.c", "body": "comment"},
		})
	})
	mux.HandleFunc("GET /users", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, []post{
			{"id": 1, "name": "Leanne", "username": "Bret"},
			{"id": 2, "name": "Ervin", "username": "Antonette"},
		})
	})

	return httptest.NewServer(mux)
}

// newUsersServer mocks the user/auth API, pagination envelope included.
func newUsersServer() *httptest.Server {
	mux := nethttp.NewServeMux()

	userData := []post{
		{"id": 7, "email": "michael.lawson@reqres.in", "first_name": "Michael", "last_name": "Lawson", "avatar": "https://reqres.in/img/7.jpg"},
		{"id": 8, "email": "lindsay.ferguson@reqres.in", "first_name": "Lindsay", "last_name": "Ferguson", "avatar": "https://reqres.in/img/8.jpg"},
	}

	mux.HandleFunc("GET /users", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		page := 1
		if r.URL.Query().Get("page") == "2" {
			page = 2
		}
		writeJSON(w, 200, post{
			"page":        page,
			"per_page":    2,
			"total":       4,
			"total_pages": 2,
			"data":        userData,
		})
	})
	mux.HandleFunc("GET /users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, post{"data": userData[0]})
	})
	mux.HandleFunc("POST /users", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 201, post{"id": "937", "createdAt": time.Now().Format(time.RFC3339)})
	})
	mux.HandleFunc("PUT /users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, post{"updatedAt": time.Now().Format(time.RFC3339)})
	})
	mux.HandleFunc("DELETE /users/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(204)
	})

	auth := func(withID bool) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			body, _ := io.ReadAll(r.Body)
			if !gjson.GetBytes(body, "password").Exists() {
				writeJSON(w, 400, post{"error": "Missing password"})
				return
			}
			reply := post{"token": "QpwL5tke4Pnpja7X4"}
			if withID {
				reply["id"] = 4
			}
			writeJSON(w, 200, reply)
		}
	}
	mux.HandleFunc("POST /login", auth(false))
	mux.HandleFunc("POST /register", auth(true))

	return httptest.NewServer(mux)
}
