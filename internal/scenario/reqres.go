package scenario

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/pkg/jsonschema"
)

// ReqResUsers exercises the user API: create, list, pagination, per-user
// schema validation, update, delete.
func ReqResUsers() Scenario {
	return Scenario{Name: "ReqRes users", Run: runReqResUsers}
}

func runReqResUsers(ctx context.Context, deps *Deps) error {
	session, err := deps.Registry.Get(config.TargetReqRes)
	if err != nil {
		return err
	}

	// CREATE
	resp, err := session.Do(ctx, http.NewRequest("POST", "/users").WithBody(config.ValidUserPayload()))
	if err != nil {
		return step("CREATE user", err)
	}
	if err := resp.ExpectStatus(201); err != nil {
		return step("CREATE user", err)
	}
	if !gjson.GetBytes(resp.GetBody(), "id").Exists() {
		return fmt.Errorf("CREATE user: created user has no id")
	}

	// READ: the listing must carry the pagination envelope.
	resp, err = session.Do(ctx, http.NewRequest("GET", "/users"))
	if err != nil {
		return step("GET users", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("GET users", err)
	}
	listing := gjson.ParseBytes(resp.GetBody())
	for _, field := range []string{"page", "per_page", "total", "total_pages", "data"} {
		if !listing.Get(field).Exists() {
			return fmt.Errorf("GET users: response missing field %q", field)
		}
	}

	// Pagination
	resp, err = session.Do(ctx, http.NewRequest("GET", "/users").WithQueryParam("page", "2"))
	if err != nil {
		return step("GET users page 2", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("GET users page 2", err)
	}
	page2 := gjson.ParseBytes(resp.GetBody())
	if got := page2.Get("page").Int(); got != 2 {
		return fmt.Errorf("GET users page 2: pagination returned page %d", got)
	}

	// Every user on the page must satisfy the user contract.
	schema, err := jsonschema.Compile(config.UserSchema)
	if err != nil {
		return err
	}
	for _, user := range page2.Get("data").Array() {
		if err := jsonschema.ValidateCompiled(user.Raw, schema); err != nil {
			return fmt.Errorf("user %s violates schema: %w", user.Get("id").Raw, err)
		}
	}

	// UPDATE
	update := map[string]interface{}{
		"name": "QA Tester Updated",
		"job":  "Senior QA Engineer",
	}
	resp, err = session.Do(ctx, http.NewRequest("PUT", "/users/2").WithBody(update))
	if err != nil {
		return step("UPDATE user", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("UPDATE user", err)
	}

	// DELETE
	resp, err = session.Do(ctx, http.NewRequest("DELETE", "/users/2"))
	if err != nil {
		return step("DELETE user", err)
	}
	if err := resp.ExpectStatus(204); err != nil {
		return step("DELETE user", err)
	}

	return nil
}

// ReqResAuthentication exercises the login and register flows, positive and
// negative.
func ReqResAuthentication() Scenario {
	return Scenario{Name: "ReqRes authentication", Run: runReqResAuthentication}
}

func runReqResAuthentication(ctx context.Context, deps *Deps) error {
	session, err := deps.Registry.Get(config.TargetReqRes)
	if err != nil {
		return err
	}

	// Successful login returns a token.
	resp, err := session.Do(ctx, http.NewRequest("POST", "/login").WithBody(config.ValidAuthPayload()))
	if err != nil {
		return step("login", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("login", err)
	}
	if !gjson.GetBytes(resp.GetBody(), "token").Exists() {
		return fmt.Errorf("login: response carries no token")
	}

	// Login without a password is rejected with an error body.
	resp, err = session.Do(ctx, http.NewRequest("POST", "/login").WithBody(config.AuthMissingPassword()))
	if err != nil {
		return step("login without password", err)
	}
	if err := resp.ExpectStatus(400); err != nil {
		return step("login without password", err)
	}
	if !gjson.GetBytes(resp.GetBody(), "error").Exists() {
		return fmt.Errorf("login without password: response carries no error")
	}

	// Successful registration returns id and token.
	resp, err = session.Do(ctx, http.NewRequest("POST", "/register").WithBody(config.ValidRegisterPayload()))
	if err != nil {
		return step("register", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("register", err)
	}
	registered := gjson.ParseBytes(resp.GetBody())
	for _, field := range []string{"id", "token"} {
		if !registered.Get(field).Exists() {
			return fmt.Errorf("register: response missing field %q", field)
		}
	}

	// Registration without a password is rejected with an error body.
	resp, err = session.Do(ctx, http.NewRequest("POST", "/register").WithBody(config.AuthMissingPassword()))
	if err != nil {
		return step("register without password", err)
	}
	if err := resp.ExpectStatus(400); err != nil {
		return step("register without password", err)
	}
	if !gjson.GetBytes(resp.GetBody(), "error").Exists() {
		return fmt.Errorf("register without password: response carries no error")
	}

	return nil
}

// ReqResRateLimit runs the rate-limit probe against a user endpoint and
// reports what it observed. The probe never asserts on the server's
// rate-limit policy.
func ReqResRateLimit() Scenario {
	return Scenario{Name: "ReqRes rate limiting", Run: runReqResRateLimit}
}

func runReqResRateLimit(ctx context.Context, deps *Deps) error {
	session, err := deps.Registry.Get(config.TargetReqRes)
	if err != nil {
		return err
	}

	run, err := deps.Prober.Run(ctx, session, "/users/2", deps.Cfg.Probe)
	if err != nil {
		return step("rate-limit probe", err)
	}

	deps.Log.Info().
		Int("attempted", run.Attempted).
		Int("successes", run.Successes).
		Int("rate_limited", run.RateLimited).
		Int("skipped", run.Skipped).
		Dur("wait_total", run.WaitTotal).
		Int64("p50_ms", run.LatencyPercentile(50)).
		Int64("p95_ms", run.LatencyPercentile(95)).
		Int64("p99_ms", run.LatencyPercentile(99)).
		Msg("rate-limit probe finished")
	return nil
}
