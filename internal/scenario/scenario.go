// Package scenario holds the API test scenarios: fixed, fail-fast sequences
// of requests and assertions exercising one feature area each. Scenarios
// never construct sessions; they borrow them from the registry by name.
package scenario

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/internal/probe"
)

// Deps is everything a scenario may use. The orchestrator owns all of it.
type Deps struct {
	Registry *http.Registry
	Cfg      *config.Config
	Prober   *probe.Prober
	Log      zerolog.Logger
}

// Scenario is one named test sequence. Run returns nil on success or the
// first violated assertion; a failure aborts the scenario immediately and
// is counted by the orchestrator.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, deps *Deps) error
}

// All returns the suite in execution order.
func All() []Scenario {
	return []Scenario{
		JSONPlaceholder(),
		ReqResUsers(),
		ReqResAuthentication(),
		ReqResRateLimit(),
	}
}

// step wraps an assertion error with the step that produced it so failures
// read as "step: expectation".
func step(name string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// idSet collects the values of one integer field across an array of JSON
// objects.
func idSet(items []gjson.Result, field string) map[int64]bool {
	ids := make(map[int64]bool, len(items))
	for _, item := range items {
		if v := item.Get(field); v.Exists() {
			ids[v.Int()] = true
		}
	}
	return ids
}

// intersects reports whether the two id sets share at least one element.
func intersects(a, b map[int64]bool) bool {
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}
