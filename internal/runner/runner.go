// Package runner is the test orchestrator: it runs an ordered scenario
// list, records each outcome independently, and guarantees session teardown
// at a single shutdown point.
package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/internal/probe"
	"apiprobe/internal/scenario"
)

// Result is one scenario's outcome.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
	Skipped  bool
}

// Report aggregates a whole run.
type Report struct {
	RunID    string
	Results  []Result
	Started  time.Time
	Finished time.Time
	// Interrupted is set when the run context was canceled before the
	// scenario list finished.
	Interrupted bool
}

// Passed counts successful scenarios.
func (r *Report) Passed() int {
	n := 0
	for _, result := range r.Results {
		if result.Err == nil && !result.Skipped {
			n++
		}
	}
	return n
}

// Failed counts failed scenarios.
func (r *Report) Failed() int {
	n := 0
	for _, result := range r.Results {
		if result.Err != nil {
			n++
		}
	}
	return n
}

// SuccessRate returns passed/(passed+failed) as a percentage.
func (r *Report) SuccessRate() float64 {
	total := r.Passed() + r.Failed()
	if total == 0 {
		return 0
	}
	return float64(r.Passed()) / float64(total) * 100
}

// OK reports whether every executed scenario passed and the run was not
// interrupted.
func (r *Report) OK() bool {
	return r.Failed() == 0 && !r.Interrupted
}

// Runner executes scenario lists against one registry. The registry is
// owned here and nowhere else.
type Runner struct {
	registry *http.Registry
	deps     *scenario.Deps
	log      zerolog.Logger
}

// New builds a Runner and its registry from configuration.
func New(cfg *config.Config, log zerolog.Logger) *Runner {
	registry := http.NewRegistry(cfg, log)
	return &Runner{
		registry: registry,
		log:      log,
		deps: &scenario.Deps{
			Registry: registry,
			Cfg:      cfg,
			Prober:   probe.New(log),
			Log:      log,
		},
	}
}

// Registry exposes the runner's registry for callers that need to borrow a
// session outside a scenario (the standalone probe command).
func (r *Runner) Registry() *http.Registry {
	return r.registry
}

// Run executes the scenarios in order. One scenario's failure never
// prevents the next from running; a canceled context marks the remaining
// scenarios skipped. Teardown of every session runs exactly once, whatever
// happens.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) *Report {
	defer r.registry.CloseAll()

	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	r.log.Info().Str("run_id", report.RunID).Int("scenarios", len(scenarios)).Msg("starting test run")

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			report.Interrupted = true
			report.Results = append(report.Results, Result{Name: sc.Name, Skipped: true})
			continue
		}
		report.Results = append(report.Results, r.runOne(ctx, sc))
	}
	if ctx.Err() != nil {
		report.Interrupted = true
	}

	report.Finished = time.Now()
	return report
}

// runOne executes a single scenario, containing panics so a broken scenario
// counts as one failure instead of ending the run.
func (r *Runner) runOne(ctx context.Context, sc scenario.Scenario) (result Result) {
	result.Name = sc.Name
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		if p := recover(); p != nil {
			result.Err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
		if result.Err != nil {
			r.log.Error().Str("scenario", sc.Name).Err(result.Err).Msg("scenario failed")
		} else {
			r.log.Info().Str("scenario", sc.Name).Dur("duration", result.Duration).Msg("scenario passed")
		}
	}()

	r.log.Info().Str("scenario", sc.Name).Msg("starting scenario")
	result.Err = sc.Run(ctx, r.deps)
	return result
}
