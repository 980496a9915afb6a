package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/internal/probe"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe an endpoint for rate limiting",
	Long: `Probe sends a bounded burst of GET requests against one endpoint and
reports how the server throttles: how many requests got through, how
many were rate limited, and the wait time the Retry-After headers asked
for. The probe is observational; it never fails the run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := setup(cmd)

		target, _ := cmd.Flags().GetString("target")
		path, _ := cmd.Flags().GetString("path")
		requests, _ := cmd.Flags().GetInt("requests")
		delay, _ := cmd.Flags().GetDuration("delay")
		fallback, _ := cmd.Flags().GetDuration("fallback-wait")

		settings := cfg.Probe
		if cmd.Flags().Changed("requests") {
			settings.MaxRequests = requests
		}
		if cmd.Flags().Changed("delay") {
			settings.MinDelay = delay
		}
		if cmd.Flags().Changed("fallback-wait") {
			settings.FallbackWait = fallback
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registry := http.NewRegistry(cfg, log)
		defer registry.CloseAll()

		session, err := registry.Get(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailed)
		}

		run, err := probe.New(log).Run(ctx, session, path, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Probe aborted: %v\n", err)
			os.Exit(exitInterrupted)
		}

		fmt.Printf("Probed %s%s with %d request(s)\n", session.Target().BaseURL, path, run.Attempted)
		fmt.Printf("  successes:    %d\n", run.Successes)
		fmt.Printf("  rate limited: %d\n", run.RateLimited)
		fmt.Printf("  skipped:      %d\n", run.Skipped)
		fmt.Printf("  wait total:   %s\n", run.WaitTotal)
		fmt.Printf("  latency p50/p95/p99: %dms / %dms / %dms\n",
			run.LatencyPercentile(50), run.LatencyPercentile(95), run.LatencyPercentile(99))
	},
}

func init() {
	probeCmd.Flags().String("target", config.TargetReqRes, "Configured target to probe")
	probeCmd.Flags().String("path", "/users/2", "Endpoint path to probe")
	probeCmd.Flags().Int("requests", 0, "Maximum number of requests to send")
	probeCmd.Flags().Duration("delay", 0, "Minimum delay between requests")
	probeCmd.Flags().Duration("fallback-wait", 5*time.Second, "Wait applied when a 429 carries no Retry-After header")
}
