package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"apiprobe/internal/output"
	"apiprobe/internal/runner"
	"apiprobe/internal/scenario"
)

// Exit codes mirror the usual shell conventions: 130 is 128 + SIGINT.
const (
	exitOK          = 0
	exitFailed      = 1
	exitInterrupted = 130
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full API scenario suite",
	Long: `Run executes every API scenario in order: JSONPlaceholder CRUD and
schema checks, ReqRes user and authentication contracts, and the
rate-limit probe. Scenarios are independent; one failing does not stop
the rest. The process exits 0 when all pass, 1 when any fail, and 130
when interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := setup(cmd)
		noColor, _ := cmd.Flags().GetBool("no-color")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := runner.New(cfg, log)
		report := r.Run(ctx, scenario.All())

		formatter := output.NewReportFormatter(!output.ShouldColor(noColor))
		fmt.Print(formatter.Format(report))

		switch {
		case report.Interrupted:
			os.Exit(exitInterrupted)
		case !report.OK():
			os.Exit(exitFailed)
		}
	},
}
