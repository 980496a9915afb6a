package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"apiprobe/internal/browser"
	"apiprobe/internal/output"
	"apiprobe/internal/runner"
)

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Run the web scenario suite against a running browser",
	Long: `Browser drives the web scenarios over the Chrome DevTools protocol:
login, dynamic content and controls, form interactions, JavaScript
dialogs, hover reveals, file upload and download, multiple windows, and
drag and drop. It needs a browser started with remote debugging enabled,
for example:

  chromium --headless --remote-debugging-port=9222

and attaches to it via --devtools-url.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := setup(cmd)
		noColor, _ := cmd.Flags().GetBool("no-color")

		devtoolsURL, _ := cmd.Flags().GetString("devtools-url")
		baseURL, _ := cmd.Flags().GetString("base-url")
		if devtoolsURL != "" {
			cfg.Web.DevToolsURL = devtoolsURL
		}
		if baseURL != "" {
			cfg.Web.BaseURL = baseURL
		}
		if cfg.Web.DevToolsURL == "" {
			fmt.Fprintln(os.Stderr, "Error: --devtools-url is required (no browser to attach to)")
			os.Exit(exitFailed)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr := browser.NewManager(cfg.Web, log)
		defer mgr.Detach()

		r := runner.New(cfg, log)
		report := r.Run(ctx, browser.Scenarios(mgr))

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

func init() {
	browserCmd.Flags().String("devtools-url", "", "DevTools HTTP endpoint of a running browser (e.g. http://127.0.0.1:9222)")
	browserCmd.Flags().String("base-url", "", "Base URL of the site under test")
}
