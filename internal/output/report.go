// Package output renders run reports for the console in the suite's house
// style: one line per scenario plus an aggregate summary.
package output

import (
	"fmt"
	"strings"

	"apiprobe/internal/runner"
)

// ReportFormatter renders a runner.Report as console text.
type ReportFormatter struct {
	scheme  *ColorScheme
	noColor bool
}

// NewReportFormatter creates a formatter. With noColor set, all output is
// plain text.
func NewReportFormatter(noColor bool) *ReportFormatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme.disable()
	}
	return &ReportFormatter{scheme: scheme, noColor: noColor}
}

// Format renders the full report.
func (f *ReportFormatter) Format(report *runner.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n▶ TEST RUN %s\n\n", report.RunID))

	for _, result := range report.Results {
		switch {
		case result.Skipped:
			sb.WriteString(fmt.Sprintf("  %s %s (skipped)\n",
				WarningIcon(f.noColor), f.scheme.Scenario.Sprint(result.Name)))
		case result.Err != nil:
			sb.WriteString(fmt.Sprintf("  %s %s (%dms)\n      %v\n",
				ErrorIcon(f.noColor), f.scheme.Scenario.Sprint(result.Name),
				result.Duration.Milliseconds(), result.Err))
		default:
			sb.WriteString(fmt.Sprintf("  %s %s (%dms)\n",
				SuccessIcon(f.noColor), f.scheme.Scenario.Sprint(result.Name),
				result.Duration.Milliseconds()))
		}
	}

	passed, failed := report.Passed(), report.Failed()
	status := f.scheme.Pass
	if failed > 0 {
		status = f.scheme.Fail
	}

	sb.WriteString("\n▶ SUMMARY\n")
	sb.WriteString(fmt.Sprintf("  Scenarios: %s passed, %s failed\n",
		status.Sprint(passed), status.Sprint(failed)))
	sb.WriteString(fmt.Sprintf("  Success rate: %s\n",
		status.Sprintf("%.1f%%", report.SuccessRate())))
	sb.WriteString(fmt.Sprintf("  Total time: %dms\n",
		report.Finished.Sub(report.Started).Milliseconds()))

	if report.Interrupted {
		sb.WriteString(fmt.Sprintf("  %s run interrupted before completion\n", WarningIcon(f.noColor)))
	}

	return sb.String()
}
