package output

import (
	"os"

	"github.com/fatih/color"
)

// ColorScheme defines the colors used by the console report.
type ColorScheme struct {
	Scenario *color.Color
	Pass     *color.Color
	Fail     *color.Color
	Warn     *color.Color
	Summary  *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Scenario: color.New(color.FgCyan),
		Pass:     color.New(color.FgGreen, color.Bold),
		Fail:     color.New(color.FgRed, color.Bold),
		Warn:     color.New(color.FgYellow, color.Bold),
		Summary:  color.New(color.Bold),
	}
}

// disable turns every color in the scheme off.
func (s *ColorScheme) disable() *ColorScheme {
	s.Scenario.DisableColor()
	s.Pass.DisableColor()
	s.Fail.DisableColor()
	s.Warn.DisableColor()
	s.Summary.DisableColor()
	return s
}

// SuccessIcon returns a checkmark symbol with appropriate color.
func SuccessIcon(noColor bool) string {
	if noColor {
		return "✓"
	}
	return color.New(color.FgGreen).Sprint("✓")
}

// ErrorIcon returns an X symbol with appropriate color.
func ErrorIcon(noColor bool) string {
	if noColor {
		return "✗"
	}
	return color.New(color.FgRed).Sprint("✗")
}

// WarningIcon returns a warning symbol with appropriate color.
func WarningIcon(noColor bool) string {
	if noColor {
		return "⚠"
	}
	return color.New(color.FgYellow).Sprint("⚠")
}

// ShouldColor decides whether output to stdout gets colored: explicit
// opt-out wins, otherwise color only when stdout is a terminal.
func ShouldColor(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	return checkIsTerminal(os.Stdout)
}
