package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"apiprobe/internal/config"
	"apiprobe/internal/logging"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "apiprobe",
	Short:   "Automated API test suite runner",
	Version: version,
	Long: `Apiprobe runs scripted test scenarios against public demo APIs:
CRUD cycles, schema validation, authentication contracts and rate-limit
probing, with an optional browser phase over the DevTools protocol.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	RootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file, with rotation")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(probeCmd)
	RootCmd.AddCommand(browserCmd)
}

// setup loads configuration and builds the logger from the persistent
// flags shared by every subcommand. Failures are fatal: the process cannot
// do anything useful without a valid configuration.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger) {
	configFile, _ := cmd.Flags().GetString("config")
	noColor, _ := cmd.Flags().GetBool("no-color")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFile, _ := cmd.Flags().GetString("log-file")

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	return cfg, logging.New(cfg.Logging, noColor)
}
