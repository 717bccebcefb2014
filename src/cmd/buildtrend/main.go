// Package main provides the buildtrend CLI, which scrapes CI job listings
// for successful e2e runs and charts how long they took.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buildtrend/src/config"
	"buildtrend/src/logger"
)

var (
	// Path passed with --config
	configFile string
	// Application configuration, resolved before any subcommand runs
	appConfig *config.Config
	// Logger shared by the subcommands
	appLog logger.Logger
	// Set when appLog owns a log file that must be flushed on exit
	consoleLog *logger.ConsoleLogger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buildtrend",
	Short: "buildtrend - track how long successful CI e2e runs take",
	Long: `buildtrend crawls a GCS-style directory listing of pull request CI
artifacts, records the duration of every successful e2e run in a JSON
store, and charts the durations over time.

Settings come from flags, BUILDTREND_* environment variables and an
optional YAML file given with --config, in that order of precedence.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		appConfig, err = config.Load(configFile, cmd.Flags())
		if err != nil {
			exitWithError(err)
		}

		// The TUI and MCP stdio own the terminal, keep logs off it.
		if quietCommands[cmd.Name()] {
			appLog = logger.NewSilentLogger()
			return
		}

		consoleLog, err = logger.New(logger.Options{
			Level: appConfig.LogLevel,
			File:  appConfig.LogFile,
		})
		if err != nil {
			exitWithError(err)
		}
		appLog = consoleLog
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if consoleLog != nil {
			consoleLog.Close()
		}
	},
}

var quietCommands = map[string]bool{
	"view": true,
	"mcp":  true,
}

// exitWithError prints a user-facing error to stderr and exits with status 1.
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", WrapError(err))
	if consoleLog != nil {
		consoleLog.Close()
	}
	os.Exit(1)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("store", config.DefaultStore, "Build store JSON file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write logs to this file, rotated by size")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(followCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
