// Package main provides browsertool, a command-line driver for the browser
// agent tool. It runs single actions, YAML scripts of actions, or raw XML
// tool calls against one lazily started browser session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version is the application version (set during build).
	Version = "dev"

	// Commit is the git commit hash (set during build).
	Commit = "unknown"

	// BuildDate is the build date (set during build).
	BuildDate = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
	flagHeadful  bool
)

// errActionFailed is returned when a browser action reported an error. The
// result has already been printed, so main only sets the exit code.
var errActionFailed = errors.New("browser action failed")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "browsertool",
		Short:         "Drive a browser the way an agent does",
		Long:          "browsertool runs navigate, click, fill, extract and screenshot actions against a single lazily started browser session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./browsertool.yaml or ~/.browsertool/browsertool.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (env: BROWSERTOOL_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&flagHeadful, "headful", false, "show the browser window")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "browsertool %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newInstallCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errActionFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
