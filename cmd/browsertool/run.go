package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsertool/pkg/tools/browser"
)

func newRunCmd() *cobra.Command {
	var stopOnError bool

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a YAML script of browser actions on one session",
		Long:  "Run every step of a YAML script in order on a single browser session. Use - to read the script from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stop-on-error") {
				script.StopOnError = stopOnError
			}

			tool, logger, err := newTool(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeTool(tool, logger)

			failed := runScript(cmd.Context(), tool, script, cmd.OutOrStdout())
			if failed > 0 {
				logger.Warnf("%d of %d steps failed", failed, len(script.Steps))
				return errActionFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "stop at the first failing step (overrides the script)")
	return cmd
}

// runScript executes the steps and returns how many failed. Steps after a
// failure are skipped when the script asks to stop on error.
func runScript(ctx context.Context, tool *browser.BrowserTool, script *Script, out io.Writer) int {
	failed := 0
	total := len(script.Steps)

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(out, "[%d/%d] %s: Error: %v\n", i+1, total, step.Label(), err)
			return failed + total - i
		}

		res := tool.Run(ctx, step.Request())
		fmt.Fprintf(out, "[%d/%d] %s: %s\n", i+1, total, step.Label(), res.String())

		if res.IsError() {
			failed++
			if script.StopOnError {
				if skipped := total - i - 1; skipped > 0 {
					fmt.Fprintf(out, "stopping: %d step(s) skipped\n", skipped)
				}
				return failed
			}
		}
	}
	return failed
}
