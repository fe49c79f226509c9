package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsertool/pkg/tools/browser"
)

type execFlags struct {
	action         string
	url            string
	selector       string
	text           string
	screenshotPath string
	waitTimeout    int
}

func newExecCmd() *cobra.Command {
	var f execFlags

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run a single browser action",
		Example: `  browsertool exec --action navigate --url https://example.com
  browsertool exec --action screenshot --screenshot-path page.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := browser.Request{
				Action:         browser.Action(f.action),
				URL:            f.url,
				Selector:       f.selector,
				ScreenshotPath: f.screenshotPath,
				WaitTimeout:    f.waitTimeout,
			}
			// The text flag is only passed on when given, so --text "" clears a field
			if cmd.Flags().Changed("text") {
				text := f.text
				req.Text = &text
			}

			tool, logger, err := newTool(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeTool(tool, logger)

			res := tool.Run(cmd.Context(), req)
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			if res.IsError() {
				return errActionFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.action, "action", "", "action: navigate, click, fill, extract or screenshot")
	cmd.Flags().StringVar(&f.url, "url", "", "URL to navigate to")
	cmd.Flags().StringVar(&f.selector, "selector", "", "CSS selector for click, fill and extract")
	cmd.Flags().StringVar(&f.text, "text", "", "text for fill")
	cmd.Flags().StringVar(&f.screenshotPath, "screenshot-path", "", "where to write the screenshot")
	cmd.Flags().IntVar(&f.waitTimeout, "wait-timeout", 0, "wait timeout in milliseconds (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
