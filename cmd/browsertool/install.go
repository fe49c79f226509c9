package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsertool/pkg/config"
	"github.com/entrhq/browsertool/pkg/tools/browser"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download the Playwright driver and the configured browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Global()
			if cfg.Browser.Engine != config.EnginePlaywright {
				fmt.Fprintf(cmd.OutOrStdout(), "engine %s needs no install step\n", cfg.Browser.Engine)
				return nil
			}

			opts := cfg.PlaywrightOptions()
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			if err := browser.InstallPlaywright(opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "playwright %s installed\n", opts.Browser)
			return nil
		},
	}
}
