package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsertool/pkg/tools/browser"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the browser tool's name, description and parameter schema as JSON",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The schema does not depend on the session, so none is started
			tool := browser.NewBrowserTool(nil)
			doc := map[string]interface{}{
				"name":        tool.Name(),
				"description": tool.Description(),
				"parameters":  tool.Schema(),
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
