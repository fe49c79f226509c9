package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsertool/pkg/agent/tools"
	"github.com/entrhq/browsertool/pkg/tools/browser"
)

func newCallCmd() *cobra.Command {
	var (
		file     string
		withMeta bool
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Execute an XML tool call read from stdin or a file",
		Long: `Execute a tool call in the agent XML format:

  <tool>
  <tool_name>browser</tool_name>
  <arguments>
    <action>navigate</action>
    <url>https://example.com</url>
  </arguments>
  </tool>

Every <tool> block in the input is executed in order on one session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if file != "" {
				data, err = os.ReadFile(file)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read tool call: %w", err)
			}

			tool, logger, err := newTool(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeTool(tool, logger)

			return runCalls(cmd, tool, string(data), withMeta)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the tool call from a file instead of stdin")
	cmd.Flags().BoolVar(&withMeta, "metadata", false, "print result metadata as JSON after each result")
	return cmd
}

// runCalls executes each tool call found in text until none remain.
func runCalls(cmd *cobra.Command, tool *browser.BrowserTool, text string, withMeta bool) error {
	out := cmd.OutOrStdout()
	failed := false
	calls := 0

	for tools.HasToolCall(text) {
		call, remaining, err := tools.ParseToolCall(text)
		if err != nil {
			return err
		}
		text = remaining
		calls++

		if call.ToolName != tool.Name() {
			fmt.Fprintf(out, "Error: unknown tool '%s'\n", call.ToolName)
			failed = true
			continue
		}

		result, meta, err := tool.Execute(cmd.Context(), call.GetArgumentsXML())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result)
		if withMeta {
			encoded, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(encoded))
		}
		if meta["status"] != browser.KindOK.String() {
			failed = true
		}
	}

	if calls == 0 {
		return fmt.Errorf("no tool call found in input")
	}
	if failed {
		return errActionFailed
	}
	return nil
}
