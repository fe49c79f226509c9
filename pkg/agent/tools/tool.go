package tools

import (
	"context"
	"encoding/xml"
)

// Tool is a capability an agent can invoke during execution.
// The agent's planner emits XML tool calls; the registry resolves the
// tool by name and hands it the raw <arguments> block.
//
// Example tool call emitted by the planner:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>browser</tool_name>
//	<arguments>
//	  <action>navigate</action>
//	  <url>https://example.com</url>
//	</arguments>
//	</tool>
type Tool interface {
	// Name is the unique identifier used in tool calls (e.g. "browser")
	Name() string

	// Description is the natural-language summary shown to the planner
	Description() string

	// Schema is the JSON schema of the tool's parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the XML arguments block.
	// Returns: (result string, metadata map, error). Metadata may be nil.
	Execute(ctx context.Context, argumentsXML []byte) (string, map[string]interface{}, error)

	// IsLoopBreaking reports whether the agent loop should stop after this tool
	IsLoopBreaking() bool
}

// ToolCall is a parsed tool invocation.
type ToolCall struct {
	XMLName    xml.Name       `xml:"tool"`
	ServerName string         `xml:"server_name"`
	ToolName   string         `xml:"tool_name"`
	Arguments  ArgumentsBlock `xml:"arguments"`
}

// ArgumentsBlock holds the raw inner XML of the arguments element
type ArgumentsBlock struct {
	InnerXML []byte `xml:",innerxml"`
}

// GetArgumentsXML returns the arguments re-wrapped in <arguments> tags so
// a tool can unmarshal them into its own input struct.
func (tc *ToolCall) GetArgumentsXML() []byte {
	const prefix = "<" + argumentsTagName + ">"
	const suffix = "</" + argumentsTagName + ">"

	result := make([]byte, 0, len(prefix)+len(tc.Arguments.InnerXML)+len(suffix))
	result = append(result, prefix...)
	result = append(result, tc.Arguments.InnerXML...)
	result = append(result, suffix...)
	return result
}

// BaseToolSchema creates a JSON schema object with the given properties
// and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
