package tools

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultServerName = "local"
	maxXMLSize        = 10 * 1024 * 1024 // 10MB limit for XML tool calls
	argumentsTagName  = "arguments"
)

var toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

// ampersandEntityRegex matches ampersands that already start an XML entity:
// &amp; &lt; &gt; &quot; &apos; &#123; &#xAB;
var ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)

// ParseToolCall extracts the first tool call from planner output that
// contains XML-formatted tool invocations.
//
// Expected format:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>browser</tool_name>
//	<arguments>
//	  <action>fill</action>
//	  <selector>#search</selector>
//	  <text><![CDATA[shoes & socks]]></text>
//	</arguments>
//	</tool>
//
// server_name is optional and defaults to "local". Returns the parsed
// ToolCall and the remaining text with that call removed, or an error if
// parsing fails.
func ParseToolCall(text string) (*ToolCall, string, error) {
	// Bound the input before running the regex over it
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call XML exceeds maximum size of %d bytes", maxXMLSize)
	}

	match := toolRegex.FindString(text)
	if match == "" {
		return nil, text, fmt.Errorf("no tool call found in text")
	}

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(strings.TrimSpace(match)), &call); err != nil {
		// Include a snippet of the offending XML in the error
		snippet := match
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, text, fmt.Errorf("failed to unmarshal tool call XML: %w\nXML snippet: %s", err, snippet)
	}

	// Validate required fields
	if call.ToolName == "" {
		return nil, text, fmt.Errorf("tool_name is required in tool call")
	}
	if call.ServerName == "" {
		call.ServerName = defaultServerName
	}

	// Only the first call is removed; later ones stay for the next parse
	remaining := strings.Replace(text, match, "", 1)
	return &call, strings.TrimSpace(remaining), nil
}

// HasToolCall reports whether text contains a tool call.
func HasToolCall(text string) bool {
	return toolRegex.MatchString(text)
}

// UnmarshalXMLWithFallback unmarshals XML, retrying once with bare
// ampersands escaped. Planners frequently emit URLs with raw & in query
// strings.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands replaces bare & with &amp; and leaves existing
// entities alone
func escapeUnescapedAmpersands(data []byte) []byte {
	text := string(data)

	entityStarts := make(map[int]bool)
	for _, loc := range ampersandEntityRegex.FindAllStringIndex(text, -1) {
		entityStarts[loc[0]] = true
	}

	var b strings.Builder
	b.Grow(len(text) + 20)
	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityStarts[i] {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(text[i])
	}
	return []byte(b.String())
}
