package browser

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/browsertool/pkg/agent/tools"
)

// ToolName is the name the browser tool registers under.
const ToolName = "browser"

var _ tools.Tool = (*BrowserTool)(nil)

// BrowserTool exposes a Session as a single agent tool. Every outcome,
// including malformed arguments, is returned as the result string; Execute
// never returns a non-nil error.
type BrowserTool struct {
	session *Session
}

// NewBrowserTool creates the browser tool around a session.
func NewBrowserTool(session *Session) *BrowserTool {
	return &BrowserTool{session: session}
}

// Name returns the tool name.
func (t *BrowserTool) Name() string {
	return ToolName
}

// Description returns the tool description.
func (t *BrowserTool) Description() string {
	return "Automate browser interactions: navigate to URLs, click buttons, fill forms, extract page content, and take screenshots."
}

// Schema returns the tool's JSON schema.
func (t *BrowserTool) Schema() map[string]interface{} {
	actions := make([]string, len(Actions))
	for i, a := range Actions {
		actions[i] = string(a)
	}

	return tools.BaseToolSchema(
		map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"description": "Action to perform",
				"enum":        actions,
			},
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL to navigate to (required for 'navigate' action)",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for element (required for 'click', 'fill', 'extract')",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to fill in form field (required for 'fill' action)",
			},
			"screenshot_path": map[string]interface{}{
				"type":        "string",
				"description": "Path to save screenshot (optional for 'screenshot' action)",
			},
			"wait_timeout": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Timeout in milliseconds (default: %d)", DefaultWaitTimeout),
				"minimum":     MinWaitTimeout,
				"maximum":     MaxWaitTimeout,
				"default":     DefaultWaitTimeout,
			},
		},
		[]string{"action"},
	)
}

// BrowserInput is the XML arguments block of a browser tool call.
type BrowserInput struct {
	XMLName        xml.Name `xml:"arguments"`
	Action         string   `xml:"action"`
	URL            string   `xml:"url,omitempty"`
	Selector       string   `xml:"selector,omitempty"`
	Text           *string  `xml:"text"`
	ScreenshotPath string   `xml:"screenshot_path,omitempty"`
	WaitTimeout    *int     `xml:"wait_timeout"`
}

// Request converts the arguments into a session request.
func (in BrowserInput) Request() Request {
	req := Request{
		Action:         Action(in.Action),
		URL:            in.URL,
		Selector:       in.Selector,
		Text:           in.Text,
		ScreenshotPath: in.ScreenshotPath,
	}
	if in.WaitTimeout != nil {
		req.WaitTimeout = *in.WaitTimeout
	}
	return req
}

// Execute runs one browser action described by argsXML.
func (t *BrowserTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input BrowserInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		res := invalid(Action(""), "invalid parameters: %v", err)
		return res.String(), metadata(res), nil
	}

	res := t.Run(ctx, input.Request())
	return res.String(), metadata(res), nil
}

// Run executes a request directly, bypassing XML decoding.
func (t *BrowserTool) Run(ctx context.Context, req Request) Result {
	return t.session.Execute(ctx, req)
}

// Cleanup releases the browser. Errors are logged by the session and
// returned for callers that care; the tool is usable again afterwards.
func (t *BrowserTool) Cleanup() error {
	return t.session.Cleanup()
}

// Session returns the underlying session.
func (t *BrowserTool) Session() *Session {
	return t.session
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *BrowserTool) IsLoopBreaking() bool {
	return false
}

func metadata(res Result) map[string]interface{} {
	return map[string]interface{}{
		"action": string(res.Action),
		"status": res.Kind.String(),
	}
}
