package browser

import (
	"context"
	"encoding/xml"
	"testing"

	"github.com/entrhq/browsertool/pkg/agent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTool(t *testing.T) (*BrowserTool, *fakeDriver) {
	t.Helper()
	session, driver := newTestSession(t, DefaultOptions())
	return NewBrowserTool(session), driver
}

func TestBrowserTool_Name(t *testing.T) {
	tool, _ := newTestTool(t)
	assert.Equal(t, "browser", tool.Name())
	assert.False(t, tool.IsLoopBreaking())
}

func TestBrowserTool_Description(t *testing.T) {
	tool, _ := newTestTool(t)
	desc := tool.Description()
	assert.NotEmpty(t, desc)
	assert.Contains(t, desc, "navigate")
	assert.Contains(t, desc, "screenshots")
}

func TestBrowserTool_Schema(t *testing.T) {
	tool, _ := newTestTool(t)
	schema := tool.Schema()

	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]interface{})
	for _, key := range []string{"action", "url", "selector", "text", "screenshot_path", "wait_timeout"} {
		assert.Contains(t, props, key)
	}

	action := props["action"].(map[string]interface{})
	assert.Equal(t, []string{"navigate", "click", "fill", "extract", "screenshot"}, action["enum"])

	wait := props["wait_timeout"].(map[string]interface{})
	assert.Equal(t, "integer", wait["type"])
	assert.Equal(t, MinWaitTimeout, wait["minimum"])
	assert.Equal(t, MaxWaitTimeout, wait["maximum"])
	assert.Equal(t, DefaultWaitTimeout, wait["default"])

	assert.Equal(t, []string{"action"}, schema["required"])
}

func TestBrowserTool_Execute(t *testing.T) {
	tool, driver := newTestTool(t)
	ctx := context.Background()

	out, meta, err := tool.Execute(ctx, []byte(`<arguments><action>navigate</action><url>https://example.com</url></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "Navigated to 'Example Domain' (https://example.com)", out)
	assert.Equal(t, map[string]interface{}{"action": "navigate", "status": "ok"}, meta)

	out, meta, err = tool.Execute(ctx, []byte(`<arguments><action>extract</action><selector>h1</selector><wait_timeout>2000</wait_timeout></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "Extracted 1 element(s):\nExample Domain", out)
	assert.Equal(t, "ok", meta["status"])

	assert.Equal(t, 1, driver.starts)
}

func TestBrowserTool_ExecuteErrorsAreStrings(t *testing.T) {
	tests := []struct {
		name       string
		args       string
		wantOut    string
		wantStatus string
	}{
		{
			name:       "malformed xml",
			args:       `<arguments><action>navigate</arguments>`,
			wantOut:    "Error: invalid parameters:",
			wantStatus: "validation_error",
		},
		{
			name:       "missing url",
			args:       `<arguments><action>navigate</action></arguments>`,
			wantOut:    "Error: 'url' parameter required for navigate action",
			wantStatus: "validation_error",
		},
		{
			name:       "fill without text element",
			args:       `<arguments><action>fill</action><selector>#q</selector></arguments>`,
			wantOut:    "Error: 'text' parameter required for fill action",
			wantStatus: "validation_error",
		},
		{
			name:       "unknown action",
			args:       `<arguments><action>hover</action></arguments>`,
			wantOut:    "Error: Unknown action 'hover'",
			wantStatus: "validation_error",
		},
		{
			name:       "engine failure",
			args:       `<arguments><action>navigate</action><url>https://nowhere.invalid</url></arguments>`,
			wantOut:    "Error: net::ERR_NAME_NOT_RESOLVED",
			wantStatus: "engine_error",
		},
		{
			name:       "timeout",
			args:       `<arguments><action>click</action><selector>#missing</selector><wait_timeout>1000</wait_timeout></arguments>`,
			wantOut:    "Error: Timeout waiting for click to complete",
			wantStatus: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, _ := newTestTool(t)

			out, meta, err := tool.Execute(context.Background(), []byte(tt.args))
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)
			assert.Equal(t, tt.wantStatus, meta["status"])
		})
	}
}

func TestBrowserTool_FillEmptyTextElement(t *testing.T) {
	tool, _ := newTestTool(t)
	ctx := context.Background()

	session := tool.Session()
	session.driver.(*fakeDriver).site["https://forms.test/"] = `<html><head><title>Form</title></head><body><input id="q" value="old"></body></html>`

	out, _, err := tool.Execute(ctx, []byte(`<arguments><action>navigate</action><url>https://forms.test/</url></arguments>`))
	require.NoError(t, err)
	require.Equal(t, "Navigated to 'Form' (https://forms.test/)", out)

	out, meta, err := tool.Execute(ctx, []byte(`<arguments><action>fill</action><selector>#q</selector><text></text></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "Filled '#q' with text", out)
	assert.Equal(t, "fill", meta["action"])
}

func TestBrowserTool_UnescapedAmpersand(t *testing.T) {
	tool, _ := newTestTool(t)
	url := "https://example.com/?a=1&b=2"
	tool.Session().driver.(*fakeDriver).site[url] = `<html><head><title>Query</title></head></html>`

	out, _, err := tool.Execute(context.Background(), []byte(`<arguments><action>navigate</action><url>`+url+`</url></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "Navigated to 'Query' ("+url+")", out)
}

func TestBrowserTool_ParsedToolCall(t *testing.T) {
	tool, _ := newTestTool(t)

	call, _, err := tools.ParseToolCall(`<tool>
<tool_name>browser</tool_name>
<arguments>
  <action>navigate</action>
  <url>https://example.com</url>
</arguments>
</tool>`)
	require.NoError(t, err)
	require.Equal(t, tool.Name(), call.ToolName)

	out, _, err := tool.Execute(context.Background(), call.GetArgumentsXML())
	require.NoError(t, err)
	assert.Equal(t, "Navigated to 'Example Domain' (https://example.com)", out)
}

func TestBrowserInput_Request(t *testing.T) {
	in := BrowserInput{
		Action:         "screenshot",
		ScreenshotPath: "out.png",
		WaitTimeout:    intPtr(5000),
	}
	data, err := xml.Marshal(in)
	require.NoError(t, err)

	var decoded BrowserInput
	require.NoError(t, xml.Unmarshal(data, &decoded))

	req := decoded.Request()
	assert.Equal(t, ActionScreenshot, req.Action)
	assert.Equal(t, "out.png", req.ScreenshotPath)
	assert.Equal(t, 5000, req.WaitTimeout)
	assert.Nil(t, req.Text)
}

func TestBrowserTool_CleanupIsReusable(t *testing.T) {
	tool, driver := newTestTool(t)
	ctx := context.Background()

	require.NoError(t, tool.Cleanup())

	out, _, err := tool.Execute(ctx, []byte(`<arguments><action>navigate</action><url>https://example.com</url></arguments>`))
	require.NoError(t, err)
	require.NotContains(t, out, "Error:")
	require.NoError(t, tool.Cleanup())

	out, _, err = tool.Execute(ctx, []byte(`<arguments><action>navigate</action><url>https://example.com</url></arguments>`))
	require.NoError(t, err)
	assert.NotContains(t, out, "Error:")
	assert.Equal(t, 2, driver.starts)
}

func intPtr(v int) *int {
	return &v
}
