// Package browser provides the "browser" agent tool: a single long-lived
// browser session that an agent drives one action at a time.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Session: owns the engine, browser, context and page and runs actions
//  2. Engine capability: the Driver/Engine/Browser/BrowserContext/Page
//     interfaces, implemented for Playwright and rod
//  3. BrowserTool: the agent-facing tool that decodes XML arguments and
//     renders every outcome as a plain string
//
// # Session Lifecycle
//
// A session moves between three states:
//
//	Uninitialized --first action--> Ready --Cleanup--> Closed --next action--> Ready
//
// Resources are acquired lazily on the first action and reused by every
// later one. If acquisition fails, whatever was acquired is released and
// the next action retries from scratch. Cleanup releases page, context,
// browser and engine in that order and may be called at any time.
//
// With Options.UserDataDir set, the context is a persistent profile:
// cookies and local storage written in one session lifetime are visible in
// the next, even across process restarts.
//
// # Results
//
// Actions never return Go errors to the agent. Each produces a Result whose
// String is either a success message or an "Error: " prefixed message:
//
//   - validation errors (missing parameter, unknown action, blocked URL)
//     are detected before the engine is touched
//   - timeouts render as "Error: Timeout waiting for <action> to complete"
//   - any other engine failure renders its message, truncated
//
// # Example Usage
//
//	session := browser.NewSession(browser.NewPlaywrightDriver(browser.PlaywrightOptions{}), browser.DefaultOptions())
//	tool := browser.NewBrowserTool(session)
//	defer tool.Cleanup()
//
//	res := tool.Run(ctx, browser.Request{Action: browser.ActionNavigate, URL: "https://example.com"})
//	fmt.Println(res) // Navigated to 'Example Domain' (https://example.com)
package browser
