package browser

import (
	"time"
)

// Action is one of the operations the browser tool can perform.
type Action string

const (
	ActionNavigate   Action = "navigate"
	ActionClick      Action = "click"
	ActionFill       Action = "fill"
	ActionExtract    Action = "extract"
	ActionScreenshot Action = "screenshot"
)

// Actions lists every supported action in schema order.
var Actions = []Action{ActionNavigate, ActionClick, ActionFill, ActionExtract, ActionScreenshot}

// Request is a single browser action with its parameters.
type Request struct {
	Action Action

	// URL to load (navigate)
	URL string

	// Selector identifies the target element(s) (click, fill, extract)
	Selector string

	// Text is the value to fill. Nil means the parameter was not supplied;
	// a pointer to "" clears the field.
	Text *string

	// ScreenshotPath is where the screenshot is written (optional)
	ScreenshotPath string

	// WaitTimeout in milliseconds. Zero means the session default.
	WaitTimeout int
}

// Options configures a Session. Options are fixed once the session is created.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// UserDataDir, when set, backs the context with an on-disk profile so
	// cookies and login state survive process restarts
	UserDataDir string

	// UserAgent sent by every page in the context
	UserAgent string

	// DefaultWaitTimeout in milliseconds, used when a request carries none
	DefaultWaitTimeout int

	// DefaultScreenshotPath is used when a screenshot request carries no path
	DefaultScreenshotPath string

	// Policy restricts navigation targets. Nil allows everything.
	Policy *URLPolicy

	// Logger receives lifecycle and error events. Nil discards them.
	Logger Logger
}

// Logger is the logging sink the session reports to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Default values for sessions and requests
const (
	DefaultWaitTimeout    = 30000 // 30 seconds in milliseconds
	MinWaitTimeout        = 1000
	MaxWaitTimeout        = 60000
	DefaultScreenshotPath = "screenshot.png"
	MaxExtractElements    = 10
	MaxErrorMessageLength = 500

	// DefaultUserAgent is a plain desktop Chrome UA which avoids the
	// "HeadlessChrome" token naive bot detection keys on
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Headless:              true,
		UserAgent:             DefaultUserAgent,
		DefaultWaitTimeout:    DefaultWaitTimeout,
		DefaultScreenshotPath: DefaultScreenshotPath,
	}
}

// withDefaults fills zero-valued fields.
func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.DefaultWaitTimeout == 0 {
		o.DefaultWaitTimeout = DefaultWaitTimeout
	}
	o.DefaultWaitTimeout = clampTimeout(o.DefaultWaitTimeout)
	if o.DefaultScreenshotPath == "" {
		o.DefaultScreenshotPath = DefaultScreenshotPath
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	return o
}

// clampTimeout bounds a millisecond timeout to [MinWaitTimeout, MaxWaitTimeout].
func clampTimeout(ms int) int {
	if ms < MinWaitTimeout {
		return MinWaitTimeout
	}
	if ms > MaxWaitTimeout {
		return MaxWaitTimeout
	}
	return ms
}

// timeout resolves the wait timeout of a request.
func (r Request) timeout(defaultMS int) time.Duration {
	ms := r.WaitTimeout
	if ms == 0 {
		ms = defaultMS
	}
	return time.Duration(clampTimeout(ms)) * time.Millisecond
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
