package browser

import (
	"context"
	"errors"
	"time"
)

// The interfaces below are the capability a browser engine must provide.
// Playwright and rod adapters live in this package; tests use an
// in-memory double. Page operations that wait take the timeout explicitly
// and must report an exceeded wait with an error satisfying
// errors.Is(err, ErrTimeout).

// Driver starts the process-level automation engine.
type Driver interface {
	Start(ctx context.Context) (Engine, error)
}

// Engine launches browsers and persistent contexts.
type Engine interface {
	// Launch starts a browser process.
	Launch(opts LaunchOptions) (Browser, error)

	// LaunchPersistentContext starts a browser process whose single context
	// is backed by the profile in userDataDir. Closing the context stops
	// the process.
	LaunchPersistentContext(userDataDir string, opts LaunchOptions, ctxOpts ContextOptions) (BrowserContext, error)

	// Stop shuts the engine down.
	Stop() error
}

// Browser is one OS browser process.
type Browser interface {
	NewContext(opts ContextOptions) (BrowserContext, error)
	Close() error
}

// BrowserContext is an isolated cookie/storage scope.
type BrowserContext interface {
	// Pages returns the pages already open in the context.
	Pages() ([]Page, error)
	NewPage() (Page, error)
	Close() error
}

// Page is one navigable tab.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Title(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, text string, timeout time.Duration) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Element is a handle to a DOM element.
type Element interface {
	InnerText(ctx context.Context) (string, error)
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless bool
}

// ContextOptions configures a browser context.
type ContextOptions struct {
	UserAgent string
}

// ErrTimeout is matched by errors.Is for every engine wait that ran out.
var ErrTimeout = errors.New("timeout")

// timeoutError keeps the engine's message while classifying as ErrTimeout.
type timeoutError struct {
	err error
}

// markTimeout wraps err so that errors.Is(err, ErrTimeout) holds.
func markTimeout(err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	return &timeoutError{err: err}
}

func (e *timeoutError) Error() string        { return e.err.Error() }
func (e *timeoutError) Unwrap() error        { return e.err }
func (e *timeoutError) Is(target error) bool { return target == ErrTimeout }
