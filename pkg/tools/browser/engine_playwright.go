package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures the Playwright driver.
type PlaywrightOptions struct {
	// Install downloads the driver and browsers before the first start
	Install bool

	// Browser selects the browser type: "chromium" (default), "firefox" or "webkit"
	Browser string

	// Stdout and Stderr receive driver output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

type playwrightDriver struct {
	opts PlaywrightOptions
}

// NewPlaywrightDriver returns a Driver backed by playwright-go.
func NewPlaywrightDriver(opts PlaywrightOptions) Driver {
	if opts.Browser == "" {
		opts.Browser = "chromium"
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &playwrightDriver{opts: opts}
}

func (d *playwrightDriver) runOptions() *playwright.RunOptions {
	return &playwright.RunOptions{
		Browsers: []string{d.opts.Browser},
		Verbose:  false,
		Stdout:   d.opts.Stdout,
		Stderr:   d.opts.Stderr,
	}
}

// InstallPlaywright downloads the Playwright driver and browsers.
func InstallPlaywright(opts PlaywrightOptions) error {
	d := NewPlaywrightDriver(opts).(*playwrightDriver)
	if err := playwright.Install(d.runOptions()); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// Start runs the Playwright driver process. Playwright calls do not take a
// context; ctx is only checked before the driver starts.
func (d *playwrightDriver) Start(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.opts.Install {
		if err := playwright.Install(d.runOptions()); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(d.runOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch d.opts.Browser {
	case "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported playwright browser: %s", d.opts.Browser)
	}

	return &playwrightEngine{pw: pw, browserType: bt}, nil
}

type playwrightEngine struct {
	pw          *playwright.Playwright
	browserType playwright.BrowserType
}

func (e *playwrightEngine) Launch(opts LaunchOptions) (Browser, error) {
	b, err := e.browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, playwrightErr(err)
	}
	return &playwrightBrowser{browser: b}, nil
}

func (e *playwrightEngine) LaunchPersistentContext(userDataDir string, opts LaunchOptions, ctxOpts ContextOptions) (BrowserContext, error) {
	c, err := e.browserType.LaunchPersistentContext(userDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(opts.Headless),
		UserAgent: playwright.String(ctxOpts.UserAgent),
	})
	if err != nil {
		return nil, playwrightErr(err)
	}
	return &playwrightContext{context: c}, nil
}

func (e *playwrightEngine) Stop() error {
	return e.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	c, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
	})
	if err != nil {
		return nil, playwrightErr(err)
	}
	return &playwrightContext{context: c}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightContext struct {
	context playwright.BrowserContext
}

func (c *playwrightContext) Pages() ([]Page, error) {
	pages := c.context.Pages()
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, &playwrightPage{page: p})
	}
	return out, nil
}

func (c *playwrightContext) NewPage() (Page, error) {
	p, err := c.context.NewPage()
	if err != nil {
		return nil, playwrightErr(err)
	}
	return &playwrightPage{page: p}, nil
}

func (c *playwrightContext) Close() error {
	return c.context.Close()
}

// playwrightPage ignores the contexts it is given: playwright-go bounds
// every call by the timeout option instead.
type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(_ context.Context, url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout: milliseconds(timeout),
	})
	return playwrightErr(err)
}

func (p *playwrightPage) Title(_ context.Context) (string, error) {
	title, err := p.page.Title()
	return title, playwrightErr(err)
}

func (p *playwrightPage) Click(_ context.Context, selector string, timeout time.Duration) error {
	return playwrightErr(p.page.Click(selector, playwright.PageClickOptions{
		Timeout: milliseconds(timeout),
	}))
}

func (p *playwrightPage) Fill(_ context.Context, selector, text string, timeout time.Duration) error {
	return playwrightErr(p.page.Fill(selector, text, playwright.PageFillOptions{
		Timeout: milliseconds(timeout),
	}))
}

func (p *playwrightPage) WaitForSelector(_ context.Context, selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: milliseconds(timeout),
	})
	return playwrightErr(err)
}

func (p *playwrightPage) QuerySelectorAll(_ context.Context, selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, playwrightErr(err)
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &playwrightElement{handle: h})
	}
	return out, nil
}

func (p *playwrightPage) Screenshot(_ context.Context, path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return playwrightErr(err)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) InnerText(_ context.Context) (string, error) {
	text, err := e.handle.InnerText()
	return text, playwrightErr(err)
}

func milliseconds(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// playwrightErr marks Playwright timeouts as ErrTimeout.
func playwrightErr(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return markTimeout(err)
	}
	return err
}
