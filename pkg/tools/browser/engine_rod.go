package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodOptions configures the rod (Chrome DevTools Protocol) driver.
type RodOptions struct {
	// Bin is the Chrome/Chromium binary. Empty lets the launcher find or
	// download one.
	Bin string

	// Stealth opens pages with anti bot-detection patches applied
	Stealth bool

	// NoSandbox disables the Chrome sandbox (needed when running as root in containers)
	NoSandbox bool
}

type rodDriver struct {
	opts RodOptions
}

// NewRodDriver returns a Driver that launches Chrome directly over CDP.
// There is no separate driver process; each browser is its own launcher.
func NewRodDriver(opts RodOptions) Driver {
	return &rodDriver{opts: opts}
}

func (d *rodDriver) Start(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &rodEngine{opts: d.opts}, nil
}

type rodEngine struct {
	opts RodOptions
}

func (e *rodEngine) launcher(headless bool) *launcher.Launcher {
	l := launcher.New().
		Headless(headless).
		Set("disable-dev-shm-usage")

	if e.opts.Bin != "" {
		l = l.Bin(e.opts.Bin)
	}
	if e.opts.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if e.opts.NoSandbox {
		l = l.Set("no-sandbox")
	}
	return l
}

func (e *rodEngine) connect(l *launcher.Launcher) (*rod.Browser, error) {
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	return b, nil
}

func (e *rodEngine) Launch(opts LaunchOptions) (Browser, error) {
	l := e.launcher(opts.Headless)
	b, err := e.connect(l)
	if err != nil {
		return nil, err
	}
	return &rodBrowser{browser: b, launcher: l, stealth: e.opts.Stealth}, nil
}

func (e *rodEngine) LaunchPersistentContext(userDataDir string, opts LaunchOptions, ctxOpts ContextOptions) (BrowserContext, error) {
	l := e.launcher(opts.Headless).UserDataDir(userDataDir)
	b, err := e.connect(l)
	if err != nil {
		return nil, err
	}

	// The profile lives in userDataDir, so the launcher's Cleanup (which
	// deletes the data dir) must not run here
	return &rodContext{
		browser:   b,
		userAgent: ctxOpts.UserAgent,
		stealth:   e.opts.Stealth,
		close:     b.Close,
	}, nil
}

func (e *rodEngine) Stop() error {
	return nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	stealth  bool
}

func (b *rodBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create incognito context: %w", err)
	}
	return &rodContext{
		browser:   incognito,
		userAgent: opts.UserAgent,
		stealth:   b.stealth,
		close:     incognito.Close,
	}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodContext struct {
	browser   *rod.Browser
	userAgent string
	stealth   bool
	close     func() error
}

func (c *rodContext) Pages() ([]Page, error) {
	pages, err := c.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		if err := c.applyUserAgent(p); err != nil {
			return nil, err
		}
		out = append(out, &rodPage{page: p})
	}
	return out, nil
}

func (c *rodContext) NewPage() (Page, error) {
	var (
		p   *rod.Page
		err error
	)
	if c.stealth {
		p, err = stealth.Page(c.browser)
	} else {
		p, err = c.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := c.applyUserAgent(p); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &rodPage{page: p}, nil
}

func (c *rodContext) applyUserAgent(p *rod.Page) error {
	if c.userAgent == "" {
		return nil
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: c.userAgent}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}
	return nil
}

func (c *rodContext) Close() error {
	return c.close()
}

type rodPage struct {
	page *rod.Page
}

func (r *rodPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return rodErr(err)
	}
	return rodErr(p.WaitLoad())
}

func (r *rodPage) Title(ctx context.Context) (string, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", rodErr(err)
	}
	return info.Title, nil
}

func (r *rodPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return rodErr(err)
	}
	return rodErr(el.Click(proto.InputMouseButtonLeft, 1))
}

func (r *rodPage) Fill(ctx context.Context, selector, text string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return rodErr(err)
	}
	if err := el.SelectAllText(); err != nil {
		return rodErr(err)
	}
	if text == "" {
		return rodErr(el.Type(input.Backspace))
	}
	return rodErr(el.Input(text))
}

func (r *rodPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	p := r.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	_, err := p.Element(selector)
	return rodErr(err)
}

func (r *rodPage) QuerySelectorAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, rodErr(err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (r *rodPage) Screenshot(ctx context.Context, path string) error {
	data, err := r.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return rodErr(err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *rodPage) Close() error {
	return r.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) InnerText(ctx context.Context) (string, error) {
	text, err := e.el.Context(ctx).Text()
	return text, rodErr(err)
}

// rodErr marks exceeded page deadlines as ErrTimeout.
func rodErr(err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return markTimeout(err)
	}
	return err
}
