package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// fakeDriver is an in-memory engine that serves HTML fixtures.
//
// Fixture conventions:
//   - data-stuck: the element never becomes actionable (click/fill time out)
//   - data-set-cookie="k=v": clicking sets a cookie in the context
//   - data-vanish: the element is detached right after a selector wait resolves
//   - <title data-logged-in="…">: title used when the "session" cookie is set
type fakeDriver struct {
	mu   sync.Mutex
	site map[string]string

	// hang lists URLs whose navigation never completes
	hang map[string]bool

	// Injected failures, consumed on use
	startErr   error
	launchErr  error
	newPageErr error
	pagesErr   error

	// preexistingPages is the number of pages a persistent context opens with
	preexistingPages int

	starts             int
	launches           int
	persistentLaunches int
	contexts           int
	pagesOpened        int
	closed             []string
}

const blankHTML = `<html><head><title></title></head><body></body></html>`

func newFakeDriver(site map[string]string) *fakeDriver {
	return &fakeDriver{site: site, hang: map[string]bool{}}
}

func (d *fakeDriver) record(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = append(d.closed, name)
}

func (d *fakeDriver) Start(ctx context.Context) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.startErr; err != nil {
		d.startErr = nil
		return nil, err
	}
	d.starts++
	return &fakeEngine{driver: d}, nil
}

type fakeEngine struct {
	driver *fakeDriver
}

func (e *fakeEngine) Launch(opts LaunchOptions) (Browser, error) {
	if err := e.driver.launchErr; err != nil {
		e.driver.launchErr = nil
		return nil, err
	}
	e.driver.launches++
	return &fakeBrowser{driver: e.driver, headless: opts.Headless}, nil
}

func (e *fakeEngine) LaunchPersistentContext(userDataDir string, opts LaunchOptions, ctxOpts ContextOptions) (BrowserContext, error) {
	if err := e.driver.launchErr; err != nil {
		e.driver.launchErr = nil
		return nil, err
	}

	cookies, err := loadFakeProfile(userDataDir)
	if err != nil {
		return nil, err
	}

	e.driver.persistentLaunches++
	c := &fakeContext{driver: e.driver, userAgent: ctxOpts.UserAgent, cookies: cookies, profileDir: userDataDir}
	for i := 0; i < e.driver.preexistingPages; i++ {
		c.pages = append(c.pages, newFakePage(c))
	}
	return c, nil
}

func (e *fakeEngine) Stop() error {
	e.driver.record(resourceEngine)
	return nil
}

type fakeBrowser struct {
	driver   *fakeDriver
	headless bool
}

func (b *fakeBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	b.driver.contexts++
	return &fakeContext{driver: b.driver, userAgent: opts.UserAgent, cookies: map[string]string{}}, nil
}

func (b *fakeBrowser) Close() error {
	b.driver.record(resourceBrowser)
	return nil
}

type fakeContext struct {
	driver     *fakeDriver
	userAgent  string
	cookies    map[string]string
	profileDir string
	pages      []Page
}

func (c *fakeContext) Pages() ([]Page, error) {
	if err := c.driver.pagesErr; err != nil {
		c.driver.pagesErr = nil
		return nil, err
	}
	return c.pages, nil
}

func (c *fakeContext) NewPage() (Page, error) {
	if err := c.driver.newPageErr; err != nil {
		c.driver.newPageErr = nil
		return nil, err
	}
	c.driver.pagesOpened++
	p := newFakePage(c)
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *fakeContext) Close() error {
	c.driver.record(resourceContext)
	if c.profileDir != "" {
		return saveFakeProfile(c.profileDir, c.cookies)
	}
	return nil
}

func fakeProfilePath(dir string) string {
	return filepath.Join(dir, "fake-cookies.json")
}

func loadFakeProfile(dir string) (map[string]string, error) {
	cookies := map[string]string{}
	data, err := os.ReadFile(fakeProfilePath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return cookies, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

func saveFakeProfile(dir string, cookies map[string]string) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return os.WriteFile(fakeProfilePath(dir), data, 0o600)
}

type fakePage struct {
	context *fakeContext
	doc     *goquery.Document
	url     string
	closed  bool
}

func newFakePage(c *fakeContext) *fakePage {
	doc, _ := parseFixture(blankHTML)
	return &fakePage{context: c, doc: doc, url: "about:blank"}
}

// parseFixture builds a full document tree the way a browser would, so
// fragments gain the implied html, head and body elements.
func parseFixture(src string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

var errTargetClosed = errors.New("Target page, context or browser has been closed")

func fakeTimeout(timeout time.Duration, what string) error {
	return markTimeout(fmt.Errorf("Timeout %dms exceeded.\n%s", timeout.Milliseconds(), what))
}

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if p.closed {
		return errTargetClosed
	}
	if p.context.driver.hang[url] {
		return fakeTimeout(timeout, fmt.Sprintf("navigating to %q, waiting until \"load\"", url))
	}
	src, found := p.context.driver.site[url]
	if !found {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	doc, err := parseFixture(src)
	if err != nil {
		return err
	}
	p.doc = doc
	p.url = url
	return nil
}

func (p *fakePage) Title(ctx context.Context) (string, error) {
	if p.closed {
		return "", errTargetClosed
	}
	title := p.doc.Find("title").First()
	if loggedIn, ok := title.Attr("data-logged-in"); ok && p.context.cookies["session"] != "" {
		return loggedIn, nil
	}
	return title.Text(), nil
}

func (p *fakePage) find(selector string) (*goquery.Selection, error) {
	if p.closed {
		return nil, errTargetClosed
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("SyntaxError: Failed to execute 'querySelectorAll' on 'Document': '%s' is not a valid selector.", selector)
	}
	return p.doc.FindMatcher(sel), nil
}

// actionable returns the first match, or a timeout if there is none or it is stuck.
func (p *fakePage) actionable(selector string, timeout time.Duration) (*goquery.Selection, error) {
	matches, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	first := matches.First()
	if first.Length() == 0 {
		return nil, fakeTimeout(timeout, fmt.Sprintf("waiting for locator('%s')", selector))
	}
	if _, stuck := first.Attr("data-stuck"); stuck {
		return nil, fakeTimeout(timeout, fmt.Sprintf("waiting for locator('%s') to be enabled", selector))
	}
	return first, nil
}

func (p *fakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := p.actionable(selector, timeout)
	if err != nil {
		return err
	}
	if cookie, ok := el.Attr("data-set-cookie"); ok {
		name, value, _ := strings.Cut(cookie, "=")
		p.context.cookies[name] = value
	}
	return nil
}

func (p *fakePage) Fill(ctx context.Context, selector, text string, timeout time.Duration) error {
	el, err := p.actionable(selector, timeout)
	if err != nil {
		return err
	}
	switch goquery.NodeName(el) {
	case "input", "textarea":
		el.SetAttr("value", text)
		return nil
	default:
		return errors.New("Element is not an <input>, <textarea> or <select> element")
	}
}

func (p *fakePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	matches, err := p.find(selector)
	if err != nil {
		return err
	}
	if matches.Length() == 0 {
		return fakeTimeout(timeout, fmt.Sprintf("waiting for locator('%s') to be visible", selector))
	}
	matches.Filter("[data-vanish]").Remove()
	return nil
}

func (p *fakePage) QuerySelectorAll(ctx context.Context, selector string) ([]Element, error) {
	matches, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, fakeElement{sel: s})
	})
	return out, nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string) error {
	if p.closed {
		return errTargetClosed
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1)))
}

func (p *fakePage) Close() error {
	p.closed = true
	p.context.driver.record(resourcePage)
	return nil
}

type fakeElement struct {
	sel *goquery.Selection
}

func (e fakeElement) InnerText(ctx context.Context) (string, error) {
	return e.sel.Text(), nil
}

// recordLogger keeps every line it is given.
type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) add(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, v...))
}

func (l *recordLogger) Debugf(format string, v ...interface{}) { l.add("DEBUG", format, v...) }
func (l *recordLogger) Infof(format string, v ...interface{})  { l.add("INFO", format, v...) }
func (l *recordLogger) Warnf(format string, v ...interface{})  { l.add("WARN", format, v...) }
func (l *recordLogger) Errorf(format string, v ...interface{}) { l.add("ERROR", format, v...) }

func (l *recordLogger) contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
