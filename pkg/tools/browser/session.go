package browser

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized means no resource has been acquired yet
	StateUninitialized State = iota

	// StateReady means engine, context and page are held
	StateReady

	// StateClosed means Cleanup released everything; the next action re-enters Ready
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resource names held by a session, in acquisition order.
const (
	resourceEngine  = "engine"
	resourceBrowser = "browser"
	resourceContext = "context"
	resourcePage    = "page"
)

// Session is a long-lived browser session: one engine, one browser process,
// one context and one tracked page, created lazily on the first action and
// reused until Cleanup.
//
// Execute and Cleanup are serialized; a session drives a single page and
// actions never interleave.
type Session struct {
	mu     sync.Mutex
	driver Driver
	opts   Options
	state  State
	held   handles

	engine  Engine
	browser Browser
	context BrowserContext
	page    Page
}

// NewSession creates a session that starts engines through driver.
// No resources are acquired until the first action.
func NewSession(driver Driver, opts Options) *Session {
	return &Session{
		driver: driver,
		opts:   opts.withDefaults(),
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Options returns the session's effective options.
func (s *Session) Options() Options {
	return s.opts
}

// Persistent reports whether the session is backed by an on-disk profile.
func (s *Session) Persistent() bool {
	return s.opts.UserDataDir != ""
}

// Execute validates and runs one action. It never returns an error. Every
// failure is reported through the Result.
func (s *Session) Execute(ctx context.Context, req Request) Result {
	if res, bad := s.validate(req); bad {
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(ctx); err != nil {
		s.opts.Logger.Errorf("browser tool error: %v", err)
		return failure(req.Action, err)
	}

	res := s.dispatch(ctx, req)
	switch res.Kind {
	case KindEngine:
		s.opts.Logger.Errorf("browser tool error: %v", res.Err())
	case KindTimeout:
		s.opts.Logger.Warnf("%s timed out: %v", req.Action, res.Err())
	default:
		s.opts.Logger.Debugf("%s: %s", req.Action, res.Message)
	}
	return res
}

// ensureReady acquires whatever is missing so that a page can be driven.
// Ready is a no-op. On failure every handle acquired by this call is
// released and the state is left as it was, so the next call retries.
func (s *Session) ensureReady(ctx context.Context) error {
	if s.state == StateReady {
		return nil
	}
	if s.state == StateClosed {
		s.opts.Logger.Infof("reinitializing browser after cleanup")
	}

	if err := s.acquire(ctx); err != nil {
		if releaseErr := s.release(); releaseErr != nil {
			s.opts.Logger.Warnf("releasing partially initialized browser: %v", releaseErr)
		}
		return err
	}

	s.state = StateReady
	s.opts.Logger.Infof("browser initialized (persistent: %v)", s.Persistent())
	return nil
}

func (s *Session) acquire(ctx context.Context) error {
	engine, err := s.driver.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser engine: %w", err)
	}
	s.engine = engine
	s.held.hold(resourceEngine, engine.Stop)

	launch := LaunchOptions{Headless: s.opts.Headless}
	ctxOpts := ContextOptions{UserAgent: s.opts.UserAgent}

	if s.Persistent() {
		// The persistent context owns its own browser process
		bctx, err := engine.LaunchPersistentContext(s.opts.UserDataDir, launch, ctxOpts)
		if err != nil {
			return fmt.Errorf("failed to launch persistent context in %s: %w", s.opts.UserDataDir, err)
		}
		s.context = bctx
		s.held.hold(resourceContext, bctx.Close)

		pages, err := bctx.Pages()
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		if len(pages) > 0 {
			s.page = pages[0]
			s.held.hold(resourcePage, s.page.Close)
		}
	} else {
		browser, err := engine.Launch(launch)
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		s.browser = browser
		s.held.hold(resourceBrowser, browser.Close)

		bctx, err := browser.NewContext(ctxOpts)
		if err != nil {
			return fmt.Errorf("failed to create browser context: %w", err)
		}
		s.context = bctx
		s.held.hold(resourceContext, bctx.Close)
	}

	if s.page == nil {
		page, err := s.context.NewPage()
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		s.page = page
		s.held.hold(resourcePage, page.Close)
	}

	return nil
}

// release drops every held handle and forgets the references.
func (s *Session) release() error {
	err := s.held.releaseAll()
	s.engine = nil
	s.browser = nil
	s.context = nil
	s.page = nil
	return err
}

// Cleanup releases page, context, browser and engine, in that order,
// skipping whatever was never acquired. It is safe before the first action
// and after a failed initialization. Errors from individual closes are
// joined and returned; the session is reset regardless.
func (s *Session) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && len(s.held.held) == 0 {
		return nil
	}

	released := s.held.names()
	slices.Reverse(released)

	err := s.release()
	s.state = StateClosed
	if err != nil {
		s.opts.Logger.Warnf("browser cleanup finished with errors: %v", err)
		return err
	}
	s.opts.Logger.Infof("browser cleaned up (released %s)", strings.Join(released, ", "))
	return nil
}
