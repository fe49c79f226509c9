package browser

import (
	"context"
	"strings"
	"time"
)

// validate checks action-specific required fields and the URL policy.
// It runs before the session is touched. bad is true when res must be
// returned as-is.
func (s *Session) validate(req Request) (res Result, bad bool) {
	switch req.Action {
	case ActionNavigate:
		if req.URL == "" {
			return missingParam(req.Action, "url"), true
		}
		if !s.opts.Policy.Allows(req.URL) {
			return invalid(req.Action, "navigation to '%s' blocked by URL policy", req.URL), true
		}
	case ActionClick, ActionExtract:
		if req.Selector == "" {
			return missingParam(req.Action, "selector"), true
		}
	case ActionFill:
		if req.Selector == "" {
			return missingParam(req.Action, "selector"), true
		}
		if req.Text == nil {
			return missingParam(req.Action, "text"), true
		}
	case ActionScreenshot:
	default:
		return invalid(req.Action, "Unknown action '%s'", req.Action), true
	}
	return Result{}, false
}

// dispatch routes a validated request to its page operation.
func (s *Session) dispatch(ctx context.Context, req Request) Result {
	timeout := req.timeout(s.opts.DefaultWaitTimeout)

	switch req.Action {
	case ActionNavigate:
		return s.navigate(ctx, req, timeout)
	case ActionClick:
		if err := s.page.Click(ctx, req.Selector, timeout); err != nil {
			return failure(req.Action, err)
		}
		return success(req.Action, "Clicked element: %s", req.Selector)
	case ActionFill:
		if err := s.page.Fill(ctx, req.Selector, *req.Text, timeout); err != nil {
			return failure(req.Action, err)
		}
		return success(req.Action, "Filled '%s' with text", req.Selector)
	case ActionExtract:
		return s.extract(ctx, req, timeout)
	case ActionScreenshot:
		return s.screenshot(ctx, req)
	}
	return invalid(req.Action, "Unknown action '%s'", req.Action)
}

func (s *Session) navigate(ctx context.Context, req Request, timeout time.Duration) Result {
	if err := s.page.Goto(ctx, req.URL, timeout); err != nil {
		return failure(req.Action, err)
	}
	title, err := s.page.Title(ctx)
	if err != nil {
		return failure(req.Action, err)
	}
	return success(req.Action, "Navigated to '%s' (%s)", title, req.URL)
}

// extract waits for the selector, then reads the inner text of at most
// MaxExtractElements matches.
func (s *Session) extract(ctx context.Context, req Request, timeout time.Duration) Result {
	if err := s.page.WaitForSelector(ctx, req.Selector, timeout); err != nil {
		return failure(req.Action, err)
	}

	elements, err := s.page.QuerySelectorAll(ctx, req.Selector)
	if err != nil {
		return failure(req.Action, err)
	}
	if len(elements) > MaxExtractElements {
		elements = elements[:MaxExtractElements]
	}

	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := el.InnerText(ctx)
		if err != nil {
			return failure(req.Action, err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}

	if len(texts) == 0 {
		return success(req.Action, "No elements found matching: %s", req.Selector)
	}
	return success(req.Action, "Extracted %d element(s):\n%s", len(texts), strings.Join(texts, "\n---\n"))
}

func (s *Session) screenshot(ctx context.Context, req Request) Result {
	path := req.ScreenshotPath
	if path == "" {
		path = s.opts.DefaultScreenshotPath
	}
	if err := s.page.Screenshot(ctx, path); err != nil {
		return failure(req.Action, err)
	}
	return success(req.Action, "Screenshot saved to: %s", path)
}
