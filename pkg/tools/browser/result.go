package browser

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind classifies the outcome of an action.
type Kind int

const (
	// KindOK is a successful action
	KindOK Kind = iota

	// KindValidation is a request rejected before the engine was touched
	KindValidation

	// KindTimeout is an engine wait that exceeded the request's wait_timeout
	KindTimeout

	// KindEngine is any other engine, launch or I/O failure
	KindEngine
)

// String returns the status name used in tool metadata.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindValidation:
		return "validation_error"
	case KindTimeout:
		return "timeout"
	case KindEngine:
		return "engine_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of one action. Message carries no "Error:" prefix;
// String renders the agent-facing text.
type Result struct {
	Kind    Kind
	Action  Action
	Message string

	// cause is the untruncated engine error, kept for logging
	cause error
}

func success(action Action, format string, args ...interface{}) Result {
	return Result{Kind: KindOK, Action: action, Message: fmt.Sprintf(format, args...)}
}

func invalid(action Action, format string, args ...interface{}) Result {
	return Result{Kind: KindValidation, Action: action, Message: fmt.Sprintf(format, args...)}
}

// missingParam is the validation result for an absent required field.
func missingParam(action Action, field string) Result {
	return invalid(action, "'%s' parameter required for %s action", field, action)
}

// failure classifies an error returned by the engine.
func failure(action Action, err error) Result {
	if errors.Is(err, ErrTimeout) {
		return Result{Kind: KindTimeout, Action: action, Message: err.Error(), cause: err}
	}
	return Result{Kind: KindEngine, Action: action, Message: truncate(err.Error(), MaxErrorMessageLength), cause: err}
}

// Err returns the engine error behind a timeout or engine result, or nil.
func (r Result) Err() error {
	return r.cause
}

// IsError reports whether the result is any kind of failure.
func (r Result) IsError() bool {
	return r.Kind != KindOK
}

// String renders the result as the plain-text contract of the tool.
func (r Result) String() string {
	switch r.Kind {
	case KindOK:
		return r.Message
	case KindTimeout:
		return fmt.Sprintf("Error: Timeout waiting for %s to complete", r.Action)
	default:
		return "Error: " + r.Message
	}
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
