package browser

import (
	"errors"
	"fmt"
)

// handle is one owned resource and the function that releases it.
type handle struct {
	name    string
	release func() error
}

// handles is a stack of owned resources in acquisition order.
// Releasing walks it backwards so dependents close before what they depend on.
type handles struct {
	held []handle
}

// hold records a resource; release must be safe to call exactly once.
func (h *handles) hold(name string, release func() error) {
	h.held = append(h.held, handle{name: name, release: release})
}

// names lists held resources in acquisition order.
func (h *handles) names() []string {
	out := make([]string, len(h.held))
	for i, r := range h.held {
		out[i] = r.name
	}
	return out
}

// releaseAll releases every held resource, newest first, and empties the
// stack even when some releases fail.
func (h *handles) releaseAll() error {
	var errs []error
	for i := len(h.held) - 1; i >= 0; i-- {
		r := h.held[i]
		if err := r.release(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", r.name, err))
		}
	}
	h.held = nil
	return errors.Join(errs...)
}
