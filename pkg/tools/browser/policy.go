package browser

import (
	"fmt"

	"github.com/gobwas/glob"
)

// URLPolicy decides which URLs navigate may load.
// Patterns are globs over the full URL with no separators, so
// "https://*.example.com/*" matches any path on any subdomain.
type URLPolicy struct {
	allowed []glob.Glob
	blocked []glob.Glob
}

// NewURLPolicy compiles allow and block patterns.
func NewURLPolicy(allowed, blocked []string) (*URLPolicy, error) {
	p := &URLPolicy{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed URL pattern '%s': %w", pattern, err)
		}
		p.allowed = append(p.allowed, g)
	}

	for _, pattern := range blocked {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked URL pattern '%s': %w", pattern, err)
		}
		p.blocked = append(p.blocked, g)
	}

	return p, nil
}

// Allows reports whether url may be loaded. Blocked patterns win; with no
// allowed patterns everything not blocked is allowed.
func (p *URLPolicy) Allows(url string) bool {
	if p == nil {
		return true
	}

	for _, g := range p.blocked {
		if g.Match(url) {
			return false
		}
	}

	if len(p.allowed) == 0 {
		return true
	}

	for _, g := range p.allowed {
		if g.Match(url) {
			return true
		}
	}
	return false
}
