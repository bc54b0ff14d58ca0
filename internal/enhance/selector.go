package enhance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoBackend means no backend is registered for a category.
	ErrNoBackend = errors.New("no backend registered for category")

	// ErrNoFallback means a backend has no configured fallback. The
	// dispatcher treats a primary failure on such a backend as terminal
	// rather than guessing a default.
	ErrNoFallback = errors.New("no fallback configured for backend")
)

// Selector maps categories to primary backends and backends to their
// designated fallbacks. Both tables are static configuration resolved at
// startup; unknown combinations are a construction error, never a
// request-time surprise.
type Selector struct {
	primaries map[Category]string
	fallbacks map[string]string
}

// SelectorConfig describes one backend's registration.
type SelectorConfig struct {
	Backend    string
	Categories []Category
	Fallback   string // empty = no fallback
}

// NewSelector validates the registrations and builds the lookup tables.
// Every category must be claimed by exactly one backend, CategoryGeneral
// included, and every fallback target must itself be a registered
// backend. The fallback graph is not required to be symmetric or acyclic.
func NewSelector(configs []SelectorConfig) (*Selector, error) {
	s := &Selector{
		primaries: make(map[Category]string),
		fallbacks: make(map[string]string),
	}

	var errs []string
	known := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if cfg.Backend == "" {
			errs = append(errs, "backend id is required")
			continue
		}
		if known[cfg.Backend] {
			errs = append(errs, fmt.Sprintf("duplicate backend %q", cfg.Backend))
			continue
		}
		known[cfg.Backend] = true

		for _, cat := range cfg.Categories {
			if prev, ok := s.primaries[cat]; ok {
				errs = append(errs, fmt.Sprintf(
					"category %s claimed by both %q and %q", cat, prev, cfg.Backend))
				continue
			}
			s.primaries[cat] = cfg.Backend
		}
		if cfg.Fallback != "" {
			s.fallbacks[cfg.Backend] = cfg.Fallback
		}
	}

	for backend, fb := range s.fallbacks {
		if !known[fb] {
			errs = append(errs, fmt.Sprintf(
				"backend %q falls back to unregistered backend %q", backend, fb))
		}
	}
	for _, cat := range Categories() {
		if _, ok := s.primaries[cat]; !ok {
			errs = append(errs, fmt.Sprintf("category %s has no primary backend", cat))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("selector config: %s", strings.Join(errs, "; "))
	}
	return s, nil
}

// Primary returns the backend designated for a category.
func (s *Selector) Primary(cat Category) (string, error) {
	backend, ok := s.primaries[cat]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoBackend, cat)
	}
	return backend, nil
}

// Fallback returns the designated fallback for a backend.
// Fallback(Fallback(b)) need not equal b.
func (s *Selector) Fallback(backend string) (string, error) {
	fb, ok := s.fallbacks[backend]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoFallback, backend)
	}
	return fb, nil
}

// Backends returns the registered backend IDs in sorted order.
func (s *Selector) Backends() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range s.primaries {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	for b, fb := range s.fallbacks {
		for _, id := range []string{b, fb} {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}
