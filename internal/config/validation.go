package config

import (
	"fmt"
	"strings"

	"github.com/crestline/mentor/internal/enhance"
)

// ValidationError holds all validation failures for a config file.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Errors, "; "))
}

// validate checks the parsed config for correctness. All failures are
// collected so a broken file is reported in one pass at startup.
func validate(cfg *File) error {
	var errs []string

	ids := make(map[string]bool, len(cfg.Backends))
	for i, b := range cfg.Backends {
		if b.ID == "" {
			errs = append(errs, fmt.Sprintf("backends[%d]: id is required", i))
			continue
		}
		if ids[b.ID] {
			errs = append(errs, fmt.Sprintf("backends[%d]: duplicate id %q", i, b.ID))
		}
		ids[b.ID] = true

		if err := validateTransport(&b); err != nil {
			errs = append(errs, fmt.Sprintf("backends[%d] %s: %v", i, b.ID, err))
		}
		for _, cat := range b.Categories {
			if _, ok := enhance.ParseCategory(cat); !ok {
				errs = append(errs, fmt.Sprintf(
					"backends[%d] %s: unknown category %q", i, b.ID, cat))
			}
		}
	}

	for i, b := range cfg.Backends {
		if b.Fallback != "" && !ids[b.Fallback] {
			errs = append(errs, fmt.Sprintf(
				"backends[%d] %s: fallback %q is not a configured backend",
				i, b.ID, b.Fallback))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateTransport(b *BackendConfig) error {
	switch b.Transport {
	case "stdio":
		if b.Command == "" {
			return fmt.Errorf("stdio transport requires command")
		}
	case "http":
		if b.URL == "" {
			return fmt.Errorf("http transport requires url")
		}
	case "script":
		if b.ScriptPath == "" {
			return fmt.Errorf("script transport requires script_path")
		}
	default:
		return fmt.Errorf("invalid transport %q (must be stdio, http or script)", b.Transport)
	}
	return nil
}

// SelectorConfigs converts the backend registry into selector
// registrations. Category coverage itself is validated by the selector.
func (f *File) SelectorConfigs() ([]enhance.SelectorConfig, error) {
	out := make([]enhance.SelectorConfig, 0, len(f.Backends))
	for _, b := range f.Backends {
		sc := enhance.SelectorConfig{
			Backend:  b.ID,
			Fallback: b.Fallback,
		}
		for _, name := range b.Categories {
			cat, ok := enhance.ParseCategory(name)
			if !ok {
				return nil, fmt.Errorf("backend %s: unknown category %q", b.ID, name)
			}
			sc.Categories = append(sc.Categories, cat)
		}
		out = append(out, sc)
	}
	return out, nil
}
