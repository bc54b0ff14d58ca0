// Package persona renders coaching replies in the voice of a fixed set
// of engineering-leadership personas and suggests strategic frameworks
// matched to the question.
package persona

import (
	"fmt"
	"sort"
	"strings"
)

// Persona describes one coaching voice.
type Persona struct {
	ID      string
	Title   string
	Tagline string
}

// personas is the fixed registry, keyed by ID. "mentor" is the default.
var personas = map[string]Persona{
	"mentor": {
		ID:      "mentor",
		Title:   "Engineering Mentor",
		Tagline: "practical guidance for day-to-day leadership",
	},
	"strategist": {
		ID:      "strategist",
		Title:   "Technology Strategist",
		Tagline: "long-horizon bets, portfolios and trade-offs",
	},
	"architect": {
		ID:      "architect",
		Title:   "Principal Architect",
		Tagline: "systems, boundaries and technical debt",
	},
	"director": {
		ID:      "director",
		Title:   "Engineering Director",
		Tagline: "organization design, hiring and delivery",
	},
}

// DefaultID is the persona used when the caller does not name one.
const DefaultID = "mentor"

// Lookup resolves a persona ID, falling back to the default for unknown
// or empty IDs.
func Lookup(id string) Persona {
	if p, ok := personas[strings.ToLower(strings.TrimSpace(id))]; ok {
		return p
	}
	return personas[DefaultID]
}

// IDs returns the registered persona IDs in sorted order.
func IDs() []string {
	out := make([]string, 0, len(personas))
	for id := range personas {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Render formats a reply body in the persona's voice: a header, optional
// framework suggestions, the body, and the disclosure footer when one
// exists.
func Render(p Persona, body string, frameworks []Framework, disclosure string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n_%s_\n\n", p.Title, p.Tagline)

	if len(frameworks) > 0 {
		b.WriteString("**Frameworks to consider:** ")
		names := make([]string, len(frameworks))
		for i, f := range frameworks {
			names[i] = f.Name
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString(strings.TrimSpace(body))

	if disclosure != "" {
		b.WriteString("\n\n---\n")
		b.WriteString(disclosure)
	}
	return b.String()
}
