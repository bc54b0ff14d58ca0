package enhance

import (
	"fmt"
	"strings"
)

// disclosureLabels maps known backends to the human-readable phrasing
// used in disclosure lines. Unknown backends fall back to a generic line.
var disclosureLabels = map[string]string{
	"sequential": "multi-step reasoning analysis",
	"context7":   "library documentation lookup",
	"magic":      "UI component generation",
	"playwright": "browser test automation",
}

// DegradedNotice is appended to the disclosure whenever any attempt in
// the ledger failed. Failures are never silently dropped.
const DegradedNotice = "Some enhancements were unavailable for this response; it may be less detailed than usual."

// RenderDisclosure builds the user-facing summary of which backends were
// actually used for one request. Successful calls are deduplicated by
// (backend, capability) and joined with " + "; a ledger containing any
// failure gets the degraded notice appended on its own line. Pure string
// construction: the ledger is never mutated.
func RenderDisclosure(records []CallRecord) string {
	type pair struct{ backend, capability string }

	seen := make(map[pair]bool)
	var lines []string
	failed := false

	for _, rec := range records {
		if !rec.Success {
			failed = true
			continue
		}
		p := pair{rec.Backend, rec.Capability}
		if seen[p] {
			continue
		}
		seen[p] = true
		lines = append(lines, disclosureLine(rec))
	}

	var b strings.Builder
	if len(lines) > 0 {
		b.WriteString("Enhanced with ")
		b.WriteString(strings.Join(lines, " + "))
	}
	if failed {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(DegradedNotice)
	}
	return b.String()
}

func disclosureLine(rec CallRecord) string {
	label, ok := disclosureLabels[rec.Backend]
	if !ok {
		label = fmt.Sprintf("%s (%s)", rec.Backend, rec.Capability)
	}
	if rec.Cached {
		return label + " (cached)"
	}
	return label
}
