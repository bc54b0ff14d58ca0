package persona

import (
	"sort"
	"strings"
)

// Framework is a named strategic framework with the keywords that make
// it relevant to a question.
type Framework struct {
	Name        string
	Description string
	keywords    []string
}

// frameworkTable is the declarative scoring table. Unlike the query
// classifier, every matching keyword counts: frameworks are ranked by
// match count, not first-match-wins.
var frameworkTable = []Framework{
	{
		Name:        "SWOT",
		Description: "strengths, weaknesses, opportunities, threats",
		keywords:    []string{"swot", "strength", "weakness", "opportunity", "threat", "assessment", "position"},
	},
	{
		Name:        "OKR",
		Description: "objectives and key results",
		keywords:    []string{"okr", "objective", "goal", "metric", "quarter", "target", "align"},
	},
	{
		Name:        "RACI",
		Description: "responsible, accountable, consulted, informed",
		keywords:    []string{"raci", "ownership", "accountable", "responsibility", "decision", "stakeholder"},
	},
	{
		Name:        "Team Topologies",
		Description: "team structures and interaction modes",
		keywords:    []string{"team", "topology", "platform", "stream", "cognitive load", "reorg", "org"},
	},
	{
		Name:        "DORA Metrics",
		Description: "delivery performance measurement",
		keywords:    []string{"dora", "deploy", "lead time", "mttr", "delivery", "velocity", "throughput"},
	},
	{
		Name:        "Eisenhower Matrix",
		Description: "urgency/importance prioritization",
		keywords:    []string{"prioritize", "urgent", "important", "time management", "focus", "backlog"},
	},
}

// Suggest returns up to max frameworks relevant to the query, ranked by
// keyword match count with ties broken by table order. Queries matching
// nothing get no suggestions.
func Suggest(query string, max int) []Framework {
	if max <= 0 {
		max = 2
	}
	lower := strings.ToLower(query)

	type scored struct {
		fw    Framework
		score int
		order int
	}
	var hits []scored
	for i, fw := range frameworkTable {
		score := 0
		for _, kw := range fw.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{fw: fw, score: score, order: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	if len(hits) > max {
		hits = hits[:max]
	}
	out := make([]Framework, len(hits))
	for i, h := range hits {
		out[i] = h.fw
	}
	return out
}
