package enhance

import "strings"

// classifierRule pairs a category with the keywords that select it.
// Rules are evaluated in declaration order and the first rule with any
// matching keyword wins; match count never breaks ties.
type classifierRule struct {
	category Category
	keywords []string
}

// classifierRules is the priority-ordered classification table. More
// specific intents come before broader ones so that, for example, a
// request to write tests for a UI lands on test automation rather than
// on components.
var classifierRules = []classifierRule{
	{CategoryTestAutomation, []string{
		"e2e", "end-to-end", "playwright", "test", "tests", "testing",
		"qa", "regression", "browser automation", "selenium", "coverage",
	}},
	{CategoryUIComponent, []string{
		"component", "ui", "button", "form", "frontend", "css", "react",
		"design system", "layout", "responsive", "accessibility",
	}},
	{CategoryTechnicalLookup, []string{
		"documentation", "docs", "api reference", "library", "how do i",
		"syntax", "sdk", "changelog", "version",
	}},
	{CategoryStrategicAnalysis, []string{
		"strategy", "strategic", "roadmap", "trade-off", "tradeoff",
		"architecture", "analyze", "prioritize", "org design", "okr",
		"stakeholder", "headcount", "reorg", "migration plan",
	}},
}

// Classify maps free-text input to a Category. Single-word keywords
// match whole tokens (so "latest" never triggers "test"); multi-word
// keywords match as case-insensitive substrings. Unmatched input yields
// CategoryGeneral. Pure function, no I/O.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	tokens := tokenSet(lower)

	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if matchKeyword(lower, tokens, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

func matchKeyword(lower string, tokens map[string]struct{}, kw string) bool {
	if strings.ContainsAny(kw, " -") {
		return strings.Contains(lower, kw)
	}
	_, ok := tokens[kw]
	return ok
}

// tokenSet splits lowercased text on anything that is not a letter or
// digit, which strips surrounding punctuation from each word.
func tokenSet(lower string) map[string]struct{} {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
