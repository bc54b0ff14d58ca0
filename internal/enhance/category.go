package enhance

// Category is a coarse classification label derived from query text,
// used to select an enhancement backend.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryStrategicAnalysis
	CategoryTechnicalLookup
	CategoryUIComponent
	CategoryTestAutomation
)

func (c Category) String() string {
	switch c {
	case CategoryStrategicAnalysis:
		return "strategic_analysis"
	case CategoryTechnicalLookup:
		return "technical_lookup"
	case CategoryUIComponent:
		return "ui_component"
	case CategoryTestAutomation:
		return "test_automation"
	default:
		return "general"
	}
}

// ParseCategory maps a config-file category name to a Category. Unknown
// names report false.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "strategic_analysis":
		return CategoryStrategicAnalysis, true
	case "technical_lookup":
		return CategoryTechnicalLookup, true
	case "ui_component":
		return CategoryUIComponent, true
	case "test_automation":
		return CategoryTestAutomation, true
	case "general":
		return CategoryGeneral, true
	default:
		return CategoryGeneral, false
	}
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryStrategicAnalysis,
		CategoryTechnicalLookup,
		CategoryUIComponent,
		CategoryTestAutomation,
	}
}
