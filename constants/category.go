package constants

import (
	"strings"
)

// Category is the classified document type for planning assessment purposes.
type Category string

const (
	ApplicationForm       Category = "application_form"
	SitePlan              Category = "site_plan"
	BlockPlan             Category = "block_plan"
	LocationPlan          Category = "location_plan"
	FloorPlan             Category = "floor_plan"
	Elevation             Category = "elevation"
	SectionDrawing        Category = "section_drawing"
	RoofPlan              Category = "roof_plan"
	DesignAccessStatement Category = "design_access_statement"
	HeritageStatement     Category = "heritage_statement"
	PlanningStatement     Category = "planning_statement"
	FloodRiskAssessment   Category = "flood_risk_assessment"
	EcologyReport         Category = "ecology_report"
	TransportAssessment   Category = "transport_assessment"
	ArboriculturalReport  Category = "arboricultural_report"
	NoiseAssessment       Category = "noise_assessment"
	BNGReport             Category = "bng_report"
	ContaminationReport   Category = "contamination_report"
	EnergyStatement       Category = "energy_statement"
	StructuralReport      Category = "structural_report"
	DrainageStrategy      Category = "drainage_strategy"
	CoverLetter           Category = "cover_letter"
	Photograph            Category = "photograph"
	Other                 Category = "other"
)

var allCategories = []Category{
	ApplicationForm,
	SitePlan,
	BlockPlan,
	LocationPlan,
	FloorPlan,
	Elevation,
	SectionDrawing,
	RoofPlan,
	DesignAccessStatement,
	HeritageStatement,
	PlanningStatement,
	FloodRiskAssessment,
	EcologyReport,
	TransportAssessment,
	ArboriculturalReport,
	NoiseAssessment,
	BNGReport,
	ContaminationReport,
	EnergyStatement,
	StructuralReport,
	DrainageStrategy,
	CoverLetter,
	Photograph,
	Other,
}

// PlanCategories are the drawing-type categories.
var PlanCategories = map[Category]struct{}{
	SitePlan:       {},
	BlockPlan:      {},
	LocationPlan:   {},
	FloorPlan:      {},
	Elevation:      {},
	SectionDrawing: {},
	RoofPlan:       {},
}

// StatementCategories are the written statements an officer cites.
var StatementCategories = map[Category]struct{}{
	DesignAccessStatement: {},
	HeritageStatement:     {},
	PlanningStatement:     {},
}

// IsPlan reports whether c is in PlanCategories.
func (c Category) IsPlan() bool {
	_, ok := PlanCategories[c]
	return ok
}

// IsStatement reports whether c is in StatementCategories.
func (c Category) IsStatement() bool {
	_, ok := StatementCategories[c]
	return ok
}

// IsKeyDocument reports whether c is a plan or a statement.
func (c Category) IsKeyDocument() bool {
	return c.IsPlan() || c.IsStatement()
}

// Label returns the category with underscores as spaces, e.g. "site plan".
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a stored or user-supplied value back to a Category.
// Unknown values map to Other with ok=false.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	// synonyms map
	synonyms := map[string]Category{
		"das":                   DesignAccessStatement,
		"design_and_access":     DesignAccessStatement,
		"fra":                   FloodRiskAssessment,
		"biodiversity_net_gain": BNGReport,
		"sections":              SectionDrawing,
		"elevations":            Elevation,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Other, false
}
