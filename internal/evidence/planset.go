// Package evidence derives case-level judgements from a snapshot of a
// case's documents: plan-set completeness and evidence quality.
package evidence

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docqueue/constants"
)

// PlanSetSignals carries every source a plan-set leg can be satisfied from.
type PlanSetSignals struct {
	Categories      []constants.Category
	MetadataGuesses []string
	Filenames       []string
	DetectedLabels  []string
}

type leg struct {
	categories map[constants.Category]struct{}
	names      map[string]struct{} // metadata guesses and detected labels
	filenames  []*regexp.Regexp
}

func (l leg) satisfied(s PlanSetSignals) bool {
	for _, c := range s.Categories {
		if _, ok := l.categories[c]; ok {
			return true
		}
	}
	for _, g := range s.MetadataGuesses {
		if _, ok := l.names[strings.ToLower(strings.TrimSpace(g))]; ok {
			return true
		}
	}
	for _, fn := range s.Filenames {
		lower := strings.ToLower(fn)
		for _, re := range l.filenames {
			if re.MatchString(lower) {
				return true
			}
		}
	}
	for _, lb := range s.DetectedLabels {
		if _, ok := l.names[strings.ToLower(strings.TrimSpace(lb))]; ok {
			return true
		}
	}
	return false
}

var (
	reSitePlanName     = regexp.MustCompile(`site[\s_-]*plan`)
	reLocationPlanName = regexp.MustCompile(`location[\s_-]*plan`)
	reBlockPlanName    = regexp.MustCompile(`block[\s_-]*plan`)
)

var locationLeg = leg{
	categories: map[constants.Category]struct{}{
		constants.SitePlan:     {},
		constants.LocationPlan: {},
		constants.BlockPlan:    {},
	},
	names: set("site plan", "location plan", "block plan"),
	filenames: []*regexp.Regexp{
		reSitePlanName,
		reLocationPlanName,
		reBlockPlanName,
	},
}

var siteLeg = leg{
	categories: map[constants.Category]struct{}{
		constants.SitePlan: {},
	},
	names:     set("site plan"),
	filenames: []*regexp.Regexp{reSitePlanName},
}

var detailLeg = leg{
	categories: map[constants.Category]struct{}{
		constants.Elevation:      {},
		constants.FloorPlan:      {},
		constants.SectionDrawing: {},
	},
	names: set("elevation", "elevations", "floor plan", "section", "sections", "section drawing"),
	filenames: []*regexp.Regexp{
		regexp.MustCompile(`elevation`),
		regexp.MustCompile(`floor[\s_-]*plan`),
		regexp.MustCompile(`section`),
	},
}

// CheckPlanSetPresent reports whether a minimal plan set was submitted:
// a locating plan (site, location or block), a site plan, and at least one
// detail drawing (elevation, floor plan or section). Each leg may be met by
// any signal source; there is no partial credit.
func CheckPlanSetPresent(s PlanSetSignals) bool {
	return locationLeg.satisfied(s) && siteLeg.satisfied(s) && detailLeg.satisfied(s)
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
