// Package classify assigns a planning document category from its title,
// declared type and filename, with a content-based second pass.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/docqueue/constants"
)

const (
	TitleMatchConfidence    = 0.85
	FallbackMatchConfidence = 0.65
	OtherConfidence         = 0.3
	ContentMatchConfidence  = 0.55

	// contentSampleChars bounds how much extracted text the second pass reads.
	contentSampleChars = 3000
)

type rule struct {
	re       *regexp.Regexp
	match    func(string) bool // used instead of re when set
	category constants.Category
}

func r(pattern string, c constants.Category) rule {
	return rule{re: regexp.MustCompile(pattern), category: c}
}

func (rl rule) matches(s string) bool {
	if rl.match != nil {
		return rl.match(s)
	}
	return rl.re.MatchString(s)
}

var (
	reEcologyWord = regexp.MustCompile(`ecology|ecological`)
	reNetGain     = regexp.MustCompile(`net\s*gain`)
)

// ecologyMatch accepts "ecology", "ecological", or a "biodiversity" that is
// not followed by "net gain" later on the same line.
func ecologyMatch(s string) bool {
	if reEcologyWord.MatchString(s) {
		return true
	}
	for rest := s; ; {
		i := strings.Index(rest, "biodiversity")
		if i < 0 {
			return false
		}
		rest = rest[i+len("biodiversity"):]
		line := rest
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		if !reNetGain.MatchString(line) {
			return true
		}
	}
}

// Order matters: first match wins.
var metadataRules = []rule{
	// plans
	r(`site\s*(?:plan|layout)`, constants.SitePlan),
	r(`block\s*plan`, constants.BlockPlan),
	r(`location\s*plan`, constants.LocationPlan),
	r(`floor\s*plan`, constants.FloorPlan),
	r(`proposed\s*plan`, constants.FloorPlan),
	r(`existing\s*plan`, constants.FloorPlan),
	r(`ground\s*floor`, constants.FloorPlan),
	r(`first\s*floor`, constants.FloorPlan),
	r(`second\s*floor`, constants.FloorPlan),
	r(`roof\s*plan`, constants.RoofPlan),
	r(`elevation`, constants.Elevation),
	r(`section\s*(?:drawing|detail|plan)?`, constants.SectionDrawing),
	// statements
	r(`design\s*(?:and|&)\s*access`, constants.DesignAccessStatement),
	r(`d\s*(?:&|and)\s*a\s*statement`, constants.DesignAccessStatement),
	r(`heritage\s*(?:impact|statement|assessment)`, constants.HeritageStatement),
	r(`planning\s*statement`, constants.PlanningStatement),
	// technical reports
	r(`flood\s*risk`, constants.FloodRiskAssessment),
	{match: ecologyMatch, category: constants.EcologyReport},
	r(`(?:biodiversity|bng)\s*(?:net\s*gain|metric|assessment)`, constants.BNGReport),
	r(`transport|traffic|highway`, constants.TransportAssessment),
	r(`arboricultural|tree\s*(?:survey|report)`, constants.ArboriculturalReport),
	r(`noise`, constants.NoiseAssessment),
	r(`contaminat|geo[\-\s]*(?:environmental|technical)`, constants.ContaminationReport),
	r(`energy\s*statement|sustainability`, constants.EnergyStatement),
	r(`structur`, constants.StructuralReport),
	r(`drain|suds|surface\s*water`, constants.DrainageStrategy),
	r(`cover(?:ing)?\s*letter`, constants.CoverLetter),
	r(`application\s*form`, constants.ApplicationForm),
	r(`photo`, constants.Photograph),
}

var contentRules = []rule{
	r(`biodiversity\s*net\s*gain|bng\s*metric|bng\s*assessment`, constants.BNGReport),
	r(`ecology|ecological\s*survey|protected\s*species|bat\s*survey`, constants.EcologyReport),
	r(`heritage\s*(?:impact|significance|assessment)|listed\s*building\s*consent`, constants.HeritageStatement),
	r(`design\s*(?:and|&)\s*access|character\s*(?:of\s*)?the\s*area|design\s*principles`, constants.DesignAccessStatement),
	r(`planning\s*statement|policy\s*compliance|development\s*plan`, constants.PlanningStatement),
	r(`flood\s*risk|flood\s*zone|sequential\s*test|exception\s*test`, constants.FloodRiskAssessment),
	r(`(?:proposed|existing)\s*elevation|ridge\s*height|eaves\s*height|front\s*elevation|rear\s*elevation`, constants.Elevation),
	r(`(?:ground|first|second)\s*floor\s*(?:plan|layout)|gross\s*internal\s*area|\bgia\b`, constants.FloorPlan),
	r(`site\s*(?:plan|layout|boundary)|red\s*(?:line|boundary)|application\s*site`, constants.SitePlan),
	r(`transport\s*(?:assessment|statement)|trip\s*(?:generation|rate)|parking\s*survey`, constants.TransportAssessment),
	r(`drainage\s*strategy|suds|surface\s*water\s*management`, constants.DrainageStrategy),
	r(`arboricultural|tree\s*survey|tree\s*protection\s*plan`, constants.ArboriculturalReport),
	r(`noise\s*(?:impact|assessment|survey)|acoustic`, constants.NoiseAssessment),
	r(`contamination|geo[\-\s]*(?:environmental|technical)|phase\s*[12i]\s*(?:report|investigation)`, constants.ContaminationReport),
}

// Classify returns the category of a document and a confidence in 0..1.
// A match that also appears in the title alone scores higher.
func Classify(title, docType, filename string) (constants.Category, float64) {
	text := strings.TrimSpace(strings.ToLower(title + " " + docType + " " + filename))
	lowerTitle := strings.ToLower(title)

	for _, rl := range metadataRules {
		if !rl.matches(text) {
			continue
		}
		if rl.matches(lowerTitle) {
			return rl.category, TitleMatchConfidence
		}
		return rl.category, FallbackMatchConfidence
	}
	return constants.Other, OtherConfidence
}

// ClassifyContent re-examines an Other document using the start of its
// extracted text. Any other category is returned unchanged, so a
// filename-based classification is never overridden.
func ClassifyContent(category constants.Category, confidence float64, text string) (constants.Category, float64) {
	if category != constants.Other || text == "" {
		return category, confidence
	}
	sample := text
	if utf8.RuneCountInString(sample) > contentSampleChars {
		sample = string([]rune(sample)[:contentSampleChars])
	}
	sample = strings.ToLower(sample)

	for _, rl := range contentRules {
		if rl.matches(sample) {
			return rl.category, max(confidence, ContentMatchConfidence)
		}
	}
	return category, confidence
}
