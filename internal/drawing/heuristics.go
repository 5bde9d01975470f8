// Package drawing decides whether a document is a plan or drawing and
// summarizes what can be read off it without a vision model.
package drawing

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docqueue/constants"
)

// Title-block labels stored in DrawingMetadata.DetectedLabels.
const (
	LabelLocationPlan  = "location plan"
	LabelSitePlan      = "site plan"
	LabelBlockPlan     = "block plan"
	LabelFloorPlan     = "floor plan"
	LabelElevations    = "elevations"
	LabelSections      = "sections"
	LabelStreetScene   = "street scene"
	LabelRoofPlan      = "roof plan"
	LabelSheetNumbered = "sheet_numbered"
)

var drawingFilenamePatterns = compileAll(
	`site[\s_-]*plan`, `block[\s_-]*plan`, `location[\s_-]*plan`,
	`floor[\s_-]*plan`, `elevation`, `section`,
	`roof[\s_-]*plan`, `street[\s_-]*scene`, `proposed[\s_-]*plan`,
	`existing[\s_-]*plan`, `cross[\s_-]*section`, `layout`,
	`drawing`, `dwg`, `plan[\s_-]*\d`,
)

type labelPattern struct {
	label string
	re    *regexp.Regexp
}

// Filename hints for document_type_guess, first match wins.
var filenameTypePatterns = []labelPattern{
	{LabelSitePlan, regexp.MustCompile(`site[\s_-]*plan`)},
	{LabelLocationPlan, regexp.MustCompile(`location[\s_-]*plan`)},
	{LabelBlockPlan, regexp.MustCompile(`block[\s_-]*plan`)},
	{LabelFloorPlan, regexp.MustCompile(`floor[\s_-]*plan`)},
	{LabelFloorPlan, regexp.MustCompile(`ground[\s_-]*floor`)},
	{LabelFloorPlan, regexp.MustCompile(`first[\s_-]*floor`)},
	{LabelElevations, regexp.MustCompile(`elevation`)},
	{LabelSections, regexp.MustCompile(`section`)},
	{LabelRoofPlan, regexp.MustCompile(`roof[\s_-]*plan`)},
	{LabelStreetScene, regexp.MustCompile(`street[\s_-]*scene`)},
	{"drainage", regexp.MustCompile(`drainage|suds`)},
	{"BNG", regexp.MustCompile(`bng|biodiversity`)},
}

// Title-block phrases, in the order they are reported.
var titleBlockPatterns = []labelPattern{
	{LabelLocationPlan, regexp.MustCompile(`\blocation\s*plans?\b`)},
	{LabelSitePlan, regexp.MustCompile(`\bsite\s*plans?\b`)},
	{LabelBlockPlan, regexp.MustCompile(`\bblock\s*plans?\b`)},
	{LabelFloorPlan, regexp.MustCompile(`\bfloor\s*plans?\b`)},
	{LabelElevations, regexp.MustCompile(`\belevations?\b`)},
	{LabelSections, regexp.MustCompile(`\bsection\s+(?:drawing|[a-z0-9]{1,2}\s*-\s*[a-z0-9]{1,2}\b)|\bcross[\s-]*sections?\b|\bsections\b`)},
	{LabelStreetScene, regexp.MustCompile(`\bstreet\s*scenes?\b`)},
	{LabelRoofPlan, regexp.MustCompile(`\broof\s*plans?\b`)},
}

var keyLabelPatterns = []labelPattern{
	{"scale", regexp.MustCompile(`scale|1\s*:\s*\d+`)},
	{"north arrow", regexp.MustCompile(`north`)},
	{"boundary", regexp.MustCompile(`boundary|red\s*line`)},
	{"proposed", regexp.MustCompile(`proposed`)},
	{"existing", regexp.MustCompile(`existing`)},
	{"dimensions", regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:mm|m|metres?|meters?)\b`)},
	{"area", regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:sq\.?\s*m|m2|m²|sqm)`)},
}

var (
	reScale         = regexp.MustCompile(`\b(\d+)\s*:\s*(\d+)\b`)
	reSheetNumber   = regexp.MustCompile(`\b(?:sheet|drawing|dwg)\.?\s*(?:no\.?|number|ref\.?)?\s*[:#]?\s*\d+`)
	reDimension     = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:mm|m)\b`)
	reFilenameScale = regexp.MustCompile(`(?:^|[^\d])1[_\s:-]+\d{2,4}(?:[^\d]|$)`)
)

// IsPlanOrDrawing reports whether a document is likely a plan or drawing,
// by category, then filename pattern, then image extension or mime type.
func IsPlanOrDrawing(filename, mimeType string, category constants.Category) bool {
	if category.IsPlan() {
		return true
	}

	fn := strings.ToLower(filename)
	for _, re := range drawingFilenamePatterns {
		if re.MatchString(fn) {
			return true
		}
	}

	if constants.IsImageExt(filepath.Ext(fn)) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// ExtractMetadata summarizes a drawing from its category, filename and any
// extracted text. Empty text yields a guess from category or filename only.
func ExtractMetadata(filename string, category constants.Category, text string) DrawingMetadata {
	meta := NewMetadata()

	if category != "" && category != constants.Other {
		meta.DocumentTypeGuess = category.Label()
	} else {
		meta.DocumentTypeGuess = guessFromFilename(filename)
	}

	if strings.TrimSpace(text) == "" {
		if reFilenameScale.MatchString(strings.ToLower(filename)) {
			meta.AnyScaleDetected = true
		}
		return meta
	}

	lower := strings.ToLower(text)

	for _, lp := range keyLabelPatterns {
		if lp.re.MatchString(lower) {
			meta.KeyLabelsFound = append(meta.KeyLabelsFound, lp.label)
		}
	}

	for _, lp := range titleBlockPatterns {
		if lp.re.MatchString(lower) {
			meta.DetectedLabels = append(meta.DetectedLabels, lp.label)
		}
	}
	if reSheetNumber.MatchString(lower) {
		meta.DetectedLabels = append(meta.DetectedLabels, LabelSheetNumbered)
	}

	if m := reScale.FindStringSubmatch(lower); m != nil {
		meta.ScaleFound = m[1] + ":" + m[2]
		meta.AnyScaleDetected = true
	}
	meta.AnyDimensionsDetected = reDimension.MatchString(lower)

	if meta.DocumentTypeGuess == "" {
		for _, l := range meta.DetectedLabels {
			if l != LabelSheetNumbered {
				meta.DocumentTypeGuess = l
				break
			}
		}
	}
	return meta
}

func guessFromFilename(filename string) string {
	fn := strings.ToLower(filename)
	for _, lp := range filenameTypePatterns {
		if lp.re.MatchString(fn) {
			return lp.label
		}
	}
	return ""
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
