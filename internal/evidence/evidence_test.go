package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/drawing"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

func TestCheckPlanSetPresent(t *testing.T) {
	tests := []struct {
		name    string
		signals PlanSetSignals
		want    bool
	}{
		{
			name: "all three legs from categories",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.LocationPlan, constants.SitePlan, constants.Elevation,
			}},
			want: true,
		},
		{
			name: "block plan satisfies location leg",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.BlockPlan, constants.SitePlan, constants.FloorPlan,
			}},
			want: true,
		},
		{
			name: "section drawing satisfies detail leg",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.LocationPlan, constants.SitePlan, constants.SectionDrawing,
			}},
			want: true,
		},
		{
			name: "site plan also locates the site",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.SitePlan, constants.Elevation,
			}},
			want: true,
		},
		{
			name: "missing site leg",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.LocationPlan, constants.Elevation,
			}},
			want: false,
		},
		{
			name: "missing detail leg",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.LocationPlan, constants.SitePlan,
			}},
			want: false,
		},
		{
			name: "block and floor plan without site plan",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.BlockPlan, constants.FloorPlan, constants.RoofPlan,
			}},
			want: false,
		},
		{
			name: "category plus detected label",
			signals: PlanSetSignals{
				Categories:     []constants.Category{constants.LocationPlan, constants.Elevation},
				DetectedLabels: []string{"site plan"},
			},
			want: true,
		},
		{
			name: "all from detected labels",
			signals: PlanSetSignals{
				Categories:     []constants.Category{constants.Other, constants.Other, constants.Other},
				DetectedLabels: []string{"location plan", "site plan", "floor plan"},
			},
			want: true,
		},
		{
			name: "all from filenames",
			signals: PlanSetSignals{
				Categories: []constants.Category{constants.Other},
				Filenames:  []string{"01_Location_Plan.pdf", "02-site-plan.pdf", "03 Proposed Elevations.pdf"},
			},
			want: true,
		},
		{
			name: "all from metadata guesses",
			signals: PlanSetSignals{
				Categories:      []constants.Category{constants.Other},
				MetadataGuesses: []string{"block plan", "site plan", "sections"},
			},
			want: true,
		},
		{
			name: "single combined sheet",
			signals: PlanSetSignals{
				Categories:     []constants.Category{constants.Other},
				DetectedLabels: []string{"location plan", "site plan", "elevations", "sheet_numbered"},
			},
			want: true,
		},
		{
			name: "no plan docs",
			signals: PlanSetSignals{Categories: []constants.Category{
				constants.DesignAccessStatement, constants.PlanningStatement,
			}},
			want: false,
		},
		{
			name:    "empty",
			signals: PlanSetSignals{},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPlanSetPresent(tt.signals))
		})
	}
}

func TestComputeEvidenceQuality(t *testing.T) {
	tests := []struct {
		name   string
		counts EvidenceCounts
		want   Quality
	}{
		{"no documents", EvidenceCounts{}, QualityLow},
		{"plans and statements extracted", EvidenceCounts{Total: 4, Plans: 2, Statements: 1, KeyExtracted: 2, Extracted: 2}, QualityHigh},
		{"one key extracted", EvidenceCounts{Total: 4, Plans: 2, Statements: 1, KeyExtracted: 1, Extracted: 1}, QualityMedium},
		{"plans only", EvidenceCounts{Total: 3, Plans: 3, KeyExtracted: 3, Extracted: 3}, QualityMedium},
		{"plans submitted but every extraction failed", EvidenceCounts{Total: 2, Plans: 2, Failed: 2}, QualityMedium},
		{"statements only", EvidenceCounts{Total: 1, Statements: 1}, QualityMedium},
		{"only non-key documents", EvidenceCounts{Total: 3, Extracted: 3}, QualityLow},
		{"non-key documents all failed", EvidenceCounts{Total: 2, Failed: 2}, QualityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeEvidenceQuality(tt.counts))
		})
	}
}

func TestSummarizeCase(t *testing.T) {
	meta := drawing.ExtractMetadata("-1527192.pdf", constants.Other, "LOCATION PLAN 1:1250\nSITE PLAN 1:500")
	metaJSON, err := meta.ToJSON()
	require.NoError(t, err)

	docs := []*entity.Document{
		{DocID: "a", Title: "Combined sheet", Status: constants.StatusProcessed, Category: constants.Other,
			ExtractedTextChars: 40, ExtractedMetadataJSON: metaJSON},
		{DocID: "b", Title: "Proposed Elevations", Status: constants.StatusProcessed, Category: constants.Elevation,
			ExtractedTextChars: 120},
		{DocID: "c", Title: "Design and Access Statement", Status: constants.StatusProcessed,
			Category: constants.DesignAccessStatement, ExtractedTextChars: 5000},
		{DocID: "d", Title: "Scan", Status: constants.StatusFailed, Category: constants.Other},
		{DocID: "e", Title: "Broken", Status: constants.StatusProcessed, ExtractedMetadataJSON: `{"detected_labels": 3}`},
	}

	s := SummarizeCase(docs, nil)
	assert.True(t, s.PlanSetPresent)
	assert.Equal(t, QualityHigh, s.Quality)
	assert.Equal(t, 5, s.Counts.Total)
	assert.Equal(t, 1, s.Counts.Plans)
	assert.Equal(t, 1, s.Counts.Statements)
	assert.Equal(t, 2, s.Counts.KeyExtracted)
	assert.Equal(t, 3, s.Counts.Extracted)
	assert.Equal(t, 1, s.Counts.Failed)
	assert.Contains(t, s.Signals.MetadataGuesses, "location plan")
}
