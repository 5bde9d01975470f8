package drawing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docqueue/constants"
)

func TestIsPlanOrDrawing(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mime     string
		category constants.Category
		want     bool
	}{
		{"plan category", "doc.pdf", "application/pdf", constants.FloorPlan, true},
		{"site plan filename", "14_Site_Plan.pdf", "", constants.Other, true},
		{"street scene filename", "street-scene.pdf", "", constants.Other, true},
		{"dwg filename", "DWG-004.pdf", "", constants.Other, true},
		{"generic plan number", "plan 3.pdf", "", constants.Other, true},
		{"image extension", "photo.JPG", "", constants.Other, true},
		{"image mime", "upload", "image/png", constants.Other, true},
		{"statement", "design_access_statement.pdf", "application/pdf", constants.DesignAccessStatement, false},
		{"opaque pdf", "-1527192.pdf", "application/pdf", constants.Other, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlanOrDrawing(tt.filename, tt.mime, tt.category))
		})
	}
}

func TestExtractMetadata_TitleBlock(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		text     string
		label    string
	}{
		{"location plan", "-1527192.pdf", "LOCATION PLAN  Scale 1:1250  Sheet 1 of 5", LabelLocationPlan},
		{"site plan", "doc_003.pdf", "PROPOSED SITE PLAN  1:500", LabelSitePlan},
		{"elevations", "upload-99.pdf", "PROPOSED ELEVATIONS\nFront Elevation  Rear Elevation", LabelElevations},
		{"floor plan", "random_name.pdf", "Ground Floor Plan  First Floor Plan  Scale 1:50", LabelFloorPlan},
		{"sections", "dwg_4.pdf", "Section Drawing A-A  Cross-section B-B", LabelSections},
		{"street scene", "plan_x.pdf", "STREET SCENE  Proposed", LabelStreetScene},
		{"block plan", "foo.pdf", "Block Plan  Scale 1:500  North →", LabelBlockPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ExtractMetadata(tt.filename, constants.Other, tt.text)
			assert.Contains(t, meta.DetectedLabels, tt.label)
		})
	}
}

func TestExtractMetadata_CombinedSheet(t *testing.T) {
	meta := ExtractMetadata("combined_sheet.pdf", constants.Other,
		"LOCATION PLAN  1:1250\nSITE PLAN  1:500\nPROPOSED ELEVATIONS\nSheet 1 of 3")

	assert.Contains(t, meta.DetectedLabels, LabelLocationPlan)
	assert.Contains(t, meta.DetectedLabels, LabelSitePlan)
	assert.Contains(t, meta.DetectedLabels, LabelElevations)
	assert.Contains(t, meta.DetectedLabels, LabelSheetNumbered)
	assert.Equal(t, "1:1250", meta.ScaleFound)
}

func TestExtractMetadata_StatementTextHasNoDrawingLabels(t *testing.T) {
	meta := ExtractMetadata("design_access_statement.pdf", constants.DesignAccessStatement,
		"This design and access statement describes the proposal for a two-storey extension to the rear of the dwelling.")

	assert.NotContains(t, meta.DetectedLabels, LabelSitePlan)
	assert.NotContains(t, meta.DetectedLabels, LabelElevations)
	assert.Empty(t, meta.ScaleFound)
	assert.Equal(t, "design access statement", meta.DocumentTypeGuess)
}

func TestExtractMetadata_TypeGuess(t *testing.T) {
	t.Run("from text when filename is opaque", func(t *testing.T) {
		meta := ExtractMetadata("-1527192.pdf", constants.Other, "LOCATION PLAN  Scale 1:1250  Ordnance Survey")
		assert.Equal(t, LabelLocationPlan, meta.DocumentTypeGuess)
		assert.Equal(t, "1:1250", meta.ScaleFound)
	})

	t.Run("guid filename", func(t *testing.T) {
		meta := ExtractMetadata("a3b2c1d0-e4f5-6789.pdf", constants.Other, "PROPOSED SITE PLAN  1:500  Application Site Boundary")
		assert.Equal(t, LabelSitePlan, meta.DocumentTypeGuess)
		assert.Contains(t, meta.KeyLabelsFound, "boundary")
	})

	t.Run("filename beats text", func(t *testing.T) {
		meta := ExtractMetadata("proposed_elevations.pdf", constants.Other, "SITE PLAN")
		assert.Equal(t, LabelElevations, meta.DocumentTypeGuess)
	})

	t.Run("category beats filename", func(t *testing.T) {
		meta := ExtractMetadata("proposed_elevations.pdf", constants.Elevation, "")
		assert.Equal(t, "elevation", meta.DocumentTypeGuess)
	})
}

func TestExtractMetadata_Scale(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Scale 1:500", "1:500"},
		{"1 : 1250", "1:1250"},
		{"@1:50 on A3", "1:50"},
		{"The proposal is appropriate in scale and design", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			meta := ExtractMetadata("plan.pdf", constants.Other, tt.text)
			assert.Equal(t, tt.want, meta.ScaleFound)
			assert.Equal(t, tt.want != "", meta.AnyScaleDetected)
		})
	}
}

func TestExtractMetadata_SheetNumbering(t *testing.T) {
	for _, text := range []string{
		"Sheet No. 3 of 5  Location Plan",
		"Drawing Number 001  Site Plan  1:500",
		"Dwg No 12  Proposed Elevations",
	} {
		t.Run(text, func(t *testing.T) {
			meta := ExtractMetadata("plan.pdf", constants.Other, text)
			assert.Contains(t, meta.DetectedLabels, LabelSheetNumbered)
		})
	}
}

func TestExtractMetadata_NoText(t *testing.T) {
	t.Run("no signals", func(t *testing.T) {
		meta := ExtractMetadata("-999999.pdf", constants.Other, "")
		assert.Empty(t, meta.DetectedLabels)
		assert.NotNil(t, meta.DetectedLabels)
		assert.Empty(t, meta.ScaleFound)
		assert.Empty(t, meta.DocumentTypeGuess)
		assert.False(t, meta.AnyScaleDetected)
	})

	t.Run("known category", func(t *testing.T) {
		meta := ExtractMetadata("-999999.pdf", constants.SitePlan, "")
		assert.Equal(t, "site plan", meta.DocumentTypeGuess)
		assert.Empty(t, meta.DetectedLabels)
	})

	t.Run("scale hint in filename", func(t *testing.T) {
		meta := ExtractMetadata("block_plan_1-500.pdf", constants.Other, "")
		assert.Equal(t, LabelBlockPlan, meta.DocumentTypeGuess)
		assert.True(t, meta.AnyScaleDetected)
		assert.Empty(t, meta.ScaleFound)
	})
}

func TestExtractMetadata_Dimensions(t *testing.T) {
	meta := ExtractMetadata("elev.pdf", constants.Elevation, "Ridge height 7.5m, eaves 5200 mm")
	assert.True(t, meta.AnyDimensionsDetected)
	assert.Contains(t, meta.KeyLabelsFound, "dimensions")
}
