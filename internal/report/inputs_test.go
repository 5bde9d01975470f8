package report

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/entity"
	"github.com/joseph-ayodele/docqueue/internal/evidence"
	"github.com/joseph-ayodele/docqueue/internal/extract"
)

type listerFunc func(ctx context.Context, reference string) ([]*entity.Document, error)

func (f listerFunc) ListDocuments(ctx context.Context, reference string) ([]*entity.Document, error) {
	return f(ctx, reference)
}

type mapExtractor struct {
	texts map[string]string
	calls atomic.Int32
}

func (m *mapExtractor) Extract(_ context.Context, path string) extract.TextExtractionResult {
	m.calls.Add(1)
	if t, ok := m.texts[path]; ok {
		return extract.TextExtractionResult{Text: t, Method: constants.MethodPDFText}
	}
	return extract.TextExtractionResult{Method: constants.MethodNone}
}

func TestBuild(t *testing.T) {
	docs := []*entity.Document{
		{DocID: "das", LocalPath: "/f/das.pdf", Status: constants.StatusProcessed,
			Category: constants.DesignAccessStatement, ExtractedTextChars: 12},
		{DocID: "site", LocalPath: "/f/site.pdf", Status: constants.StatusProcessed,
			Category: constants.SitePlan, ExtractedTextChars: 9, IsPlanOrDrawing: true},
		{DocID: "loc", LocalPath: "/f/loc.pdf", Status: constants.StatusProcessed,
			Category: constants.LocationPlan, IsPlanOrDrawing: true},
		{DocID: "scan", LocalPath: "/f/scan.pdf", Status: constants.StatusProcessed,
			ExtractedTextChars: 4, IsScanned: true},
	}
	ex := &mapExtractor{texts: map[string]string{
		"/f/das.pdf":  "Design text.",
		"/f/site.pdf": "SITE PLAN",
		"/f/loc.pdf":  "never asked for",
	}}
	lister := listerFunc(func(_ context.Context, ref string) ([]*entity.Document, error) {
		assert.Equal(t, "REF", ref)
		return docs, nil
	})

	in, err := Build(context.Background(), lister, ex, "REF")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"das": "Design text.", "site": "SITE PLAN"}, in.Texts)
	assert.EqualValues(t, 3, ex.calls.Load())
	require.Len(t, in.Documents, 4)
	assert.Equal(t, DocFlags{DocID: "site", Category: constants.SitePlan, IsPlanOrDrawing: true}, in.Documents[1])
	assert.Equal(t, constants.Other, in.Documents[3].Category)
	assert.True(t, in.Documents[3].IsScanned)
	assert.False(t, in.PlanSetPresent)
	assert.Equal(t, evidence.QualityHigh, in.EvidenceQuality)
}

func TestBuildListError(t *testing.T) {
	lister := listerFunc(func(context.Context, string) ([]*entity.Document, error) {
		return nil, errors.New("boom")
	})
	_, err := Build(context.Background(), lister, &mapExtractor{}, "REF")
	assert.ErrorContains(t, err, "boom")
}

func TestBuildCanceled(t *testing.T) {
	docs := []*entity.Document{{DocID: "a", LocalPath: "/a", ExtractedTextChars: 1}}
	lister := listerFunc(func(context.Context, string) ([]*entity.Document, error) { return docs, nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, lister, &mapExtractor{}, "REF")
	assert.ErrorIs(t, err, context.Canceled)
}
