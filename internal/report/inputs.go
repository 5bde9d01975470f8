// Package report assembles what the report-writing step consumes for a case.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/entity"
	"github.com/joseph-ayodele/docqueue/internal/evidence"
	"github.com/joseph-ayodele/docqueue/internal/extract"
)

// DefaultConcurrency bounds parallel re-extraction.
const DefaultConcurrency = 4

type DocumentLister interface {
	ListDocuments(ctx context.Context, reference string) ([]*entity.Document, error)
}

type DocFlags struct {
	DocID           string             `json:"doc_id"`
	Title           string             `json:"title"`
	Category        constants.Category `json:"category"`
	IsPlanOrDrawing bool               `json:"is_plan_or_drawing"`
	IsScanned       bool               `json:"is_scanned"`
}

// Inputs maps doc_id to text for every document that yielded text, plus
// the per-document flags and case-level evidence signals.
type Inputs struct {
	Reference       string            `json:"reference"`
	Texts           map[string]string `json:"texts"`
	Documents       []DocFlags        `json:"documents"`
	PlanSetPresent  bool              `json:"plan_set_present"`
	EvidenceQuality evidence.Quality  `json:"evidence_quality"`
}

type Builder struct {
	docs        DocumentLister
	extractor   extract.TextExtractor
	logger      *slog.Logger
	concurrency int
}

func NewBuilder(docs DocumentLister, extractor extract.TextExtractor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{docs: docs, extractor: extractor, logger: logger, concurrency: DefaultConcurrency}
}

// Build is NewBuilder(...).Build with default settings.
func Build(ctx context.Context, docs DocumentLister, extractor extract.TextExtractor, reference string) (Inputs, error) {
	return NewBuilder(docs, extractor, nil).Build(ctx, reference)
}

// Build snapshots the case. Only documents stored with non-zero
// extracted_text_chars are re-extracted; a re-extraction that now comes
// back empty is logged and left out of Texts.
func (b *Builder) Build(ctx context.Context, reference string) (Inputs, error) {
	docs, err := b.docs.ListDocuments(ctx, reference)
	if err != nil {
		return Inputs{}, fmt.Errorf("list documents: %w", err)
	}

	summary := evidence.SummarizeCase(docs, b.logger)
	in := Inputs{
		Reference:       reference,
		Texts:           make(map[string]string),
		Documents:       make([]DocFlags, 0, len(docs)),
		PlanSetPresent:  summary.PlanSetPresent,
		EvidenceQuality: summary.Quality,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, d := range docs {
		cat := d.Category
		if cat == "" {
			cat = constants.Other
		}
		in.Documents = append(in.Documents, DocFlags{
			DocID:           d.DocID,
			Title:           d.Title,
			Category:        cat,
			IsPlanOrDrawing: d.IsPlanOrDrawing,
			IsScanned:       d.IsScanned,
		})
		if d.ExtractedTextChars == 0 || d.LocalPath == "" {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := b.extractor.Extract(gctx, d.LocalPath)
			if !res.HasText() {
				b.logger.Warn("report_text_missing", "reference", reference, "doc_id", d.DocID,
					"stored_chars", d.ExtractedTextChars, "method", res.Method)
				return nil
			}
			mu.Lock()
			in.Texts[d.DocID] = res.Text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}

	b.logger.Info("report_inputs_built", "reference", reference, "documents", len(in.Documents),
		"texts", len(in.Texts), "plan_set_present", in.PlanSetPresent, "evidence_quality", in.EvidenceQuality)
	return in, nil
}
