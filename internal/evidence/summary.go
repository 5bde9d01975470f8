package evidence

import (
	"log/slog"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/drawing"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

// CaseSummary is the evidence view of one case at a point in time.
type CaseSummary struct {
	Counts         EvidenceCounts `json:"counts"`
	Signals        PlanSetSignals `json:"-"`
	PlanSetPresent bool           `json:"plan_set_present"`
	Quality        Quality        `json:"evidence_quality"`
}

// SummarizeCase builds plan-set signals and evidence counts from a snapshot
// of a case's documents. Unreadable metadata blobs are logged and skipped.
func SummarizeCase(docs []*entity.Document, logger *slog.Logger) CaseSummary {
	if logger == nil {
		logger = slog.Default()
	}

	var s CaseSummary
	for _, d := range docs {
		s.Counts.Total++

		cat := d.Category
		if cat == "" {
			cat = constants.Other
		}
		s.Signals.Categories = append(s.Signals.Categories, cat)
		if fn := d.Filename(); fn != "" {
			s.Signals.Filenames = append(s.Signals.Filenames, fn)
		}

		if d.ExtractedMetadataJSON != "" {
			meta, err := drawing.FromJSON(d.ExtractedMetadataJSON)
			if err != nil {
				logger.Warn("skipping unreadable drawing metadata", "reference", d.Reference, "doc_id", d.DocID, "error", err)
			} else {
				if meta.DocumentTypeGuess != "" {
					s.Signals.MetadataGuesses = append(s.Signals.MetadataGuesses, meta.DocumentTypeGuess)
				}
				s.Signals.DetectedLabels = append(s.Signals.DetectedLabels, meta.DetectedLabels...)
			}
		}

		extracted := d.Status == constants.StatusProcessed && d.ExtractedTextChars > 0
		if cat.IsPlan() {
			s.Counts.Plans++
		}
		if cat.IsStatement() {
			s.Counts.Statements++
		}
		if extracted {
			s.Counts.Extracted++
			if cat.IsKeyDocument() {
				s.Counts.KeyExtracted++
			}
		}
		if d.Status == constants.StatusFailed {
			s.Counts.Failed++
		}
	}

	s.PlanSetPresent = CheckPlanSetPresent(s.Signals)
	s.Quality = ComputeEvidenceQuality(s.Counts)
	return s
}
