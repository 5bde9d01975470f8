package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docqueue/internal/ocr"
)

type OCRAdapter struct {
	e      *ocr.Extractor
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) TextExtractionResult {
	r := a.e.Extract(ctx, path)
	if len(r.Warnings) > 0 {
		a.logger.Debug("extraction warnings", "path", path, "method", r.Method, "warnings", r.Warnings)
	}
	return TextExtractionResult{
		Text:          r.Text,
		Method:        r.Method,
		SourceType:    r.SourceType,
		Pages:         r.Pages,
		PagesWithText: r.PagesWithText,
		Duration:      r.Duration,
		Warnings:      r.Warnings,
	}
}
