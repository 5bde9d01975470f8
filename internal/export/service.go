package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docqueue/internal/entity"
	"github.com/joseph-ayodele/docqueue/internal/evidence"
)

const (
	DocumentsSheet = "Documents"
	SummarySheet   = "Summary"
)

// DocumentLister is the store read the export needs.
type DocumentLister interface {
	ListDocuments(ctx context.Context, reference string) ([]*entity.Document, error)
}

// Service produces XLSX status workbooks for a case.
type Service struct {
	docs   DocumentLister
	logger *slog.Logger
}

func NewService(docs DocumentLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

var documentHeaders = []string{
	"Doc ID",
	"Title",
	"Status",
	"Category",
	"Confidence",
	"Extract Method",
	"Text Chars",
	"Plan/Drawing",
	"Scanned",
	"Content Signal",
	"Failure Reason",
	"Finished At",
}

// ExportCaseXLSX returns the case workbook as bytes.
func (s *Service) ExportCaseXLSX(ctx context.Context, reference string) ([]byte, error) {
	f, n, err := s.build(ctx, reference)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "reference", reference, "rows", n, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// WriteCaseXLSX streams the case workbook to w.
func (s *Service) WriteCaseXLSX(ctx context.Context, reference string, w io.Writer) error {
	f, n, err := s.build(ctx, reference)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "reference", reference, "rows", n)
	return nil
}

func (s *Service) build(ctx context.Context, reference string) (*excelize.File, int, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, 0, errors.New("reference is required")
	}
	start := time.Now()

	docs, err := s.docs.ListDocuments(ctx, reference)
	if err != nil {
		return nil, 0, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	if err := s.writeDocuments(f, docs); err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if err := s.writeSummary(f, reference, evidence.SummarizeCase(docs, s.logger)); err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	// excelize starts with a default sheet we never use.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	if idx, err := f.GetSheetIndex(DocumentsSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	s.logger.Debug("export.xlsx.built", "reference", reference, "rows", len(docs), "elapsed_ms", time.Since(start).Milliseconds())
	return f, len(docs), nil
}

func (s *Service) writeDocuments(f *excelize.File, docs []*entity.Document) error {
	if _, err := f.NewSheet(DocumentsSheet); err != nil {
		return err
	}
	for i, h := range documentHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(DocumentsSheet, cell, h); err != nil {
			return err
		}
	}

	for i, d := range docs {
		finished := ""
		if d.FinishedAt != nil {
			finished = d.FinishedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			d.DocID,
			d.Title,
			string(d.Status),
			string(d.Category),
			d.CategoryConfidence,
			string(d.ExtractMethod),
			d.ExtractedTextChars,
			yesNo(d.IsPlanOrDrawing),
			yesNo(d.IsScanned),
			yesNo(d.HasAnyContentSignal),
			truncate(d.FailureReason, 140),
			finished,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(DocumentsSheet, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(DocumentsSheet, "A", "A", 18)
	_ = f.SetColWidth(DocumentsSheet, "B", "B", 40)
	_ = f.SetColWidth(DocumentsSheet, "C", "J", 14)
	_ = f.SetColWidth(DocumentsSheet, "D", "D", 26)
	_ = f.SetColWidth(DocumentsSheet, "K", "K", 48)
	_ = f.SetColWidth(DocumentsSheet, "L", "L", 22)
	return nil
}

func (s *Service) writeSummary(f *excelize.File, reference string, sum evidence.CaseSummary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Reference", reference},
		{"Documents", sum.Counts.Total},
		{"Plans", sum.Counts.Plans},
		{"Statements", sum.Counts.Statements},
		{"Extracted", sum.Counts.Extracted},
		{"Key Documents Extracted", sum.Counts.KeyExtracted},
		{"Failed", sum.Counts.Failed},
		{"Plan Set Present", yesNo(sum.PlanSetPresent)},
		{"Evidence Quality", string(sum.Quality)},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 26)
	_ = f.SetColWidth(SummarySheet, "B", "B", 24)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
