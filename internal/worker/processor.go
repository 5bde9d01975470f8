package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/classify"
	"github.com/joseph-ayodele/docqueue/internal/common"
	"github.com/joseph-ayodele/docqueue/internal/drawing"
	"github.com/joseph-ayodele/docqueue/internal/entity"
	"github.com/joseph-ayodele/docqueue/internal/extract"
)

// Queue is the part of the document store the worker drives.
type Queue interface {
	ClaimQueuedDocument(ctx context.Context, workerID string) (*entity.Document, error)
	MarkDocumentProcessed(ctx context.Context, id int64, workerID string, out entity.DocumentOutcome) error
	MarkDocumentFailed(ctx context.Context, id int64, workerID string, reason string) error
	CountQueued(ctx context.Context) (int, error)
}

// Outcome is what ProcessOne did with one claimed document.
type Outcome struct {
	ID       int64
	Status   constants.ProcessingStatus
	Method   constants.ExtractMethod
	Chars    int
	Reason   string
	Duration time.Duration
	// MarkErr is set when the terminal write itself failed; the row is
	// then still in processing and needs a reset.
	MarkErr error
}

func (o Outcome) Failed() bool {
	return o.Status != constants.StatusProcessed
}

// Processor runs classification, extraction and drawing analysis for one
// claimed document and records the terminal state.
type Processor struct {
	queue     Queue
	extractor extract.TextExtractor
	logger    *slog.Logger
	metrics   *Metrics
	stat      func(string) (os.FileInfo, error)
}

func NewProcessor(queue Queue, extractor extract.TextExtractor, logger *slog.Logger, metrics *Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		queue:     queue,
		extractor: extractor,
		logger:    logger,
		metrics:   metrics,
		stat:      os.Stat,
	}
}

// ProcessOne never panics and never returns an error: every failure ends in
// a failed transition, and a failed terminal write is reported in MarkErr.
// Terminal writes are made under doc.ClaimedBy, so they are dropped if the
// claim was reset and taken by another worker in the meantime.
func (p *Processor) ProcessOne(ctx context.Context, doc *entity.Document) (out Outcome) {
	start := time.Now()
	if common.ReferenceFromContext(ctx) == "" {
		ctx = common.WithReference(ctx, doc.Reference)
	}
	workerID := common.WorkerIDFromContext(ctx)
	if workerID == "" {
		workerID = doc.ClaimedBy
	}
	log := p.logger.With("reference", doc.Reference, "document_id", doc.DocID, "id", doc.ID, "worker_id", workerID)
	log.Info("doc_processing_start", "title", doc.Title, "local_path", doc.LocalPath)

	defer func() {
		if r := recover(); r != nil {
			out = p.fail(ctx, log, doc, fmt.Sprintf("panic: %v", r), start)
		}
	}()

	res, err := p.analyze(ctx, doc)
	if err != nil {
		return p.fail(ctx, log, doc, err.Error(), start)
	}
	if !res.HasAnyContentSignal {
		return p.fail(ctx, log, doc, fmt.Sprintf("no usable content (extract method %s)", res.ExtractMethod), start)
	}

	out = Outcome{
		ID:     doc.ID,
		Status: constants.StatusProcessed,
		Method: res.ExtractMethod,
		Chars:  res.ExtractedTextChars,
	}
	if err := p.queue.MarkDocumentProcessed(ctx, doc.ID, doc.ClaimedBy, res); err != nil {
		p.metrics.storeError("mark_processed")
		log.Error("doc_mark_failed_error", "status", constants.StatusProcessed, "error", err)
		out.MarkErr = err
	}
	out.Duration = time.Since(start)
	p.metrics.finished(out.Status, out.Method, out.Duration)

	log.Info("doc_processing_success",
		"method", res.ExtractMethod,
		"chars", res.ExtractedTextChars,
		"category", res.Category,
		"is_drawing", res.IsPlanOrDrawing,
		"is_scanned", res.IsScanned,
		"has_signal", res.HasAnyContentSignal,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out
}

func (p *Processor) analyze(ctx context.Context, doc *entity.Document) (entity.DocumentOutcome, error) {
	filename := doc.Filename()
	category, confidence := classify.Classify(doc.Title, doc.DocType, filename)
	planLike := doc.IsPlanOrDrawing || drawing.IsPlanOrDrawing(filename, doc.MimeType, category)

	var text string
	method := constants.MethodNone
	scanned := false

	if p.fileExists(doc.LocalPath) {
		r := p.extractor.Extract(ctx, doc.LocalPath)
		text, method = r.Text, r.Method
		if constants.IsPDFExt(filepath.Ext(doc.LocalPath)) &&
			(method == constants.MethodNone || method == constants.MethodOCR) {
			scanned = true
		}
	}
	if text == "" && planLike && method == constants.MethodNone {
		method = constants.MethodDrawingOnly
	}

	if text != "" {
		category, confidence = classify.ClassifyContent(category, confidence, text)
		planLike = planLike || category.IsPlan()
	}

	var metadataJSON string
	if planLike {
		meta := drawing.ExtractMetadata(filename, category, text)
		raw, err := meta.ToJSON()
		if err != nil {
			return entity.DocumentOutcome{}, common.WrapError(err, "encode drawing metadata")
		}
		metadataJSON = raw
	}

	return entity.DocumentOutcome{
		Category:              category,
		CategoryConfidence:    confidence,
		ExtractMethod:         method,
		ExtractedTextChars:    utf8.RuneCountInString(text),
		ExtractedMetadataJSON: metadataJSON,
		IsPlanOrDrawing:       planLike,
		IsScanned:             scanned,
		HasAnyContentSignal:   text != "" || metadataJSON != "" || planLike,
	}, nil
}

func (p *Processor) fileExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := p.stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, doc *entity.Document, reason string, start time.Time) Outcome {
	out := Outcome{
		ID:       doc.ID,
		Status:   constants.StatusFailed,
		Method:   constants.MethodNone,
		Reason:   reason,
		Duration: time.Since(start),
	}
	log.Error("doc_processing_fail", "error", reason, "duration_ms", out.Duration.Milliseconds())

	if err := p.markFailed(ctx, doc, reason); err != nil {
		p.metrics.storeError("mark_failed")
		log.Error("doc_mark_failed_error", "status", constants.StatusFailed, "error", err)
		out.MarkErr = err
	}
	p.metrics.finished(out.Status, out.Method, out.Duration)
	return out
}

func (p *Processor) markFailed(ctx context.Context, doc *entity.Document, reason string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: mark failed panicked: %v", common.ErrInternal, r)
		}
	}()
	return p.queue.MarkDocumentFailed(ctx, doc.ID, doc.ClaimedBy, reason)
}
