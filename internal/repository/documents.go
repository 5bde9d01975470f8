package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/internal/common"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

// ErrNotClaimed is returned when a terminal mark targets a document that is
// not currently in the processing state.
var ErrNotClaimed = errors.New("document is not claimed for processing")

// documentColumns is the read projection, in scan order.
var documentColumns = []string{
	"id", "reference", "doc_id", "title", "doc_type", "url", "local_path", "mime_type", "content_hash",
	"processing_status", "category", "category_confidence",
	"extract_method", "extracted_text_chars", "extracted_metadata_json",
	"is_plan_or_drawing", "is_scanned", "has_any_content_signal", "failure_reason",
	"claimed_by", "claimed_at", "finished_at", "created_at", "updated_at",
}

// DocumentRepository is the durable document queue.
type DocumentRepository interface {
	Register(ctx context.Context, in entity.DocumentInput) (*entity.Document, bool, error)
	ClaimQueuedDocument(ctx context.Context, workerID string) (*entity.Document, error)
	// MarkDocumentProcessed and MarkDocumentFailed only land while the row
	// is still processing under workerID's claim.
	MarkDocumentProcessed(ctx context.Context, id int64, workerID string, out entity.DocumentOutcome) error
	MarkDocumentFailed(ctx context.Context, id int64, workerID string, reason string) error
	ResetSingleDocument(ctx context.Context, id int64) (bool, error)
	ResetDocumentsForReference(ctx context.Context, reference string) (int64, error)
	ResetStalledForReference(ctx context.Context, reference string) (int64, error)
	GetProcessingCounts(ctx context.Context, reference string) (entity.ProcessingCounts, error)
	CountQueued(ctx context.Context) (int, error)
	ListDocuments(ctx context.Context, reference string) ([]*entity.Document, error)
	CaseSnapshot(ctx context.Context, reference string) (entity.CaseSnapshot, error)
	GetDocument(ctx context.Context, reference, docID string) (*entity.Document, error)
}

type documentRepo struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
	logger  *slog.Logger
}

func NewDocumentRepository(db *sql.DB, dialectName string, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if dialectName == "" {
		dialectName = dialect.SQLite
	}
	return &documentRepo{
		db:      db,
		dialect: dialectName,
		now:     time.Now,
		logger:  logger,
	}
}

func (r *documentRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.dialect)
}

func (r *documentRepo) Register(ctx context.Context, in entity.DocumentInput) (*entity.Document, bool, error) {
	if err := validateInput(in); err != nil {
		return nil, false, err
	}

	now := r.now().UnixMilli()
	q, args := r.builder().Insert(documentsTable).
		Columns("reference", "doc_id", "title", "doc_type", "url", "local_path", "mime_type", "content_hash",
			"processing_status", "is_plan_or_drawing", "extracted_text_chars", "created_at", "updated_at").
		Values(in.Reference, in.DocID, in.Title, nullable(in.DocType), nullable(in.URL), nullable(in.LocalPath),
			nullable(in.MimeType), nullable(in.ContentHash),
			string(constants.StatusQueued), in.IsPlanOrDrawing, 0, now, now).
		OnConflict(entsql.ConflictColumns("reference", "doc_id"), entsql.DoNothing()).
		Query()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to register document", "reference", in.Reference, "doc_id", in.DocID, "error", err)
		return nil, false, fmt.Errorf("%w: register document: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("%w: register document: %v", common.ErrDatabase, err)
	}

	doc, err := r.GetDocument(ctx, in.Reference, in.DocID)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		r.logger.Debug("document already registered", "reference", in.Reference, "doc_id", in.DocID, "id", doc.ID)
		return doc, false, nil
	}
	r.logger.Info("document registered", "reference", in.Reference, "doc_id", in.DocID, "id", doc.ID)
	return doc, true, nil
}

func (r *documentRepo) claimQuery() string {
	cols := strings.Join(documentColumns, ", ")
	if r.dialect == dialect.Postgres {
		return `UPDATE documents SET processing_status = 'processing', claimed_by = $1, claimed_at = $2, updated_at = $2
WHERE id = (SELECT id FROM documents WHERE processing_status = 'queued' ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED)
AND processing_status = 'queued'
RETURNING ` + cols
	}
	return `UPDATE documents SET processing_status = 'processing', claimed_by = ?, claimed_at = ?, updated_at = ?
WHERE id = (SELECT id FROM documents WHERE processing_status = 'queued' ORDER BY id LIMIT 1)
AND processing_status = 'queued'
RETURNING ` + cols
}

// ClaimQueuedDocument moves one queued document to processing in a single
// conditional statement. Returns nil, nil when nothing is queued.
func (r *documentRepo) ClaimQueuedDocument(ctx context.Context, workerID string) (*entity.Document, error) {
	now := r.now().UnixMilli()
	args := []any{workerID, now}
	if r.dialect != dialect.Postgres {
		args = append(args, now)
	}

	doc, err := scanDocument(r.db.QueryRowContext(ctx, r.claimQuery(), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to claim queued document", "worker_id", workerID, "error", err)
		return nil, fmt.Errorf("%w: claim document: %v", common.ErrDatabase, err)
	}
	r.logger.Debug("document claimed", "id", doc.ID, "reference", doc.Reference, "doc_id", doc.DocID, "worker_id", workerID)
	return doc, nil
}

func (r *documentRepo) MarkDocumentProcessed(ctx context.Context, id int64, workerID string, out entity.DocumentOutcome) error {
	if err := validateOutcome(out); err != nil {
		r.logger.Warn("rejected document outcome", "id", id, "worker_id", workerID, "error", err)
		return err
	}
	now := r.now().UnixMilli()
	u := r.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusProcessed)).
		Set("extract_method", string(out.ExtractMethod)).
		Set("extracted_text_chars", out.ExtractedTextChars).
		Set("is_plan_or_drawing", out.IsPlanOrDrawing).
		Set("is_scanned", out.IsScanned).
		Set("has_any_content_signal", out.HasAnyContentSignal).
		SetNull("failure_reason").
		Set("finished_at", now).
		Set("updated_at", now)
	if out.Category != "" {
		u.Set("category", string(out.Category)).Set("category_confidence", out.CategoryConfidence)
	}
	if out.ExtractedMetadataJSON != "" {
		u.Set("extracted_metadata_json", out.ExtractedMetadataJSON)
	} else {
		u.SetNull("extracted_metadata_json")
	}
	q, args := u.Where(claimedPredicate(id, workerID)).Query()
	return r.execMark(ctx, id, workerID, constants.StatusProcessed, q, args)
}

func (r *documentRepo) MarkDocumentFailed(ctx context.Context, id int64, workerID string, reason string) error {
	now := r.now().UnixMilli()
	q, args := r.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusFailed)).
		Set("failure_reason", nullable(reason)).
		Set("finished_at", now).
		Set("updated_at", now).
		Where(claimedPredicate(id, workerID)).
		Query()
	return r.execMark(ctx, id, workerID, constants.StatusFailed, q, args)
}

// claimedPredicate matches the row only while workerID still holds its
// claim. A reset followed by another worker's claim makes it miss.
func claimedPredicate(id int64, workerID string) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("processing_status", string(constants.StatusProcessing)),
		entsql.EQ("claimed_by", workerID),
	)
}

func (r *documentRepo) execMark(ctx context.Context, id int64, workerID string, status constants.ProcessingStatus, q string, args []any) error {
	log := r.logger.With("id", id, "status", status, "worker_id", workerID)
	if ref := common.ReferenceFromContext(ctx); ref != "" {
		log = log.With("reference", ref)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		log.Error("failed to mark document", "error", err)
		return fmt.Errorf("%w: mark document %d %s: %v", common.ErrDatabase, id, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark document %d %s: %v", common.ErrDatabase, id, status, err)
	}
	if n == 0 {
		log.Warn("document not processing under this worker's claim")
		return fmt.Errorf("%w: id=%d worker=%s", ErrNotClaimed, id, workerID)
	}
	return nil
}

// resetUpdate returns a document to queued and clears everything the worker derives.
func (r *documentRepo) resetUpdate() *entsql.UpdateBuilder {
	return r.builder().Update(documentsTable).
		Set("processing_status", string(constants.StatusQueued)).
		SetNull("category").
		SetNull("category_confidence").
		SetNull("extract_method").
		Set("extracted_text_chars", 0).
		SetNull("extracted_metadata_json").
		Set("is_plan_or_drawing", false).
		Set("is_scanned", false).
		Set("has_any_content_signal", false).
		SetNull("failure_reason").
		SetNull("claimed_by").
		SetNull("claimed_at").
		SetNull("finished_at").
		Set("updated_at", r.now().UnixMilli())
}

func (r *documentRepo) execReset(ctx context.Context, u *entsql.UpdateBuilder, attrs ...any) (int64, error) {
	q, args := u.Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to reset documents", append(attrs, "error", err)...)
		return 0, fmt.Errorf("%w: reset documents: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: reset documents: %v", common.ErrDatabase, err)
	}
	r.logger.Info("documents reset", append(attrs, "count", n)...)
	return n, nil
}

// ResetSingleDocument re-queues one document regardless of its state.
func (r *documentRepo) ResetSingleDocument(ctx context.Context, id int64) (bool, error) {
	n, err := r.execReset(ctx, r.resetUpdate().Where(entsql.EQ("id", id)), "id", id)
	return n > 0, err
}

func (r *documentRepo) ResetDocumentsForReference(ctx context.Context, reference string) (int64, error) {
	return r.execReset(ctx, r.resetUpdate().Where(entsql.EQ("reference", reference)), "reference", reference)
}

// ResetStalledForReference re-queues only the queued and failed documents of a case.
func (r *documentRepo) ResetStalledForReference(ctx context.Context, reference string) (int64, error) {
	u := r.resetUpdate().Where(entsql.And(
		entsql.EQ("reference", reference),
		entsql.In("processing_status", string(constants.StatusQueued), string(constants.StatusFailed)),
	))
	return r.execReset(ctx, u, "reference", reference, "scope", "stalled")
}

func sumWhen(cond string) string {
	return "COALESCE(SUM(CASE WHEN " + cond + " THEN 1 ELSE 0 END), 0)"
}

// querier is the read surface shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *documentRepo) GetProcessingCounts(ctx context.Context, reference string) (entity.ProcessingCounts, error) {
	return r.processingCounts(ctx, r.db, reference)
}

func (r *documentRepo) processingCounts(ctx context.Context, q querier, reference string) (entity.ProcessingCounts, error) {
	b := r.builder()
	query, args := b.Select(
		"COUNT(*)",
		sumWhen("processing_status = 'queued'"),
		sumWhen("processing_status = 'processing'"),
		sumWhen("processing_status = 'processed'"),
		sumWhen("processing_status = 'failed'"),
		"COALESCE(SUM(extracted_text_chars), 0)",
		sumWhen("has_any_content_signal"),
		sumWhen("is_plan_or_drawing"),
	).From(b.Table(documentsTable)).Where(entsql.EQ("reference", reference)).Query()

	var c entity.ProcessingCounts
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&c.Total, &c.Queued, &c.Processing, &c.Processed, &c.Failed,
		&c.TotalTextChars, &c.WithContentSignal, &c.PlanDrawingCount,
	)
	if err != nil {
		r.logger.Error("failed to count documents", "reference", reference, "error", err)
		return entity.ProcessingCounts{}, fmt.Errorf("%w: processing counts: %v", common.ErrDatabase, err)
	}
	return c, nil
}

func (r *documentRepo) CountQueued(ctx context.Context) (int, error) {
	return r.countQueued(ctx, r.db)
}

func (r *documentRepo) countQueued(ctx context.Context, q querier) (int, error) {
	b := r.builder()
	query, args := b.Select("COUNT(*)").
		From(b.Table(documentsTable)).
		Where(entsql.EQ("processing_status", string(constants.StatusQueued))).
		Query()
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("failed to count queued documents", "error", err)
		return 0, fmt.Errorf("%w: count queued: %v", common.ErrDatabase, err)
	}
	return n, nil
}

func (r *documentRepo) ListDocuments(ctx context.Context, reference string) ([]*entity.Document, error) {
	return r.listDocuments(ctx, r.db, reference)
}

func (r *documentRepo) listDocuments(ctx context.Context, q querier, reference string) ([]*entity.Document, error) {
	b := r.builder()
	query, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.EQ("reference", reference)).
		OrderBy("id").
		Query()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list documents", "reference", reference, "error", err)
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	return docs, nil
}

// CaseSnapshot reads a case's counts, its documents and the global queued
// count inside one read-only transaction, so the three agree.
func (r *documentRepo) CaseSnapshot(ctx context.Context, reference string) (entity.CaseSnapshot, error) {
	opts := &sql.TxOptions{ReadOnly: true}
	if r.dialect == dialect.Postgres {
		opts.Isolation = sql.LevelRepeatableRead
	}
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		r.logger.Error("failed to begin snapshot", "reference", reference, "error", err)
		return entity.CaseSnapshot{}, fmt.Errorf("%w: begin snapshot: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	var snap entity.CaseSnapshot
	if snap.Counts, err = r.processingCounts(ctx, tx, reference); err != nil {
		return entity.CaseSnapshot{}, err
	}
	if snap.Documents, err = r.listDocuments(ctx, tx, reference); err != nil {
		return entity.CaseSnapshot{}, err
	}
	if snap.QueuedTotal, err = r.countQueued(ctx, tx); err != nil {
		return entity.CaseSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return entity.CaseSnapshot{}, fmt.Errorf("%w: end snapshot: %v", common.ErrDatabase, err)
	}
	return snap, nil
}

func (r *documentRepo) GetDocument(ctx context.Context, reference, docID string) (*entity.Document, error) {
	b := r.builder()
	q, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.And(entsql.EQ("reference", reference), entsql.EQ("doc_id", docID))).
		Query()

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s/%s", common.ErrNotFound, reference, docID)
	}
	if err != nil {
		r.logger.Error("failed to get document", "reference", reference, "doc_id", docID, "error", err)
		return nil, fmt.Errorf("%w: get document: %v", common.ErrDatabase, err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*entity.Document, error) {
	var (
		d                                         entity.Document
		status                                    string
		docType, url, localPath, mimeType, hash   sql.NullString
		category, method, meta, reason, claimedBy sql.NullString
		confidence                                sql.NullFloat64
		claimedAt, finishedAt                     sql.NullInt64
		createdAt, updatedAt                      int64
	)
	err := s.Scan(
		&d.ID, &d.Reference, &d.DocID, &d.Title, &docType, &url, &localPath, &mimeType, &hash,
		&status, &category, &confidence,
		&method, &d.ExtractedTextChars, &meta,
		&d.IsPlanOrDrawing, &d.IsScanned, &d.HasAnyContentSignal, &reason,
		&claimedBy, &claimedAt, &finishedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.DocType = docType.String
	d.URL = url.String
	d.LocalPath = localPath.String
	d.MimeType = mimeType.String
	d.ContentHash = hash.String
	d.Status = constants.ProcessingStatus(status)
	d.Category = constants.Category(category.String)
	d.CategoryConfidence = confidence.Float64
	d.ExtractMethod = constants.ExtractMethod(method.String)
	d.ExtractedMetadataJSON = meta.String
	d.FailureReason = reason.String
	d.ClaimedBy = claimedBy.String
	d.ClaimedAt = fromMillisPtr(claimedAt)
	d.FinishedAt = fromMillisPtr(finishedAt)
	d.CreatedAt = time.UnixMilli(createdAt)
	d.UpdatedAt = time.UnixMilli(updatedAt)
	return &d, nil
}

func fromMillisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
