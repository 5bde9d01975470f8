package entity

import (
	"path"
	"strings"
	"time"

	"github.com/joseph-ayodele/docqueue/constants"
)

// Document is one submitted file of a planning case and its queue state.
type Document struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	DocID       string `json:"doc_id"`
	Title       string `json:"title"`
	DocType     string `json:"doc_type,omitempty"`
	URL         string `json:"url,omitempty"`
	LocalPath   string `json:"local_path,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`

	Status             constants.ProcessingStatus `json:"processing_status"`
	Category           constants.Category         `json:"category,omitempty"`
	CategoryConfidence float64                    `json:"category_confidence,omitempty"`

	// Derived by the worker on terminal transition; zero until then.
	ExtractMethod         constants.ExtractMethod `json:"extract_method,omitempty"`
	ExtractedTextChars    int                     `json:"extracted_text_chars"`
	ExtractedMetadataJSON string                  `json:"extracted_metadata_json,omitempty"`
	IsPlanOrDrawing       bool                    `json:"is_plan_or_drawing"`
	IsScanned             bool                    `json:"is_scanned"`
	HasAnyContentSignal   bool                    `json:"has_any_content_signal"`
	FailureReason         string                  `json:"failure_reason,omitempty"`

	ClaimedBy  string     `json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Filename is the name used for classification: the URL tail, then the
// local file name, then the title.
func (d *Document) Filename() string {
	if d.URL != "" {
		u := d.URL
		if i := strings.IndexAny(u, "?#"); i >= 0 {
			u = u[:i]
		}
		if tail := u[strings.LastIndex(u, "/")+1:]; tail != "" {
			return tail
		}
	}
	if d.LocalPath != "" {
		return path.Base(strings.ReplaceAll(d.LocalPath, "\\", "/"))
	}
	return d.Title
}

// DocumentInput is the normalized record an ingestion collaborator hands to the store.
type DocumentInput struct {
	Reference       string
	DocID           string
	Title           string
	DocType         string
	URL             string
	LocalPath       string
	MimeType        string
	ContentHash     string
	IsPlanOrDrawing bool
}

// ProcessingCounts summarizes the queue state of one case.
type ProcessingCounts struct {
	Total             int `json:"total"`
	Queued            int `json:"queued"`
	Processing        int `json:"processing"`
	Processed         int `json:"processed"`
	Failed            int `json:"failed"`
	TotalTextChars    int `json:"total_text_chars"`
	WithContentSignal int `json:"with_content_signal"`
	PlanDrawingCount  int `json:"plan_drawing_count"`
}

// Pending is the number of documents not yet in a terminal state.
func (c ProcessingCounts) Pending() int {
	return c.Queued + c.Processing
}

// CaseSnapshot is one consistent read of a case and the queue.
type CaseSnapshot struct {
	Counts      ProcessingCounts
	Documents   []*Document
	QueuedTotal int
}

// DocumentOutcome carries the attributes the worker derives for a processed document.
type DocumentOutcome struct {
	Category              constants.Category
	CategoryConfidence    float64
	ExtractMethod         constants.ExtractMethod
	ExtractedTextChars    int
	ExtractedMetadataJSON string
	IsPlanOrDrawing       bool
	IsScanned             bool
	HasAnyContentSignal   bool
}
