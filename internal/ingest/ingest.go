package ingest

import (
	"context"

	"github.com/joseph-ayodele/docqueue/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	Reference    string
	DocID        string
	DocumentID   int64
	Deduplicated bool
	HashHex      string
	MimeType     string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Registrar is the store operation ingestion needs.
type Registrar interface {
	Register(ctx context.Context, in entity.DocumentInput) (*entity.Document, bool, error)
}

// Ingestor is the behavior the CLI and watcher depend on.
type Ingestor interface {
	// IngestPath registers a single file under reference.
	IngestPath(ctx context.Context, reference, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, reference, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
