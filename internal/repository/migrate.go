package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

const documentsTable = "documents"

func documentsDDL(d string) []string {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	floatType := "REAL"
	if d == dialect.Postgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
		floatType = "DOUBLE PRECISION"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
	` + idCol + `,
	reference TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	doc_type TEXT,
	url TEXT,
	local_path TEXT,
	mime_type TEXT,
	content_hash TEXT,
	processing_status TEXT NOT NULL DEFAULT 'queued'
		CHECK (processing_status IN ('queued', 'processing', 'processed', 'failed')),
	category TEXT,
	category_confidence ` + floatType + `,
	extract_method TEXT,
	extracted_text_chars INTEGER NOT NULL DEFAULT 0,
	extracted_metadata_json TEXT,
	is_plan_or_drawing BOOLEAN NOT NULL DEFAULT FALSE,
	is_scanned BOOLEAN NOT NULL DEFAULT FALSE,
	has_any_content_signal BOOLEAN NOT NULL DEFAULT FALSE,
	failure_reason TEXT,
	claimed_by TEXT,
	claimed_at BIGINT,
	finished_at BIGINT,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE (reference, doc_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (processing_status)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_reference_status ON documents (reference, processing_status)`,
	}
}

// Migrate creates the documents table and its indexes if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range documentsDDL(d.Dialect) {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			first := strings.SplitN(stmt, "\n", 2)[0]
			d.logger.Error("migration failed", "statement", first, "error", err)
			return fmt.Errorf("migrate %q: %w", first, err)
		}
	}
	d.logger.Info("schema migrated", "table", documentsTable, "dialect", d.Dialect)
	return nil
}
