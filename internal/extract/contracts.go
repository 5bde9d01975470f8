package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docqueue/constants"
)

// TextExtractor turns a local file into text. It never fails: an
// unusable file comes back with Method "none".
type TextExtractor interface {
	Extract(ctx context.Context, path string) TextExtractionResult
}

type TextExtractionResult struct {
	Text          string
	Method        constants.ExtractMethod
	SourceType    string // "PDF" | "IMAGE" | "TEXT" | ""
	Pages         int
	PagesWithText int
	Duration      time.Duration
	Warnings      []string
}

// HasText reports whether any usable text was extracted.
func (r TextExtractionResult) HasText() bool {
	return r.Text != ""
}
