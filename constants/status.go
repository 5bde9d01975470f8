package constants

// ProcessingStatus is the canonical queue status for rows in documents.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusQueued     ProcessingStatus = "queued"     // waiting for a worker
	StatusProcessing ProcessingStatus = "processing" // claimed by exactly one worker
	StatusProcessed  ProcessingStatus = "processed"  // terminal success
	StatusFailed     ProcessingStatus = "failed"     // terminal failure
)

// ProcessingStatuses lists every status in lifecycle order.
var ProcessingStatuses = []string{
	string(StatusQueued),
	string(StatusProcessing),
	string(StatusProcessed),
	string(StatusFailed),
}

// IsTerminal reports whether s is processed or failed.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// ExtractMethod records which strategy produced a document's text.
type ExtractMethod string

const (
	MethodPDFText     ExtractMethod = "pdf_text"
	MethodOCR         ExtractMethod = "ocr"
	MethodTextFile    ExtractMethod = "text_file"
	MethodDrawingOnly ExtractMethod = "drawing_only"
	MethodNone        ExtractMethod = "none"
)

// ExtractMethods holds the allowed values for documents.extract_method.
var ExtractMethods = []string{
	string(MethodPDFText),
	string(MethodOCR),
	string(MethodTextFile),
	string(MethodDrawingOnly),
	string(MethodNone),
}
