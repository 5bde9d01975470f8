package evidence

// Quality grades how well a case's submitted documents support a report.
type Quality string

const (
	QualityLow    Quality = "LOW"
	QualityMedium Quality = "MEDIUM"
	QualityHigh   Quality = "HIGH"
)

// EvidenceCounts are the per-case aggregates the quality grade is computed from.
type EvidenceCounts struct {
	Total      int `json:"total"`
	Plans      int `json:"plans"`
	Statements int `json:"statements"`
	// KeyExtracted counts plan or statement documents with any extracted text.
	KeyExtracted int `json:"key_extracted"`
	Extracted    int `json:"extracted"`
	Failed       int `json:"failed"`
}

// ComputeEvidenceQuality grades a case.
//
// HIGH needs plans and statements with at least two key documents extracted.
// Any plan or statement otherwise gives MEDIUM, even when every extraction
// failed: the drawings exist and can be reviewed by hand. A case with no
// documents, or with documents but no key categories at all, is LOW.
func ComputeEvidenceQuality(c EvidenceCounts) Quality {
	if c.Total == 0 {
		return QualityLow
	}
	hasPlans := c.Plans > 0
	hasStatements := c.Statements > 0

	if hasPlans && hasStatements && c.KeyExtracted >= 2 {
		return QualityHigh
	}
	if hasPlans || hasStatements {
		return QualityMedium
	}
	return QualityLow
}
