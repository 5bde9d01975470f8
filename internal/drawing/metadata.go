package drawing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DrawingMetadata is the lightweight summary stored in
// documents.extracted_metadata_json for plans and drawings.
type DrawingMetadata struct {
	DocumentTypeGuess     string   `json:"document_type_guess"`
	KeyLabelsFound        []string `json:"key_labels_found"`
	DetectedLabels        []string `json:"detected_labels"`
	ScaleFound            string   `json:"scale_found"`
	AnyDimensionsDetected bool     `json:"any_dimensions_detected"`
	AnyScaleDetected      bool     `json:"any_scale_detected"`
}

// NewMetadata returns metadata with empty, non-nil label lists.
func NewMetadata() DrawingMetadata {
	return DrawingMetadata{
		KeyLabelsFound: []string{},
		DetectedLabels: []string{},
	}
}

// HasLabel reports whether label was detected in the drawing text.
func (m DrawingMetadata) HasLabel(label string) bool {
	for _, l := range m.DetectedLabels {
		if l == label {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no signal at all was recorded.
func (m DrawingMetadata) IsEmpty() bool {
	return m.DocumentTypeGuess == "" &&
		len(m.KeyLabelsFound) == 0 &&
		len(m.DetectedLabels) == 0 &&
		m.ScaleFound == "" &&
		!m.AnyDimensionsDetected &&
		!m.AnyScaleDetected
}

// ToJSON serializes every field; label lists are always arrays.
func (m DrawingMetadata) ToJSON() (string, error) {
	if m.KeyLabelsFound == nil {
		m.KeyLabelsFound = []string{}
	}
	if m.DetectedLabels == nil {
		m.DetectedLabels = []string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal drawing metadata: %w", err)
	}
	return string(b), nil
}

// FromJSON parses a stored blob. Blobs written before detected_labels and
// scale_found existed decode with those fields empty. Unknown fields are ignored.
func FromJSON(raw string) (DrawingMetadata, error) {
	m := NewMetadata()
	if err := validateMetadataJSON([]byte(raw)); err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return m, fmt.Errorf("unmarshal drawing metadata: %w", err)
	}
	if m.KeyLabelsFound == nil {
		m.KeyLabelsFound = []string{}
	}
	if m.DetectedLabels == nil {
		m.DetectedLabels = []string{}
	}
	return m, nil
}

const metadataSchemaJSON = `{
	"type": "object",
	"properties": {
		"document_type_guess":     {"type": "string"},
		"key_labels_found":        {"type": ["array", "null"], "items": {"type": "string"}},
		"detected_labels":         {"type": ["array", "null"], "items": {"type": "string"}},
		"scale_found":             {"type": "string"},
		"any_dimensions_detected": {"type": "boolean"},
		"any_scale_detected":      {"type": "boolean"}
	}
}`

var (
	metadataSchemaOnce sync.Once
	metadataSchema     *jsonschema.Schema
	metadataSchemaErr  error
)

func compiledMetadataSchema() (*jsonschema.Schema, error) {
	metadataSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("drawing_metadata.json", bytes.NewReader([]byte(metadataSchemaJSON))); err != nil {
			metadataSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		metadataSchema, metadataSchemaErr = compiler.Compile("drawing_metadata.json")
	})
	return metadataSchema, metadataSchemaErr
}

func validateMetadataJSON(data []byte) error {
	schema, err := compiledMetadataSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal drawing metadata: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("drawing metadata does not match schema: %w", err)
	}
	return nil
}
