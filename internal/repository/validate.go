package repository

import (
	"github.com/joseph-ayodele/docqueue/db/ent/schema"
	"github.com/joseph-ayodele/docqueue/internal/common"
	"github.com/joseph-ayodele/docqueue/internal/entity"
)

// columnValidators are the validators declared on the ent Document schema,
// keyed by column name.
var columnValidators = func() map[string][]any {
	m := map[string][]any{}
	for _, f := range (schema.Document{}).Fields() {
		d := f.Descriptor()
		if len(d.Validators) > 0 {
			m[d.Name] = d.Validators
		}
	}
	return m
}()

// schemaRule adapts the schema validators of column to a common.ValidationRule.
// Values of a type the validator does not take are skipped.
func schemaRule(column string) common.ValidationRule {
	return func(fieldName string, value interface{}) *common.ValidationError {
		for _, fn := range columnValidators[column] {
			var err error
			switch fn := fn.(type) {
			case func(string) error:
				if s, ok := value.(string); ok {
					err = fn(s)
				}
			case func(float64) error:
				if f, ok := value.(float64); ok {
					err = fn(f)
				}
			case func(int) error:
				if n, ok := value.(int); ok {
					err = fn(n)
				}
			case func(int64) error:
				if n, ok := value.(int64); ok {
					err = fn(n)
				}
			}
			if err != nil {
				return &common.ValidationError{Field: fieldName, Value: value, Message: err.Error()}
			}
		}
		return nil
	}
}

func validateInput(in entity.DocumentInput) error {
	return common.NewValidator().
		Field("reference", in.Reference, common.Required, schemaRule("reference")).
		Field("doc_id", in.DocID, common.Required, schemaRule("doc_id")).
		Error()
}

// validateOutcome checks a processed outcome against the schema before it is
// written. Optional columns left empty are not checked.
func validateOutcome(out entity.DocumentOutcome) error {
	v := common.NewValidator().
		Field("extracted_text_chars", out.ExtractedTextChars, schemaRule("extracted_text_chars"))
	if out.Category != "" {
		v.Field("category", string(out.Category), schemaRule("category")).
			Field("category_confidence", out.CategoryConfidence, schemaRule("category_confidence"))
	}
	if out.ExtractMethod != "" {
		v.Field("extract_method", string(out.ExtractMethod), schemaRule("extract_method"))
	}
	return v.Error()
}
