package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/joseph-ayodele/docqueue/constants"
	"github.com/joseph-ayodele/docqueue/db/ent/schema/utils"
)

// Document is the queue row for one submitted case document. Timestamps are
// unix milliseconds so the same table works on SQLite and Postgres.
type Document struct {
	ent.Schema
}

func (Document) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "documents"},
	}
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id").
			Immutable().
			StorageKey("id"),
		field.String("reference").NotEmpty().Immutable(),
		field.String("doc_id").NotEmpty().Immutable(),
		field.String("title").Default(""),
		field.String("doc_type").Optional().Nillable(),
		field.String("url").Optional().Nillable(),
		field.String("local_path").Optional().Nillable(),
		field.String("mime_type").Optional().Nillable(),
		field.String("content_hash").Optional().Nillable(),

		field.String("processing_status").
			Default(string(constants.StatusQueued)).
			Validate(utils.EnumValidator(constants.ProcessingStatuses...)),
		field.String("category").Optional().Nillable().
			Validate(utils.EnumValidator(constants.AsStringSlice()...)),
		field.Float("category_confidence").Optional().Nillable().
			Min(0).Max(1).
			SchemaType(map[string]string{dialect.Postgres: "double precision"}),

		field.String("extract_method").Optional().Nillable().
			Validate(utils.EnumValidator(constants.ExtractMethods...)),
		field.Int("extracted_text_chars").Default(0).NonNegative(),
		field.Text("extracted_metadata_json").Optional().Nillable(),
		field.Bool("is_plan_or_drawing").Default(false),
		field.Bool("is_scanned").Default(false),
		field.Bool("has_any_content_signal").Default(false),
		field.Text("failure_reason").Optional().Nillable(),

		field.String("claimed_by").Optional().Nillable(),
		field.Int64("claimed_at").Optional().Nillable(),
		field.Int64("finished_at").Optional().Nillable(),
		field.Int64("created_at").Immutable(),
		field.Int64("updated_at"),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("reference", "doc_id").Unique(),
		index.Fields("processing_status"),
		index.Fields("reference", "processing_status"),
	}
}

