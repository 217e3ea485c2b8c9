// Package domain contains pure, dependency-free domain models and types
// for the evaluation scoring and early-intervention core.
package domain

// TemplateID uniquely identifies an evaluation template.
type TemplateID int64

// SectionID uniquely identifies a section within a template.
type SectionID int64

// FieldID is the opaque identifier of a single template field.
// On the wire it is a string-encoded integer; the core never interprets
// its contents beyond equality.
type FieldID string

// FieldType enumerates the kinds of fields a template can carry.
// Only FieldRating participates in scoring; the remaining types are
// carried for the form-authoring collaborator and ignored by this core.
type FieldType string

const (
	// FieldRating is a numeric rating field, the only scored field type.
	FieldRating FieldType = "RATING"

	// FieldText is a free-text field.
	FieldText FieldType = "TEXT"

	// FieldCheckbox is a boolean acknowledgment field.
	FieldCheckbox FieldType = "CHECKBOX"

	// FieldSignature is a sign-off field captured at review time.
	FieldSignature FieldType = "SIGNATURE"
)

// Scored reports whether answers to fields of this type contribute to
// rating aggregation.
func (t FieldType) Scored() bool { return t == FieldRating }

// Field is a single answerable item within a section.
type Field struct {
	// ID is the opaque field identifier used to key raw answers.
	ID FieldID `json:"id"`

	// Label is the prompt shown to the reviewer.
	Label string `json:"label"`

	// Type determines whether the field participates in scoring.
	Type FieldType `json:"type"`

	// Position is the ordinal position of the field within its section.
	Position int `json:"position"`
}

// Section groups an ordered sequence of fields under a title.
// The title doubles as the category label for pooled averages; there is
// no separate category taxonomy.
type Section struct {
	ID       SectionID `json:"id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
	Fields   []Field   `json:"fields"`
}

// Template is an ordered sequence of sections describing one evaluation
// form. Templates are authored by an external collaborator and read-only
// to this core; they are treated as immutable once a response references
// them, though that invariant is owned by the authoring side.
type Template struct {
	ID       TemplateID `json:"id"`
	Title    string     `json:"title"`
	Sections []Section  `json:"sections"`
}

// RatingFields returns all rating-typed fields across every section of
// the template, flattened in section-then-field order. Category
// boundaries are intentionally discarded; callers that need per-section
// grouping iterate Sections directly.
func (t *Template) RatingFields() []Field {
	var fields []Field
	for _, sec := range t.Sections {
		for _, f := range sec.Fields {
			if f.Type.Scored() {
				fields = append(fields, f)
			}
		}
	}
	return fields
}
