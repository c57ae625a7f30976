package models

import "strings"

// FieldType is the widget class of a discovered form control.
type FieldType string

const (
	FieldText           FieldType = "text"
	FieldTextarea       FieldType = "textarea"
	FieldSelect         FieldType = "select"
	FieldRadio          FieldType = "radio"
	FieldCheckbox       FieldType = "checkbox"
	FieldCustomDropdown FieldType = "custom-dropdown"
	FieldFile           FieldType = "file"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox, FieldCustomDropdown, FieldFile:
		return true
	}
	return false
}

// Constrained reports whether values for this type must come from the option list.
func (t FieldType) Constrained() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCustomDropdown
}

// FieldDescriptor is the normalized representation of one discovered form control.
type FieldDescriptor struct {
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	FieldType   FieldType         `json:"fieldType" validate:"required,fieldtype"`
	Options     []string          `json:"options,omitempty"`
}

// Attr returns the named attribute or "".
func (f FieldDescriptor) Attr(name string) string {
	if f.Attributes == nil {
		return ""
	}
	return f.Attributes[name]
}

// SearchText is the lowercased label, placeholder, name and id used for keyword matching.
func (f FieldDescriptor) SearchText() string {
	parts := []string{f.Label, f.Placeholder, f.Attr("name"), f.Attr("id"), f.Attr("aria-label")}
	return strings.ToLower(strings.Join(parts, " "))
}

// HasOptions reports whether the descriptor carries a closed option list that
// constrains the value.
func (f FieldDescriptor) HasOptions() bool {
	return len(f.Options) > 0 && f.FieldType.Constrained()
}

// ClassifiedField is the classifier's answer for one field of a batch.
type ClassifiedField struct {
	Index      int     `json:"index"`
	Identifier string  `json:"identifier"`
	ProfileKey *string `json:"profileKey"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	IsQuestion bool    `json:"isQuestion"`
}

// Unanswered builds the empty, zero-confidence entry used for fields the
// classifier could not or did not answer.
func Unanswered(index int) ClassifiedField {
	return ClassifiedField{Index: index, Identifier: "unknown"}
}

// MaxClassificationFields is the number of fields honoured per classification request.
const MaxClassificationFields = 40

// ClassificationRequest is the payload sent from the engine to the classifier.
type ClassificationRequest struct {
	Fields         []FieldDescriptor `json:"fields" validate:"required,min=1,dive"`
	JobTitle       string            `json:"jobTitle,omitempty"`
	JobDescription string            `json:"jobDescription,omitempty"`
	EmployerName   string            `json:"employerName,omitempty"`
}

// ClassificationResponse is the wire form of a classification result.
type ClassificationResponse struct {
	Fields       []ClassifiedField `json:"fields"`
	ResumeUsed   bool              `json:"resumeUsed"`
	ParseFailure bool              `json:"parseFailure,omitempty"`
}
