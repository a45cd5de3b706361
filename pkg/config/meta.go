package config

// FieldType tells a client which input widget renders a field.
type FieldType string

const (
	FieldTypeNumber   FieldType = "number"
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeSelect   FieldType = "select"
	FieldTypeDate     FieldType = "date"
)

type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one input of a form so that the HTTP and terminal
// clients render the same questions.
type Field struct {
	Name         string        `json:"name"`
	Type         FieldType     `json:"type"`
	Label        string        `json:"label"`
	DefaultValue any           `json:"defaultValue"`
	Placeholder  string        `json:"placeholder,omitempty"`
	HelpText     string        `json:"helpText,omitempty"`
	Required     bool          `json:"required,omitempty"`
	Options      []FieldOption `json:"options,omitempty"`
	Min          float32       `json:"min,omitempty"`
	Step         float32       `json:"step,omitempty"`
}

// FieldGroup is one page of a multi-step form.
type FieldGroup struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}
