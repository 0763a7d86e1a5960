package core

type FieldType string

const (
	FieldText      FieldType = "TEXT"
	FieldEmail     FieldType = "EMAIL"
	FieldDate      FieldType = "DATE"
	FieldCheckbox  FieldType = "CHECKBOX"
	FieldRadio     FieldType = "RADIO"
	FieldSelect    FieldType = "SELECT"
	FieldSignature FieldType = "SIGNATURE"
	FieldTextarea  FieldType = "TEXTAREA"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldDate, FieldCheckbox, FieldRadio, FieldSelect, FieldSignature, FieldTextarea:
		return true
	default:
		return false
	}
}

type DBFormField interface {
	ID() int
	DocumentID() int
	Name() string
	Type() FieldType
	Position() int
	Required() bool
	Placeholder() string
	Options() []string // for select and radio fields
}

// FormFieldSpec is a form field as submitted by a client.
type FormFieldSpec struct {
	Name        string
	Type        FieldType
	Position    int
	Required    bool
	Placeholder string
	Options     []string
}

type FormFieldDB interface {
	GetFormFields(documentID int) ([]DBFormField, error)
	DeleteFormFields(documentID int) error
	ReplaceFormFields(documentID int, fields []FormFieldSpec) error
}

// FormFields returns the document's form fields ordered by position.
func (d *Document) FormFields() ([]DBFormField, error) {
	return d.db.GetFormFields(d.ID())
}
