// Package template defines the resume template schema: a recursive set of
// String, Object and Array field declarations keyed by name.
package template

// FieldType is the discriminant that selects a field variant.
type FieldType string

// Field variants. The literal values are part of the on-disk format.
const (
	TypeString FieldType = "String"
	TypeObject FieldType = "Object"
	TypeArray  FieldType = "Array"
)

// Valid reports whether t names one of the three field variants.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeObject, TypeArray:
		return true
	}
	return false
}

// BaseField holds the metadata every field variant carries.
type BaseField struct {
	Description string // human-readable purpose of the field
	LLMInfo     string // hint for a text generator filling the field
	Required    bool   // absent means not required
}

// Field is one of *StringField, *ObjectField or *ArrayField.
type Field interface {
	Type() FieldType
	Base() *BaseField
	isField()
}

// StringField is a single text scalar.
type StringField struct {
	BaseField
}

// ArrayField is an ordered sequence whose elements all share Items.
type ArrayField struct {
	BaseField
	// Arrangeable marks the order as user-reorderable. It is a hint only.
	Arrangeable bool
	Items       Field
}

// ObjectField is a record with fixed properties, an open string map, or both.
type ObjectField struct {
	BaseField
	Properties           *Fields
	AdditionalProperties *AdditionalProperties
}

// AdditionalProperties permits undeclared keys on an object. Only String
// values are supported.
type AdditionalProperties struct {
	Type FieldType
}

// StringValues is the only additionalProperties form templates may declare.
func StringValues() *AdditionalProperties {
	return &AdditionalProperties{Type: TypeString}
}

func (f *StringField) Type() FieldType  { return TypeString }
func (f *StringField) Base() *BaseField { return &f.BaseField }
func (f *StringField) isField()         {}

func (f *ArrayField) Type() FieldType  { return TypeArray }
func (f *ArrayField) Base() *BaseField { return &f.BaseField }
func (f *ArrayField) isField()         {}

func (f *ObjectField) Type() FieldType  { return TypeObject }
func (f *ObjectField) Base() *BaseField { return &f.BaseField }
func (f *ObjectField) isField()         {}

// Schema is the root of a resume template: named top-level fields in
// declaration order.
type Schema struct {
	Fields
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// IsRequired reports whether f is non-nil and marked required.
func IsRequired(f Field) bool {
	return f != nil && f.Base().Required
}
