package filter

import "slices"

// Kind selects how a declaration is compiled.
type Kind int

const (
	// SingleField compares one storage field with a family of operators.
	SingleField Kind = iota
	// MultiFieldSearch ORs a substring match over several storage fields.
	MultiFieldSearch
	// Method delegates to a custom function that returns a native fragment.
	Method
)

func (k Kind) String() string {
	switch k {
	case SingleField:
		return "single_field"
	case MultiFieldSearch:
		return "multi_field_search"
	case Method:
		return "method"
	}
	return "unknown"
}

// MatchMode is how a MultiFieldSearch compares one of its fields.
type MatchMode string

// Contains is a case-insensitive substring match (exact match for numeric fields).
const Contains MatchMode = "contains"

// SearchField is one storage field covered by a MultiFieldSearch.
// Numeric fields are matched exactly instead of by substring.
type SearchField struct {
	Field string
	Mode  MatchMode
	Type  Type
}

// Contain is a case-insensitive substring SearchField over a string field.
func Contain(field string) SearchField {
	return SearchField{Field: field, Mode: Contains, Type: String}
}

// MethodFunc builds a native fragment from the parameter name and its normalized value.
type MethodFunc func(param string, value any) (Query, error)

// Declaration describes one filterable attribute or attribute group.
// Declarations are values; a resolved catalog never mutates them.
type Declaration struct {
	Name        string
	Field       string
	Description string
	Kind        Kind
	Type        Type
	Inner       Type
	Operators   []Operator
	Choices     []string
	Default     any
	Fields      []SearchField
	Method      MethodFunc
}

// Option configures a SingleField declaration.
type Option func(*Declaration)

// On sets the storage dot-path when it differs from the name.
func On(field string) Option {
	return func(d *Declaration) { d.Field = field }
}

// Ops restricts the declaration to the given operators.
func Ops(ops ...Operator) Option {
	return func(d *Declaration) { d.Operators = ops }
}

// Of sets the scalar value type.
func Of(t Type) Option {
	return func(d *Declaration) { d.Type = t }
}

// ListOf marks the declaration as list-valued with elements of type t.
// The request value is a comma-separated string.
func ListOf(t Type) Option {
	return func(d *Declaration) {
		d.Type = String
		d.Inner = t
	}
}

// Describe sets the human readable description used in parameter docs.
func Describe(desc string) Option {
	return func(d *Declaration) { d.Description = desc }
}

// Default sets the value used when the request omits the parameter.
func Default(v any) Option {
	return func(d *Declaration) { d.Default = v }
}

// OneOf restricts scalar values (and list elements) to a fixed set.
func OneOf(choices ...string) Option {
	return func(d *Declaration) { d.Choices = choices }
}

// Field declares a SingleField filter. Without Ops it accepts every backend operator.
func Field(name string, opts ...Option) Declaration {
	d := Declaration{
		Name:        name,
		Field:       name,
		Description: name,
		Kind:        SingleField,
		Type:        String,
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// Search declares a MultiFieldSearch filter over fields.
func Search(name, description string, fields ...SearchField) Declaration {
	return Declaration{
		Name:        name,
		Description: description,
		Kind:        MultiFieldSearch,
		Type:        String,
		Fields:      fields,
	}
}

// ByMethod declares a Method filter whose value has type t.
func ByMethod(name, description string, t Type, fn MethodFunc) Declaration {
	return Declaration{
		Name:        name,
		Description: description,
		Kind:        Method,
		Type:        t,
		Method:      fn,
	}
}

// Allows reports whether op is valid for this declaration.
func (d Declaration) Allows(op Operator) bool {
	return slices.Contains(d.Operators, op)
}

// ElementType is the type list elements are coerced to for in/not_in.
func (d Declaration) ElementType() Type {
	if d.Inner != "" {
		return d.Inner
	}
	return d.Type
}

// ParamName returns the request parameter for op.
func (d Declaration) ParamName(op Operator) string {
	return d.Name + "_" + string(op)
}

// IsBare reports whether the declaration is exposed as a single parameter named after it.
func (d Declaration) IsBare() bool {
	return d.Kind != SingleField
}

// ValueTypeFor returns the request value type of the parameter for op.
func (d Declaration) ValueTypeFor(op Operator) Type {
	if op.IsList() {
		return String
	}
	return d.Type
}
