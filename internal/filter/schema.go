package filter

// SchemaField is one attribute of the stored entity that defaults may be derived from.
type SchemaField struct {
	Name  string
	Field string
	Type  Type
}

// Schema is the ordered attribute list of a stored entity.
type Schema struct {
	fields []SchemaField
	index  map[string]int
}

// NewSchema creates a schema. Field defaults to Name when empty.
func NewSchema(fields ...SchemaField) *Schema {
	s := &Schema{
		fields: make([]SchemaField, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Field == "" {
			f.Field = f.Name
		}
		if f.Type == "" {
			f.Type = String
		}
		if i, ok := s.index[f.Name]; ok {
			s.fields[i] = f
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Lookup returns the attribute with the given name.
func (s *Schema) Lookup(name string) (SchemaField, bool) {
	if s == nil {
		return SchemaField{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return SchemaField{}, false
	}
	return s.fields[i], true
}

// TypeOf returns the type of the attribute stored at the dot-path field.
func (s *Schema) TypeOf(field string) (Type, bool) {
	if s == nil {
		return "", false
	}
	for _, f := range s.fields {
		if f.Field == field {
			return f.Type, true
		}
	}
	return "", false
}

// Fields returns a copy of all attributes in declaration order.
func (s *Schema) Fields() []SchemaField {
	if s == nil {
		return nil
	}
	out := make([]SchemaField, len(s.fields))
	copy(out, s.fields)
	return out
}
