package filter

import (
	"net/url"
	"slices"
	"sync/atomic"
)

// Backend compiles a resolved catalog and bound request values into a native query.
type Backend interface {
	// Operators returns the operators the backend maps to native ones, in canonical order.
	Operators() []Operator
	Compile(c *Catalog, p Params) (Query, error)
}

// Catalog is the resolved, ordered filter list of a Set. It is read-only.
type Catalog struct {
	entries []Declaration
	index   map[string]int
}

// Declarations returns a copy of the resolved declarations in catalog order.
func (c *Catalog) Declarations() []Declaration {
	out := make([]Declaration, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the declaration with the given name.
func (c *Catalog) Lookup(name string) (Declaration, bool) {
	i, ok := c.index[name]
	if !ok {
		return Declaration{}, false
	}
	return c.entries[i], true
}

// Len returns the number of declarations.
func (c *Catalog) Len() int { return len(c.entries) }

// Set is a named group of filter declarations over one entity schema.
// Its catalog and parameter surface are resolved lazily and memoized.
type Set struct {
	name         string
	schema       *Schema
	allow        []string
	declarations []Declaration
	backend      Backend

	resolved atomic.Pointer[resolution]
}

type resolution struct {
	catalog *Catalog
	surface *Surface
}

// NewSet creates a filter set. allow lists the schema attributes that get auto-derived
// default filters; declarations are explicit filters that override defaults by name.
func NewSet(name string, backend Backend, schema *Schema, allow []string, declarations ...Declaration) *Set {
	return &Set{
		name:         name,
		schema:       schema,
		allow:        slices.Clone(allow),
		declarations: slices.Clone(declarations),
		backend:      backend,
	}
}

// Name returns the set name.
func (s *Set) Name() string { return s.name }

// Catalog returns the memoized resolved catalog.
func (s *Set) Catalog() *Catalog {
	return s.resolve().catalog
}

// Surface returns the memoized request parameter surface.
func (s *Set) Surface() *Surface {
	return s.resolve().surface
}

// Bind normalizes raw request values against the parameter surface.
func (s *Set) Bind(values url.Values) (Params, error) {
	return s.Surface().Bind(values)
}

// Compile binds values and compiles them into a native query.
func (s *Set) Compile(values url.Values) (Query, error) {
	p, err := s.Bind(values)
	if err != nil {
		return nil, err
	}
	return s.backend.Compile(s.Catalog(), p)
}

// Concurrent first calls may resolve twice; results are equal so the last store wins.
func (s *Set) resolve() *resolution {
	if r := s.resolved.Load(); r != nil {
		return r
	}
	c := Resolve(s.schema, s.allow, s.backend.Operators(), s.declarations)
	r := &resolution{catalog: c, surface: BuildParameterSurface(c)}
	s.resolved.Store(r)
	return r
}

// Resolve merges auto-derived defaults with explicit declarations.
//
// Defaults are derived first, in allow-list order, for the allow-listed schema
// attributes with the full operator set. Declarations are then overlaid by name:
// a declaration replaces the same-named entry in place, otherwise it is appended.
// A declaration without operators gets the full operator set.
func Resolve(schema *Schema, allow []string, operators []Operator, declarations []Declaration) *Catalog {
	c := &Catalog{index: make(map[string]int)}
	put := func(d Declaration) {
		d.Operators = slices.Clone(d.Operators)
		d.Choices = slices.Clone(d.Choices)
		d.Fields = slices.Clone(d.Fields)
		if i, ok := c.index[d.Name]; ok {
			c.entries[i] = d
			return
		}
		c.index[d.Name] = len(c.entries)
		c.entries = append(c.entries, d)
	}

	for _, name := range allow {
		f, ok := schema.Lookup(name)
		if !ok {
			continue
		}
		put(Declaration{
			Name:        f.Name,
			Field:       f.Field,
			Description: f.Name,
			Kind:        SingleField,
			Type:        f.Type,
			Operators:   operators,
		})
	}

	for _, d := range declarations {
		if d.Kind == SingleField && len(d.Operators) == 0 {
			d.Operators = operators
		}
		if d.Field == "" {
			d.Field = d.Name
		}
		put(d)
	}
	return c
}
