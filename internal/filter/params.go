package filter

import (
	"net/url"
	"slices"
	"strings"

	"github.com/byshoes/byshoes/internal/domain"
)

// Parameter is one request parameter generated from a declaration.
type Parameter struct {
	Name        string   `json:"name"`
	Filter      string   `json:"filter,omitempty"`
	Operator    Operator `json:"operator,omitempty"`
	Type        Type     `json:"type"`
	Items       Type     `json:"items,omitempty"`
	Default     any      `json:"default,omitempty"`
	Description string   `json:"description"`
	Choices     []string `json:"choices,omitempty"`
}

// Surface is the ordered request parameter schema of a catalog.
type Surface struct {
	params []Parameter
}

// BuildParameterSurface synthesizes one parameter per (declaration, operator) pair
// for SingleField declarations and one bare parameter for the other kinds.
func BuildParameterSurface(c *Catalog) *Surface {
	s := &Surface{}
	for _, d := range c.entries {
		if d.IsBare() {
			s.params = append(s.params, Parameter{
				Name:        d.Name,
				Filter:      d.Name,
				Type:        d.Type,
				Default:     d.Default,
				Description: "Filter " + d.Description,
				Choices:     slices.Clone(d.Choices),
			})
			continue
		}
		for _, op := range d.Operators {
			p := Parameter{
				Name:        d.ParamName(op),
				Filter:      d.Name,
				Operator:    op,
				Type:        d.ValueTypeFor(op),
				Default:     d.Default,
				Description: "Filter " + d.Description + "_" + string(op),
				Choices:     slices.Clone(d.Choices),
			}
			if op.IsList() {
				p.Items = d.ElementType()
			}
			s.params = append(s.params, p)
		}
	}
	return s
}

// Parameters returns a copy of the surface.
func (s *Surface) Parameters() []Parameter {
	out := make([]Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Bind captures and normalizes the surface parameters present in values.
// Strings are percent-decoded and lower-cased, scalars are coerced to their
// declared type, list values stay comma-separated strings for the backend to split.
// Empty values count as absent; absent parameters take their default if any.
func (s *Surface) Bind(values url.Values) (Params, error) {
	var out Params
	for _, p := range s.params {
		raw := strings.TrimSpace(values.Get(p.Name))
		if raw == "" {
			if p.Default != nil {
				out.Set(p.Name, p.Default)
			}
			continue
		}
		v, err := p.normalize(raw)
		if err != nil {
			return Params{}, err
		}
		out.Set(p.Name, v)
	}
	return out, nil
}

func (p Parameter) normalize(raw string) (any, error) {
	if dec, err := url.QueryUnescape(raw); err == nil {
		raw = dec
	}
	raw = strings.ToLower(raw)

	if p.Operator.IsList() {
		if len(p.Choices) > 0 {
			for _, el := range strings.Split(raw, ",") {
				if !slices.Contains(p.Choices, strings.TrimSpace(el)) {
					return nil, domain.NewFilterValueError(p.Name, raw)
				}
			}
		}
		return raw, nil
	}

	v, err := p.Type.Parse(raw)
	if err != nil {
		return nil, domain.NewFilterValueError(p.Name, raw)
	}
	if len(p.Choices) > 0 {
		if str, ok := v.(string); ok && !slices.Contains(p.Choices, str) {
			return nil, domain.NewFilterValueError(p.Name, raw)
		}
	}
	return v, nil
}

// Param is one bound request value.
type Param struct {
	Name  string
	Value any
}

// Params is the ordered set of normalized request values for one request.
type Params struct {
	entries []Param
}

// NewParams builds a Params from name/value pairs, mainly for callers that compile without HTTP.
func NewParams(entries ...Param) Params {
	var p Params
	for _, e := range entries {
		p.Set(e.Name, e.Value)
	}
	return p
}

// Set stores v under name. A nil value removes the entry.
func (p *Params) Set(name string, v any) {
	for i := range p.entries {
		if p.entries[i].Name == name {
			if v == nil {
				p.entries = slices.Delete(p.entries, i, i+1)
				return
			}
			p.entries[i].Value = v
			return
		}
	}
	if v != nil {
		p.entries = append(p.entries, Param{Name: name, Value: v})
	}
}

// Get returns the value stored under name.
func (p Params) Get(name string) (any, bool) {
	for _, e := range p.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// All returns the entries in binding order.
func (p Params) All() []Param {
	return slices.Clone(p.entries)
}

// Len returns the number of bound values.
func (p Params) Len() int { return len(p.entries) }
