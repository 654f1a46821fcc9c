package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/byshoes/byshoes/internal/domain"
)

// Direction is a sort direction in the store's convention.
type Direction int

// Sort directions.
const (
	Asc  Direction = 1
	Desc Direction = -1
)

var directions = map[string]Direction{
	"asc":  Asc,
	"desc": Desc,
}

// ParseDirection maps a direction token to a Direction. An empty token is ascending;
// anything else must be exactly "asc" or "desc".
func ParseDirection(token string) (Direction, error) {
	if token == "" {
		return Asc, nil
	}
	d, ok := directions[token]
	if !ok {
		return 0, fmt.Errorf("direction %q: %w", token, domain.ErrInvalidParameter)
	}
	return d, nil
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// OrderSpec is a resolved (field, direction) pair. Field is empty when no sort was requested.
type OrderSpec struct {
	Field     string
	Direction Direction
}

// Or fills in field when the spec carries none.
func (o OrderSpec) Or(field string) OrderSpec {
	if o.Field == "" {
		o.Field = field
	}
	return o
}

// OrderSet reads a sort field and a direction token from the request.
type OrderSet struct {
	SortParam        string
	DirectionParam   string
	DefaultField     string
	DefaultDirection Direction
	// Allowed restricts sortable fields when non-empty.
	Allowed []string
}

// NewOrderSet creates an ordering. It panics on an unknown default direction token.
func NewOrderSet(sortParam, directionParam, defaultField, defaultDirection string, allowed ...string) *OrderSet {
	d, err := ParseDirection(defaultDirection)
	if err != nil {
		panic(fmt.Sprintf("filter: invalid default direction: %v", err))
	}
	return &OrderSet{
		SortParam:        sortParam,
		DirectionParam:   directionParam,
		DefaultField:     defaultField,
		DefaultDirection: d,
		Allowed:          allowed,
	}
}

// Apply resolves the order from request values.
func (s *OrderSet) Apply(values url.Values) (OrderSpec, error) {
	spec := OrderSpec{Field: s.DefaultField, Direction: s.DefaultDirection}

	if field := strings.TrimSpace(values.Get(s.SortParam)); field != "" {
		if strings.Contains(field, "$") || strings.HasPrefix(field, ".") || strings.HasSuffix(field, ".") {
			return OrderSpec{}, domain.NewParameterError(s.SortParam, field)
		}
		if len(s.Allowed) > 0 && !slices.Contains(s.Allowed, field) {
			return OrderSpec{}, domain.NewParameterError(s.SortParam, field)
		}
		spec.Field = field
	}

	if token := values.Get(s.DirectionParam); token != "" {
		d, err := ParseDirection(token)
		if err != nil {
			return OrderSpec{}, domain.NewParameterError(s.DirectionParam, token)
		}
		spec.Direction = d
	}
	return spec, nil
}

// Parameters describes the ordering parameters for discovery.
func (s *OrderSet) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        s.SortParam,
			Type:        String,
			Default:     s.DefaultField,
			Description: "Sort field",
			Choices:     slices.Clone(s.Allowed),
		},
		{
			Name:        s.DirectionParam,
			Type:        String,
			Default:     s.DefaultDirection.String(),
			Description: "Sort direction",
			Choices:     []string{"asc", "desc"},
		},
	}
}
