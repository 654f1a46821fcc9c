// Package mongo compiles filter catalogs into MongoDB query documents.
package mongo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/byshoes/byshoes/internal/domain"
	"github.com/byshoes/byshoes/internal/filter"
)

var _ filter.Backend = (*Backend)(nil)

var operators = map[filter.Operator]string{
	filter.Eq:    "$eq",
	filter.Lt:    "$lt",
	filter.Gt:    "$gt",
	filter.Le:    "$lte",
	filter.Ge:    "$gte",
	filter.Ne:    "$ne",
	filter.In:    "$in",
	filter.NotIn: "$nin",
}

// Backend compiles into the MongoDB query language.
type Backend struct{}

// New creates a Backend.
func New() *Backend { return &Backend{} }

// Operators returns every supported operator.
func (b *Backend) Operators() []filter.Operator {
	return filter.AllOperators()
}

// Native returns the MongoDB operator for op.
func Native(op filter.Operator) (string, bool) {
	n, ok := operators[op]
	return n, ok
}

// Compile turns bound params into a query document. Parameters that match no
// declaration, or name an operator the declaration or backend does not know, are ignored.
func (b *Backend) Compile(c *filter.Catalog, p filter.Params) (filter.Query, error) {
	q := filter.Query{}
	params := p.All()
	for _, d := range c.Declarations() {
		for _, param := range params {
			frag, err := compileParam(d, param)
			if err != nil {
				return nil, err
			}
			if len(frag) > 0 {
				q.Merge(frag)
			}
		}
	}
	return q, nil
}

func compileParam(d filter.Declaration, param filter.Param) (filter.Query, error) {
	switch d.Kind {
	case filter.Method:
		if param.Name != d.Name || d.Method == nil {
			return nil, nil
		}
		return d.Method(param.Name, param.Value)
	case filter.MultiFieldSearch:
		if param.Name != d.Name {
			return nil, nil
		}
		return search(d, fmt.Sprint(param.Value)), nil
	case filter.SingleField:
		return single(d, param)
	}
	return nil, nil
}

func single(d filter.Declaration, param filter.Param) (filter.Query, error) {
	prefix := d.Name + "_"
	if !strings.HasPrefix(param.Name, prefix) {
		return nil, nil
	}
	op := filter.Operator(strings.TrimPrefix(param.Name, prefix))
	if !d.Allows(op) {
		return nil, nil
	}
	native, ok := operators[op]
	if !ok {
		return nil, nil
	}

	value := param.Value
	if op.IsList() {
		raw := fmt.Sprint(param.Value)
		list, err := d.ElementType().ParseList(raw)
		if err != nil {
			return nil, domain.NewFilterValueError(param.Name, raw)
		}
		value = list
	}
	return filter.Query{d.Field: map[string]any{native: value}}, nil
}

func search(d filter.Declaration, value string) filter.Query {
	conds := make([]any, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Type.IsNumeric() {
			if v, err := f.Type.Parse(value); err == nil {
				conds = append(conds, map[string]any{f.Field: v})
				continue
			}
			conds = append(conds, map[string]any{f.Field: value})
			continue
		}
		conds = append(conds, map[string]any{f.Field: Contains(value)})
	}
	if len(conds) == 0 {
		return nil
	}
	return filter.Query{"$or": conds}
}

// Contains is a case-insensitive substring match on the literal value.
func Contains(value string) map[string]any {
	return map[string]any{"$regex": regexp.QuoteMeta(value), "$options": "i"}
}
