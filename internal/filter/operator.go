// Package filter turns declarative filter definitions into a request parameter
// surface and, through a Backend, into a native store query.
package filter

// Operator is a comparison tag used as the parameter suffix (price_ge, sex_list_in).
type Operator string

// Comparison operators. Each backend maps them 1:1 to a native operator.
const (
	Eq    Operator = "eq"
	Lt    Operator = "lt"
	Gt    Operator = "gt"
	Le    Operator = "le"
	Ge    Operator = "ge"
	Ne    Operator = "ne"
	In    Operator = "in"
	NotIn Operator = "not_in"
)

// AllOperators returns every operator in canonical order.
func AllOperators() []Operator {
	return []Operator{Eq, Lt, Gt, Le, Ge, Ne, In, NotIn}
}

// IsList reports whether the operator takes a comma-separated list.
func (o Operator) IsList() bool {
	return o == In || o == NotIn
}
