package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the scalar type of a request value.
type Type string

// Scalar types.
const (
	String Type = "string"
	Int    Type = "integer"
	Float  Type = "number"
	Bool   Type = "boolean"
)

// IsNumeric reports whether values of t are numbers.
func (t Type) IsNumeric() bool {
	return t == Int || t == Float
}

// Parse coerces a raw string into a Go value of type t.
func (t Type) Parse(raw string) (any, error) {
	switch t {
	case Int:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as %s: %w", raw, t, err)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as %s: %w", raw, t, err)
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %q as %s: %w", raw, t, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// ParseList splits a comma-separated value, trims every element and coerces it to t.
// Order is preserved; an element that fails coercion fails the whole list.
func (t Type) ParseList(raw string) ([]any, error) {
	parts := strings.Split(raw, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		v, err := t.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
