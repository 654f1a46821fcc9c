package filter

import "strings"

// Query is a native filter expression in the document store's operator language:
// field paths or logical combinators mapped to operator objects or values.
type Query map[string]any

// And is the logical conjunction key used when two fragments cannot be merged in place.
const And = "$and"

// Merge adds frag to q. Operator objects on the same field are deep-merged
// (price_ge and price_le end up under one price key). Colliding combinators
// and non-mergeable field conditions are kept side by side under $and.
func (q Query) Merge(frag Query) {
	for key, val := range frag {
		existing, ok := q[key]
		if !ok {
			q[key] = val
			continue
		}
		if key == And {
			q[And] = append(asList(existing), asList(val)...)
			continue
		}
		if !strings.HasPrefix(key, "$") {
			old, oldOK := asMap(existing)
			add, addOK := asMap(val)
			if oldOK && addOK && !isDocument(old) && !isDocument(add) {
				merged := make(map[string]any, len(old)+len(add))
				for k, v := range old {
					merged[k] = v
				}
				for k, v := range add {
					merged[k] = v
				}
				q[key] = merged
				continue
			}
		}
		delete(q, key)
		q[And] = append(asList(q[And]), map[string]any{key: existing}, map[string]any{key: val})
	}
}

// Clone returns a shallow copy of q.
func (q Query) Clone() Query {
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Query:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func asList(v any) []any {
	switch l := v.(type) {
	case nil:
		return nil
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
	return []any{v}
}

// isDocument reports whether m holds a plain key, i.e. it is a document rather than an operator object.
func isDocument(m map[string]any) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}
