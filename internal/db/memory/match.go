package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/filter"
)

// missing stands for an absent field; it equals nil like a BSON null.
type missing struct{}

// Match reports whether doc satisfies the query document q. It understands
// $and, $or, $nor, implicit equality and the comparison, set, $regex and
// $exists operators, with array traversal on dot paths.
func Match(doc map[string]any, q filter.Query) (bool, error) {
	return matchDoc(doc, q)
}

func matchDoc(doc map[string]any, q map[string]any) (bool, error) {
	for key, cond := range q {
		ok, err := matchKey(doc, key, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchKey(doc map[string]any, key string, cond any) (bool, error) {
	switch key {
	case "$and", "$or", "$nor":
		subs, err := subQueries(key, cond)
		if err != nil {
			return false, err
		}
		return matchLogical(doc, key, subs)
	}
	if strings.HasPrefix(key, "$") {
		return false, fmt.Errorf("unsupported top-level operator %s", key)
	}

	values := lookup(doc, strings.Split(key, "."))
	if ops, ok := operatorObject(cond); ok {
		for op, arg := range ops {
			if op == "$options" {
				continue
			}
			ok, err := matchOperator(values, op, arg, ops)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	return anyEqual(values, cond), nil
}

func matchLogical(doc map[string]any, key string, subs []map[string]any) (bool, error) {
	for _, sub := range subs {
		ok, err := matchDoc(doc, sub)
		if err != nil {
			return false, err
		}
		switch {
		case key == "$and" && !ok:
			return false, nil
		case key == "$or" && ok:
			return true, nil
		case key == "$nor" && ok:
			return false, nil
		}
	}
	return key != "$or", nil
}

func matchOperator(values []any, op string, arg any, ops map[string]any) (bool, error) {
	switch op {
	case "$eq":
		return anyEqual(values, arg), nil
	case "$ne":
		return !anyEqual(values, arg), nil
	case "$in":
		list, err := argList(op, arg)
		if err != nil {
			return false, err
		}
		return anyIn(values, list), nil
	case "$nin":
		list, err := argList(op, arg)
		if err != nil {
			return false, err
		}
		return !anyIn(values, list), nil
	case "$lt", "$lte", "$gt", "$gte":
		for _, v := range values {
			c, ok := compare(v, arg)
			if !ok {
				continue
			}
			if (op == "$lt" && c < 0) || (op == "$lte" && c <= 0) || (op == "$gt" && c > 0) || (op == "$gte" && c >= 0) {
				return true, nil
			}
		}
		return false, nil
	case "$regex":
		re, err := compileRegex(arg, ops["$options"])
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true, nil
			}
		}
		return false, nil
	case "$exists":
		want, _ := arg.(bool)
		exists := false
		for _, v := range values {
			if _, ok := v.(missing); !ok {
				exists = true
				break
			}
		}
		return exists == want, nil
	}
	return false, fmt.Errorf("unsupported operator %s", op)
}

// lookup resolves a dot path, fanning out over arrays. Leaf arrays contribute
// themselves and their elements.
func lookup(v any, path []string) []any {
	if len(path) == 0 {
		if arr, ok := v.([]any); ok {
			return append([]any{v}, arr...)
		}
		return []any{v}
	}
	switch t := v.(type) {
	case map[string]any:
		next, ok := t[path[0]]
		if !ok {
			return []any{missing{}}
		}
		return lookup(next, path[1:])
	case []any:
		var out []any
		for _, el := range t {
			if _, ok := el.(map[string]any); ok {
				out = append(out, lookup(el, path)...)
			}
		}
		if len(out) == 0 {
			return []any{missing{}}
		}
		return out
	}
	return []any{missing{}}
}

func anyEqual(values []any, want any) bool {
	for _, v := range values {
		if equal(v, want) {
			return true
		}
	}
	return false
}

func anyIn(values []any, list []any) bool {
	for _, want := range list {
		if anyEqual(values, want) {
			return true
		}
	}
	return false
}

func equal(v, want any) bool {
	if want == nil {
		if v == nil {
			return true
		}
		_, ok := v.(missing)
		return ok
	}
	if c, ok := compare(v, want); ok {
		return c == 0
	}
	if b, ok := want.(bool); ok {
		vb, ok := v.(bool)
		return ok && vb == b
	}
	return false
}

// compare orders two scalars of the same kind: numbers, strings or times.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func operatorObject(cond any) (map[string]any, bool) {
	var m map[string]any
	switch t := cond.(type) {
	case map[string]any:
		m = t
	case filter.Query:
		m = t
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func subQueries(key string, cond any) ([]map[string]any, error) {
	var out []map[string]any
	add := func(v any) error {
		switch t := v.(type) {
		case map[string]any:
			out = append(out, t)
		case filter.Query:
			out = append(out, t)
		default:
			return fmt.Errorf("%s expects documents, got %T", key, v)
		}
		return nil
	}
	switch t := cond.(type) {
	case []any:
		for _, v := range t {
			if err := add(v); err != nil {
				return nil, err
			}
		}
	case []map[string]any:
		for _, v := range t {
			out = append(out, v)
		}
	case []filter.Query:
		for _, v := range t {
			out = append(out, v)
		}
	default:
		return nil, fmt.Errorf("%s expects an array, got %T", key, cond)
	}
	return out, nil
}

func argList(op string, arg any) ([]any, error) {
	switch t := arg.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s expects an array, got %T", op, arg)
}

func compileRegex(pattern, options any) (*regexp.Regexp, error) {
	p, ok := pattern.(string)
	if !ok {
		return nil, fmt.Errorf("$regex expects a string, got %T", pattern)
	}
	if opts, _ := options.(string); strings.Contains(opts, "i") {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("compile $regex: %w", err)
	}
	return re, nil
}

// less orders two documents by the sort keys; absent values sort first.
func less(a, b map[string]any, keys []db.SortField) bool {
	for _, k := range keys {
		va := first(lookup(a, strings.Split(k.Field, ".")))
		vb := first(lookup(b, strings.Split(k.Field, ".")))
		c := order(va, vb)
		if c != 0 {
			return c*k.Direction < 0
		}
	}
	return false
}

func first(values []any) any {
	if len(values) == 0 {
		return missing{}
	}
	return values[0]
}

func order(a, b any) int {
	_, aMissing := a.(missing)
	_, bMissing := b.(missing)
	aNull := aMissing || a == nil
	bNull := bMissing || b == nil
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
