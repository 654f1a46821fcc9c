package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQueryMerge_SameFieldOperators(t *testing.T) {
	q := Query{}
	q.Merge(Query{"price": map[string]any{"$gte": int64(100)}})
	q.Merge(Query{"price": map[string]any{"$lte": int64(500)}})

	want := Query{"price": map[string]any{"$gte": int64(100), "$lte": int64(500)}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryMerge_DoesNotMutateFragments(t *testing.T) {
	first := map[string]any{"$gte": 1}
	q := Query{}
	q.Merge(Query{"price": first})
	q.Merge(Query{"price": map[string]any{"$lte": 2}})

	if len(first) != 1 {
		t.Errorf("first fragment mutated: %v", first)
	}
}

func TestQueryMerge_CombinatorCollision(t *testing.T) {
	a := []any{map[string]any{"title": "x"}}
	b := []any{map[string]any{"category.id": "y"}}

	q := Query{}
	q.Merge(Query{"$or": a})
	q.Merge(Query{"$or": b})

	want := Query{And: []any{
		map[string]any{"$or": a},
		map[string]any{"$or": b},
	}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryMerge_ScalarAndOperator(t *testing.T) {
	q := Query{"version": 3}
	q.Merge(Query{"version": map[string]any{"$gt": 1}})

	want := Query{And: []any{
		map[string]any{"version": 3},
		map[string]any{"version": map[string]any{"$gt": 1}},
	}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryMerge_AppendsToAnd(t *testing.T) {
	q := Query{And: []any{map[string]any{"a": 1}}}
	q.Merge(Query{And: []any{map[string]any{"b": 2}}})

	want := Query{And: []any{map[string]any{"a": 1}, map[string]any{"b": 2}}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}
