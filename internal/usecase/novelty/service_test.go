package novelty

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- Mocks ---

type mockStore struct {
	maxVersionFn func(ctx context.Context) (int, error)
	completed    int
	completedErr error
	keys         map[int][]string
	keysCalls    []int
	resolveFn    func(ctx context.Context, version int, keys []string) ([]string, error)
}

func (m *mockStore) MaxVersion(ctx context.Context) (int, error) {
	if m.maxVersionFn != nil {
		return m.maxVersionFn(ctx)
	}
	v := 0
	for k := range m.keys {
		v = max(v, k)
	}
	return v, nil
}

func (m *mockStore) CompletedVersion(context.Context) (int, error) {
	return m.completed, m.completedErr
}

func (m *mockStore) NaturalKeys(_ context.Context, version int) ([]string, error) {
	m.keysCalls = append(m.keysCalls, version)
	return m.keys[version], nil
}

func (m *mockStore) IDsByNaturalKey(ctx context.Context, version int, keys []string) ([]string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, version, keys)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = "id-" + k
	}
	return ids, nil
}

type mockCache struct {
	data map[int][]string
	puts int
}

func (m *mockCache) Get(_ context.Context, version int) ([]string, bool) {
	ids, ok := m.data[version]
	return ids, ok
}

func (m *mockCache) Put(_ context.Context, version int, ids []string) {
	if m.data == nil {
		m.data = make(map[int][]string)
	}
	m.data[version] = ids
	m.puts++
}

// --- Tests ---

func TestMaxVersion_EmptyStore(t *testing.T) {
	svc := New(&mockStore{})
	v, err := svc.MaxVersion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("expected 0, got %d", v)
	}
}

func TestMaxVersion_Error(t *testing.T) {
	svc := New(&mockStore{maxVersionFn: func(context.Context) (int, error) {
		return 0, errors.New("conn refused")
	}})
	if _, err := svc.MaxVersion(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewestIDs(t *testing.T) {
	tests := []struct {
		name      string
		keys      map[int][]string
		want      []string
		wantCalls []int
	}{
		{
			name:      "empty store",
			keys:      nil,
			want:      []string{},
			wantCalls: nil,
		},
		{
			name:      "first run is entirely new",
			keys:      map[int][]string{1: {"a", "b"}},
			want:      []string{"id-a", "id-b"},
			wantCalls: []int{1, 0},
		},
		{
			name:      "one key added",
			keys:      map[int][]string{1: {"a", "b"}, 2: {"a", "b", "c"}},
			want:      []string{"id-c"},
			wantCalls: []int{2, 1},
		},
		{
			name:      "identical versions",
			keys:      map[int][]string{1: {"a", "b"}, 2: {"a", "b"}},
			want:      []string{},
			wantCalls: []int{2, 1},
		},
		{
			name:      "walks past identical version",
			keys:      map[int][]string{1: {"a"}, 2: {"a", "b"}, 3: {"a", "b"}},
			want:      []string{"id-b"},
			wantCalls: []int{3, 2, 1},
		},
		{
			name:      "removed keys are not new",
			keys:      map[int][]string{1: {"a", "b", "c"}, 2: {"a"}},
			want:      []string{},
			wantCalls: []int{2, 1},
		},
		{
			name:      "empty earlier version",
			keys:      map[int][]string{1: {"a"}, 3: {"a", "z"}},
			want:      []string{"id-a", "id-z"},
			wantCalls: []int{3, 2},
		},
		{
			name:      "empty runs before the first populated one",
			keys:      map[int][]string{3: {"a"}},
			want:      []string{"id-a"},
			wantCalls: []int{3, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{keys: tt.keys}
			ids, _, err := New(store).NewestIDs(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, store.keysCalls); diff != "" {
				t.Errorf("walk mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewestIDs_ReturnsVersion(t *testing.T) {
	store := &mockStore{keys: map[int][]string{4: {"a"}}}
	_, v, err := New(store).NewestIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 4 {
		t.Errorf("version = %d, want 4", v)
	}
}

func TestNewestIDsAt_UsesCache(t *testing.T) {
	store := &mockStore{completed: 2, keys: map[int][]string{1: {"a"}, 2: {"a", "b"}}}
	cache := &mockCache{}
	svc := New(store).WithCache(cache)
	ctx := context.Background()

	first, err := svc.NewestIDsAt(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	calls := len(store.keysCalls)

	second, err := svc.NewestIDsAt(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs:\n%s", diff)
	}
	if len(store.keysCalls) != calls {
		t.Errorf("store queried on cache hit")
	}
	if cache.puts != 1 {
		t.Errorf("expected 1 put, got %d", cache.puts)
	}
}

func TestNewestIDsAt_ResolveError(t *testing.T) {
	store := &mockStore{
		keys: map[int][]string{1: {"a"}, 2: {"b"}},
		resolveFn: func(context.Context, int, []string) ([]string, error) {
			return nil, errors.New("timeout")
		},
	}
	cache := &mockCache{}
	if _, err := New(store).WithCache(cache).NewestIDsAt(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}
	if cache.puts != 0 {
		t.Error("failed result must not be cached")
	}
}

func TestNewestIDsAt_RunInProgressIsNotCached(t *testing.T) {
	store := &mockStore{completed: 1, keys: map[int][]string{1: {"a", "b"}, 2: {"a", "new"}}}
	cache := &mockCache{}
	svc := New(store).WithCache(cache)
	ctx := context.Background()

	ids, err := svc.NewestIDsAt(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"id-new"}, ids); diff != "" {
		t.Errorf("mid-run ids mismatch (-want +got):\n%s", diff)
	}

	// The next site of the run lands.
	store.keys[2] = []string{"a", "b", "new", "new2"}
	ids, err = svc.NewestIDsAt(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"id-new", "id-new2"}, ids); diff != "" {
		t.Errorf("ids mismatch after more inserts (-want +got):\n%s", diff)
	}
	if cache.puts != 0 {
		t.Fatalf("incomplete version cached %d times", cache.puts)
	}

	store.completed = 2
	if _, err := svc.NewestIDsAt(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"id-new", "id-new2"}, cache.data[2]); diff != "" {
		t.Errorf("cached ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNewestIDsAt_CompletedVersionError(t *testing.T) {
	store := &mockStore{completedErr: errors.New("timeout"), keys: map[int][]string{1: {"a"}}}
	if _, err := New(store).WithCache(&mockCache{}).NewestIDsAt(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
}
