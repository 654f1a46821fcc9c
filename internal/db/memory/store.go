// Package memory is an in-process db.Store that evaluates the same query
// documents as the MongoDB store. It backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/byshoes/byshoes/internal/db"
	"github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/filter"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type record struct {
	product product.Product
	doc     map[string]any
}

// Store keeps records in insertion order.
type Store struct {
	mu      sync.RWMutex
	records   []record
	byID      map[string]int
	completed int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// WaitForReady is a no-op.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// InsertMany appends records. An id that already exists fails the whole batch.
func (s *Store) InsertMany(_ context.Context, products []product.Product) error {
	docs := make([]record, 0, len(products))
	for _, p := range products {
		doc, err := toDoc(p)
		if err != nil {
			return &db.Error{Op: db.OpInsert, Err: err}
		}
		docs = append(docs, record{product: p, doc: doc})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(docs))
	for _, r := range docs {
		_, exists := s.byID[r.product.ID]
		_, repeated := seen[r.product.ID]
		if exists || repeated {
			return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("duplicate id %q", r.product.ID)}
		}
		seen[r.product.ID] = struct{}{}
	}
	for _, r := range docs {
		s.byID[r.product.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return nil
}

// Find runs a filtered, sorted and windowed read.
func (s *Store) Find(_ context.Context, q db.FindQuery) ([]product.Product, error) {
	matched, err := s.match(q.Filter)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i].doc, matched[j].doc, q.Sort)
		})
	}

	start := min(q.Skip, int64(len(matched)))
	end := int64(len(matched))
	if q.Limit > 0 {
		end = min(start+q.Limit, end)
	}
	out := make([]product.Product, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, r.product)
	}
	return out, nil
}

// Count returns the number of records matching f.
func (s *Store) Count(_ context.Context, f filter.Query) (int64, error) {
	matched, err := s.match(f)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return int64(len(matched)), nil
}

// FindByID returns one record or db.ErrKeyNotFound.
func (s *Store) FindByID(_ context.Context, id string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return product.Product{}, db.ErrKeyNotFound
	}
	return s.records[i].product, nil
}

// MaxVersion returns the highest version, 0 for an empty store.
func (s *Store) MaxVersion(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxVersion := 0
	for _, r := range s.records {
		maxVersion = max(maxVersion, r.product.Version)
	}
	return maxVersion, nil
}

// CompleteVersion marks version as finished.
func (s *Store) CompleteVersion(_ context.Context, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = max(s.completed, version)
	return nil
}

// CompletedVersion returns the highest finished version, 0 when none.
func (s *Store) CompletedVersion(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed, nil
}

// NaturalKeys returns the sorted distinct site+article keys present at version.
func (s *Store) NaturalKeys(_ context.Context, version int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, r := range s.records {
		if r.product.Version != version || r.product.Article == "" {
			continue
		}
		k := r.product.NaturalKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// IDsByNaturalKey resolves keys at version to record ids, the last inserted record winning.
func (s *Store) IDsByNaturalKey(_ context.Context, version int, keys []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	last := make(map[string]string)
	for _, r := range s.records {
		if r.product.Version != version {
			continue
		}
		k := r.product.NaturalKey()
		if _, ok := want[k]; ok {
			last[k] = r.product.ID
		}
	}
	ids := make([]string, 0, len(last))
	for _, k := range slices.Sorted(maps.Keys(last)) {
		ids = append(ids, last[k])
	}
	return ids, nil
}

// FilterStats aggregates price bounds and distinct attribute values of the matching records.
func (s *Store) FilterStats(_ context.Context, f filter.Query) (product.FilterStats, error) {
	matched, err := s.match(f)
	if err != nil {
		return product.FilterStats{}, &db.Error{Op: db.OpStats, Err: err}
	}
	stats := product.EmptyStats()
	if len(matched) == 0 {
		return stats, nil
	}

	sexes := make(map[string]struct{})
	colors := make(map[string]struct{})
	sites := make(map[string]struct{})
	categories := make(map[product.Category]struct{})
	sizes := make(map[string]map[float64]struct{})

	stats.MinPrice = matched[0].product.Price
	stats.MaxPrice = matched[0].product.Price
	for _, r := range matched {
		p := r.product
		stats.MinPrice = min(stats.MinPrice, p.Price)
		stats.MaxPrice = max(stats.MaxPrice, p.Price)
		sexes[string(p.Specification.Sex)] = struct{}{}
		colors[p.Specification.Color] = struct{}{}
		sites[string(p.Site)] = struct{}{}
		for _, c := range p.Category {
			categories[c] = struct{}{}
		}
		for _, sz := range p.Specification.Size {
			if sizes[sz.SizeType] == nil {
				sizes[sz.SizeType] = make(map[float64]struct{})
			}
			for _, v := range sz.Values {
				sizes[sz.SizeType][v] = struct{}{}
			}
		}
	}

	stats.SexTypes = append(stats.SexTypes, slices.Collect(maps.Keys(sexes))...)
	stats.ColorTypes = append(stats.ColorTypes, slices.Collect(maps.Keys(colors))...)
	stats.SiteTypes = append(stats.SiteTypes, slices.Collect(maps.Keys(sites))...)
	stats.Categories = append(stats.Categories, slices.Collect(maps.Keys(categories))...)
	for st, values := range sizes {
		stats.Sizes = append(stats.Sizes, product.Size{SizeType: st, Values: slices.Collect(maps.Keys(values))})
	}
	stats.Canonicalize()
	return stats, nil
}

func (s *Store) match(f filter.Query) ([]record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record, 0)
	for _, r := range s.records {
		ok, err := Match(r.doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// toDoc renders a product the way it is stored: json field names, _id as key, parsed as a time.
func toDoc(p product.Product) (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	delete(doc, "id")
	doc["_id"] = p.ID
	doc["parsed"] = p.Parsed
	return doc, nil
}
