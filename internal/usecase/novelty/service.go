// Package novelty decides which records are current and which are new in the latest crawl run.
package novelty

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/byshoes/byshoes/internal/logger"
)

// Service computes the max version and the novelty set of the latest version.
// Results are eventually consistent with a concurrent crawl run: a version
// inserted mid-walk is picked up by the next call.
type Service struct {
	store versionStore
	cache Cache
}

// New creates a Service.
func New(store versionStore) *Service {
	return &Service{store: store}
}

// WithCache enables caching of novelty sets.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// MaxVersion returns the latest version, 0 for an empty store.
func (s *Service) MaxVersion(ctx context.Context) (int, error) {
	v, err := s.store.MaxVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("max version: %w", err)
	}
	return v, nil
}

// NewestIDs returns the ids of the records introduced by the latest version together with that version.
func (s *Service) NewestIDs(ctx context.Context) ([]string, int, error) {
	v, err := s.MaxVersion(ctx)
	if err != nil {
		return nil, 0, err
	}
	ids, err := s.NewestIDsAt(ctx, v)
	if err != nil {
		return nil, 0, err
	}
	return ids, v, nil
}

// NewestIDsAt returns the ids of version's records whose site+article key is absent
// from the nearest earlier version with a different key set.
//
// Earlier versions are visited from version-1 down, one store round trip each, and
// the walk stops at the first non-empty difference. Version 0 is the empty baseline
// before the first crawl run: it is subtracted only when no earlier version held
// keys, so the first run is entirely new while identical runs yield nothing.
//
// Sets are cached only for versions whose crawl run has completed.
func (s *Service) NewestIDsAt(ctx context.Context, version int) ([]string, error) {
	if version <= 0 {
		return []string{}, nil
	}

	cacheable := false
	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx, version); ok {
			return ids, nil
		}
		completed, err := s.store.CompletedVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("completed version: %w", err)
		}
		cacheable = version <= completed
	}

	current, err := s.store.NaturalKeys(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("natural keys of version %d: %w", version, err)
	}

	var added []string
	depth, populated := 0, false
	for prev := version - 1; prev >= 0 && len(current) > 0; prev-- {
		if prev == 0 && populated {
			break
		}
		depth++
		keys, err := s.store.NaturalKeys(ctx, prev)
		if err != nil {
			return nil, fmt.Errorf("natural keys of version %d: %w", prev, err)
		}
		populated = populated || len(keys) > 0
		added = difference(current, keys)
		if len(added) > 0 {
			break
		}
	}

	ids := []string{}
	if len(added) > 0 {
		ids, err = s.store.IDsByNaturalKey(ctx, version, added)
		if err != nil {
			return nil, fmt.Errorf("resolve newest ids: %w", err)
		}
	}

	logger.FromContext(ctx).Debug("Novelty set computed",
		zap.Int("version", version),
		zap.Int("depth", depth),
		zap.Int("new", len(ids)),
		zap.Bool("cached", cacheable),
	)

	if cacheable {
		s.cache.Put(ctx, version, ids)
	}
	return ids, nil
}

func difference(current, prev []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, k := range prev {
		seen[k] = struct{}{}
	}
	var out []string
	for _, k := range current {
		if _, ok := seen[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
