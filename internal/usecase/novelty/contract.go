package novelty

import "context"

// versionStore is the consumer interface for version lookups (ISP).
type versionStore interface {
	MaxVersion(ctx context.Context) (int, error)
	CompletedVersion(ctx context.Context) (int, error)
	NaturalKeys(ctx context.Context, version int) ([]string, error)
	IDsByNaturalKey(ctx context.Context, version int, keys []string) ([]string, error)
}

// Cache remembers novelty sets per version.
type Cache interface {
	Get(ctx context.Context, version int) ([]string, bool)
	Put(ctx context.Context, version int, ids []string)
}
