package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/cache"
	"github.com/hpungsan/eventrank/internal/errors"
)

// CacheStatsOutput contains the result of the CacheStats operation.
type CacheStatsOutput struct {
	cache.Stats
}

// CacheStats reports how many classifications are stored.
func CacheStats(ctx context.Context, d *Deps) (*CacheStatsOutput, error) {
	if d.Cache == nil {
		return nil, errors.NewConfig("classification cache")
	}
	stats, err := d.Cache.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &CacheStatsOutput{Stats: stats}, nil
}

// PurgeCacheOutput contains the result of the PurgeCache operation.
type PurgeCacheOutput struct {
	Purged int `json:"purged"`
}

// PurgeCache deletes every stored classification.
func PurgeCache(ctx context.Context, d *Deps) (*PurgeCacheOutput, error) {
	if d.Cache == nil {
		return nil, errors.NewConfig("classification cache")
	}
	n, err := d.Cache.Purge(ctx)
	if err != nil {
		return nil, err
	}
	d.logger().Info("purged classification cache", zap.Int("entries", n))
	return &PurgeCacheOutput{Purged: n}, nil
}
