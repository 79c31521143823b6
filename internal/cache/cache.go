// Package cache persists event classifications so each event is classified
// at most once. All entries live in one JSON object (event id to
// classification) stored under db.KeyClassifications; an in-process LRU
// fronts reads.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/classify"
	"github.com/hpungsan/eventrank/internal/db"
	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/logging"
	"github.com/hpungsan/eventrank/internal/metrics"
)

const defaultLRUSize = 2048

// Options configures a Cache.
type Options struct {
	LRUSize int
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Cache is the classification store. Safe for concurrent use.
type Cache struct {
	db      *sql.DB
	front   *lru.Cache[string, classify.Classification]
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Stats describes the cache contents.
type Stats struct {
	Entries       int `json:"entries"`
	MemoryEntries int `json:"memory_entries"`
}

// New returns a Cache over database.
func New(database *sql.DB, opts Options) (*Cache, error) {
	size := opts.LRUSize
	if size <= 0 {
		size = defaultLRUSize
	}
	front, err := lru.New[string, classify.Classification](size)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &Cache{
		db:      database,
		front:   front,
		logger:  logging.OrNop(opts.Logger),
		metrics: opts.Metrics,
	}, nil
}

// Get returns the classification stored for id.
func (c *Cache) Get(ctx context.Context, id string) (classify.Classification, bool, error) {
	found, err := c.GetMany(ctx, []string{id})
	if err != nil {
		return classify.Classification{}, false, err
	}
	cl, ok := found[id]
	return cl, ok, nil
}

// GetMany returns the stored classifications for ids. Missing ids are absent
// from the result. The persisted blob is read at most once per call.
func (c *Cache) GetMany(ctx context.Context, ids []string) (map[string]classify.Classification, error) {
	found := make(map[string]classify.Classification, len(ids))
	var misses []string
	for _, id := range ids {
		if cl, ok := c.front.Get(id); ok {
			found[id] = cl
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		c.recordLookups(len(found), 0)
		return found, nil
	}

	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		raw, ok := entries[id]
		if !ok {
			continue
		}
		cl, ok := c.decodeEntry(id, raw)
		if !ok {
			continue
		}
		found[id] = cl
		c.front.Add(id, cl)
	}
	c.recordLookups(len(found), len(ids)-len(found))
	return found, nil
}

// Put stores one classification, keeping all other entries.
func (c *Cache) Put(ctx context.Context, id string, cl classify.Classification) error {
	return c.PutAll(ctx, map[string]classify.Classification{id: cl})
}

// PutAll merges batch into the stored object: ids in batch are overwritten,
// every other stored id is kept. The read-modify-write runs in one
// transaction so concurrent writers cannot drop each other's entries.
func (c *Cache) PutAll(ctx context.Context, batch map[string]classify.Classification) error {
	if len(batch) == 0 {
		return nil
	}
	err := db.Update(ctx, c.db, db.KeyClassifications, func(current string, ok bool) (string, error) {
		entries := c.decodeBlob(current, ok)
		for id, cl := range batch {
			data, err := json.Marshal(cl.Normalized())
			if err != nil {
				return "", errors.NewInternal(err)
			}
			entries[id] = data
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return "", errors.NewInternal(err)
		}
		return string(data), nil
	})
	if err != nil {
		return err
	}
	for id, cl := range batch {
		c.front.Add(id, cl.Normalized())
	}
	return nil
}

// Len returns the number of stored classifications.
func (c *Cache) Len(ctx context.Context) (int, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Stats reports persisted and in-memory entry counts.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	n, err := c.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Entries: n, MemoryEntries: c.front.Len()}, nil
}

// Purge removes every stored classification and returns how many there were.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	n, err := c.Len(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := db.Delete(ctx, c.db, db.KeyClassifications); err != nil {
		return 0, err
	}
	c.front.Purge()
	return n, nil
}

func (c *Cache) load(ctx context.Context) (map[string]json.RawMessage, error) {
	current, ok, err := db.Get(ctx, c.db, db.KeyClassifications)
	if err != nil {
		return nil, err
	}
	return c.decodeBlob(current, ok), nil
}

// decodeBlob parses the stored object. A corrupt blob is treated as empty so
// the next write replaces it.
func (c *Cache) decodeBlob(current string, ok bool) map[string]json.RawMessage {
	entries := map[string]json.RawMessage{}
	if !ok || current == "" {
		return entries
	}
	if err := json.Unmarshal([]byte(current), &entries); err != nil || entries == nil {
		c.logger.Warn("discarding unreadable classification cache", zap.Error(err))
		return map[string]json.RawMessage{}
	}
	return entries
}

func (c *Cache) decodeEntry(id string, raw json.RawMessage) (classify.Classification, bool) {
	var cl classify.Classification
	if err := json.Unmarshal(raw, &cl); err != nil {
		c.logger.Debug("skipping unreadable cache entry", zap.String("event_id", id), zap.Error(err))
		return classify.Classification{}, false
	}
	return cl.Normalized(), true
}

func (c *Cache) recordLookups(hits, misses int) {
	for range hits {
		c.metrics.CacheLookup(true)
	}
	for range misses {
		c.metrics.CacheLookup(false)
	}
}
