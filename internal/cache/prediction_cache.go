// Package cache memoizes prediction runs in memory.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/models"
)

// CacheKey identifies a prediction run by event and input fingerprint.
type CacheKey struct {
	EventID     string
	Fingerprint string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.EventID, k.Fingerprint)
}

// PredictionCache provides in-memory caching for prediction runs
type PredictionCache struct {
	cache     *gocache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewPredictionCache creates a new prediction cache. A zero maxSize means
// no size limit.
func NewPredictionCache(ttl, cleanup time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   gocache.New(ttl, cleanup),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a copy of a cached prediction run
func (pc *PredictionCache) Get(ctx context.Context, key CacheKey) *models.PredictionRun {
	if result, found := pc.cache.Get(key.String()); found {
		if run, ok := result.(*models.PredictionRun); ok {
			pc.hitCount.Add(1)
			pc.record("hit")
			return run.Clone()
		}
	}

	pc.missCount.Add(1)
	pc.record("miss")
	return nil
}

// Set stores a copy of a prediction run in cache
func (pc *PredictionCache) Set(ctx context.Context, key CacheKey, run *models.PredictionRun) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.maxSize > 0 && pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			pc.evictOldest()
		}
	}

	pc.cache.Set(key.String(), run.Clone(), pc.ttl)
}

// evictOldest drops the entry closest to expiry.
func (pc *PredictionCache) evictOldest() {
	var oldest string
	var oldestAt int64
	for k, item := range pc.cache.Items() {
		if oldest == "" || item.Expiration < oldestAt {
			oldest, oldestAt = k, item.Expiration
		}
	}
	if oldest != "" {
		pc.cache.Delete(oldest)
	}
}

// Invalidate removes all cache entries for an event
func (pc *PredictionCache) Invalidate(ctx context.Context, eventID string) int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	prefix := eventID + ":"
	removed := 0
	for k := range pc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			pc.cache.Delete(k)
			removed++
		}
	}
	return removed
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount.Store(0)
	pc.missCount.Store(0)
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount.Load()
	misses = pc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}

func (pc *PredictionCache) record(result string) {
	metrics.RecordCacheRequest(result)
	_, _, ratio := pc.Stats()
	metrics.UpdateCacheHitRatio(ratio)
}
