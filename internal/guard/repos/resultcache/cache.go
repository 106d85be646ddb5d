// Package resultcache provides an LRU-backed checker.ResultCache.
package resultcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/services/checker"
)

// newLRU is swapped out in tests to exercise constructor failures.
var newLRU = func(size int, onEvict func(checker.CacheKey, domain.RiskResult)) (*lru.Cache[checker.CacheKey, domain.RiskResult], error) {
	return lru.NewWithEvict(size, onEvict)
}

// resultCache counts hits, misses and evictions (Purge included).
type resultCache struct {
	lru       *lru.Cache[checker.CacheKey, domain.RiskResult]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type disabledCache struct{}

// New returns a cache holding up to size verdicts. If size <= 0 the cache is
// disabled: it always misses and stores nothing.
func New(size int) (checker.ResultCache, error) {
	if size <= 0 {
		return disabledCache{}, nil
	}
	rc := &resultCache{}
	cache, err := newLRU(size, func(checker.CacheKey, domain.RiskResult) {
		rc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return rc, nil
}

func (c *resultCache) Get(key checker.CacheKey) (domain.RiskResult, bool) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	return domain.RiskResult{}, false
}

func (c *resultCache) Put(key checker.CacheKey, res domain.RiskResult) {
	c.lru.Add(key, res)
}

func (c *resultCache) Len() int { return c.lru.Len() }

func (c *resultCache) Purge() { c.lru.Purge() }

func (c *resultCache) Stats() checker.CacheStats {
	return checker.CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (disabledCache) Get(checker.CacheKey) (domain.RiskResult, bool) { return domain.RiskResult{}, false }

func (disabledCache) Put(checker.CacheKey, domain.RiskResult) {}

func (disabledCache) Len() int { return 0 }

func (disabledCache) Purge() {}

func (disabledCache) Stats() checker.CacheStats { return checker.CacheStats{} }

var _ checker.ResultCache = (*resultCache)(nil)
var _ checker.ResultCache = disabledCache{}
