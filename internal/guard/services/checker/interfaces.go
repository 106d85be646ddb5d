package checker

import "github.com/haukened/crypto-guard/internal/guard/domain"

// CacheKey identifies a cached verdict. Generation ties the entry to the
// engine snapshot that produced it.
type CacheKey struct {
	Generation uint64
	URL        string
}

// CacheStats are cumulative counters reported by a ResultCache.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// ResultCache memoizes verdicts for recently checked URLs.
type ResultCache interface {
	Get(key CacheKey) (domain.RiskResult, bool)
	Put(key CacheKey, res domain.RiskResult)
	Len() int
	Purge()
	Stats() CacheStats
}

// Evaluator is the part of *engine.Engine the checker depends on.
type Evaluator interface {
	Evaluate(raw string) domain.RiskResult
}
