// Package checker serves URL verdicts from the current engine snapshot,
// memoizing them in a result cache. Snapshots are swapped atomically on
// reload; in-flight checks finish against the snapshot they started with.
package checker

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/haukened/crypto-guard/internal/guard/common/clock"
	"github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ErrNoEvaluator is returned when a checker is built or swapped without an engine.
var ErrNoEvaluator = errors.New("evaluator is required")

// Options configures a Checker. Cache, Clock and Logger are optional.
type Options struct {
	Evaluator Evaluator
	Cache     ResultCache
	Clock     clock.Clock
	Logger    log.Logger
}

// SnapshotInfo describes the engine snapshot currently in service.
type SnapshotInfo struct {
	Generation uint64
	LoadedAt   time.Time
}

type snapshot struct {
	eval Evaluator
	info SnapshotInfo
}

// Checker is safe for concurrent use.
type Checker struct {
	current atomic.Pointer[snapshot]
	cache   ResultCache
	clock   clock.Clock
	logger  log.Logger
}

// New returns a Checker serving opts.Evaluator as generation 1.
func New(opts Options) (*Checker, error) {
	if opts.Evaluator == nil {
		return nil, ErrNoEvaluator
	}
	c := &Checker{
		cache:  opts.Cache,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if c.cache == nil {
		c.cache = noCache{}
	}
	if c.clock == nil {
		c.clock = &clock.RealClock{}
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	c.current.Store(&snapshot{
		eval: opts.Evaluator,
		info: SnapshotInfo{Generation: 1, LoadedAt: c.clock.Now()},
	})
	return c, nil
}

// Check returns the verdict for raw. The returned value is a private copy.
func (c *Checker) Check(raw string) domain.RiskResult {
	s := c.current.Load()
	key := CacheKey{Generation: s.info.Generation, URL: raw}
	if res, ok := c.cache.Get(key); ok {
		c.logger.Debug(map[string]any{
			"url":   raw,
			"level": res.Level.String(),
		}, "verdict served from cache")
		return clone(res)
	}

	res := s.eval.Evaluate(raw)
	// A Swap during Evaluate retires s; its entries could never be read.
	if c.current.Load() == s {
		c.cache.Put(key, res)
	}
	c.logger.Debug(map[string]any{
		"url":        raw,
		"level":      res.Level.String(),
		"score":      res.Score,
		"generation": s.info.Generation,
	}, "url evaluated")
	return clone(res)
}

// Swap installs eval as the next generation and purges the cache.
func (c *Checker) Swap(eval Evaluator) (uint64, error) {
	if eval == nil {
		return 0, ErrNoEvaluator
	}
	for {
		old := c.current.Load()
		next := &snapshot{
			eval: eval,
			info: SnapshotInfo{Generation: old.info.Generation + 1, LoadedAt: c.clock.Now()},
		}
		if c.current.CompareAndSwap(old, next) {
			c.cache.Purge()
			c.logger.Info(map[string]any{
				"generation": next.info.Generation,
			}, "engine snapshot swapped")
			return next.info.Generation, nil
		}
	}
}

// Snapshot describes the snapshot currently in service.
func (c *Checker) Snapshot() SnapshotInfo {
	return c.current.Load().info
}

// Generation is shorthand for Snapshot().Generation.
func (c *Checker) Generation() uint64 {
	return c.Snapshot().Generation
}

// CacheStats reports the result cache counters.
func (c *Checker) CacheStats() CacheStats {
	return c.cache.Stats()
}

func clone(r domain.RiskResult) domain.RiskResult {
	r.Details = slices.Clone(r.Details)
	r.Findings = slices.Clone(r.Findings)
	return r
}

type noCache struct{}

func (noCache) Get(CacheKey) (domain.RiskResult, bool) { return domain.RiskResult{}, false }

func (noCache) Put(CacheKey, domain.RiskResult) {}

func (noCache) Len() int { return 0 }

func (noCache) Purge() {}

func (noCache) Stats() CacheStats { return CacheStats{} }
