package blocklist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haukened/crypto-guard/internal/guard/common/clock"
	"github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist/parsers"
)

// ErrNoSnapshot is returned when the list directory cannot be read and no
// stored snapshot is available to fall back to.
var ErrNoSnapshot = errors.New("no blocklist snapshot available")

// parseFunc matches the list parsers.
type parseFunc func(r io.Reader, source string, logger log.Logger, now time.Time) ([]domain.BlockRule, error)

// parserFor selects a parser by file extension. Unknown extensions are skipped.
func parserFor(path string) (parseFunc, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hosts":
		return parsers.ParseHostsFile, true
	case ".txt", ".list", ".conf":
		return parsers.ParsePlainList, true
	default:
		return nil, false
	}
}

// Loader assembles the rule set for a snapshot from list files, persisting
// each successful load and falling back to the last persisted one.
type Loader struct {
	Dir         string      // list directory; empty disables list files
	Store       Store       // optional last-known-good store
	Logger      log.Logger  // nil means log.GetLogger()
	Clock       clock.Clock // nil means the real clock
	Parallelism int         // concurrent file parsers; <= 0 means 4
}

// Load returns base merged with the rules of every list file in Dir.
//
// On success the merged set is written to Store. When Dir cannot be read the
// stored snapshot is merged with base instead; without a Store the error is
// returned.
func (l *Loader) Load(ctx context.Context, base []domain.BlockRule) ([]domain.BlockRule, error) {
	if l.Dir == "" {
		return l.persist(Merge(base))
	}

	fromDir, err := l.loadDirectory(ctx)
	if err != nil {
		if l.Store == nil {
			return nil, err
		}
		l.logger().Warn(map[string]any{"dir": l.Dir, "error": err}, "Blocklist directory unavailable, using stored snapshot")
		stored, serr := l.Store.Rules()
		if serr != nil {
			return nil, fmt.Errorf("reading stored snapshot: %w", serr)
		}
		if len(stored) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrNoSnapshot, err)
		}
		return Merge(base, stored), nil
	}
	return l.persist(Merge(base, fromDir))
}

func (l *Loader) persist(rules []domain.BlockRule) ([]domain.BlockRule, error) {
	if l.Store == nil {
		return rules, nil
	}
	now := l.clock().Now()
	version := l.Store.Stats().Version + 1
	if err := l.Store.RebuildAll(rules, version, now.Unix()); err != nil {
		return nil, fmt.Errorf("persisting blocklist snapshot: %w", err)
	}
	l.logger().Debug(map[string]any{"version": version, "rules": len(rules)}, "Blocklist snapshot persisted")
	return rules, nil
}

func (l *Loader) logger() log.Logger {
	if l.Logger == nil {
		return log.GetLogger()
	}
	return l.Logger
}

func (l *Loader) clock() clock.Clock {
	if l.Clock == nil {
		return &clock.RealClock{}
	}
	return l.Clock
}

// loadDirectory parses every supported file in Dir concurrently. Results are
// merged in file-name order so the outcome does not depend on scheduling.
func (l *Loader) loadDirectory(ctx context.Context) ([]domain.BlockRule, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := parserFor(e.Name()); ok {
			files = append(files, filepath.Join(l.Dir, e.Name()))
		}
	}
	sort.Strings(files)

	limit := l.Parallelism
	if limit <= 0 {
		limit = 4
	}
	now := l.clock().Now()
	results := make([][]domain.BlockRule, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parse, _ := parserFor(path)
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			rules, err := parse(f, path, l.logger(), now)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			results[i] = rules
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(results...)
	l.logger().Info(map[string]any{"dir": l.Dir, "files": len(files), "rules": len(merged)}, "Blocklist directory loaded")
	return merged, nil
}

// Merge concatenates rule sets, keeping the first rule per name and kind.
func Merge(sets ...[]domain.BlockRule) []domain.BlockRule {
	seen := make(map[string]struct{})
	out := make([]domain.BlockRule, 0)
	for _, set := range sets {
		for _, r := range set {
			key := r.Name + "|" + r.Kind.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
