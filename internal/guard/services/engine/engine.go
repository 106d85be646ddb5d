// Package engine scores candidate URLs for phishing risk. It normalizes a raw
// URL, runs a fixed battery of lexical checks against immutable reference
// data and maps the accumulated score to ok, warn or block.
//
// An Engine performs no I/O and holds no mutable state, so a single value
// may be shared by any number of goroutines.
package engine

import (
	"errors"
	"fmt"

	"github.com/haukened/crypto-guard/internal/guard/common/utils"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ErrNoBlocklist is returned by New when Options.Blocklist is nil.
var ErrNoBlocklist = errors.New("blocklist is required")

// Options configures a new Engine.
type Options struct {
	Reference domain.ReferenceData
	Blocklist Blocklist
	Scoring   Scoring
}

// Engine evaluates URLs against one snapshot of reference data.
type Engine struct {
	ref        domain.ReferenceData
	blocklist  Blocklist
	scoring    Scoring
	brandMains []string
	tlds       map[string]struct{}
}

// New validates opts and precomputes the lookup tables. The reference lists
// are normalized into fresh slices, so later changes to opts.Reference do not
// reach the engine.
func New(opts Options) (*Engine, error) {
	r := opts.Reference
	ref, err := domain.NewReferenceData(r.Brands, r.HostKeywords, r.PathKeywords, r.SuspiciousTLDs)
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}
	if opts.Blocklist == nil {
		return nil, ErrNoBlocklist
	}
	if err := opts.Scoring.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		ref:        ref,
		blocklist:  opts.Blocklist,
		scoring:    opts.Scoring,
		brandMains: make([]string, 0, len(ref.Brands)),
		tlds:       make(map[string]struct{}, len(ref.SuspiciousTLDs)),
	}
	for _, b := range ref.Brands {
		e.brandMains = append(e.brandMains, utils.LastLabels(b, 2))
	}
	for _, t := range ref.SuspiciousTLDs {
		e.tlds[t] = struct{}{}
	}
	return e, nil
}

// Scoring returns the weights and thresholds the engine was built with.
func (e *Engine) Scoring() Scoring { return e.scoring }

// Evaluate returns the risk verdict for raw. It never fails: input that
// cannot be parsed yields a warn result.
func (e *Engine) Evaluate(raw string) domain.RiskResult {
	p, err := Parse(raw)
	if err != nil {
		return DecideUnparseable()
	}
	return Decide(e.Score(p, raw), e.scoring.Thresholds)
}
