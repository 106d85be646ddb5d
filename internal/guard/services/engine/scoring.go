package engine

import (
	"errors"
	"fmt"
)

// Weights are the additive point contributions of each check.
type Weights struct {
	Punycode       int
	BrandLookalike int
	SuspiciousTLD  int
	DeepSubdomain  int
	IPLiteral      int
	HostKeyword    int
	PathKeyword    int
	AtSign         int
}

// Thresholds map an accumulated score to a level: score >= Block blocks,
// score >= Warn warns, anything lower is ok.
type Thresholds struct {
	Warn  int
	Block int
}

// Scoring is the tunable part of the engine configuration.
type Scoring struct {
	Weights    Weights
	Thresholds Thresholds

	// MaxBrandDistance is the largest edit distance still reported as a
	// brand lookalike. Distance 0 (an exact match) never is.
	MaxBrandDistance int
}

// DefaultScoring returns the stock weights and thresholds.
func DefaultScoring() Scoring {
	return Scoring{
		Weights: Weights{
			Punycode:       4,
			BrandLookalike: 4,
			SuspiciousTLD:  2,
			DeepSubdomain:  1,
			IPLiteral:      2,
			HostKeyword:    3,
			PathKeyword:    3,
			AtSign:         2,
		},
		Thresholds: Thresholds{
			Warn:  4,
			Block: 8,
		},
		MaxBrandDistance: 2,
	}
}

// ErrInvalidScoring wraps every Scoring validation failure.
var ErrInvalidScoring = errors.New("invalid scoring")

// Validate rejects negative weights and inverted or non-positive thresholds.
// Non-negative weights keep the score monotonic in the number of fired checks.
func (s Scoring) Validate() error {
	w := s.Weights
	weights := []struct {
		name string
		v    int
	}{
		{"punycode", w.Punycode},
		{"brand_lookalike", w.BrandLookalike},
		{"suspicious_tld", w.SuspiciousTLD},
		{"deep_subdomain", w.DeepSubdomain},
		{"ip_literal", w.IPLiteral},
		{"host_keyword", w.HostKeyword},
		{"path_keyword", w.PathKeyword},
		{"at_sign", w.AtSign},
	}
	for _, x := range weights {
		if x.v < 0 {
			return fmt.Errorf("%w: weight %s is negative (%d)", ErrInvalidScoring, x.name, x.v)
		}
	}
	if s.Thresholds.Warn < 1 {
		return fmt.Errorf("%w: warn threshold must be at least 1, got %d", ErrInvalidScoring, s.Thresholds.Warn)
	}
	if s.Thresholds.Block <= s.Thresholds.Warn {
		return fmt.Errorf("%w: block threshold %d must exceed warn threshold %d", ErrInvalidScoring, s.Thresholds.Block, s.Thresholds.Warn)
	}
	if s.MaxBrandDistance < 1 {
		return fmt.Errorf("%w: max brand distance must be at least 1, got %d", ErrInvalidScoring, s.MaxBrandDistance)
	}
	return nil
}
