package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haukened/crypto-guard/internal/guard/common/utils"
)

// ErrEmptyReferenceData is returned when a required reference list is empty.
var ErrEmptyReferenceData = errors.New("reference data list must not be empty")

// ReferenceData holds the static tables the rule battery evaluates against.
// Values are normalized once by NewReferenceData and must not be mutated
// afterwards; a new snapshot replaces the whole value.
//
// Blocklist hosts are not part of this value: they are compiled into a
// blocklist index that is supplied to the engine alongside it.
type ReferenceData struct {
	Brands         []string // ordered; ties in lookalike matching go to the earliest entry
	HostKeywords   []string
	PathKeywords   []string
	SuspiciousTLDs []string
}

// NewReferenceData lower-cases, trims and de-duplicates every list while
// preserving first-seen order, and rejects empty lists.
func NewReferenceData(brands, hostKeywords, pathKeywords, tlds []string) (ReferenceData, error) {
	rd := ReferenceData{
		Brands:         normalizeList(brands, utils.CanonicalHost),
		HostKeywords:   normalizeList(hostKeywords, lowerTrim),
		PathKeywords:   normalizeList(pathKeywords, lowerTrim),
		SuspiciousTLDs: normalizeList(tlds, canonicalTLD),
	}
	if err := rd.Validate(); err != nil {
		return ReferenceData{}, err
	}
	return rd, nil
}

// Validate reports the first empty list.
func (rd ReferenceData) Validate() error {
	lists := []struct {
		name string
		vals []string
	}{
		{"brands", rd.Brands},
		{"host_keywords", rd.HostKeywords},
		{"path_keywords", rd.PathKeywords},
		{"suspicious_tlds", rd.SuspiciousTLDs},
	}
	for _, l := range lists {
		if len(l.vals) == 0 {
			return fmt.Errorf("%s: %w", l.name, ErrEmptyReferenceData)
		}
	}
	return nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// canonicalTLD accepts both "xyz" and ".xyz".
func canonicalTLD(s string) string {
	s = utils.CanonicalHost(s)
	for len(s) > 0 && s[0] == '.' {
		s = s[1:]
	}
	return s
}

func normalizeList(in []string, norm func(string) string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = norm(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
