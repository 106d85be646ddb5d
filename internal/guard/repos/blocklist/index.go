package blocklist

import (
	"strings"

	"github.com/haukened/crypto-guard/internal/guard/common/utils"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// Index is an immutable, compiled blocklist. Lookups consult a Bloom filter
// first and only touch the rule maps on a maybe-positive. An Index is never
// modified after NewIndex returns, so concurrent Decide calls need no locks;
// reloading means building a new Index.
type Index struct {
	exact  map[string]domain.BlockRule
	suffix map[string]domain.BlockRule
	bloom  BloomFilter
}

// NewIndex compiles rules into an Index. When factory is nil the Bloom
// prefilter is skipped and every lookup consults the maps. Duplicate rules
// keep the first occurrence.
func NewIndex(rules []domain.BlockRule, factory BloomFactory, fpRate float64) *Index {
	ix := &Index{
		exact:  make(map[string]domain.BlockRule),
		suffix: make(map[string]domain.BlockRule),
	}
	for _, r := range rules {
		switch r.Kind {
		case domain.BlockRuleExact:
			if _, ok := ix.exact[r.Name]; !ok {
				ix.exact[r.Name] = r
			}
		case domain.BlockRuleSuffix:
			if _, ok := ix.suffix[r.Name]; !ok {
				ix.suffix[r.Name] = r
			}
		}
	}
	if factory != nil {
		bf := factory.New(uint64(len(ix.exact)+len(ix.suffix)), fpRate)
		for name := range ix.exact {
			bf.Add([]byte(name))
		}
		for name := range ix.suffix {
			bf.Add([]byte(reverseString(name)))
		}
		ix.bloom = bf
	}
	return ix
}

// Len returns the number of distinct rules in the index.
func (ix *Index) Len() int { return len(ix.exact) + len(ix.suffix) }

// Decide reports whether host is blocked.
//
// Exact rules match the host itself or its "www." form. Suffix rules match
// their apex and any subdomain, most-specific anchor first.
func (ix *Index) Decide(host string) domain.BlockDecision {
	cn := utils.CanonicalHost(host)
	if cn == "" {
		return domain.EmptyDecision()
	}

	candidates := []string{cn}
	if bare, ok := strings.CutPrefix(cn, "www."); ok && bare != "" {
		candidates = append(candidates, bare)
	}
	for _, c := range candidates {
		if !ix.mightContain(c) {
			continue
		}
		if r, ok := ix.exact[c]; ok {
			return r.Decision()
		}
	}

	a := cn
	for {
		if ix.mightContain(reverseString(a)) {
			if r, ok := ix.suffix[a]; ok {
				return r.Decision()
			}
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
		if a == "" {
			break
		}
	}
	return domain.EmptyDecision()
}

func (ix *Index) mightContain(key string) bool {
	if ix.bloom == nil {
		return true
	}
	return ix.bloom.MightContain([]byte(key))
}

// reverseString reverses s so suffix anchors and exact names never share a
// Bloom key.
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
