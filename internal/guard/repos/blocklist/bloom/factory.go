// Package bloom provides the Bloom prefilter used by blocklist indexes.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist"
)

type factory struct {
	sizer blocklist.BloomSizer
}

// NewFactory returns a BloomFactory sizing filters with NewSizer.
func NewFactory() blocklist.BloomFactory { return factory{sizer: NewSizer()} }

// New builds an empty filter for capacity keys at fpRate.
func (f factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return filter{bf: bitsbloom.New(uint(m), uint(k))}
}
