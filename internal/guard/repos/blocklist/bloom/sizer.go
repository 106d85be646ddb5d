package bloom

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist"
)

// DefaultFPRate is used when a caller asks for a rate outside (0, 1).
const DefaultFPRate = 0.001

// sizer clamps its inputs and defers to the library's estimator.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() blocklist.BloomSizer { return sizer{} }

// Size returns bits and hash count for n keys at false-positive rate p. An
// empty set is sized as one key.
func (sizer) Size(n uint64, p float64) (uint64, uint8) {
	n = max(n, 1)
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		p = DefaultFPRate
	}
	m, k := bitsbloom.EstimateParameters(uint(n), p)
	return uint64(max(m, 1)), uint8(min(max(k, 1), math.MaxUint8))
}
