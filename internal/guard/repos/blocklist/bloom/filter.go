package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist"
)

// filter is filled while an index is compiled and only read afterwards, so
// it carries no lock. Concurrent Add calls are not supported.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f filter) Add(key []byte) { f.bf.Add(key) }

func (f filter) MightContain(key []byte) bool { return f.bf.Test(key) }

var _ blocklist.BloomFilter = filter{}
