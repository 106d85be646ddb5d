package blocklist

import "github.com/haukened/crypto-guard/internal/guard/domain"

// BloomSizer turns an expected key count and false-positive rate into a bit
// count m and hash count k.
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is filled while an Index is compiled and probed on every
// lookup. A false MightContain is authoritative.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a rule set.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// StoreStats describes the persisted snapshot.
type StoreStats struct {
	ExactCount  uint64
	SuffixCount uint64
	Version     uint64 // bumped by every successful RebuildAll from the loader
	UpdatedUnix int64
}

// Store persists the last successfully loaded rule set so the daemon can
// start from it when the list sources are unavailable.
//   - RebuildAll replaces the stored snapshot atomically
//   - Rules returns the stored snapshot in stored order
//   - Stats reports counts and metadata; Close releases resources
type Store interface {
	RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error
	Rules() ([]domain.BlockRule, error)
	Stats() StoreStats
	Close() error
}
