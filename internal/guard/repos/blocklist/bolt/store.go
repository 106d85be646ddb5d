package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/crypto-guard/internal/guard/domain"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist"
)

var (
	bucketMeta = []byte("meta")
	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// ruleBuckets maps each rule kind to its bucket. Suffix names are stored
// reversed so a cursor walks an apex and its subdomains together.
var ruleBuckets = []struct {
	kind     domain.BlockRuleKind
	name     []byte
	reversed bool
}{
	{domain.BlockRuleExact, []byte("exact"), false},
	{domain.BlockRuleSuffix, []byte("suffix"), true},
}

// boltStore persists the last loaded blocklist so a restart can serve
// before list files are parsed again. Values hold AddedAt as big-endian
// unix nanoseconds followed by the source string.
type boltStore struct {
	db *bbolt.DB
}

// New opens or creates the database at path.
func New(path string) (blocklist.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open blocklist db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, rb := range ruleBuckets {
			if _, err := tx.CreateBucketIfNotExists(rb.name); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// RebuildAll swaps the stored rule set in a single write transaction.
func (s *boltStore) RebuildAll(rules []domain.BlockRule, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := make(map[domain.BlockRuleKind]*bbolt.Bucket, len(ruleBuckets))
		for _, rb := range ruleBuckets {
			if err := tx.DeleteBucket(rb.name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
				return err
			}
			b, err := tx.CreateBucket(rb.name)
			if err != nil {
				return err
			}
			buckets[rb.kind] = b
		}
		for _, r := range rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("rule %q: %w", r.Name, err)
			}
			key := r.Name
			if r.IsSuffix() {
				key = reverseString(key)
			}
			if err := buckets[r.Kind].Put([]byte(key), encodeValue(r)); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVersion, u64(version)); err != nil {
			return err
		}
		return meta.Put(keyUpdated, u64(uint64(updatedUnix)))
	})
}

// Rules returns the stored rules, exact before suffix, each in key order.
func (s *boltStore) Rules() ([]domain.BlockRule, error) {
	var out []domain.BlockRule
	err := s.db.View(func(tx *bbolt.Tx) error {
		for _, rb := range ruleBuckets {
			b := tx.Bucket(rb.name)
			if b == nil {
				continue
			}
			err := b.ForEach(func(k, v []byte) error {
				name := string(k)
				if rb.reversed {
					name = reverseString(name)
				}
				r, err := decodeValue(name, rb.kind, v)
				if err != nil {
					return err
				}
				out = append(out, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *boltStore) Stats() blocklist.StoreStats {
	var st blocklist.StoreStats
	_ = s.db.View(func(tx *bbolt.Tx) error {
		for _, rb := range ruleBuckets {
			b := tx.Bucket(rb.name)
			if b == nil {
				continue
			}
			n := uint64(b.Stats().KeyN)
			if rb.reversed {
				st.SuffixCount = n
			} else {
				st.ExactCount = n
			}
		}
		if meta := tx.Bucket(bucketMeta); meta != nil {
			st.Version, _ = readU64(meta.Get(keyVersion))
			updated, _ := readU64(meta.Get(keyUpdated))
			st.UpdatedUnix = int64(updated)
		}
		return nil
	})
	return st
}

func u64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func readU64(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}

func encodeValue(r domain.BlockRule) []byte {
	buf := binary.BigEndian.AppendUint64(make([]byte, 0, 8+len(r.Source)), uint64(r.AddedAt.UnixNano()))
	return append(buf, r.Source...)
}

func decodeValue(name string, kind domain.BlockRuleKind, v []byte) (domain.BlockRule, error) {
	if len(v) < 8 {
		return domain.BlockRule{}, fmt.Errorf("corrupt value for %q: %d bytes", name, len(v))
	}
	nanos, _ := readU64(v[:8])
	added := time.Unix(0, int64(nanos))
	return domain.NewBlockRule(name, kind, string(v[8:]), added)
}

// reverseString must match the blocklist index's reversal so stored suffix
// keys line up with Bloom keys.
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

var _ blocklist.Store = (*boltStore)(nil)
