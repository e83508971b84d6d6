// Package hashprovider supplies the pluggable (feature, seed) -> hash
// family the sketcher uses to compute MinHash values. Two concrete
// families are implemented: a 64-bit XXH3 provider and a 32-bit
// MurmurHash3 provider, matching the two bytes-per-hash widths the
// MinHash file format supports.
package hashprovider

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Provider computes a deterministic hash of a feature under a given
// seed. Implementations must be safe for concurrent use by multiple
// goroutines.
type Provider interface {
	// Name identifies the hash family by the name ByName accepts for it.
	Name() string
	// BytesPerHash is the on-disk width of one hash value: 4 for the
	// MurmurHash3 provider, 8 for the XXH3 provider.
	BytesPerHash() uint32
	// Hash returns the hash of feature under seed, widened to uint64.
	// For a 4-byte provider the result always fits in the low 32 bits.
	Hash(feature []byte, seed uint64) uint64
}

// MaxHash is the largest 64-bit hash value. The sketcher starts its
// running minimum at the largest value of the provider's width (MaxHash
// for 8-byte providers, 0xFFFFFFFF for 4-byte ones), which is also the
// value produced for an item whose feature set is empty.
const MaxHash uint64 = 0xFFFFFFFFFFFFFFFF

// ByName resolves one of the two built-in hash families by CLI name.
func ByName(name string) (Provider, error) {
	switch name {
	case "xxh3", "":
		return XXH3{}, nil
	case "murmur3":
		return Murmur3{}, nil
	default:
		return nil, fmt.Errorf("unknown hash provider %q (want xxh3 or murmur3)", name)
	}
}

// XXH3 is a stateless 64-bit hash provider.
type XXH3 struct{}

func (XXH3) Name() string         { return "xxh3" }
func (XXH3) BytesPerHash() uint32 { return 8 }

func (XXH3) Hash(feature []byte, seed uint64) uint64 {
	return xxh3.HashSeed(feature, seed)
}

// Murmur3 is a stateless 32-bit hash provider, matching the original
// MurmurHash3_x86_32 family used by the reference implementation.
type Murmur3 struct{}

func (Murmur3) Name() string         { return "murmur3" }
func (Murmur3) BytesPerHash() uint32 { return 4 }

func (Murmur3) Hash(feature []byte, seed uint64) uint64 {
	h := murmur3.Sum32WithSeed(feature, uint32(seed))
	return uint64(h)
}
