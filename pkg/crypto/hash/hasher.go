package hash

import "fmt"

// Hasher is a storage map key hasher.
type Hasher byte

// Storage hashers in the order they're defined in metadata.
const (
	Blake2_128 Hasher = iota
	Blake2_256
	Blake2_128Concat
	Twox128Hasher
	Twox256Hasher
	Twox64Concat
	Identity
)

// Hash hashes the given (SCALE-encoded) key.
func (h Hasher) Hash(data []byte) []byte {
	switch h {
	case Blake2_128:
		return Blake2b128(data)
	case Blake2_256:
		sum := Blake2b256(data)
		return sum[:]
	case Blake2_128Concat:
		return append(Blake2b128(data), data...)
	case Twox128Hasher:
		return Twox128(data)
	case Twox256Hasher:
		return Twox256(data)
	case Twox64Concat:
		return append(Twox64(data), data...)
	case Identity:
		return append([]byte{}, data...)
	default:
		panic(fmt.Sprintf("unknown hasher %d", h))
	}
}

// Concat returns true if the original key follows the digest in the hashed
// representation (so it can be recovered from the storage key).
func (h Hasher) Concat() bool {
	return h == Blake2_128Concat || h == Twox64Concat || h == Identity
}

// Size returns the size of the digest part of the hashed key.
func (h Hasher) Size() int {
	switch h {
	case Blake2_128, Blake2_128Concat, Twox128Hasher:
		return 16
	case Blake2_256, Twox256Hasher:
		return 32
	case Twox64Concat:
		return 8
	default:
		return 0
	}
}

// String implements the fmt.Stringer interface.
func (h Hasher) String() string {
	switch h {
	case Blake2_128:
		return "Blake2_128"
	case Blake2_256:
		return "Blake2_256"
	case Blake2_128Concat:
		return "Blake2_128Concat"
	case Twox128Hasher:
		return "Twox128"
	case Twox256Hasher:
		return "Twox256"
	case Twox64Concat:
		return "Twox64Concat"
	case Identity:
		return "Identity"
	default:
		return fmt.Sprintf("Hasher(%d)", byte(h))
	}
}
