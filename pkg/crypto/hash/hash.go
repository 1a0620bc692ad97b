/*
Package hash provides hashing functions used by Substrate-based chains: BLAKE2b
with various digest sizes, xxHash-based TwoX hashes and storage key hashers
built on top of them.
*/
package hash

import (
	"encoding/binary"

	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b128 returns 16-byte BLAKE2b digest of data.
func Blake2b128(data []byte) []byte {
	h, _ := blake2b.New(16, nil) // Never errors for sizes <= 64 without key.
	h.Write(data)
	return h.Sum(nil)
}

// Blake2b256 returns 32-byte BLAKE2b digest of data.
func Blake2b256(data []byte) util.H256 {
	return blake2b.Sum256(data)
}

// Blake2b512 returns 64-byte BLAKE2b digest of data.
func Blake2b512(data []byte) []byte {
	sum := blake2b.Sum512(data)
	return sum[:]
}

// Keccak256 returns legacy Keccak-256 digest of data (the one Ethereum and
// data availability commitments use).
func Keccak256(data []byte) util.H256 {
	var res util.H256
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	h.Sum(res[:0])
	return res
}

// Twox64 returns 8-byte xxHash64 digest of data with zero seed (little-endian).
func Twox64(data []byte) []byte {
	return twox(data, 1)
}

// Twox128 returns 16-byte digest made of two xxHash64 rounds with 0 and 1
// seeds.
func Twox128(data []byte) []byte {
	return twox(data, 2)
}

// Twox256 returns 32-byte digest made of four xxHash64 rounds with 0..3 seeds.
func Twox256(data []byte) []byte {
	return twox(data, 4)
}

func twox(data []byte, rounds int) []byte {
	res := make([]byte, 8*rounds)
	for i := 0; i < rounds; i++ {
		binary.LittleEndian.PutUint64(res[i*8:], xxHash64.Checksum(data, uint64(i)))
	}
	return res
}
