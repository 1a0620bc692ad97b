package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwox128(t *testing.T) {
	var testCases = map[string]string{
		"System":  "26aa394eea5630e07c48ae0c9558cef7",
		"Account": "b99d880ec681799c0cf30e8886371da9",
		"Events":  "80d41e5e16056765bc8461851072c9d7",
	}
	for in, expected := range testCases {
		require.Equal(t, expected, hex.EncodeToString(Twox128([]byte(in))), in)
	}
}

func TestTwoxSizes(t *testing.T) {
	require.Len(t, Twox64([]byte("abc")), 8)
	require.Len(t, Twox256([]byte("abc")), 32)
	require.Equal(t, Twox64([]byte("abc")), Twox128([]byte("abc"))[:8])
}

func TestBlake2b(t *testing.T) {
	alice, err := hex.DecodeString("d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)
	require.Equal(t, "de1e86a9a8c739864cf3cc5ec2bea59f", hex.EncodeToString(Blake2b128(alice)))
	require.Len(t, Blake2b512(alice), 64)

	empty := Blake2b256(nil)
	require.Equal(t, "0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", empty.String())
}

func TestHasher(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	for _, h := range []Hasher{Blake2_128, Blake2_256, Blake2_128Concat, Twox128Hasher, Twox256Hasher, Twox64Concat, Identity} {
		res := h.Hash(data)
		if h.Concat() {
			require.Equal(t, h.Size()+len(data), len(res), h.String())
			require.Equal(t, data, res[h.Size():], h.String())
		} else {
			require.Equal(t, h.Size(), len(res), h.String())
		}
	}
	require.Equal(t, "Hasher(42)", Hasher(42).String())
	require.Panics(t, func() { Hasher(42).Hash(data) })
}

func TestKeccak256(t *testing.T) {
	require.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", Keccak256(nil).String())
}
