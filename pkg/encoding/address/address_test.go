package address

import (
	"testing"

	"github.com/nspcc-dev/avail-go/internal/keytestcases"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeAddress(t *testing.T) {
	var testCases = map[string]string{
		"5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY": "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		"5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty": "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48",
	}
	for addr, pub := range testCases {
		id, prefix, err := Decode(addr)
		require.NoError(t, err)
		assert.Equal(t, DefaultPrefix, prefix)
		assert.Equal(t, pub, id.String())
		assert.Equal(t, addr, EncodeDefault(id))
	}
}

func TestKnownKeys(t *testing.T) {
	for _, tc := range keytestcases.Arr {
		if tc.Invalid {
			continue
		}
		id, prefix, err := Decode(tc.Address)
		require.NoError(t, err, tc.Address)
		require.Equal(t, tc.Prefix, prefix)
		require.Equal(t, tc.AccountID, id.String())
		require.Equal(t, tc.Address, Encode(id, tc.Prefix))
	}
}

func TestTwoBytePrefix(t *testing.T) {
	id := util.AccountID{1, 2, 3}
	for _, prefix := range []uint16{0, 2, 63, 64, 255, 1024, 16383} {
		addr := Encode(id, prefix)
		actual, actualPrefix, err := Decode(addr)
		require.NoError(t, err)
		require.Equal(t, id, actual)
		require.Equal(t, prefix, actualPrefix)
	}
	require.Panics(t, func() { Encode(id, 16384) })
}

func TestDecodeBad(t *testing.T) {
	// Bad base58 symbol.
	_, _, err := Decode("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQ0")
	require.Error(t, err)

	// Corrupted last symbol leads to checksum mismatch.
	_, _, err = Decode("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	require.Error(t, err)

	_, _, err = Decode("")
	require.Error(t, err)

	_, _, err = Decode("5GrwvaEF5zXb")
	require.Error(t, err)
}

func TestStringToAccountID(t *testing.T) {
	a, err := StringToAccountID("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")
	require.NoError(t, err)
	b, err := StringToAccountID("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = StringToAccountID("0x1234")
	require.Error(t, err)
}
