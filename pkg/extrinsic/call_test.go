package extrinsic_test

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestCompact(t *testing.T) {
	testCases := map[uint64][]byte{
		0:       {0x00},
		1:       {0x04},
		63:      {0xfc},
		64:      {0x01, 0x01},
		16383:   {0xfd, 0xff},
		16384:   {0x02, 0x00, 0x01, 0x00},
		1 << 30: {0x03, 0x00, 0x00, 0x00, 0x40},
	}
	for n, expected := range testCases {
		require.Equal(t, extrinsic.Raw(expected), extrinsic.Compact(n), n)

		actual, err := extrinsic.CompactBig(new(big.Int).SetUint64(n))
		require.NoError(t, err)
		require.Equal(t, extrinsic.Raw(expected), actual, n)
	}

	_, err := extrinsic.CompactBig(nil)
	require.Error(t, err)
	_, err = extrinsic.CompactBig(big.NewInt(-1))
	require.Error(t, err)
}

func TestMultiAddressIDs(t *testing.T) {
	a, b := util.AccountID{1}, util.AccountID{2}
	require.Equal(t, extrinsic.Raw{0}, extrinsic.MultiAddressIDs())

	raw := extrinsic.MultiAddressIDs(a, b)
	require.Len(t, raw, 1+2*33)
	require.Equal(t, byte(0x08), raw[0])
	require.Equal(t, extrinsic.MultiAddressID(a), raw[1:34])
	require.Equal(t, extrinsic.MultiAddressID(b), raw[34:])
	require.Equal(t, extrinsic.AddressID, raw[34])
}

func TestCalls(t *testing.T) {
	c1 := extrinsic.Call{PalletIndex: 0, CallIndex: 7, Args: []byte{0x08, 'h', 'i'}}
	c2 := extrinsic.Call{PalletIndex: 29, CallIndex: 1, Args: []byte{0x04, 0xff}}
	require.Equal(t, extrinsic.Raw{0x08, 0, 7, 0x08, 'h', 'i', 29, 1, 0x04, 0xff}, extrinsic.Calls(c1, c2))
	require.Equal(t, extrinsic.Raw{0}, extrinsic.Calls())
}
