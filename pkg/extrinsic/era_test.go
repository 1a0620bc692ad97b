package extrinsic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMortalEra(t *testing.T) {
	testCases := []struct {
		current, period uint64
		expected        Era
	}{
		{42, 64, Era{64, 42}},
		{20000, 32768, Era{32768, 20000}},
		{6, 4, Era{4, 2}},
		{100, 32, Era{32, 4}},
		{100, 30, Era{32, 4}},
		{100, 0, Era{4, 0}},
		{100, 1, Era{4, 0}},
		{1 << 20, 1 << 20, Era{MaxPeriod, 0}},
		{70000, 40000, Era{MaxPeriod, 4464}},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, NewMortalEra(tc.current, tc.period), "%d/%d", tc.current, tc.period)
	}
}

func TestEraEncode(t *testing.T) {
	require.Equal(t, []byte{0}, Era{}.Encode())
	require.Equal(t, []byte{165, 2}, NewMortalEra(42, 64).Encode())
	require.Equal(t, []byte{78, 156}, NewMortalEra(20000, 32768).Encode())

	for _, e := range []Era{{}, {64, 42}, {32768, 20000}, {4, 3}, {MaxPeriod, 65520}} {
		enc := e.Encode()
		actual, n, err := DecodeEra(append(enc, 0xff))
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, e, actual)
	}

	_, _, err := DecodeEra(nil)
	require.Error(t, err)
	_, _, err = DecodeEra([]byte{5})
	require.Error(t, err)
	// Period 4, phase 5.
	_, _, err = DecodeEra([]byte{0x51, 0})
	require.Error(t, err)
}

func TestEraBirthDeath(t *testing.T) {
	e := NewMortalEra(6, 4)
	require.Equal(t, uint64(6), e.Birth(6))
	require.Equal(t, uint64(10), e.Death(6))
	require.Equal(t, uint64(2), e.Birth(5))
	require.Equal(t, uint64(6), e.Death(5))
	require.Equal(t, uint64(6), e.Birth(9))
	require.Equal(t, uint64(10), e.Birth(10))

	e = NewMortalEra(1, 64)
	require.Equal(t, uint64(1), e.Birth(0))

	imm := Era{}
	require.True(t, imm.IsImmortal())
	require.Equal(t, uint64(0), imm.Birth(100))
	require.Equal(t, ^uint64(0), imm.Death(100))
	require.Equal(t, "immortal", imm.String())
	require.Equal(t, "mortal(64, 42)", Era{64, 42}.String())
}
