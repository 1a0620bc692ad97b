package flags

import (
	"flag"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		in  string
		out string
	}{
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{".25", "250000000000000000"},
		{"0.000000000000000001", "1"},
		{"123456789", "123456789000000000000000000"},
	}
	for _, tc := range testCases {
		v, err := ParseAmount(tc.in, AvailDecimals)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.out, v.String(), tc.in)
	}

	for _, bad := range []string{"", ".", "1.", "-1", "1e5", "1.2.3", "0.0000000000000000001", "abc"} {
		_, err := ParseAmount(bad, AvailDecimals)
		require.Error(t, err, bad)
	}
}

func TestFormatAmount(t *testing.T) {
	testCases := []struct {
		in  string
		out string
	}{
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"1500000000000000000", "1.5"},
		{"1000000000000000000", "1"},
		{"-250000000000000000", "-0.25"},
	}
	for _, tc := range testCases {
		v, _ := new(big.Int).SetString(tc.in, 10)
		require.Equal(t, tc.out, FormatAmount(v, AvailDecimals))
	}
	require.Equal(t, "12.34", FormatAmount(big.NewInt(1234), 2))
}

func TestAmountFlag(t *testing.T) {
	fl := AmountFlag{Name: "amount, a", Usage: "Amount"}
	require.Equal(t, "--amount value, -a value\tAmount", fl.String())

	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	fl.Apply(set)

	require.Error(t, set.Parse([]string{"--amount", "1.x"}))

	set = flag.NewFlagSet("flagSet", flag.ContinueOnError)
	set.SetOutput(io.Discard)
	fl = AmountFlag{Name: "amount, a"}
	fl.Apply(set)
	require.NoError(t, set.Parse([]string{"-a", "2.5"}))
	a := set.Lookup("amount").Value.(*Amount)
	require.True(t, a.IsSet)
	require.Equal(t, "2.5", a.String())
	require.Equal(t, "2500000000000000000", a.Value.String())
	require.Equal(t, "0", Amount{}.String())
}
