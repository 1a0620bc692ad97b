package account

import (
	"testing"

	"github.com/nspcc-dev/avail-go/internal/keytestcases"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/stretchr/testify/require"
)

func TestDevAccounts(t *testing.T) {
	testCases := map[string]string{
		"Alice": "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		"Bob":   "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
	}
	for name, addr := range testCases {
		a, err := Dev(name)
		require.NoError(t, err)
		require.Equal(t, addr, a.Address(address.DefaultPrefix))
		require.Equal(t, name+" ("+addr+")", a.String())
	}
	require.Equal(t, Alice().AccountID(), MustDev("Alice").AccountID())
	require.NotEqual(t, Alice().AccountID(), Bob().AccountID())
	require.Len(t, DevNames, 6)
}

func TestSignVerify(t *testing.T) {
	a := Alice()
	payload := []byte("payload")

	sig, err := a.Sign(payload)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	ok, err := a.Verify(payload, sig)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Verify([]byte("other payload"), sig)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Bob().Verify(payload, sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewFromURI(t *testing.T) {
	_, err := NewFromURI("  ")
	require.ErrorIs(t, err, ErrEmptySecret)

	a, err := NewFromURI("0xe5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a")
	require.NoError(t, err)
	require.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", a.String())
}

func TestKnownKeys(t *testing.T) {
	for _, tc := range keytestcases.Arr {
		a, err := NewFromURI(tc.URI)
		if tc.Invalid {
			require.Error(t, err, tc.URI)
			continue
		}
		require.NoError(t, err, tc.URI)
		require.Equal(t, tc.AccountID, a.AccountID().String())
		require.Equal(t, tc.Address, a.Address(tc.Prefix))
	}
}
