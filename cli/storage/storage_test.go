package storage

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/dataavailability"
	"github.com/stretchr/testify/require"
)

func TestDumpAccount(t *testing.T) {
	alice := account.Alice().AccountID()
	free, _ := new(big.Int).SetString("1500000000000000000", 10)
	info := &rpcclient.AccountInfo{
		Nonce:     7,
		Providers: 1,
		Data:      rpcclient.AccountData{Free: free},
	}
	buf := new(bytes.Buffer)
	dumpAccount(buf, alice, info, 42, 18)
	out := buf.String()
	require.Contains(t, out, address.Encode(alice, 42))
	require.Contains(t, out, "1.5")
	require.Contains(t, out, "Nonce:")
	require.Contains(t, out, "7")
}

func TestDumpAppKeys(t *testing.T) {
	bob := account.Bob().AccountID()
	buf := new(bytes.Buffer)
	dumpAppKeys(buf, []dataavailability.AppKey{
		{Key: []byte("zeta"), Owner: bob, ID: 5},
		{Key: []byte{0x00, 0x01}, Owner: bob, ID: 1},
	}, 42)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "1"))
	require.Contains(t, lines[1], "0x0001")
	require.Contains(t, lines[2], "zeta")
	require.Contains(t, lines[2], address.Encode(bob, 42))
}

func TestParseKey(t *testing.T) {
	k, err := parseKey("my-app")
	require.NoError(t, err)
	require.Equal(t, []byte("my-app"), k)

	k, err = parseKey("0x6170")
	require.NoError(t, err)
	require.Equal(t, []byte("ap"), k)

	_, err = parseKey("0xzz")
	require.Error(t, err)

	require.Equal(t, "ap", keyString([]byte("ap")))
	require.Equal(t, "0x0a", keyString([]byte{0x0a}))
}
