package chain

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func signedTx(t *testing.T, appID uint32, pallet, call string, args ...any) util.HexBytes {
	c, err := extrinsic.NewCall(testmeta.New(), pallet, call, args...)
	require.NoError(t, err)
	tx, err := extrinsic.Sign(c, extrinsic.Extra{Nonce: 5, AppID: appID}, extrinsic.Additional{}, account.Alice())
	require.NoError(t, err)
	return tx.Bytes
}

func testBlock(t *testing.T) *block.Block {
	raw := new(block.Raw)
	raw.Block.Header = block.Header{ParentHash: util.H256{1}, Number: 42}
	raw.Block.Extrinsics = []util.HexBytes{
		signedTx(t, 0, "System", "remark", []byte("hi")),
		signedTx(t, 3, "DataAvailability", "submit_data", []byte("blob")),
		{0x01, 0x02},
	}
	return block.New(util.H256{0xaa}, raw, testmeta.New())
}

func TestDumpBlock(t *testing.T) {
	b := testBlock(t)
	alice := address.Encode(account.Alice().AccountID(), 42)

	t.Run("all", func(t *testing.T) {
		buf := new(bytes.Buffer)
		DumpBlock(buf, b, 42, nil, false)
		out := buf.String()
		require.Contains(t, out, "Number:")
		require.Contains(t, out, "42")
		require.Contains(t, out, b.Hash.String())
		require.Contains(t, out, "Transactions:")
		require.Contains(t, out, "System.remark")
		require.Contains(t, out, "DataAvailability.submit_data")
		require.Contains(t, out, alice)
		require.Contains(t, out, "Error:")
		require.NotContains(t, out, "Args:")
	})

	t.Run("app id", func(t *testing.T) {
		buf := new(bytes.Buffer)
		id := uint32(3)
		DumpBlock(buf, b, 42, &id, true)
		out := buf.String()
		require.Contains(t, out, "DataAvailability.submit_data")
		require.NotContains(t, out, "System.remark")
		require.Contains(t, out, "Args:")
	})
}

func TestDumpEvents(t *testing.T) {
	m := testmeta.New()
	bob := account.Bob().AccountID()
	raw := testmeta.Events(
		testmeta.ExtrinsicSuccess(0),
		testmeta.Transfer(1, account.Alice().AccountID(), bob, big.NewInt(100)),
		testmeta.ExtrinsicFailed(1, 6, 2),
		testmeta.Finalization(bob),
	)
	events, err := block.DecodeEvents(m, raw)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	DumpEvents(buf, events)
	out := buf.String()
	require.Contains(t, out, "tx#0")
	require.Contains(t, out, "System.ExtrinsicSuccess")
	require.Contains(t, out, "Balances.Transfer")
	require.Contains(t, out, "finalization")

	buf.Reset()
	DumpEvents(buf, block.EventsForTx(events, 1))
	require.NotContains(t, buf.String(), "tx#0")
	require.Contains(t, buf.String(), "System.ExtrinsicFailed")
}

func TestDumpInfo(t *testing.T) {
	symbol := "AVAIL"
	decimals := uint8(18)
	buf := new(bytes.Buffer)
	DumpInfo(buf, &Info{
		Endpoint:    "http://localhost:9944",
		Chain:       "Avail Development Network",
		NodeName:    "Avail Node",
		NodeVersion: "2.2.0",
		Health:      &result.Health{Peers: 3},
		Runtime:     result.RuntimeVersion{SpecName: "avail", SpecVersion: 39, TransactionVersion: 1},
		Genesis:     util.H256{1},
		Properties:  result.ChainProperties{TokenSymbol: &symbol, TokenDecimals: &decimals},
		SS58Prefix:  42,
	})
	out := buf.String()
	require.Contains(t, out, "avail/39")
	require.Contains(t, out, "AVAIL")
	require.Contains(t, out, "Avail Node 2.2.0")
	require.Contains(t, out, util.H256{1}.String())
}
