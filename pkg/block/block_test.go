package block_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
)

var (
	alice, _ = util.AccountIDDecodeString("d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	bob, _   = util.AccountIDDecodeString("8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
)

type signer util.AccountID

func (s signer) AccountID() util.AccountID { return util.AccountID(s) }

func (s signer) Sign([]byte) ([]byte, error) { return make([]byte, 64), nil }

func signed(t *testing.T, acc util.AccountID, nonce, appID uint32, c extrinsic.Call) []byte {
	tx, err := extrinsic.Sign(c, extrinsic.Extra{Nonce: nonce, AppID: appID}, extrinsic.Additional{}, signer(acc))
	require.NoError(t, err)
	return tx.Bytes
}

const headerJSON = `{
	"parentHash": "0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
	"number": "0x1a",
	"stateRoot": "0x0000000000000000000000000000000000000000000000000000000000000001",
	"extrinsicsRoot": "0x0000000000000000000000000000000000000000000000000000000000000002",
	"digest": {"logs": ["0x0642414245b5010100000000"]},
	"extension": {"V3": {"appLookup": {"size": 1, "index": []}}}
}`

func newTestBlock(t *testing.T) *block.Block {
	var raw block.Raw
	require.NoError(t, json.Unmarshal([]byte(`{"block":{"header":`+headerJSON+`,"extrinsics":[]}}`), &raw))

	m := testmeta.New()
	submit, err := extrinsic.NewCall(m, "DataAvailability", "submit_data", []byte("hello"))
	require.NoError(t, err)
	transfer, err := extrinsic.NewCall(m, "Balances", "transfer_keep_alive", extrinsic.MultiAddressID(alice), extrinsic.Raw(testmeta.Compact(100)))
	require.NoError(t, err)
	remark, err := extrinsic.NewCall(m, "System", "remark", []byte{1})
	require.NoError(t, err)

	raw.Block.Extrinsics = []util.HexBytes{
		extrinsic.NewUnsigned(remark).Bytes,
		signed(t, alice, 5, 3, submit),
		signed(t, bob, 1, 0, transfer),
		signed(t, alice, 6, 3, submit),
		{4 << 2, 5, 0, 0, 0},
	}
	return block.New(util.H256{0xaa}, &raw, m)
}

func TestHeaderJSON(t *testing.T) {
	var h block.Header
	require.NoError(t, json.Unmarshal([]byte(headerJSON), &h))
	require.Equal(t, util.BlockNumber(26), h.Number)
	require.Equal(t, util.H256{31: 1}, h.StateRoot)
	require.Len(t, h.Digest.Logs, 1)
	require.NotEmpty(t, h.Extension)

	data, err := json.Marshal(h)
	require.NoError(t, err)
	var actual block.Header
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, h.Number, actual.Number)
	require.Equal(t, h.ParentHash, actual.ParentHash)
	require.JSONEq(t, string(h.Extension), string(actual.Extension))
}

func TestBlock(t *testing.T) {
	b := newTestBlock(t)
	require.Equal(t, uint32(26), b.Number())
	require.Len(t, b.Extrinsics, 5)

	first := b.Extrinsics[0]
	require.NoError(t, first.Err)
	require.Equal(t, "System", first.Pallet)
	require.Equal(t, "remark", first.Call)
	_, ok := first.Signer()
	require.False(t, ok)
	require.Equal(t, uint32(0), first.AppID())

	broken := b.Extrinsics[4]
	require.Error(t, broken.Err)
	require.Nil(t, broken.Decoded)
	require.Equal(t, "", broken.Pallet)

	require.Len(t, b.ByAppID(3), 2)
	require.Len(t, b.ByAppID(0), 1)
	require.Len(t, b.BySigner(alice), 2)
	require.Len(t, b.BySigner(util.AccountID{}), 0)
	require.Len(t, b.ByCall("Balances", ""), 1)
	require.Len(t, b.ByCall("DataAvailability", "submit_data"), 2)
	require.Len(t, b.ByCall("DataAvailability", "create_application_key"), 0)

	tx, ok := b.BySignerNonce(alice, 6)
	require.True(t, ok)
	require.Equal(t, uint32(3), tx.Index)
	_, ok = b.BySignerNonce(bob, 6)
	require.False(t, ok)

	found, ok := b.ByHash(tx.Hash)
	require.True(t, ok)
	require.Equal(t, tx, found)
	_, ok = b.ByHash(util.H256{})
	require.False(t, ok)

	found, ok = b.ByIndex(2)
	require.True(t, ok)
	s, ok := found.Signer()
	require.True(t, ok)
	require.Equal(t, bob, s)
	_, ok = b.ByIndex(5)
	require.False(t, ok)

	subs := b.DataSubmissions()
	require.Len(t, subs, 2)
	require.Equal(t, []byte("hello"), subs[0].Data)
	require.Equal(t, uint32(3), subs[0].AppID)
	require.Equal(t, alice, subs[0].Signer)
	require.Equal(t, uint32(1), subs[0].TxIndex)
	require.Equal(t, b.Extrinsics[1].Hash, subs[0].TxHash)

	noMeta := block.New(b.Hash, &block.Raw{}, nil)
	require.Len(t, noMeta.Extrinsics, 0)
	tx = block.NewTransaction(0, b.Extrinsics[1].Raw, nil)
	require.NoError(t, tx.Err)
	require.Equal(t, "", tx.Call)
}

func TestEvents(t *testing.T) {
	m := testmeta.New()
	raw := testmeta.Events(
		testmeta.ExtrinsicSuccess(0),
		testmeta.DataSubmitted(1, alice, util.H256{1}),
		testmeta.ExtrinsicSuccess(1),
		testmeta.Transfer(2, bob, alice, big.NewInt(100)),
		testmeta.ExtrinsicFailed(2, testmeta.BalancesIndex, 2),
		testmeta.ExtrinsicFailedBadOrigin(3),
		testmeta.Finalization(bob),
	)
	events, err := block.DecodeEvents(m, raw)
	require.NoError(t, err)
	require.Len(t, events, 7)

	require.Equal(t, block.Finalization, events[6].Phase.Kind)
	require.Equal(t, "System.NewAccount", events[6].String())

	tx1 := block.EventsForTx(events, 1)
	require.Len(t, tx1, 2)
	ev, ok := block.FindEvent(tx1, "DataAvailability", "DataSubmitted")
	require.True(t, ok)
	require.Equal(t, testmeta.DataAvailabilityIndex, ev.PalletIndex)
	require.Equal(t, uint8(1), ev.EventIndex)
	who, ok := ev.Field("who")
	require.True(t, ok)
	acc, err := who.AccountID()
	require.NoError(t, err)
	require.Equal(t, alice, acc)
	_, ok = block.FindEvent(tx1, "Balances", "Transfer")
	require.False(t, ok)
	require.Len(t, block.FilterEvents(events, "System", "ExtrinsicSuccess"), 2)

	ok, err = block.TxSuccess(m, tx1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = block.TxSuccess(m, block.EventsForTx(events, 2))
	require.False(t, ok)
	var de *block.DispatchError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "Module", de.Kind)
	require.Equal(t, "Balances", de.Pallet)
	require.Equal(t, "InsufficientBalance", de.Name)
	require.Equal(t, "dispatch error: Balances.InsufficientBalance", de.Error())

	ok, err = block.TxSuccess(m, block.EventsForTx(events, 3))
	require.False(t, ok)
	require.ErrorAs(t, err, &de)
	require.Equal(t, "BadOrigin", de.Kind)
	require.Equal(t, "dispatch error: BadOrigin", de.Error())

	_, err = block.TxSuccess(m, block.EventsForTx(events, 10))
	require.ErrorIs(t, err, block.ErrNoOutcome)

	t.Run("no metadata", func(t *testing.T) {
		failed, ok := block.FindEvent(events, "System", "ExtrinsicFailed")
		require.True(t, ok)
		v, _ := failed.Field("dispatch_error")
		de := block.NewDispatchError(nil, v)
		require.Equal(t, "dispatch error: Module(6:2)", de.Error())
	})
	t.Run("empty", func(t *testing.T) {
		events, err := block.DecodeEvents(m, nil)
		require.NoError(t, err)
		require.Len(t, events, 0)
	})
	t.Run("bad", func(t *testing.T) {
		_, err := block.DecodeEvents(m, bytes.Repeat([]byte{0xff}, 3))
		require.Error(t, err)
	})
}
