package balances

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/fakechain"
	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	fc := fakechain.NewFakeChain()
	r := NewReader(fc)
	alice := account.Alice().AccountID()

	fc.Err = errors.New("")
	_, err := r.Balance(alice, nil)
	require.Error(t, err)
	_, err = r.ExistentialDeposit()
	require.Error(t, err)
	_, err = r.TotalIssuance(nil)
	require.Error(t, err)

	fc.Err = nil
	free, _ := new(big.Int).SetString("1000000000000000000000", 10)
	require.NoError(t, fc.Put("System", "Account", testmeta.AccountInfo(1, free), alice.Bytes()))
	require.NoError(t, fc.Put(Name, "TotalIssuance", testmeta.U128(big.NewInt(5000))))

	bal, err := r.Balance(alice, nil)
	require.NoError(t, err)
	require.Equal(t, 0, free.Cmp(bal.Free))
	require.EqualValues(t, 0, bal.Reserved.Sign())

	ed, err := r.ExistentialDeposit()
	require.NoError(t, err)
	require.Equal(t, 0, testmeta.ExistentialDeposit.Cmp(ed))

	ti, err := r.TotalIssuance(nil)
	require.NoError(t, err)
	require.EqualValues(t, 5000, ti.Int64())
}

func decodeCall(t *testing.T, fa *fakechain.FakeActor) *metadata.Call {
	c, ok := fa.LastCall()
	require.True(t, ok)
	dc, err := fa.DecodeCall(c)
	require.NoError(t, err)
	return dc
}

func TestTransfers(t *testing.T) {
	fa := fakechain.NewFakeActor()
	p := New(fakechain.NewFakeChain(), fa)
	bob := account.Bob().AccountID()

	_, err := p.TransferKeepAlive(bob, big.NewInt(-1))
	require.Error(t, err)
	_, err = p.TransferAllowDeath(bob, nil)
	require.Error(t, err)

	fa.Err = errors.New("")
	_, err = p.TransferKeepAlive(bob, big.NewInt(1))
	require.Error(t, err)
	_, err = p.TransferAll(bob, true)
	require.Error(t, err)
	_, err = p.TransferKeepAliveTransaction(bob, big.NewInt(1))
	require.Error(t, err)
	fa.Err = nil

	amount, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // u128 max
	for name, f := range map[string]func() error{
		"transfer_keep_alive": func() error {
			_, err := p.TransferKeepAlive(bob, amount)
			return err
		},
		"transfer_allow_death": func() error {
			_, err := p.TransferAllowDeath(bob, amount)
			return err
		},
	} {
		require.NoError(t, f())
		dc := decodeCall(t, fa)
		require.Equal(t, name, dc.Name)

		dest, err := dc.Args.MustField("dest")
		require.NoError(t, err)
		acc, err := dest.AccountID()
		require.NoError(t, err)
		require.Equal(t, bob, acc)

		value, err := dc.Args.MustField("value")
		require.NoError(t, err)
		v, err := value.BigInt()
		require.NoError(t, err)
		require.Equal(t, 0, amount.Cmp(v))
	}

	_, err = p.TransferAll(bob, true)
	require.NoError(t, err)
	dc := decodeCall(t, fa)
	require.Equal(t, "transfer_all", dc.Name)
	ka, err := dc.Args.MustField("keep_alive")
	require.NoError(t, err)
	require.True(t, ka.Bool)

	tx, err := p.TransferKeepAliveTransaction(bob, big.NewInt(10))
	require.NoError(t, err)
	require.NotEmpty(t, tx.Bytes)
}

func TestTransferEvents(t *testing.T) {
	m := testmeta.New()
	alice, bob := account.Alice().AccountID(), account.Bob().AccountID()
	events, err := block.DecodeEvents(m, testmeta.Events(
		testmeta.Transfer(0, alice, bob, big.NewInt(100)),
		testmeta.ExtrinsicSuccess(0),
		testmeta.Transfer(1, bob, alice, big.NewInt(5)),
	))
	require.NoError(t, err)

	tr, err := TransferEvents(events)
	require.NoError(t, err)
	require.Len(t, tr, 2)
	require.Equal(t, alice, tr[0].From)
	require.Equal(t, bob, tr[0].To)
	require.EqualValues(t, 100, tr[0].Amount.Int64())
	require.Equal(t, bob, tr[1].From)
	require.EqualValues(t, 5, tr[1].Amount.Int64())

	var e TransferEvent
	require.Error(t, e.FromEvent(&events[1]))
}
