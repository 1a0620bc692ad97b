package utility

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/fakechain"
	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/balances"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/system"
	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	fa := fakechain.NewFakeActor()
	fc := fakechain.NewFakeChain()
	p := New(fa)

	_, err := p.Batch()
	require.ErrorIs(t, err, ErrNoCalls)

	remark, err := system.New(fc, fa).RemarkCall([]byte("hi"))
	require.NoError(t, err)
	transfer, err := balances.New(fc, fa).TransferKeepAliveCall(account.Bob().AccountID(), big.NewInt(10))
	require.NoError(t, err)

	for name, f := range map[string]func(...extrinsic.Call) error{
		"batch": func(c ...extrinsic.Call) error {
			_, err := p.Batch(c...)
			return err
		},
		"batch_all": func(c ...extrinsic.Call) error {
			_, err := p.BatchAll(c...)
			return err
		},
		"force_batch": func(c ...extrinsic.Call) error {
			_, err := p.ForceBatch(c...)
			return err
		},
	} {
		require.NoError(t, f(remark, transfer))
		c, _ := fa.LastCall()
		dc, err := fa.DecodeCall(c)
		require.NoError(t, err)
		require.Equal(t, Name, dc.Pallet)
		require.Equal(t, name, dc.Name)

		calls, err := dc.Args.MustField("calls")
		require.NoError(t, err)
		require.Equal(t, 2, calls.Len())
		require.Equal(t, "System", calls.Items[0].VariantName)
		require.Equal(t, "Balances", calls.Items[1].VariantName)
		inner := calls.Items[1].Items[0].Unwrap()
		require.Equal(t, "transfer_keep_alive", inner.VariantName)
	}

	tx, err := p.BatchAllTransaction(remark)
	require.NoError(t, err)
	require.NotEmpty(t, tx.Bytes)

	fa.Err = errors.New("")
	_, err = p.BatchAll(remark)
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	m := testmeta.New()
	events, err := block.DecodeEvents(m, testmeta.Events(
		testmeta.BatchCompleted(0),
		testmeta.ExtrinsicSuccess(0),
	))
	require.NoError(t, err)
	require.True(t, BatchCompleted(events))
	bi, err := BatchInterrupted(m, events)
	require.NoError(t, err)
	require.Nil(t, bi)

	events, err = block.DecodeEvents(m, testmeta.Events(
		testmeta.BatchInterrupted(0, 1, testmeta.BalancesIndex, 2),
		testmeta.ExtrinsicSuccess(0),
	))
	require.NoError(t, err)
	require.False(t, BatchCompleted(events))
	bi, err = BatchInterrupted(m, events)
	require.NoError(t, err)
	require.EqualValues(t, 1, bi.Index)
	require.Equal(t, "InsufficientBalance", bi.Error.Name)
}
