package staking

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
	alice, bob := account.Alice().AccountID(), account.Bob().AccountID()

	fc.Err = errors.New("")
	_, err := r.ActiveEra(nil)
	require.Error(t, err)
	_, err = r.Bonded(alice, nil)
	require.Error(t, err)
	_, err = r.MinNominatorBond(nil)
	require.Error(t, err)
	fc.Err = nil

	era, err := r.ActiveEra(nil)
	require.NoError(t, err)
	require.Nil(t, era)
	ctrl, err := r.Bonded(alice, nil)
	require.NoError(t, err)
	require.Nil(t, ctrl)

	require.NoError(t, fc.Put(Name, "ActiveEra", []byte{5, 0, 0, 0, 0}))
	era, err = r.ActiveEra(nil)
	require.NoError(t, err)
	require.Equal(t, &ActiveEra{Index: 5}, era)

	require.NoError(t, fc.Put(Name, "ActiveEra", []byte{6, 0, 0, 0, 1, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}))
	era, err = r.ActiveEra(nil)
	require.NoError(t, err)
	require.EqualValues(t, 6, era.Index)
	require.NotNil(t, era.Start)
	require.EqualValues(t, 1000, *era.Start)

	require.NoError(t, fc.Put(Name, "Bonded", bob.Bytes(), alice.Bytes()))
	ctrl, err = r.Bonded(alice, nil)
	require.NoError(t, err)
	require.Equal(t, &bob, ctrl)

	require.NoError(t, fc.Put(Name, "MinNominatorBond", testmeta.U128(big.NewInt(1000))))
	mb, err := r.MinNominatorBond(nil)
	require.NoError(t, err)
	require.EqualValues(t, 1000, mb.Int64())
}

func lastCall(t *testing.T, fa *fakechain.FakeActor) *metadata.Call {
	c, ok := fa.LastCall()
	require.True(t, ok)
	dc, err := fa.DecodeCall(c)
	require.NoError(t, err)
	require.Equal(t, Name, dc.Pallet)
	return dc
}

func TestPallet(t *testing.T) {
	fa := fakechain.NewFakeActor()
	p := New(fakechain.NewFakeChain(), fa)
	alice, bob := account.Alice().AccountID(), account.Bob().AccountID()

	_, err := p.Bond(big.NewInt(-5), RewardDestination{})
	require.Error(t, err)
	_, err = p.Bond(big.NewInt(5), RewardDestination{Kind: 42})
	require.Error(t, err)
	_, err = p.Nominate()
	require.ErrorIs(t, err, ErrNoTargets)
	_, err = p.Unbond(nil)
	require.Error(t, err)

	_, err = p.Bond(big.NewInt(500), RewardDestination{Kind: Account, Account: bob})
	require.NoError(t, err)
	dc := lastCall(t, fa)
	require.Equal(t, "bond", dc.Name)
	payee, err := dc.Args.MustField("payee")
	require.NoError(t, err)
	require.Equal(t, "Account", payee.VariantName)
	acc, err := payee.Items[0].AccountID()
	require.NoError(t, err)
	require.Equal(t, bob, acc)

	_, err = p.Bond(big.NewInt(500), RewardDestination{Kind: Staked})
	require.NoError(t, err)
	payee, err = lastCall(t, fa).Args.MustField("payee")
	require.NoError(t, err)
	require.Equal(t, "Staked", payee.VariantName)

	_, err = p.BondExtra(big.NewInt(7))
	require.NoError(t, err)
	dc = lastCall(t, fa)
	require.Equal(t, "bond_extra", dc.Name)
	v, err := dc.Args.MustField("max_additional")
	require.NoError(t, err)
	require.EqualValues(t, 7, v.Num.Int64())

	_, err = p.Unbond(big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, "unbond", lastCall(t, fa).Name)

	_, err = p.Nominate(alice, bob)
	require.NoError(t, err)
	dc = lastCall(t, fa)
	require.Equal(t, "nominate", dc.Name)
	targets, err := dc.Args.MustField("targets")
	require.NoError(t, err)
	require.Equal(t, 2, targets.Len())
	first, err := targets.Items[0].AccountID()
	require.NoError(t, err)
	require.Equal(t, alice, first)

	_, err = p.Chill()
	require.NoError(t, err)
	require.Equal(t, "chill", lastCall(t, fa).Name)
}

func TestBondedEvents(t *testing.T) {
	alice := account.Alice().AccountID()
	events, err := block.DecodeEvents(testmeta.New(), testmeta.Events(
		testmeta.Bonded(0, alice, big.NewInt(100)),
		testmeta.ExtrinsicSuccess(0),
	))
	require.NoError(t, err)
	be, err := BondedEvents(events)
	require.NoError(t, err)
	require.Len(t, be, 1)
	require.Equal(t, alice, be[0].Stash)
	require.EqualValues(t, 100, be[0].Amount.Int64())
}
