package dataavailability

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/fakechain"
	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	fc := fakechain.NewFakeChain()
	r := NewReader(fc)
	alice, bob := account.Alice().AccountID(), account.Bob().AccountID()

	fc.Err = errors.New("")
	_, err := r.AppKey([]byte("app"), nil)
	require.Error(t, err)
	_, err = r.AppKeys(nil)
	require.Error(t, err)
	_, err = r.NextAppID(nil)
	require.Error(t, err)
	_, err = r.MaxAppDataLength()
	require.Error(t, err)
	fc.Err = nil

	ak, err := r.AppKey([]byte("app"), nil)
	require.NoError(t, err)
	require.Nil(t, ak)

	keys, err := r.AppKeys(nil)
	require.NoError(t, err)
	require.Empty(t, keys)

	id, err := r.NextAppID(nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, id)

	require.NoError(t, fc.Put(Name, "AppKeys", testmeta.AppKeyInfo(alice, 1), testmeta.Bytes([]byte("app"))))
	require.NoError(t, fc.Put(Name, "AppKeys", testmeta.AppKeyInfo(bob, 2), testmeta.Bytes([]byte("other"))))
	require.NoError(t, fc.Put(Name, "NextAppId", testmeta.Compact(3)))

	ak, err = r.AppKey([]byte("app"), nil)
	require.NoError(t, err)
	require.Equal(t, &AppKey{Key: []byte("app"), Owner: alice, ID: 1}, ak)

	keys, err = r.AppKeys(nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []AppKey{
		{Key: []byte("app"), Owner: alice, ID: 1},
		{Key: []byte("other"), Owner: bob, ID: 2},
	}, keys)
	require.Equal(t, fc.Best, *fc.LastAt)

	id, err = r.NextAppID(nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, id)

	maxData, err := r.MaxAppDataLength()
	require.NoError(t, err)
	require.Equal(t, testmeta.MaxAppDataLength, maxData)
	maxKey, err := r.MaxAppKeyLength()
	require.NoError(t, err)
	require.Equal(t, testmeta.MaxAppKeyLength, maxKey)
}

func TestPallet(t *testing.T) {
	fa := fakechain.NewFakeActor()
	p := New(fakechain.NewFakeChain(), fa)

	_, err := p.SubmitData(nil)
	require.ErrorIs(t, err, ErrEmptyData)
	_, err = p.SubmitDataTransaction([]byte{})
	require.ErrorIs(t, err, ErrEmptyData)
	_, err = p.CreateApplicationKey(nil)
	require.ErrorIs(t, err, ErrEmptyKey)
	require.Empty(t, fa.Calls)

	sub, err := p.SubmitData([]byte("blob"))
	require.NoError(t, err)
	require.False(t, sub.Hash.IsZero())
	c, _ := fa.LastCall()
	dc, err := fa.DecodeCall(c)
	require.NoError(t, err)
	require.Equal(t, Name, dc.Pallet)
	require.Equal(t, "submit_data", dc.Name)
	data, err := dc.Args.MustField("data")
	require.NoError(t, err)
	require.Equal(t, []byte("blob"), data.Raw)

	tx, err := p.SubmitDataTransaction([]byte("blob"))
	require.NoError(t, err)
	require.Equal(t, sub.Hash, tx.Hash)

	_, err = p.CreateApplicationKey([]byte("my-app"))
	require.NoError(t, err)
	c, _ = fa.LastCall()
	dc, err = fa.DecodeCall(c)
	require.NoError(t, err)
	require.Equal(t, "create_application_key", dc.Name)
	key, err := dc.Args.MustField("key")
	require.NoError(t, err)
	require.Equal(t, []byte("my-app"), key.Raw)

	fa.Err = errors.New("")
	_, err = p.SubmitData([]byte("blob"))
	require.Error(t, err)
}

func TestEvents(t *testing.T) {
	m := testmeta.New()
	alice := account.Alice().AccountID()
	dh := DataHash([]byte("blob"))
	events, err := block.DecodeEvents(m, testmeta.Events(
		testmeta.DataSubmitted(0, alice, dh),
		testmeta.ExtrinsicSuccess(0),
		testmeta.ApplicationKeyCreated(1, []byte("my-app"), alice, 7),
		testmeta.ExtrinsicSuccess(1),
	))
	require.NoError(t, err)

	ds, err := DataSubmittedEvents(events)
	require.NoError(t, err)
	require.Equal(t, []*DataSubmittedEvent{{Who: alice, DataHash: dh}}, ds)

	created, err := ApplicationKeyCreatedEvents(events)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, AppKey{Key: []byte("my-app"), Owner: alice, ID: 7}, created[0].AppKey)

	var e DataSubmittedEvent
	require.Error(t, e.FromEvent(&events[1]))
	var ae ApplicationKeyCreatedEvent
	require.Error(t, ae.FromEvent(&events[0]))
}
