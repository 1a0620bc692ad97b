package txstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
)

var _ actor.Journal = (*Store)(nil)

func newTestStore(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "sub", "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, path
}

func TestPutGet(t *testing.T) {
	s, path := newTestStore(t)

	_, err := s.Get(util.H256{1})
	require.ErrorIs(t, err, ErrNotFound)

	alice := account.Alice().AccountID()
	subs := []*waiter.Submitted{
		{Hash: util.H256{3}, Sender: &alice, Nonce: 1, Birth: 10, Period: 32},
		{Hash: util.H256{1}, Sender: &alice, Nonce: 2, Birth: 11, Period: 32},
		{Hash: util.H256{2}, Birth: 12},
	}
	for _, sub := range subs {
		require.NoError(t, s.Put(sub))
	}
	// Duplicates are ignored.
	require.NoError(t, s.Put(&waiter.Submitted{Hash: util.H256{3}, Nonce: 100}))

	rec, err := s.Get(util.H256{3})
	require.NoError(t, err)
	require.Equal(t, *subs[0], rec.Submitted)
	require.Nil(t, rec.Receipt)
	require.True(t, time.Unix(1700000000, 0).Equal(rec.Time))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := range subs {
		require.Equal(t, *subs[i], list[i].Submitted)
	}

	// Data survives reopening.
	require.NoError(t, s.Close())
	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, s.Delete(util.H256{1}))
	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestSetReceipt(t *testing.T) {
	s, _ := newTestStore(t)
	t.Cleanup(func() { _ = s.Close() })
	m := testmeta.New()

	b := &block.Block{Hash: util.H256{0xbb}, Header: block.Header{Number: 42}}
	ok := waiter.NewReceipt(m, util.H256{1}, 1, b, mustEvents(t, testmeta.ExtrinsicSuccess(1)), true)
	failed := waiter.NewReceipt(m, util.H256{2}, 2, b,
		mustEvents(t, testmeta.ExtrinsicFailed(2, testmeta.BalancesIndex, 2)), false)

	require.ErrorIs(t, s.SetReceipt(ok), ErrNotFound)

	require.NoError(t, s.Put(&waiter.Submitted{Hash: util.H256{1}}))
	require.NoError(t, s.Put(&waiter.Submitted{Hash: util.H256{2}}))
	require.NoError(t, s.Put(&waiter.Submitted{Hash: util.H256{3}}))

	require.NoError(t, s.SetReceipt(ok))
	require.NoError(t, s.SetReceipt(failed))

	rec, err := s.Get(util.H256{1})
	require.NoError(t, err)
	require.Equal(t, &Receipt{
		BlockHash:   b.Hash,
		BlockNumber: 42,
		TxIndex:     1,
		Finalized:   true,
		Success:     true,
	}, rec.Receipt)

	rec, err = s.Get(util.H256{2})
	require.NoError(t, err)
	require.False(t, rec.Receipt.Success)
	require.Equal(t, "dispatch error: Balances.InsufficientBalance", rec.Receipt.Error)

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, util.H256{3}, pending[0].Submitted.Hash)
}

func mustEvents(t *testing.T, records ...[]byte) []block.EventRecord {
	events, err := block.DecodeEvents(testmeta.New(), testmeta.Events(records...))
	require.NoError(t, err)
	return events
}
