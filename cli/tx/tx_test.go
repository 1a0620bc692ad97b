package tx

import (
	"bytes"
	"flag"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/txstore"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newContext(t *testing.T, in string, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("in", in, "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestDataFromContext(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		data, err := dataFromContext(newContext(t, "", "blob"))
		require.NoError(t, err)
		require.Equal(t, []byte("blob"), data)
	})
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))
		data, err := dataFromContext(newContext(t, path))
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, data)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := dataFromContext(newContext(t, filepath.Join(t.TempDir(), "nope")))
		require.Error(t, err)
	})
	t.Run("conflict", func(t *testing.T) {
		_, err := dataFromContext(newContext(t, "file", "blob"))
		require.Error(t, err)
	})
	t.Run("none", func(t *testing.T) {
		_, err := dataFromContext(newContext(t, ""))
		require.Error(t, err)
	})
	t.Run("too many", func(t *testing.T) {
		_, err := dataFromContext(newContext(t, "", "a", "b"))
		require.Error(t, err)
	})
}

func testReceipt(t *testing.T, failed bool) *waiter.Receipt {
	m := testmeta.New()
	raw := new(block.Raw)
	raw.Block.Header = block.Header{Number: 7}
	b := block.New(util.H256{0xbb}, raw, m)
	outcome := testmeta.ExtrinsicSuccess(0)
	if failed {
		outcome = testmeta.ExtrinsicFailed(0, testmeta.BalancesIndex, 2)
	}
	events, err := block.DecodeEvents(m, testmeta.Events(
		testmeta.Transfer(0, account.Alice().AccountID(), account.Bob().AccountID(), big.NewInt(5)),
		outcome,
	))
	require.NoError(t, err)
	return waiter.NewReceipt(m, util.H256{0xcc}, 0, b, events, true)
}

func TestDumpReceipt(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := testReceipt(t, false)
		buf := new(bytes.Buffer)
		DumpReceipt(buf, r, false)
		out := buf.String()
		require.Contains(t, out, util.H256{0xcc}.String())
		require.Contains(t, out, util.H256{0xbb}.String())
		require.Contains(t, out, "Success:")
		require.Contains(t, out, "true")
		require.NotContains(t, out, "Error:")
		require.NotContains(t, out, "Balances.Transfer")

		buf.Reset()
		DumpReceipt(buf, r, true)
		require.Contains(t, buf.String(), "Balances.Transfer")
	})
	t.Run("failure", func(t *testing.T) {
		r := testReceipt(t, true)
		require.False(t, r.Success())
		buf := new(bytes.Buffer)
		DumpReceipt(buf, r, false)
		require.Contains(t, buf.String(), "Error:")
	})
}

func TestJournalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	cfg := config.Config{}
	_, err := openExistingJournal(cfg)
	require.ErrorIs(t, err, errNoJournal)
	cfg.Journal.FilePath = path
	_, err = openExistingJournal(cfg)
	require.Error(t, err)

	s, err := txstore.Open(path)
	require.NoError(t, err)
	mortal := &waiter.Submitted{Hash: util.H256{0xcc}, Nonce: 1, Birth: 10, Period: 64}
	immortal := &waiter.Submitted{Hash: util.H256{0xdd}, Nonce: 2}
	require.NoError(t, s.Put(mortal))
	require.NoError(t, s.Put(immortal))
	require.NoError(t, s.SetReceipt(testReceipt(t, true)))
	require.NoError(t, s.Close())

	s, err = openExistingJournal(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	rec, err := s.Get(mortal.Hash)
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	DumpRecord(buf, rec)
	out := buf.String()
	require.Contains(t, out, "10-73")
	require.Contains(t, out, "Error:")
	require.Contains(t, out, util.H256{0xbb}.String())

	rec, err = s.Get(immortal.Hash)
	require.NoError(t, err)
	buf.Reset()
	DumpRecord(buf, rec)
	require.Contains(t, buf.String(), "immortal")
	require.NotContains(t, buf.String(), "BlockHash:")

	recs, err := s.List()
	require.NoError(t, err)
	buf.Reset()
	DumpRecords(buf, recs)
	out = buf.String()
	require.Contains(t, out, "finalized (failed)")
	require.Contains(t, out, "pending")
	require.Less(t, bytes.Index(buf.Bytes(), []byte(mortal.Hash.String())), bytes.Index(buf.Bytes(), []byte(immortal.Hash.String())))
}

func TestTransferRequiresRecipient(t *testing.T) {
	app := cli.NewApp()
	app.Writer = new(bytes.Buffer)
	app.ErrWriter = new(bytes.Buffer)
	app.Commands = NewCommands()
	err := app.Run([]string{"avail-go", "tx", "transfer", "--amount", "1"})
	require.ErrorContains(t, err, `Required flag "to" not set`)
}
