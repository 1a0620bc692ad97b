package util

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

const (
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceID      = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
)

// run executes util subcommand, failed commands are checked to exit with
// code 1 (the exit itself is intercepted).
func run(t *testing.T, args ...string) (string, error) {
	exitCode := -1
	oldExiter, oldErrWriter := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(code int) { exitCode = code }
	cli.ErrWriter = io.Discard
	defer func() {
		cli.OsExiter, cli.ErrWriter = oldExiter, oldErrWriter
	}()

	app := cli.NewApp()
	app.Name = "avail-go"
	app.Commands = NewCommands()
	buf := new(bytes.Buffer)
	app.Writer = buf
	app.ErrWriter = new(bytes.Buffer)
	err := app.Run(append([]string{"avail-go", "util"}, args...))
	if err != nil {
		require.Equal(t, 1, exitCode, err.Error())
	} else {
		require.Equal(t, -1, exitCode)
	}
	return buf.String(), err
}

func TestConvert(t *testing.T) {
	t.Run("address", func(t *testing.T) {
		out, err := Convert(aliceAddress, 42)
		require.NoError(t, err)
		require.Contains(t, out, aliceID)
		require.NotContains(t, out, "Address with prefix")

		out, err = Convert(aliceAddress, 0)
		require.NoError(t, err)
		require.Contains(t, out, "Address with prefix 0")
	})
	t.Run("account ID", func(t *testing.T) {
		out, err := Convert(aliceID, 42)
		require.NoError(t, err)
		require.Contains(t, out, aliceAddress)
		require.NotContains(t, out, "Hex to string")
	})
	t.Run("hex string", func(t *testing.T) {
		out, err := Convert("0x6869", 42)
		require.NoError(t, err)
		require.Contains(t, out, `"hi"`)
	})
	t.Run("number", func(t *testing.T) {
		out, err := Convert("1", 42)
		require.NoError(t, err)
		require.Contains(t, out, "0x04")
		require.Contains(t, out, "0.000000000000000001")
		require.Contains(t, out, "1000000000000000000")
		require.Contains(t, out, "0x31")
	})
	t.Run("empty", func(t *testing.T) {
		_, err := Convert("", 42)
		require.Error(t, err)
	})
	t.Run("command", func(t *testing.T) {
		out, err := run(t, "convert", "--prefix", "0", aliceAddress)
		require.NoError(t, err)
		require.Contains(t, out, aliceID)

		_, err = run(t, "convert")
		require.ErrorContains(t, err, "exactly one argument is expected")
	})
}

func TestParseHasher(t *testing.T) {
	h, err := ParseHasher("blake2_128concat")
	require.NoError(t, err)
	require.Equal(t, hash.Blake2_128Concat, h)

	h, err = ParseHasher("Twox64Concat")
	require.NoError(t, err)
	require.Equal(t, hash.Twox64Concat, h)

	_, err = ParseHasher("sha256")
	require.Error(t, err)
}

func TestStorageKey(t *testing.T) {
	const systemAccount = "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"

	key, err := StorageKey("System", "Account")
	require.NoError(t, err)
	require.Equal(t, systemAccount, hex.EncodeToString(key))

	alice := account.Alice().AccountID()
	key, err = StorageKey("System", "Account", "Blake2_128Concat:"+aliceID)
	require.NoError(t, err)
	require.Len(t, key, 32+16+32)
	require.Equal(t, alice[:], key[48:])

	_, err = StorageKey("System", "Account", aliceID)
	require.Error(t, err)
	_, err = StorageKey("System", "Account", "Sha:"+aliceID)
	require.Error(t, err)
	_, err = StorageKey("System", "Account", "Identity:0xzz")
	require.Error(t, err)
	_, err = StorageKey("", "Account")
	require.Error(t, err)

	out, err := run(t, "storage-key", "System", "Account")
	require.NoError(t, err)
	require.Equal(t, "0x"+systemAccount+"\n", out)
}

func TestHash(t *testing.T) {
	out, err := run(t, "hash", "--hasher", "twox128", "System")
	require.NoError(t, err)
	require.Equal(t, "0x26aa394eea5630e07c48ae0c9558cef7\n", out)

	out, err = run(t, "hash", "0x0102")
	require.NoError(t, err)
	require.Contains(t, out, "Identity: 0x0102\n")
	require.Equal(t, 7, strings.Count(out, "\n"))

	_, err = run(t, "hash")
	require.Error(t, err)
	_, err = run(t, "hash", "--hasher", "md5", "data")
	require.Error(t, err)
	_, err = run(t, "hash", "0xzz")
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", "--dev", "alice")
	require.NoError(t, err)
	require.Contains(t, out, aliceID)
	require.Contains(t, out, aliceAddress)
	require.NotContains(t, out, "Generic address")

	buf := new(bytes.Buffer)
	DumpAccount(buf, account.Alice(), 0)
	require.Contains(t, buf.String(), "Generic address: "+aliceAddress)
}
