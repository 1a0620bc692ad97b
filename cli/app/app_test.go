package app

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	ctl := New()
	var names []string
	for _, c := range ctl.Commands {
		names = append(names, c.Name)
	}
	require.ElementsMatch(t, []string{"chain", "storage", "tx", "watch", "util"}, names)
	for _, c := range ctl.Commands {
		require.NotEmpty(t, c.Subcommands, c.Name)
	}
}

func TestVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	t.Cleanup(func() { config.Version = "" })

	ctl := New()
	buf := new(bytes.Buffer)
	ctl.Writer = buf
	require.NoError(t, ctl.Run([]string{"avail-go", "--version"}))
	require.Equal(t, "AvailGo\nVersion: 0.1.0-test\nGoVersion: "+runtime.Version()+"\n", buf.String())
}

func TestUtilRun(t *testing.T) {
	ctl := New()
	buf := new(bytes.Buffer)
	ctl.Writer = buf
	require.NoError(t, ctl.Run([]string{"avail-go", "util", "hash", "--hasher", "identity", "0x01"}))
	require.Equal(t, "0x01\n", buf.String())
}
