package flags

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestMarkRequired(t *testing.T) {
	fs := []cli.Flag{
		cli.StringFlag{Name: "in, i"},
		cli.UintFlag{Name: "count"},
		AddressFlag{Name: "to"},
		AmountFlag{Name: "amount"},
		cli.BoolFlag{Name: "all"},
	}
	marked := MarkRequired(fs, "in, i", "count", "to", "amount", "all")
	require.Equal(t, len(fs), len(marked))
	for i := 0; i < 4; i++ {
		rf, ok := marked[i].(cli.RequiredFlag)
		require.True(t, ok)
		require.True(t, rf.IsRequired(), marked[i].GetName())
	}
	// Unsupported kinds are left as is.
	require.Equal(t, fs[4], marked[4])
	// Source set is not changed.
	require.False(t, fs[2].(AddressFlag).IsRequired())

	app := cli.NewApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.Commands = []cli.Command{{
		Name:   "send",
		Flags:  MarkRequired(fs, "to"),
		Action: func(*cli.Context) error { return nil },
	}}
	err := app.Run([]string{"avail-go", "send", "--amount", "1"})
	require.ErrorContains(t, err, `"to"`)
	require.NoError(t, app.Run([]string{"avail-go", "send", "--to", "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"}))
}
