package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/avail-go/cli/chain"
	"github.com/nspcc-dev/avail-go/cli/storage"
	"github.com/nspcc-dev/avail-go/cli/tx"
	"github.com/nspcc-dev/avail-go/cli/util"
	"github.com/nspcc-dev/avail-go/cli/watch"
	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "AvailGo\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an avail-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "avail-go"
	ctl.Version = config.Version
	ctl.Usage = "Go client for Avail"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, chain.NewCommands()...)
	ctl.Commands = append(ctl.Commands, storage.NewCommands()...)
	ctl.Commands = append(ctl.Commands, tx.NewCommands()...)
	ctl.Commands = append(ctl.Commands, watch.NewCommands()...)
	ctl.Commands = append(ctl.Commands, util.NewCommands()...)
	return ctl
}
