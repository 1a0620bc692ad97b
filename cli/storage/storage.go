/*
Package storage implements commands reading pallet storage: accounts,
application keys and the next application ID.
*/
package storage

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/nspcc-dev/avail-go/cli/flags"
	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/dataavailability"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/system"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
)

// NewCommands returns 'storage' command.
func NewCommands() []cli.Command {
	storageFlags := append([]cli.Flag{options.At}, options.Common...)
	return []cli.Command{{
		Name:  "storage",
		Usage: "Query pallet storage",
		Subcommands: []cli.Command{
			{
				Name:      "account",
				Usage:     "Show account nonce and balances",
				UsageText: "avail-go storage account <address> [--at <block>]",
				Action:    showAccount,
				Flags:     storageFlags,
			},
			{
				Name:      "app-keys",
				Usage:     "List registered application keys",
				UsageText: "avail-go storage app-keys [--at <block>]",
				Action:    listAppKeys,
				Flags:     storageFlags,
			},
			{
				Name:      "app-key",
				Usage:     "Show application registered with the key",
				UsageText: "avail-go storage app-key <key> [--at <block>]",
				Action:    showAppKey,
				Flags:     storageFlags,
			},
			{
				Name:      "next-app-id",
				Usage:     "Show the ID the next registered application gets",
				UsageText: "avail-go storage next-app-id [--at <block>]",
				Action:    showNextAppID,
				Flags:     storageFlags,
			},
		},
	}}
}

type session struct {
	c        options.RPCClient
	at       *util.H256
	prefix   uint16
	decimals int
	close    func()
}

func connect(ctx *cli.Context) (*session, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, exitErr := options.GetLogger(ctx, cfg)
	if exitErr != nil {
		return nil, exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	c, exitErr := options.GetRPCClient(gctx, ctx, cfg, log)
	if exitErr != nil {
		cancel()
		return nil, exitErr
	}
	s := &session{
		c:        c,
		prefix:   options.SS58Prefix(c, cfg),
		decimals: flags.AvailDecimals,
		close: func() {
			c.Close()
			cancel()
			_ = log.Sync()
		},
	}
	if p, err := c.Properties(); err == nil && p.TokenDecimals != nil {
		s.decimals = int(*p.TokenDecimals)
	}
	s.at, err = options.GetAt(ctx, c)
	if err != nil {
		s.close()
		return nil, cli.NewExitError(err, 1)
	}
	return s, nil
}

func showAccount(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("account address is required", 1)
	}
	acc, err := flags.ParseAddress(ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid address: %w", err), 1)
	}
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	info, err := system.NewReader(s.c).Account(acc, s.at)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	dumpAccount(ctx.App.Writer, acc, info, s.prefix, s.decimals)
	return nil
}

func dumpAccount(w io.Writer, acc util.AccountID, info *rpcclient.AccountInfo, prefix uint16, decimals int) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Address:\t%s\n", address.Encode(acc, prefix))
	_, _ = fmt.Fprintf(tw, "Nonce:\t%d\n", info.Nonce)
	_, _ = fmt.Fprintf(tw, "Free:\t%s\n", amount(info.Data.Free, decimals))
	_, _ = fmt.Fprintf(tw, "Reserved:\t%s\n", amount(info.Data.Reserved, decimals))
	_, _ = fmt.Fprintf(tw, "Frozen:\t%s\n", amount(info.Data.Frozen, decimals))
	_, _ = fmt.Fprintf(tw, "Providers:\t%d\n", info.Providers)
	_, _ = fmt.Fprintf(tw, "Consumers:\t%d\n", info.Consumers)
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}

func amount(v *big.Int, decimals int) string {
	if v == nil {
		v = new(big.Int)
	}
	return flags.FormatAmount(v, decimals)
}

func listAppKeys(ctx *cli.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	keys, err := dataavailability.NewReader(s.c).AppKeys(s.at)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	dumpAppKeys(ctx.App.Writer, keys, s.prefix)
	return nil
}

func dumpAppKeys(w io.Writer, keys []dataavailability.AppKey, prefix uint16) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintln(tw, "ID\tKey\tOwner")
	for _, k := range keys {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", k.ID, keyString(k.Key), address.Encode(k.Owner, prefix))
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}

// keyString prints printable keys as is and others as hex.
func keyString(key []byte) string {
	if utf8.Valid(key) && strings.IndexFunc(string(key), func(r rune) bool { return r < 0x20 || r == 0x7f }) < 0 {
		return string(key)
	}
	return util.HexBytes(key).String()
}

// parseKey accepts keys as plain strings or 0x-prefixed hex.
func parseKey(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		return util.HexBytesDecodeString(s)
	}
	return []byte(s), nil
}

func showAppKey(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("application key is required", 1)
	}
	key, err := parseKey(ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	k, err := dataavailability.NewReader(s.c).AppKey(key, s.at)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if k == nil {
		return cli.NewExitError(fmt.Sprintf("application key %q is not registered", keyString(key)), 1)
	}
	dumpAppKeys(ctx.App.Writer, []dataavailability.AppKey{*k}, s.prefix)
	return nil
}

func showNextAppID(ctx *cli.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	id, err := dataavailability.NewReader(s.c).NextAppID(s.at)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, id)
	return nil
}
