/*
Package chain implements commands querying chain state: node and runtime
information, heads, blocks and their events.
*/
package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
)

// NewCommands returns 'chain' command.
func NewCommands() []cli.Command {
	headFlags := append([]cli.Flag{
		cli.BoolFlag{
			Name:  "finalized, f",
			Usage: "Show the finalized head instead of the best one",
		},
	}, options.Common...)
	blockFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "app-id",
			Usage: "Show only transactions with the given application ID",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Output decoded call arguments",
		},
	}, options.Common...)
	eventsFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "tx",
			Usage: "Show only events of the transaction with the given index",
		},
	}, options.Common...)
	return []cli.Command{{
		Name:  "chain",
		Usage: "Query chain information",
		Subcommands: []cli.Command{
			{
				Name:   "info",
				Usage:  "Show node and runtime information",
				Action: showInfo,
				Flags:  options.Common,
			},
			{
				Name:   "head",
				Usage:  "Show the best or the finalized head",
				Action: showHead,
				Flags:  headFlags,
			},
			{
				Name:      "block",
				Usage:     "Show block with its transactions",
				UsageText: "avail-go chain block [<number>|<hash>] [--app-id <id>] [--verbose]",
				Action:    showBlock,
				Flags:     blockFlags,
			},
			{
				Name:      "events",
				Usage:     "Show events emitted in the block",
				UsageText: "avail-go chain events [<number>|<hash>] [--tx <index>]",
				Action:    showEvents,
				Flags:     eventsFlags,
			},
		},
	}}
}

// session is an RPC connection along with the configuration.
type session struct {
	c      options.RPCClient
	prefix uint16
	close  func()
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
	return &session{
		c:      c,
		prefix: options.SS58Prefix(c, cfg),
		close: func() {
			c.Close()
			cancel()
			_ = log.Sync()
		},
	}, nil
}

func showInfo(ctx *cli.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var info Info
	info.Endpoint = s.c.Endpoint()
	if info.Chain, err = s.c.GetChain(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.NodeName, err = s.c.GetNodeName(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.NodeVersion, err = s.c.GetNodeVersion(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.Health, err = s.c.GetHealth(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.Runtime, err = s.c.RuntimeVersion(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.Genesis, err = s.c.GenesisHash(); err != nil {
		return cli.NewExitError(err, 1)
	}
	if info.Properties, err = s.c.Properties(); err != nil {
		return cli.NewExitError(err, 1)
	}
	info.SS58Prefix = s.prefix
	DumpInfo(ctx.App.Writer, &info)
	return nil
}

// Info is the node and runtime summary.
type Info struct {
	Endpoint    string
	Chain       string
	NodeName    string
	NodeVersion string
	Health      *result.Health
	Runtime     result.RuntimeVersion
	Genesis     util.H256
	Properties  result.ChainProperties
	SS58Prefix  uint16
}

// DumpInfo prints the node information.
func DumpInfo(w io.Writer, info *Info) {
	buf := bytes.NewBuffer(nil)
	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Endpoint:\t%s\n", info.Endpoint)
	_, _ = fmt.Fprintf(tw, "Chain:\t%s\n", info.Chain)
	_, _ = fmt.Fprintf(tw, "Node:\t%s %s\n", info.NodeName, info.NodeVersion)
	if info.Health != nil {
		_, _ = fmt.Fprintf(tw, "Peers:\t%d\n", info.Health.Peers)
		_, _ = fmt.Fprintf(tw, "Syncing:\t%t\n", info.Health.IsSyncing)
	}
	_, _ = fmt.Fprintf(tw, "Runtime:\t%s/%d\n", info.Runtime.SpecName, info.Runtime.SpecVersion)
	_, _ = fmt.Fprintf(tw, "TxVersion:\t%d\n", info.Runtime.TransactionVersion)
	_, _ = fmt.Fprintf(tw, "Genesis:\t%s\n", info.Genesis)
	_, _ = fmt.Fprintf(tw, "SS58Prefix:\t%d\n", info.SS58Prefix)
	if info.Properties.TokenSymbol != nil {
		_, _ = fmt.Fprintf(tw, "Token:\t%s\n", *info.Properties.TokenSymbol)
	}
	if info.Properties.TokenDecimals != nil {
		_, _ = fmt.Fprintf(tw, "Decimals:\t%d\n", *info.Properties.TokenDecimals)
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}

func showHead(ctx *cli.Context) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var h *block.Header
	if ctx.Bool("finalized") {
		var hash util.H256
		hash, err = s.c.GetFinalizedHead()
		if err == nil {
			h, err = s.c.GetHeader(hash)
		}
	} else {
		h, err = s.c.GetBestHeader()
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	hash, err := s.c.GetBlockHash(uint32(h.Number))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "%d %s\n", h.Number, hash)
	return nil
}

// getBlock returns the block specified by the first argument, the best one
// if there are no arguments.
func getBlock(ctx *cli.Context, c options.RPCClient) (*block.Block, error) {
	args := ctx.Args()
	if len(args) > 1 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}
	if len(args) == 0 {
		h, err := c.GetBestBlockHash()
		if err != nil {
			return nil, err
		}
		return c.GetBlock(h)
	}
	if strings.HasPrefix(args[0], "0x") {
		h, err := util.H256DecodeString(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid block hash: %w", err)
		}
		return c.GetBlock(h)
	}
	n, err := options.ParseUint32(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid block number: %w", err)
	}
	return c.GetBlockByNumber(n)
}

func showBlock(ctx *cli.Context) error {
	var appID *uint32
	if s := ctx.String("app-id"); s != "" {
		id, err := options.ParseUint32(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid app-id: %w", err), 1)
		}
		appID = &id
	}
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	b, err := getBlock(ctx, s.c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	DumpBlock(ctx.App.Writer, b, s.prefix, appID, ctx.Bool("verbose"))
	return nil
}

// DumpBlock prints block header and transactions, only transactions with the
// given application ID are printed if it's not nil.
func DumpBlock(w io.Writer, b *block.Block, prefix uint16, appID *uint32, verbose bool) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Number:\t%d\n", b.Number())
	_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", b.Hash)
	_, _ = fmt.Fprintf(tw, "Parent:\t%s\n", b.Header.ParentHash)
	_, _ = fmt.Fprintf(tw, "StateRoot:\t%s\n", b.Header.StateRoot)
	_, _ = fmt.Fprintf(tw, "ExtrinsicsRoot:\t%s\n", b.Header.ExtrinsicsRoot)
	txs := b.Extrinsics
	if appID != nil {
		txs = b.ByAppID(*appID)
	}
	_, _ = fmt.Fprintf(tw, "Transactions:\t%d\n", len(txs))
	_ = tw.Flush()

	for _, tx := range txs {
		_, _ = fmt.Fprintf(tw, "\n#%d\t%s\n", tx.Index, tx.Hash)
		if tx.Err != nil {
			_, _ = fmt.Fprintf(tw, "Error:\t%s\n", tx.Err)
			continue
		}
		name := tx.Pallet + "." + tx.Call
		if tx.Pallet == "" {
			name = fmt.Sprintf("unknown (%d.%d)", tx.Decoded.Call.PalletIndex, tx.Decoded.Call.CallIndex)
		}
		_, _ = fmt.Fprintf(tw, "Call:\t%s\n", name)
		if signer, ok := tx.Signer(); ok {
			_, _ = fmt.Fprintf(tw, "Signer:\t%s\n", address.Encode(signer, prefix))
			_, _ = fmt.Fprintf(tw, "Nonce:\t%d\n", tx.Decoded.Extra.Nonce)
			_, _ = fmt.Fprintf(tw, "AppID:\t%d\n", tx.AppID())
			_, _ = fmt.Fprintf(tw, "Era:\t%s\n", tx.Decoded.Extra.Era)
		}
		if verbose && tx.Args != nil {
			if args, err := json.Marshal(tx.Args); err == nil {
				_, _ = fmt.Fprintf(tw, "Args:\t%s\n", args)
			}
		}
		_ = tw.Flush()
	}
	fmt.Fprint(w, buf.String())
}

func showEvents(ctx *cli.Context) error {
	var txIdx *uint32
	if s := ctx.String("tx"); s != "" {
		idx, err := options.ParseUint32(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid tx index: %w", err), 1)
		}
		txIdx = &idx
	}
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	b, err := getBlock(ctx, s.c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	events, err := s.c.GetEvents(b.Hash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if txIdx != nil {
		events = block.EventsForTx(events, *txIdx)
	}
	DumpEvents(ctx.App.Writer, events)
	return nil
}

// DumpEvents prints events one per line: phase, name and JSON fields.
func DumpEvents(w io.Writer, events []block.EventRecord) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	for i := range events {
		e := &events[i]
		fields, err := json.Marshal(e.Fields)
		if err != nil {
			fields = []byte("?")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", phaseString(e.Phase), e.String(), fields)
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}

func phaseString(p block.Phase) string {
	switch p.Kind {
	case block.ApplyExtrinsic:
		return "tx#" + strconv.FormatUint(uint64(p.ExtrinsicIndex), 10)
	case block.Finalization:
		return "finalization"
	default:
		return "initialization"
	}
}
