/*
Package tx implements commands creating, sending and tracking transactions:
transfers, data submissions, remarks and application key registrations.
Sent transactions are recorded into the configured journal.
*/
package tx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/nspcc-dev/avail-go/cli/chain"
	"github.com/nspcc-dev/avail-go/cli/flags"
	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/balances"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/dataavailability"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/system"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/txstore"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var errNoJournal = errors.New("transactions journal is not configured (Journal.FilePath)")

// NewCommands returns 'tx' command.
func NewCommands() []cli.Command {
	sendFlags := append(append([]cli.Flag{}, options.Signer...), options.Transaction...)
	sendFlags = append(sendFlags, cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "Print transaction events after awaiting",
	})
	sendFlags = append(sendFlags, options.Common...)
	transferFlags := append([]cli.Flag{
		flags.AddressFlag{
			Name:  "to",
			Usage: "Address to send funds to",
		},
		flags.AmountFlag{
			Name:  "amount",
			Usage: "Amount of AVAIL to send",
		},
		cli.BoolFlag{
			Name:  "allow-death",
			Usage: "Allow the sender account to be reaped",
		},
		cli.BoolFlag{
			Name:  "all",
			Usage: "Send all free balance (--amount is not needed then)",
		},
	}, sendFlags...)
	submitFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "in, i",
			Usage: "File to read data from (instead of the argument)",
		},
	}, sendFlags...)
	remarkFlags := append([]cli.Flag{
		cli.BoolFlag{
			Name:  "with-event",
			Usage: "Emit System.Remarked event",
		},
	}, sendFlags...)
	statusFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "await",
			Usage: "resolve up to the given state ('inclusion' or 'finalization')",
		},
	}, options.Common...)
	listFlags := append([]cli.Flag{
		cli.BoolFlag{
			Name:  "pending",
			Usage: "Show only unresolved transactions",
		},
	}, options.Config, options.ConfigFile)
	listFlags = append(listFlags, options.Network...)
	return []cli.Command{{
		Name:  "tx",
		Usage: "Create, send and track transactions",
		Subcommands: []cli.Command{
			{
				Name:      "transfer",
				Usage:     "Transfer AVAIL",
				UsageText: "avail-go tx transfer --to <address> --amount <amount> [--allow-death] [--all] [--await[=finalization]]",
				Action:    transfer,
				Flags:     flags.MarkRequired(transferFlags, "to"),
			},
			{
				Name:      "submit-data",
				Usage:     "Submit data blob with the given application ID",
				UsageText: "avail-go tx submit-data [<data>|--in <file>] --app-id <id> [--await[=finalization]]",
				Action:    submitData,
				Flags:     submitFlags,
			},
			{
				Name:      "remark",
				Usage:     "Put a remark on chain",
				UsageText: "avail-go tx remark <text> [--with-event]",
				Action:    remark,
				Flags:     remarkFlags,
			},
			{
				Name:      "create-app-key",
				Usage:     "Register application key",
				UsageText: "avail-go tx create-app-key <key>",
				Action:    createAppKey,
				Flags:     sendFlags,
			},
			{
				Name:      "status",
				Usage:     "Resolve the journalled transaction",
				UsageText: "avail-go tx status <hash> [--await=finalization]",
				Action:    status,
				Flags:     statusFlags,
			},
			{
				Name:      "list",
				Usage:     "List journalled transactions",
				UsageText: "avail-go tx list [--pending]",
				Action:    list,
				Flags:     listFlags,
			},
		},
	}}
}

// sender creates a transaction with the actor given.
type sender func(a *actor.Actor, c options.RPCClient) (*waiter.Submitted, error)

func send(ctx *cli.Context, f sender) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, exitErr := options.GetLogger(ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()
	journal, err := options.OpenJournal(cfg)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to open journal: %w", err), 1)
	}
	if journal != nil {
		defer journal.Close()
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, a, exitErr := options.GetRPCWithActor(gctx, ctx, cfg, log, journal)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	sub, err := f(a, c)
	if sub == nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, sub.Hash)
	if err != nil {
		log.Warn("transaction was sent with an error", zap.Stringer("hash", sub.Hash), zap.Error(err))
	}
	if ctx.String("await") == "" {
		return nil
	}
	r, err := a.Wait(sub, err)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to await transaction: %w", err), 1)
	}
	if journal != nil {
		if err := journal.SetReceipt(r); err != nil {
			log.Warn("failed to record receipt", zap.Stringer("hash", sub.Hash), zap.Error(err))
		}
	}
	DumpReceipt(ctx.App.Writer, r, ctx.Bool("verbose"))
	if !r.Success() {
		return cli.NewExitError(r.Err(), 1)
	}
	return nil
}

func transfer(ctx *cli.Context) error {
	to := flags.AddressFromContext(ctx, "to")
	amount := flags.AmountFromContext(ctx, "amount")
	all := ctx.Bool("all")
	switch {
	case all && amount != nil:
		return cli.NewExitError("--all conflicts with --amount", 1)
	case !all && amount == nil:
		return cli.NewExitError("amount is required (--amount)", 1)
	}
	return send(ctx, func(a *actor.Actor, c options.RPCClient) (*waiter.Submitted, error) {
		b := balances.New(c, a)
		switch {
		case all:
			return b.TransferAll(to.Value, !ctx.Bool("allow-death"))
		case ctx.Bool("allow-death"):
			return b.TransferAllowDeath(to.Value, amount)
		default:
			return b.TransferKeepAlive(to.Value, amount)
		}
	})
}

func submitData(ctx *cli.Context) error {
	data, err := dataFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return send(ctx, func(a *actor.Actor, c options.RPCClient) (*waiter.Submitted, error) {
		if a.Options().AppID == 0 {
			return nil, errors.New("application ID is required for data submission (--app-id or Transactions.AppID)")
		}
		return dataavailability.New(c, a).SubmitData(data)
	})
}

// dataFromContext returns data from the --in file or the only argument.
func dataFromContext(ctx *cli.Context) ([]byte, error) {
	var (
		in   = ctx.String("in")
		args = ctx.Args()
	)
	switch {
	case in != "" && len(args) != 0:
		return nil, errors.New("data argument conflicts with --in")
	case in != "":
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
		return data, nil
	case len(args) == 1:
		return []byte(args[0]), nil
	default:
		return nil, errors.New("exactly one data argument is expected")
	}
}

func remark(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("remark text is required", 1)
	}
	text := []byte(ctx.Args()[0])
	return send(ctx, func(a *actor.Actor, c options.RPCClient) (*waiter.Submitted, error) {
		s := system.New(c, a)
		if ctx.Bool("with-event") {
			return s.RemarkWithEvent(text)
		}
		return s.Remark(text)
	})
}

func createAppKey(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("application key is required", 1)
	}
	key := []byte(ctx.Args()[0])
	return send(ctx, func(a *actor.Actor, c options.RPCClient) (*waiter.Submitted, error) {
		return dataavailability.New(c, a).CreateApplicationKey(key)
	})
}

func status(ctx *cli.Context) error {
	if len(ctx.Args()) != 1 {
		return cli.NewExitError("transaction hash is required", 1)
	}
	h, err := util.H256DecodeString(ctx.Args()[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid tx hash: %w", err), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	journal, err := openExistingJournal(cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer journal.Close()
	rec, err := journal.Get(h)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	waitFor := waiter.Inclusion
	switch ctx.String("await") {
	case "", config.WaitForInclusion:
	case config.WaitForFinalization:
		waitFor = waiter.Finalization
	default:
		return cli.NewExitError(fmt.Errorf("invalid await mode %q", ctx.String("await")), 1)
	}
	if rec.Receipt != nil && (rec.Receipt.Finalized || waitFor == waiter.Inclusion) {
		DumpRecord(ctx.App.Writer, rec)
		return nil
	}

	log, exitErr := options.GetLogger(ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, ctx, cfg, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	w := waiter.New(c, waiter.Config{
		PollConfig: waiter.PollConfig{
			PollInterval: cfg.Waiter.PollInterval,
			RetryCount:   cfg.Waiter.RetryCount,
		},
		WaitFor:      waitFor,
		BlockTimeout: cfg.Waiter.BlockTimeout,
	})
	sub := rec.Submitted
	r, err := w.WaitAny(gctx, &sub)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to resolve transaction: %w", err), 1)
	}
	if err := journal.SetReceipt(r); err != nil {
		return cli.NewExitError(err, 1)
	}
	rec, err = journal.Get(h)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	DumpRecord(ctx.App.Writer, rec)
	return nil
}

func openExistingJournal(cfg config.Config) (*txstore.Store, error) {
	if cfg.Journal.FilePath == "" {
		return nil, errNoJournal
	}
	if _, err := os.Stat(cfg.Journal.FilePath); err != nil {
		return nil, fmt.Errorf("no journal: %w", err)
	}
	return txstore.Open(cfg.Journal.FilePath)
}

func list(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	journal, err := openExistingJournal(cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer journal.Close()
	var recs []txstore.Record
	if ctx.Bool("pending") {
		recs, err = journal.Pending()
	} else {
		recs, err = journal.List()
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	DumpRecords(ctx.App.Writer, recs)
	return nil
}

// DumpReceipt prints the transaction receipt, events are printed in verbose
// mode.
func DumpReceipt(w io.Writer, r *waiter.Receipt, verbose bool) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", r.TxHash)
	_, _ = fmt.Fprintf(tw, "BlockHash:\t%s\n", r.BlockHash)
	_, _ = fmt.Fprintf(tw, "BlockNumber:\t%d\n", r.BlockNumber)
	_, _ = fmt.Fprintf(tw, "TxIndex:\t%d\n", r.TxIndex)
	_, _ = fmt.Fprintf(tw, "Finalized:\t%t\n", r.Finalized)
	_, _ = fmt.Fprintf(tw, "Success:\t%t\n", r.Success())
	if !r.Success() {
		_, _ = fmt.Fprintf(tw, "Error:\t%s\n", r.Err())
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
	if verbose {
		chain.DumpEvents(w, r.Events)
	}
}

// DumpRecord prints the journal record.
func DumpRecord(w io.Writer, rec *txstore.Record) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", rec.Submitted.Hash)
	_, _ = fmt.Fprintf(tw, "Sent:\t%s\n", rec.Time.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(tw, "Nonce:\t%d\n", rec.Submitted.Nonce)
	validity := "immortal"
	if rec.Submitted.Period != 0 {
		validity = strconv.FormatUint(uint64(rec.Submitted.Birth), 10) + "-" +
			strconv.FormatUint(uint64(rec.Submitted.Birth+rec.Submitted.Period-1), 10)
	}
	_, _ = fmt.Fprintf(tw, "ValidBlocks:\t%s\n", validity)
	_, _ = fmt.Fprintf(tw, "OnChain:\t%t\n", rec.Receipt != nil)
	if r := rec.Receipt; r != nil {
		_, _ = fmt.Fprintf(tw, "BlockHash:\t%s\n", r.BlockHash)
		_, _ = fmt.Fprintf(tw, "BlockNumber:\t%d\n", r.BlockNumber)
		_, _ = fmt.Fprintf(tw, "TxIndex:\t%d\n", r.TxIndex)
		_, _ = fmt.Fprintf(tw, "Finalized:\t%t\n", r.Finalized)
		_, _ = fmt.Fprintf(tw, "Success:\t%t\n", r.Success)
		if r.Error != "" {
			_, _ = fmt.Fprintf(tw, "Error:\t%s\n", r.Error)
		}
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}

// DumpRecords prints journal records one per line.
func DumpRecords(w io.Writer, recs []txstore.Record) {
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintln(tw, "Seq\tHash\tNonce\tState")
	for _, rec := range recs {
		state := "pending"
		if r := rec.Receipt; r != nil {
			state = "included"
			if r.Finalized {
				state = "finalized"
			}
			if !r.Success {
				state += " (failed)"
			}
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", rec.Seq, rec.Submitted.Hash, rec.Submitted.Nonce, state)
	}
	_ = tw.Flush()
	fmt.Fprint(w, buf.String())
}
