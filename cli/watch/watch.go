/*
Package watch implements the command following the chain and printing
blocks with the data submitted to them.
*/
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nspcc-dev/avail-go/cli/options"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/blocksub"
	"github.com/nspcc-dev/avail-go/pkg/services/metrics"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	blocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of processed blocks",
			Name:      "blocks_total",
			Subsystem: "watch",
			Namespace: "availgo",
		},
	)
	heightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Last processed block number",
			Name:      "height",
			Subsystem: "watch",
			Namespace: "availgo",
		},
	)
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of data submissions seen",
			Name:      "data_submissions_total",
			Subsystem: "watch",
			Namespace: "availgo",
		},
		[]string{"app_id"},
	)
	submittedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Amount of data submitted",
			Name:      "data_submitted_bytes_total",
			Subsystem: "watch",
			Namespace: "availgo",
		},
	)
)

func init() {
	prometheus.MustRegister(
		blocksTotal,
		heightGauge,
		submissionsTotal,
		submittedBytes,
	)
}

// NewCommands returns 'watch' command.
func NewCommands() []cli.Command {
	watchFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "from",
			Usage: "Block number to start from (the current head by default)",
		},
		cli.BoolFlag{
			Name:  "finalized, f",
			Usage: "Follow finalized blocks only",
		},
		cli.StringFlag{
			Name:  "app-id",
			Usage: "Show only data submitted with the given application ID",
		},
		cli.BoolFlag{
			Name:  "data, d",
			Usage: "Print submitted data",
		},
		cli.UintFlag{
			Name:  "count, c",
			Usage: "Exit after the given number of blocks",
		},
	}, options.Common...)
	return []cli.Command{{
		Name:      "watch",
		Usage:     "Follow the chain printing blocks and data submissions",
		UsageText: "avail-go watch [--from <number>] [--finalized] [--app-id <id>] [--data] [--count <n>]",
		Action:    watch,
		Flags:     watchFlags,
	}}
}

// Options tune Follow output.
type Options struct {
	// AppID filters data submissions if set.
	AppID *uint32
	// ShowData enables data output.
	ShowData bool
	// Count is the number of blocks to process, 0 for no limit.
	Count uint
	// Prefix is the SS58 prefix for signer addresses.
	Prefix uint16
}

// BlockSource returns blocks one by one.
type BlockSource interface {
	Next(ctx context.Context) (*block.Block, error)
}

func watch(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, exitErr := options.GetLogger(ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()

	var opts = Options{
		ShowData: ctx.Bool("data"),
		Count:    ctx.Uint("count"),
	}
	if s := ctx.String("app-id"); s != "" {
		id, err := options.ParseUint32(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid application ID: %w", err), 1)
		}
		opts.AppID = &id
	}
	var from *uint32
	if s := ctx.String("from"); s != "" {
		n, err := options.ParseUint32(s)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid start block: %w", err), 1)
		}
		from = &n
	}

	gctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	c, exitErr := options.GetRPCClient(gctx, ctx, cfg, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()
	opts.Prefix = options.SS58Prefix(c, cfg)

	prom := metrics.NewPrometheusService(cfg.Prometheus, log)
	if err := prom.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	defer prom.ShutDown()

	subCfg := blocksub.Config{
		PollInterval: cfg.Waiter.PollInterval,
		RetryCount:   cfg.Waiter.RetryCount,
		Logger:       log,
	}
	if ctx.Bool("finalized") {
		subCfg.Mode = blocksub.Finalized
	}
	var sub *blocksub.Subscriber
	if from != nil {
		sub = blocksub.New(c, *from, subCfg)
	} else if sub, err = blocksub.NewFromHead(c, subCfg); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to get chain head: %w", err), 1)
	}
	log.Info("following the chain",
		zap.Uint32("from", sub.Height()),
		zap.Bool("finalized", subCfg.Mode == blocksub.Finalized))

	err = Follow(gctx, sub, ctx.App.Writer, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewExitError(err, 1)
	}
	return nil
}

// Follow prints blocks from src until the context is done, the source fails
// or Options.Count blocks are processed.
func Follow(ctx context.Context, src BlockSource, w io.Writer, opts Options) error {
	for i := uint(0); opts.Count == 0 || i < opts.Count; i++ {
		b, err := src.Next(ctx)
		if err != nil {
			return err
		}
		DumpBlock(w, b, opts)
	}
	return nil
}

// DumpBlock prints the block summary line followed by its data submissions
// and updates metrics.
func DumpBlock(w io.Writer, b *block.Block, opts Options) {
	subs := b.DataSubmissions()
	blocksTotal.Inc()
	heightGauge.Set(float64(b.Number()))
	fmt.Fprintf(w, "#%d %s txs: %d data: %d\n", b.Number(), b.Hash, len(b.Extrinsics), len(subs))
	for _, s := range subs {
		submissionsTotal.WithLabelValues(strconv.FormatUint(uint64(s.AppID), 10)).Inc()
		submittedBytes.Add(float64(len(s.Data)))
		if opts.AppID != nil && *opts.AppID != s.AppID {
			continue
		}
		fmt.Fprintf(w, "\tapp %d tx %d %s from %s, %d bytes\n",
			s.AppID, s.TxIndex, s.TxHash, address.Encode(s.Signer, opts.Prefix), len(s.Data))
		if opts.ShowData {
			fmt.Fprintf(w, "\t\t%s\n", util.HexBytes(s.Data))
		}
	}
}
