/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nspcc-dev/avail-go/cli/flags"
	"github.com/nspcc-dev/avail-go/cli/input"
	"github.com/nspcc-dev/avail-go/pkg/account"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/config"
	"github.com/nspcc-dev/avail-go/pkg/config/netmode"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/txstore"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultTimeout is the default timeout used for RPC requests.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is the default timeout used for RPC requests that
	// require transaction awaiting. It is set to the approximate time of three
	// Avail blocks with finalization lag.
	DefaultAwaitableTimeout = 3 * time.Minute
)

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// Network is a set of flags for choosing the network to operate on
// (local/turing/mainnet).
var Network = []cli.Flag{
	cli.BoolFlag{Name: "local, l", Usage: "use local network configuration (if --config-file option is not specified)"},
	cli.BoolFlag{Name: "turing, t", Usage: "use Turing testnet configuration (if --config-file option is not specified)"},
	cli.BoolFlag{Name: "mainnet, m", Usage: "use mainnet network configuration (if --config-file option is not specified)"},
}

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides the configured one)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Config is a flag for commands that use client configuration.
var Config = cli.StringFlag{
	Name:  "config-path",
	Usage: "path to directory with per-network configuration files (may be overridden by --config-file option for the configuration file)",
}

// ConfigFile is a flag for commands that use client configuration and
// provide path to the specific config file instead of config path.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the configuration file (overrides --config-path option)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// At is a flag for commands that can query historic state.
var At = cli.StringFlag{
	Name:  "at",
	Usage: "Use historic state (block number or block hash)",
}

// Common is a set of flags used by every command talking to the node.
var Common = append(append([]cli.Flag{Config, ConfigFile, Debug}, Network...), RPC...)

// Signer is a set of flags used to get the key for transaction signing.
var Signer = []cli.Flag{
	cli.StringFlag{
		Name:  "seed-file",
		Usage: "file with the secret URI (mnemonic or hex seed with optional derivation path) to sign with",
	},
	cli.StringFlag{
		Name:  "dev",
		Usage: "sign with a well-known development account (Alice, Bob, ...), local network only",
	},
}

// Transaction is a set of flags tuning created transactions.
var Transaction = []cli.Flag{
	cli.StringFlag{
		Name:  "app-id",
		Usage: "application ID (overrides the configured one)",
	},
	flags.AmountFlag{
		Name:  "tip",
		Usage: "tip for the block producer in AVAIL (overrides the configured one)",
	},
	cli.StringFlag{
		Name:  "nonce",
		Usage: "transaction nonce (the node-provided one is used by default)",
	},
	cli.UintFlag{
		Name:  "mortality",
		Usage: "transaction validity period in blocks (overrides the configured one)",
	},
	cli.StringFlag{
		Name:  "await",
		Usage: "wait for the transaction to be included ('inclusion' or 'finalization')",
	},
}

var (
	errNoEndpoint       = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or configure it")
	errInvalidAt        = errors.New("invalid 'at' parameter, neither a block number, nor a block hash")
	errConflictingKeys  = errors.New("--seed-file flag conflicts with --dev flag, please, provide one of them")
	errConflictingNets  = errors.New("only one of --local, --turing and --mainnet flags can be used")
	errDevOnLiveNetwork = errors.New("development accounts can only be used on the local network")
)

// RPCClient is the RPC client interface used by commands, it's implemented by
// both rpcclient.Client and rpcclient.WSClient.
type RPCClient interface {
	actor.RPCActor
	rpcclient.StorageReader

	GetBlockByNumber(n uint32) (*block.Block, error)
	GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error)
	GetConstant(pallet, name string) (*metadata.Value, error)
	GetAccountInfo(acc util.AccountID, at *util.H256) (*rpcclient.AccountInfo, error)
	GetChain() (string, error)
	GetNodeName() (string, error)
	GetNodeVersion() (string, error)
	GetHealth() (*result.Health, error)
	Properties() (result.ChainProperties, error)
	Endpoint() string
	Init() error
	Close()
}

var (
	_ RPCClient = (*rpcclient.Client)(nil)
	_ RPCClient = (*rpcclient.WSClient)(nil)
)

// GetNetwork examines Context's flags and returns the appropriate network. It
// defaults to LocalNet if no flags are given.
func GetNetwork(ctx *cli.Context) netmode.Network {
	var net = netmode.LocalNet
	if ctx.Bool("turing") {
		net = netmode.TuringNet
	}
	if ctx.Bool("mainnet") {
		net = netmode.MainNet
	}
	return net
}

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	if !ctx.IsSet("timeout") && ctx.String("await") != "" {
		dur = DefaultAwaitableTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext looks at the path and the mode flags in the given
// context and returns an appropriate config. Defaults are used if no path
// is given and there is no config in the default location.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	var n int
	for _, name := range []string{"local", "turing", "mainnet"} {
		if ctx.Bool(name) {
			n++
		}
	}
	if n > 1 {
		return config.Config{}, errConflictingNets
	}
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	var (
		configPath = config.DefaultConfigPath
		net        = GetNetwork(ctx)
	)
	if argCp := ctx.String("config-path"); argCp != "" {
		configPath = argCp
	}
	cfg, err := config.Load(configPath, net)
	if err != nil && errors.Is(err, fs.ErrNotExist) && !ctx.IsSet("config-path") {
		cfg, err = config.Decode([]byte("{}"))
		cfg.Network = net
	}
	return cfg, err
}

// GetRPCClient returns an initialized RPC client instance for the given
// Context and configuration, ws:// and wss:// endpoints give a websocket
// client.
func GetRPCClient(gctx context.Context, ctx *cli.Context, cfg config.Config, log *zap.Logger) (RPCClient, cli.ExitCoder) {
	rpcCfg := cfg.RPC
	if endpoint := ctx.String(RPCEndpointFlag); len(endpoint) != 0 {
		rpcCfg.Endpoint = endpoint
	}
	if len(rpcCfg.Endpoint) == 0 {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	if err := rpcCfg.Validate(); err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	opts := rpcclient.Options{
		DialTimeout:     rpcCfg.DialTimeout,
		RequestTimeout:  rpcCfg.RequestTimeout,
		MaxConnsPerHost: rpcCfg.MaxConnsPerHost,
		RetryOnError:    rpcCfg.Retry(),
		Backoff:         rpcCfg.Backoff,
		Logger:          log,
	}
	var (
		c   RPCClient
		err error
	)
	if rpcCfg.IsWebSocket() {
		c, err = rpcclient.NewWS(gctx, rpcCfg.Endpoint, opts)
	} else {
		c, err = rpcclient.New(gctx, rpcCfg.Endpoint, opts)
	}
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	if err = c.Init(); err != nil {
		c.Close()
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetAt parses "--at" parameter, nil is returned for the latest state.
func GetAt(ctx *cli.Context, c RPCClient) (*util.H256, error) {
	return ParseBlockRef(ctx.String("at"), c)
}

// ParseBlockRef parses a block number or a hash, block numbers are resolved
// to hashes with the given client. Empty string gives nil.
func ParseBlockRef(s string, c RPCClient) (*util.H256, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") {
		h, err := util.H256DecodeString(s)
		if err != nil {
			return nil, errInvalidAt
		}
		return &h, nil
	}
	n, err := ParseUint32(s)
	if err != nil {
		return nil, errInvalidAt
	}
	h, err := c.GetBlockHash(n)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d hash: %w", n, err)
	}
	return &h, nil
}

// ParseUint32 parses a decimal uint32.
func ParseUint32(s string) (uint32, error) {
	var n uint32
	if s == "" {
		return 0, errors.New("empty number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		next := uint64(n)*10 + uint64(c-'0')
		if next > 1<<32-1 {
			return 0, fmt.Errorf("number %q is too big", s)
		}
		n = uint32(next)
	}
	return n, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.Logger) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.LogTimestamp != nil && !*cfg.LogTimestamp {
		cc.EncoderConfig.EncodeTime = nil
		cc.EncoderConfig.TimeKey = ""
	}
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	// Command output goes to stdout, so logs don't.
	cc.OutputPaths = []string{"stderr"}

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// GetLogger builds the logger for the command using the configuration and
// the --debug flag.
func GetLogger(ctx *cli.Context, cfg config.Config) (*zap.Logger, cli.ExitCoder) {
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return log, nil
}

// GetSigner returns the signing account using --seed-file or --dev flags,
// the secret is read from the terminal if none is given.
func GetSigner(ctx *cli.Context, cfg config.Config) (*account.Account, error) {
	var (
		seedFile = ctx.String("seed-file")
		dev      = ctx.String("dev")
	)
	switch {
	case seedFile != "" && dev != "":
		return nil, errConflictingKeys
	case dev != "":
		if cfg.Network != netmode.LocalNet && cfg.Network != "" {
			return nil, errDevOnLiveNetwork
		}
		return account.Dev(strings.ToUpper(dev[:1]) + strings.ToLower(dev[1:]))
	case seedFile != "":
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		return account.NewFromURI(string(data))
	}
	secret, err := input.ReadPassword(ctx.App.ErrWriter, "Enter secret URI > ")
	if err != nil {
		return nil, fmt.Errorf("error reading secret: %w", err)
	}
	return account.NewFromURI(secret)
}

// GetActorOptions builds actor options from the configuration overridden by
// the transaction flags.
func GetActorOptions(ctx *cli.Context, cfg config.Config) (actor.Options, error) {
	opts := actor.Options{
		AppID:     cfg.Transactions.AppID,
		Mortality: cfg.Transactions.Mortality,
		Immortal:  cfg.Transactions.Immortal,
		Poll: waiter.PollConfig{
			PollInterval: cfg.Waiter.PollInterval,
			RetryCount:   cfg.Waiter.RetryCount,
		},
		BlockTimeout: cfg.Waiter.BlockTimeout,
	}
	if cfg.Transactions.Tip != 0 {
		opts.Tip = new(big.Int).SetUint64(cfg.Transactions.Tip)
	}
	if s := ctx.String("app-id"); s != "" {
		id, err := ParseUint32(s)
		if err != nil {
			return opts, fmt.Errorf("invalid app-id: %w", err)
		}
		opts.AppID = id
	}
	if tip := flags.AmountFromContext(ctx, "tip"); tip != nil {
		opts.Tip = tip
	}
	if s := ctx.String("nonce"); s != "" {
		nonce, err := ParseUint32(s)
		if err != nil {
			return opts, fmt.Errorf("invalid nonce: %w", err)
		}
		opts.Nonce = &nonce
	}
	if ctx.IsSet("mortality") {
		m := ctx.Uint("mortality")
		if m < 4 || m > config.MaxMortality {
			return opts, fmt.Errorf("mortality %d is out of [4, %d] range", m, config.MaxMortality)
		}
		opts.Mortality = uint32(m)
		opts.Immortal = false
	}
	waitFor := cfg.Waiter.WaitFor
	if s := ctx.String("await"); s != "" {
		waitFor = s
	}
	switch waitFor {
	case config.WaitForInclusion:
		opts.WaitFor = waiter.Inclusion
	case config.WaitForFinalization:
		opts.WaitFor = waiter.Finalization
	default:
		return opts, fmt.Errorf("invalid await mode %q", waitFor)
	}
	return opts, nil
}

// OpenJournal opens the configured transactions journal, nil is returned if
// it's not configured.
func OpenJournal(cfg config.Config) (*txstore.Store, error) {
	if cfg.Journal.FilePath == "" {
		return nil, nil
	}
	return txstore.Open(cfg.Journal.FilePath)
}

// GetRPCWithActor returns an RPC client instance and Actor instance for the
// given context, the journal is optional.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context, cfg config.Config, log *zap.Logger, journal *txstore.Store) (RPCClient, *actor.Actor, cli.ExitCoder) {
	opts, err := GetActorOptions(ctx, cfg)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	if journal != nil {
		opts.Journal = journal
	}
	acc, err := GetSigner(ctx, cfg)
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	c, exitErr := GetRPCClient(gctx, ctx, cfg, log)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	a, err := actor.NewTuned(c, acc, opts)
	if err != nil {
		c.Close()
		return nil, nil, cli.NewExitError(fmt.Errorf("failed to create Actor: %w", err), 1)
	}
	return c, a, nil
}

// SS58Prefix returns the address prefix reported by the node or the
// configured one.
func SS58Prefix(c RPCClient, cfg config.Config) uint16 {
	if p, err := c.Properties(); err == nil && p.SS58Format != nil {
		return *p.SS58Format
	}
	return cfg.SS58Prefix
}
