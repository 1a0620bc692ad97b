/*
Package actor provides a way to change chain state via RPC client.

This layer builds on top of the basic RPC client, it simplifies creating,
signing and sending extrinsics to the network (since that's the only way
chain state is changed). It's generic enough to be used for any pallet call
and pallet-specific packages build on top of it.
*/
package actor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// DefaultMortality is the default transaction validity period in blocks.
const DefaultMortality = 32

// RPCActor is an interface required from the RPC client to successfully
// create and send transactions.
type RPCActor interface {
	waiter.RPCPollingBased

	RuntimeVersion() (result.RuntimeVersion, error)
	GenesisHash() (util.H256, error)
	GetAccountNextIndex(acc util.AccountID) (uint32, error)
	SubmitExtrinsic(raw []byte) (util.H256, error)
	QueryFeeInfo(raw []byte, at *util.H256) (*result.FeeInfo, error)
}

// Journal records sent transactions.
type Journal interface {
	Put(sub *waiter.Submitted) error
}

// Actor keeps a connection to the RPC endpoint and allows to perform
// state-changing actions (via extrinsics that can also be created without
// sending them to the network) on behalf of the signer account.
//
// Actor-specific APIs follow the naming scheme: "Make" prefix is used for
// methods that create signed extrinsics, while "Send" prefix is used by
// methods that directly transmit created extrinsics to the RPC server.
//
// Actor also provides a Waiter interface to wait until transaction will be
// accepted to the chain. Depending on the underlying RPCActor functionality,
// transaction awaiting can be performed via web-socket using head
// subscriptions, via regular RPC requests using a poll-based algorithm or
// can not be performed if RPCActor doesn't implement any of the waiter
// interfaces. ErrAwaitingNotSupported will be returned on attempt to await
// the transaction in the latter case.
type Actor struct {
	waiter.Waiter

	client RPCActor
	signer extrinsic.Signer
	opts   Options
}

// Options are used to create Actor with non-standard transaction
// parameters.
type Options struct {
	// AppID is the application ID set into every transaction.
	AppID uint32
	// Tip is an optional tip for block producers.
	Tip *big.Int
	// Mortality is the validity period in blocks, DefaultMortality if 0.
	Mortality uint32
	// Immortal makes transactions valid forever, Mortality is ignored then.
	Immortal bool
	// Nonce is used instead of the node-provided one if set.
	Nonce *uint32
	// WaitFor is the state Wait waits for.
	WaitFor waiter.WaitFor
	// Poll tunes transaction awaiting.
	Poll waiter.PollConfig
	// BlockTimeout is the number of blocks immortal transactions are
	// awaited for.
	BlockTimeout uint32
	// Journal is an optional sent transactions recorder.
	Journal Journal
}

// NewDefaultOptions returns Options for mortal transactions with zero
// application ID and no tip.
func NewDefaultOptions() Options {
	return Options{Mortality: DefaultMortality}
}

// New creates an Actor instance using the specified RPC interface and the
// signer. The actor will use default Options (which can be overridden using
// NewTuned).
func New(ra RPCActor, signer extrinsic.Signer) (*Actor, error) {
	return NewTuned(ra, signer, NewDefaultOptions())
}

// NewTuned creates an Actor that will use the specified Options as defaults
// when creating new transactions.
func NewTuned(ra RPCActor, signer extrinsic.Signer, opts Options) (*Actor, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	if _, err := ra.Metadata(); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if opts.Mortality == 0 {
		opts.Mortality = DefaultMortality
	}
	return &Actor{
		Waiter: waiter.New(ra, waiter.Config{PollConfig: opts.Poll, WaitFor: opts.WaitFor, BlockTimeout: opts.BlockTimeout}),
		client: ra,
		signer: signer,
		opts:   opts,
	}, nil
}

// Sender returns the account ID of the actor signer.
func (a *Actor) Sender() util.AccountID {
	return a.signer.AccountID()
}

// Options returns the actor defaults.
func (a *Actor) Options() Options {
	return a.opts
}

// Client returns the underlying RPC client.
func (a *Actor) Client() RPCActor {
	return a.client
}

// NewCall creates a call of the given pallet method, arguments are encoded
// according to extrinsic.NewCall rules.
func (a *Actor) NewCall(pallet, call string, args ...any) (extrinsic.Call, error) {
	m, err := a.client.Metadata()
	if err != nil {
		return extrinsic.Call{}, err
	}
	return extrinsic.NewCall(m, pallet, call, args...)
}

// Send allows to send arbitrary prepared transaction to the network. It
// returns the submitted transaction description that can be used for
// awaiting, it's returned even with "already imported" errors.
func (a *Actor) Send(tx *Tx) (*waiter.Submitted, error) {
	_, err := a.client.SubmitExtrinsic(tx.Bytes)
	if err != nil && !availrpc.IsAlreadyImported(err) {
		return nil, err
	}
	sub := tx.Submitted()
	if a.opts.Journal != nil {
		if jErr := a.opts.Journal.Put(sub); jErr != nil {
			return sub, fmt.Errorf("failed to record transaction %s: %w", sub.Hash, jErr)
		}
	}
	return sub, err
}

// sendWrapper simplifies wrapping methods that create transactions.
func (a *Actor) sendWrapper(tx *Tx, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return a.Send(tx)
}

// SendCall creates a transaction with the given call (see also MakeCall)
// and sends it to the network.
func (a *Actor) SendCall(call extrinsic.Call) (*waiter.Submitted, error) {
	return a.sendWrapper(a.MakeCall(call))
}

// SendTunedCall creates a transaction with the given call using the given
// options (see also MakeTunedCall) and sends it to the network.
func (a *Actor) SendTunedCall(call extrinsic.Call, opts Options) (*waiter.Submitted, error) {
	return a.sendWrapper(a.MakeTunedCall(call, opts))
}

// EstimateFee returns the fee the transaction with the given call would
// cost.
func (a *Actor) EstimateFee(call extrinsic.Call) (*result.FeeInfo, error) {
	tx, err := a.MakeCall(call)
	if err != nil {
		return nil, err
	}
	return a.client.QueryFeeInfo(tx.Bytes, nil)
}
