/*
Package balances allows to work with the Balances pallet via RPC.

Safe methods are encapsulated into Reader structure while Pallet provides
methods to create and send balance transfers. Amounts are in the smallest
token units (10^-18 AVAIL).
*/
package balances

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Name is the pallet name.
const Name = "Balances"

// Invoker is used by Reader to query storage and constants.
type Invoker interface {
	GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error)
	GetConstant(pallet, name string) (*metadata.Value, error)
}

// Actor is used by Pallet to create and send transactions.
type Actor interface {
	NewCall(pallet, call string, args ...any) (extrinsic.Call, error)
	MakeCall(call extrinsic.Call) (*actor.Tx, error)
	SendCall(call extrinsic.Call) (*waiter.Submitted, error)
}

// Reader provides an interface to query balances.
type Reader struct {
	invoker Invoker
}

// Pallet provides methods to transfer tokens.
type Pallet struct {
	Reader

	actor Actor
}

// TransferEvent represents a Balances.Transfer event.
type TransferEvent struct {
	From   util.AccountID
	To     util.AccountID
	Amount *big.Int
}

// NewReader creates an instance of Reader.
func NewReader(invoker Invoker) *Reader {
	return &Reader{invoker}
}

// New creates an instance of Pallet to perform actions using the given
// Actor, invoker is used for state queries.
func New(invoker Invoker, act Actor) *Pallet {
	return &Pallet{*NewReader(invoker), act}
}

// Balance returns the balances of the given account at the given block (nil
// for the best one). Balances are stored in System.Account.
func (r *Reader) Balance(acc util.AccountID, at *util.H256) (*rpcclient.AccountData, error) {
	v, err := unwrap.Item(r.invoker.GetStorageValue("System", "Account", at, acc.Bytes()))
	if err != nil {
		return nil, err
	}
	info, err := rpcclient.NewAccountInfo(v)
	if err != nil {
		return nil, err
	}
	return &info.Data, nil
}

// ExistentialDeposit returns the minimum balance an account must have to
// exist.
func (r *Reader) ExistentialDeposit() (*big.Int, error) {
	return unwrap.BigInt(r.invoker.GetConstant(Name, "ExistentialDeposit"))
}

// TotalIssuance returns the total amount of tokens at the given block.
func (r *Reader) TotalIssuance(at *util.H256) (*big.Int, error) {
	return unwrap.BigInt(r.invoker.GetStorageValue(Name, "TotalIssuance", at))
}

func transferArgs(to util.AccountID, amount *big.Int) ([]any, error) {
	value, err := extrinsic.CompactBig(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	return []any{extrinsic.MultiAddressID(to), value}, nil
}

// TransferKeepAliveCall creates a Balances.transfer_keep_alive call, it
// fails on chain if the sender balance would go below the existential
// deposit.
func (p *Pallet) TransferKeepAliveCall(to util.AccountID, amount *big.Int) (extrinsic.Call, error) {
	args, err := transferArgs(to, amount)
	if err != nil {
		return extrinsic.Call{}, err
	}
	return p.actor.NewCall(Name, "transfer_keep_alive", args...)
}

// TransferAllowDeathCall creates a Balances.transfer_allow_death call that
// can reap the sender account.
func (p *Pallet) TransferAllowDeathCall(to util.AccountID, amount *big.Int) (extrinsic.Call, error) {
	args, err := transferArgs(to, amount)
	if err != nil {
		return extrinsic.Call{}, err
	}
	return p.actor.NewCall(Name, "transfer_allow_death", args...)
}

// TransferAllCall creates a Balances.transfer_all call transferring all of
// the transferable balance.
func (p *Pallet) TransferAllCall(to util.AccountID, keepAlive bool) (extrinsic.Call, error) {
	return p.actor.NewCall(Name, "transfer_all", extrinsic.MultiAddressID(to), keepAlive)
}

// TransferKeepAlive creates and sends a Balances.transfer_keep_alive
// transaction.
func (p *Pallet) TransferKeepAlive(to util.AccountID, amount *big.Int) (*waiter.Submitted, error) {
	return p.send(p.TransferKeepAliveCall(to, amount))
}

// TransferKeepAliveTransaction creates a signed Balances.transfer_keep_alive
// transaction without sending it.
func (p *Pallet) TransferKeepAliveTransaction(to util.AccountID, amount *big.Int) (*actor.Tx, error) {
	c, err := p.TransferKeepAliveCall(to, amount)
	if err != nil {
		return nil, err
	}
	return p.actor.MakeCall(c)
}

// TransferAllowDeath creates and sends a Balances.transfer_allow_death
// transaction.
func (p *Pallet) TransferAllowDeath(to util.AccountID, amount *big.Int) (*waiter.Submitted, error) {
	return p.send(p.TransferAllowDeathCall(to, amount))
}

// TransferAll creates and sends a Balances.transfer_all transaction.
func (p *Pallet) TransferAll(to util.AccountID, keepAlive bool) (*waiter.Submitted, error) {
	return p.send(p.TransferAllCall(to, keepAlive))
}

func (p *Pallet) send(c extrinsic.Call, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.SendCall(c)
}

// TransferEvents returns all Balances.Transfer events from the given list.
func TransferEvents(events []block.EventRecord) ([]*TransferEvent, error) {
	var res []*TransferEvent
	for i := range events {
		if !events[i].Is(Name, "Transfer") {
			continue
		}
		e := new(TransferEvent)
		if err := e.FromEvent(&events[i]); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		res = append(res, e)
	}
	return res, nil
}

// FromEvent converts the event record into TransferEvent.
func (e *TransferEvent) FromEvent(rec *block.EventRecord) error {
	if !rec.Is(Name, "Transfer") {
		return fmt.Errorf("not a Transfer event: %s", rec)
	}
	var err error
	e.From, err = unwrap.AccountID(unwrap.Field(&rec.Fields, nil, "from"))
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	e.To, err = unwrap.AccountID(unwrap.Field(&rec.Fields, nil, "to"))
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	e.Amount, err = unwrap.BigInt(unwrap.Field(&rec.Fields, nil, "amount"))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return nil
}
