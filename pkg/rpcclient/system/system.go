/*
Package system allows to work with the System pallet via RPC.

Safe methods are encapsulated into Reader structure while Pallet provides
various methods to create and send System calls.
*/
package system

import (
	"errors"
	"fmt"

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
const Name = "System"

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

// Reader provides an interface to query System pallet storage and
// constants.
type Reader struct {
	invoker Invoker
}

// Pallet provides methods to create and send System pallet calls.
type Pallet struct {
	Reader

	actor Actor
}

// RemarkedEvent represents a System.Remarked event.
type RemarkedEvent struct {
	Sender util.AccountID
	Hash   util.H256
}

// ExtrinsicFailedEvent represents a System.ExtrinsicFailed event.
type ExtrinsicFailedEvent struct {
	TxIndex uint32
	Error   *block.DispatchError
}

// NewReader creates an instance of Reader that can be used to read data from
// the pallet.
func NewReader(invoker Invoker) *Reader {
	return &Reader{invoker}
}

// New creates an instance of Pallet to perform actions using the given
// Actor, invoker is used for state queries.
func New(invoker Invoker, act Actor) *Pallet {
	return &Pallet{*NewReader(invoker), act}
}

// Account returns the account information (nonce and balances) at the given
// block (nil for the best one).
func (r *Reader) Account(acc util.AccountID, at *util.H256) (*rpcclient.AccountInfo, error) {
	v, err := unwrap.Item(r.invoker.GetStorageValue(Name, "Account", at, acc.Bytes()))
	if err != nil {
		return nil, err
	}
	return rpcclient.NewAccountInfo(v)
}

// Number returns the current block number as it's stored in the state of
// the given block.
func (r *Reader) Number(at *util.H256) (uint32, error) {
	return unwrap.Uint32(r.invoker.GetStorageValue(Name, "Number", at))
}

// BlockHashCount returns the number of recent block hashes kept in the
// state, it limits transaction mortality.
func (r *Reader) BlockHashCount() (uint32, error) {
	return unwrap.Uint32(r.invoker.GetConstant(Name, "BlockHashCount"))
}

// SS58Prefix returns the network address prefix.
func (r *Reader) SS58Prefix() (uint16, error) {
	n, err := unwrap.Uint64(r.invoker.GetConstant(Name, "SS58Prefix"))
	if err != nil {
		return 0, err
	}
	if n > 0xffff {
		return 0, fmt.Errorf("invalid SS58 prefix %d", n)
	}
	return uint16(n), nil
}

// RemarkCall creates a System.remark call with the given data.
func (p *Pallet) RemarkCall(data []byte) (extrinsic.Call, error) {
	return p.actor.NewCall(Name, "remark", data)
}

// RemarkWithEventCall creates a System.remark_with_event call, the node
// emits Remarked event with the data hash for it.
func (p *Pallet) RemarkWithEventCall(data []byte) (extrinsic.Call, error) {
	return p.actor.NewCall(Name, "remark_with_event", data)
}

// Remark creates and sends a System.remark transaction.
func (p *Pallet) Remark(data []byte) (*waiter.Submitted, error) {
	return p.send(p.RemarkCall(data))
}

// RemarkTransaction creates a signed System.remark transaction without
// sending it.
func (p *Pallet) RemarkTransaction(data []byte) (*actor.Tx, error) {
	return p.make(p.RemarkCall(data))
}

// RemarkWithEvent creates and sends a System.remark_with_event transaction.
func (p *Pallet) RemarkWithEvent(data []byte) (*waiter.Submitted, error) {
	return p.send(p.RemarkWithEventCall(data))
}

// RemarkWithEventTransaction creates a signed System.remark_with_event
// transaction without sending it.
func (p *Pallet) RemarkWithEventTransaction(data []byte) (*actor.Tx, error) {
	return p.make(p.RemarkWithEventCall(data))
}

func (p *Pallet) send(c extrinsic.Call, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.SendCall(c)
}

func (p *Pallet) make(c extrinsic.Call, err error) (*actor.Tx, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.MakeCall(c)
}

// RemarkedEvents returns all System.Remarked events from the given list.
func RemarkedEvents(events []block.EventRecord) ([]*RemarkedEvent, error) {
	var res []*RemarkedEvent
	for i := range events {
		if !events[i].Is(Name, "Remarked") {
			continue
		}
		e := new(RemarkedEvent)
		if err := e.FromEvent(&events[i]); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		res = append(res, e)
	}
	return res, nil
}

// FromEvent converts the event record into RemarkedEvent.
func (e *RemarkedEvent) FromEvent(rec *block.EventRecord) error {
	if !rec.Is(Name, "Remarked") {
		return fmt.Errorf("not a Remarked event: %s", rec)
	}
	var err error
	e.Sender, err = unwrap.AccountID(unwrap.Field(&rec.Fields, nil, "sender"))
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	e.Hash, err = unwrap.H256(unwrap.Field(&rec.Fields, nil, "hash"))
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	return nil
}

// ExtrinsicFailedEvents returns all System.ExtrinsicFailed events from the
// given list, metadata is used to resolve module errors (it can be nil).
func ExtrinsicFailedEvents(m *metadata.Metadata, events []block.EventRecord) ([]*ExtrinsicFailedEvent, error) {
	var res []*ExtrinsicFailedEvent
	for i := range events {
		if !events[i].Is(Name, "ExtrinsicFailed") {
			continue
		}
		de, ok := events[i].Field("dispatch_error")
		if !ok {
			return nil, errors.New("ExtrinsicFailed without dispatch_error")
		}
		res = append(res, &ExtrinsicFailedEvent{
			TxIndex: events[i].Phase.ExtrinsicIndex,
			Error:   block.NewDispatchError(m, de),
		})
	}
	return res, nil
}

// SucceededTxIndexes returns indexes of transactions that have
// System.ExtrinsicSuccess event in the given list.
func SucceededTxIndexes(events []block.EventRecord) []uint32 {
	var res []uint32
	for _, e := range block.FilterEvents(events, Name, "ExtrinsicSuccess") {
		if e.Phase.Kind == block.ApplyExtrinsic {
			res = append(res, e.Phase.ExtrinsicIndex)
		}
	}
	return res
}
