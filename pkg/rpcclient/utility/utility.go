/*
Package utility allows to batch several calls into one transaction with the
Utility pallet.

Calls to batch are created with *Call methods of other pallet packages.
*/
package utility

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
)

// Name is the pallet name.
const Name = "Utility"

// ErrNoCalls is returned for attempts to batch nothing.
var ErrNoCalls = errors.New("no calls to batch")

// Actor is used by Pallet to create and send transactions.
type Actor interface {
	NewCall(pallet, call string, args ...any) (extrinsic.Call, error)
	MakeCall(call extrinsic.Call) (*actor.Tx, error)
	SendCall(call extrinsic.Call) (*waiter.Submitted, error)
}

// Pallet provides methods to send batches.
type Pallet struct {
	actor Actor
}

// BatchInterruptedEvent represents a Utility.BatchInterrupted event.
type BatchInterruptedEvent struct {
	// Index is the index of the failed call in the batch.
	Index uint32
	Error *block.DispatchError
}

// New creates an instance of Pallet.
func New(act Actor) *Pallet {
	return &Pallet{act}
}

func (p *Pallet) batchCall(method string, calls []extrinsic.Call) (extrinsic.Call, error) {
	if len(calls) == 0 {
		return extrinsic.Call{}, ErrNoCalls
	}
	return p.actor.NewCall(Name, method, extrinsic.Calls(calls...))
}

// BatchCall creates a Utility.batch call. Calls are dispatched until the
// first failure, the batch itself succeeds anyway (BatchInterrupted event
// is emitted then).
func (p *Pallet) BatchCall(calls ...extrinsic.Call) (extrinsic.Call, error) {
	return p.batchCall("batch", calls)
}

// BatchAllCall creates a Utility.batch_all call, all of the calls are
// reverted if any of them fails.
func (p *Pallet) BatchAllCall(calls ...extrinsic.Call) (extrinsic.Call, error) {
	return p.batchCall("batch_all", calls)
}

// ForceBatchCall creates a Utility.force_batch call, failed calls don't
// stop the batch.
func (p *Pallet) ForceBatchCall(calls ...extrinsic.Call) (extrinsic.Call, error) {
	return p.batchCall("force_batch", calls)
}

// Batch creates and sends a Utility.batch transaction.
func (p *Pallet) Batch(calls ...extrinsic.Call) (*waiter.Submitted, error) {
	return p.send(p.BatchCall(calls...))
}

// BatchAll creates and sends a Utility.batch_all transaction.
func (p *Pallet) BatchAll(calls ...extrinsic.Call) (*waiter.Submitted, error) {
	return p.send(p.BatchAllCall(calls...))
}

// ForceBatch creates and sends a Utility.force_batch transaction.
func (p *Pallet) ForceBatch(calls ...extrinsic.Call) (*waiter.Submitted, error) {
	return p.send(p.ForceBatchCall(calls...))
}

// BatchAllTransaction creates a signed Utility.batch_all transaction without
// sending it.
func (p *Pallet) BatchAllTransaction(calls ...extrinsic.Call) (*actor.Tx, error) {
	c, err := p.BatchAllCall(calls...)
	if err != nil {
		return nil, err
	}
	return p.actor.MakeCall(c)
}

func (p *Pallet) send(c extrinsic.Call, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.SendCall(c)
}

// BatchCompleted checks whether the given events contain
// Utility.BatchCompleted (or BatchCompletedWithErrors for force_batch).
func BatchCompleted(events []block.EventRecord) bool {
	for i := range events {
		if events[i].Is(Name, "BatchCompleted") || events[i].Is(Name, "BatchCompletedWithErrors") {
			return true
		}
	}
	return false
}

// BatchInterrupted returns the Utility.BatchInterrupted event from the given
// list, nil if there is none. Metadata is used to resolve module errors, it
// can be nil.
func BatchInterrupted(m *metadata.Metadata, events []block.EventRecord) (*BatchInterruptedEvent, error) {
	rec, ok := block.FindEvent(events, Name, "BatchInterrupted")
	if !ok {
		return nil, nil
	}
	idx, err := unwrap.Uint32(unwrap.Field(&rec.Fields, nil, "index"))
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	de, err := unwrap.Field(&rec.Fields, nil, "error")
	if err != nil {
		return nil, err
	}
	return &BatchInterruptedEvent{Index: idx, Error: block.NewDispatchError(m, de)}, nil
}
