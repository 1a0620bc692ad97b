package waiter

import (
	"errors"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Receipt is the result of transaction inclusion.
type Receipt struct {
	TxHash      util.H256
	TxIndex     uint32
	BlockHash   util.H256
	BlockNumber uint32
	// Events are the events emitted by the transaction.
	Events    []block.EventRecord
	Finalized bool

	outcome error
}

// NewReceipt creates a receipt of the transaction with the given index in
// block b, events are all events of the block.
func NewReceipt(m *metadata.Metadata, txHash util.H256, idx uint32, b *block.Block, events []block.EventRecord, finalized bool) *Receipt {
	r := &Receipt{
		TxHash:      txHash,
		TxIndex:     idx,
		BlockHash:   b.Hash,
		BlockNumber: b.Number(),
		Events:      block.EventsForTx(events, idx),
		Finalized:   finalized,
	}
	_, r.outcome = block.TxSuccess(m, r.Events)
	return r
}

// Success returns true if the transaction was executed successfully.
func (r *Receipt) Success() bool {
	return r.outcome == nil
}

// Err returns the execution error, it's either *block.DispatchError or
// block.ErrNoOutcome.
func (r *Receipt) Err() error {
	return r.outcome
}

// DispatchError returns dispatch error of the failed transaction, nil for
// successful ones.
func (r *Receipt) DispatchError() *block.DispatchError {
	var de *block.DispatchError
	if errors.As(r.outcome, &de) {
		return de
	}
	return nil
}

// FindEvent returns the first event of the transaction with the given
// pallet and name.
func (r *Receipt) FindEvent(pallet, name string) (*block.EventRecord, bool) {
	return block.FindEvent(r.Events, pallet, name)
}
