/*
Package waiter provides transaction awaiting functionality. A submitted
transaction is tracked block by block from its birth until its mortality
period expires: the sender nonce tells which block consumed the transaction,
the block body and System.Events of that block produce the Receipt.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

const (
	// DefaultPollRetryCount is a threshold for a number of subsequent failed
	// attempts to get chain head from the RPC server for PollingBased. If it
	// fails to retrieve it DefaultPollRetryCount times in a row then
	// transaction awaiting attempt is considered to be failed and an error
	// is returned.
	DefaultPollRetryCount = 3
	// DefaultPollInterval is a half of Avail block time.
	DefaultPollInterval = 10 * time.Second
	// DefaultBlockTimeout is the number of blocks an immortal transaction is
	// awaited for.
	DefaultBlockTimeout = 64
)

var (
	// ErrTxNotAccepted is returned when transaction wasn't accepted to the chain
	// even after its mortality period has passed.
	ErrTxNotAccepted = errors.New("transaction was not accepted to chain")
	// ErrTxReplaced is returned when the sender nonce was consumed by some
	// other transaction.
	ErrTxReplaced = errors.New("transaction nonce was used by another transaction")
	// ErrContextDone is returned when Waiter context has been done in the middle
	// of transaction awaiting process and no result was received yet.
	ErrContextDone = errors.New("waiter context done")
	// ErrAwaitingNotSupported is returned from Wait method if Waiter instance
	// doesn't support transaction awaiting. It's compatible with [errors.ErrUnsupported].
	ErrAwaitingNotSupported = fmt.Errorf("%w: awaiting", errors.ErrUnsupported)
	// ErrMissedEvent is returned when RPCEventBased closes receiver channel
	// which happens if the connection is lost.
	ErrMissedEvent = errors.New("some event was missed")
)

// WaitFor is the transaction state Waiter waits for.
type WaitFor byte

const (
	// Inclusion is inclusion into the best chain.
	Inclusion WaitFor = iota
	// Finalization is inclusion into a finalized block.
	Finalization
)

type (
	// Waiter is an interface providing transaction awaiting functionality.
	Waiter interface {
		// Wait allows to wait until transaction will be accepted to the chain. It
		// can be used as a wrapper for Send or SendCall and accepts the
		// submitted transaction and an error. It returns transaction receipt
		// or an error if transaction wasn't accepted to the chain. Notice that
		// "already imported" err value is not treated as an error by this
		// routine because it means that the transaction given might be already
		// accepted or soon going to be accepted.
		Wait(sub *Submitted, err error) (*Receipt, error)
		// WaitAny waits until at least one of the specified transactions will
		// be accepted to the chain. It returns a receipt of this transaction or
		// an error if none of the transactions was accepted to the chain.
		WaitAny(ctx context.Context, subs ...*Submitted) (*Receipt, error)
	}

	// RPCPollingBased is an interface that enables transaction awaiting
	// functionality based on periodical chain head polls.
	RPCPollingBased interface {
		// Context should return the RPC client context to be able to gracefully
		// shut down all running processes (if so).
		Context() context.Context
		Metadata() (*metadata.Metadata, error)
		GetBestHeader() (*block.Header, error)
		GetFinalizedHead() (util.H256, error)
		GetHeader(h util.H256) (*block.Header, error)
		GetBlockHash(n uint32) (util.H256, error)
		GetBlock(h util.H256) (*block.Block, error)
		GetEvents(h util.H256) ([]block.EventRecord, error)
		GetAccountNonceAt(acc util.AccountID, at *util.H256) (uint32, error)
	}

	// RPCEventBased is an interface that enables improved transaction
	// awaiting functionality based on head subscriptions. RPCEventBased
	// contains RPCPollingBased under the hood and falls back to polling when
	// subscription-based awaiting fails.
	RPCEventBased interface {
		RPCPollingBased

		ReceiveNewHeads(rcvr chan<- *block.Header) (string, error)
		ReceiveFinalizedHeads(rcvr chan<- *block.Header) (string, error)
		Unsubscribe(id string) error
	}
)

// Submitted is a transaction sent to the node.
type Submitted struct {
	Hash util.H256 `json:"hash"`
	// Sender is nil for unsigned transactions.
	Sender *util.AccountID `json:"sender,omitempty"`
	Nonce  uint32          `json:"nonce"`
	// Birth is the first block the transaction can be included into.
	Birth uint32 `json:"birth"`
	// Period is the mortality period, 0 for immortal transactions.
	Period uint32 `json:"period"`
}

// Null is a Waiter stub that doesn't support transaction awaiting functionality.
type Null struct{}

// PollingBased is a polling-based Waiter.
type PollingBased struct {
	polling RPCPollingBased
	config  Config
}

// Config is a unified configuration for [Waiter] implementations that allows to
// customize awaiting behaviour.
type Config struct {
	PollConfig
	// WaitFor is the awaited transaction state, Inclusion by default.
	WaitFor WaitFor
	// BlockTimeout is the number of blocks an immortal transaction is
	// awaited for, DefaultBlockTimeout if not set.
	BlockTimeout uint32
}

// PollConfig is a configuration for PollingBased waiter.
type PollConfig struct {
	// PollInterval is a time interval between subsequent polls. If not set,
	// DefaultPollInterval is used.
	PollInterval time.Duration
	// RetryCount is the number of retry attempts while fetching a subsequent
	// chain head before an error is returned from Wait or WaitAny.
	RetryCount int
}

// EventBased is a websocket-based Waiter.
type EventBased struct {
	ws      RPCEventBased
	polling *PollingBased
}

// New creates Waiter instance. It can be either websocket-based or
// polling-base, otherwise Waiter stub is returned. As a first argument
// it accepts RPCEventBased implementation, RPCPollingBased implementation
// or not an implementation of these two interfaces. It returns websocket-based
// waiter, polling-based waiter or a stub correspondingly.
func New(base any, config Config) Waiter {
	if eventW, ok := base.(RPCEventBased); ok {
		return NewEventBased(eventW, config)
	}
	if pollW, ok := base.(RPCPollingBased); ok {
		return NewPollingBased(pollW, config)
	}
	return NewNull()
}

// NewNull creates an instance of Waiter stub.
func NewNull() Null {
	return Null{}
}

// Wait implements Waiter interface.
func (Null) Wait(*Submitted, error) (*Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// WaitAny implements Waiter interface.
func (Null) WaitAny(context.Context, ...*Submitted) (*Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// NewPollingBased creates an instance of Waiter supporting poll-based
// transaction awaiting, unset configuration values are replaced by defaults.
func NewPollingBased(waiter RPCPollingBased, config Config) *PollingBased {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.RetryCount <= 0 {
		config.RetryCount = DefaultPollRetryCount
	}
	if config.BlockTimeout == 0 {
		config.BlockTimeout = DefaultBlockTimeout
	}
	return &PollingBased{
		polling: waiter,
		config:  config,
	}
}

// checkSubmitError filters out "already imported" errors.
func checkSubmitError(sub *Submitted, err error) error {
	if err != nil && !availrpc.IsAlreadyImported(err) {
		return err
	}
	if sub == nil {
		return errors.New("nothing to wait for")
	}
	return nil
}

// Wait implements Waiter interface.
func (w *PollingBased) Wait(sub *Submitted, err error) (*Receipt, error) {
	if err = checkSubmitError(sub, err); err != nil {
		return nil, err
	}
	return w.WaitAny(context.TODO(), sub)
}

// WaitAny implements Waiter interface.
func (w *PollingBased) WaitAny(ctx context.Context, subs ...*Submitted) (*Receipt, error) {
	return w.wait(ctx, w.newTrackers(subs))
}

// tip returns the number of the latest block of the awaited kind.
func (w *PollingBased) tip() (uint32, error) {
	var (
		h   *block.Header
		err error
	)
	if w.config.WaitFor == Finalization {
		var fin util.H256
		fin, err = w.polling.GetFinalizedHead()
		if err == nil {
			h, err = w.polling.GetHeader(fin)
		}
	} else {
		h, err = w.polling.GetBestHeader()
	}
	if err != nil {
		return 0, err
	}
	return uint32(h.Number), nil
}

func (w *PollingBased) wait(ctx context.Context, ts *trackers) (*Receipt, error) {
	var failedAttempt int
	timer := time.NewTicker(w.config.PollInterval)
	defer timer.Stop()
	for {
		tip, err := w.tip()
		if err == nil {
			var res *Receipt
			res, err = ts.advance(tip)
			if res != nil || (err != nil && ts.terminal(err)) {
				return res, err
			}
		}
		if err != nil {
			failedAttempt++
			if failedAttempt > w.config.RetryCount {
				return nil, fmt.Errorf("failed to poll chain: %w", err)
			}
		} else {
			failedAttempt = 0
		}
		select {
		case <-timer.C:
		case <-w.polling.Context().Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, w.polling.Context().Err())
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}

// NewEventBased creates an instance of Waiter supporting websocket
// event-based transaction awaiting. EventBased contains PollingBased under
// the hood and falls back to polling when subscription-based awaiting fails.
func NewEventBased(waiter RPCEventBased, config Config) *EventBased {
	return &EventBased{
		ws:      waiter,
		polling: NewPollingBased(waiter, config),
	}
}

// Wait implements Waiter interface.
func (w *EventBased) Wait(sub *Submitted, err error) (*Receipt, error) {
	if err = checkSubmitError(sub, err); err != nil {
		return nil, err
	}
	return w.WaitAny(context.TODO(), sub)
}

// WaitAny implements Waiter interface. New heads are used as wake-ups to
// check for the transactions, when subscription fails or the connection
// is lost it falls back to polling.
func (w *EventBased) WaitAny(ctx context.Context, subs ...*Submitted) (*Receipt, error) {
	var (
		ts    = w.polling.newTrackers(subs)
		hRcvr = make(chan *block.Header, 2)
		subID string
		err   error
	)
	if w.polling.config.WaitFor == Finalization {
		subID, err = w.ws.ReceiveFinalizedHeads(hRcvr)
	} else {
		subID, err = w.ws.ReceiveNewHeads(hRcvr)
	}
	if err != nil {
		return w.polling.wait(ctx, ts)
	}

	var (
		res     *Receipt
		waitErr error
		// Check once right after the subscription, the transaction might
		// be already in.
		tip, tipErr = w.polling.tip()
	)
	if tipErr == nil {
		res, waitErr = ts.advance(tip)
		if waitErr != nil && !ts.terminal(waitErr) {
			waitErr = nil
		}
	}
	for res == nil && waitErr == nil {
		select {
		case h, ok := <-hRcvr:
			if !ok {
				// We're toast, retry with polling.
				return w.polling.wait(ctx, ts)
			}
			res, waitErr = ts.advance(uint32(h.Number))
			if waitErr != nil && !ts.terminal(waitErr) {
				// Temporary RPC failure, the next head will retry.
				waitErr = nil
			}
		case <-w.ws.Context().Done():
			waitErr = fmt.Errorf("%w: %w", ErrContextDone, w.ws.Context().Err())
		case <-ctx.Done():
			waitErr = fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
	go drain(hRcvr)
	if unsubErr := w.ws.Unsubscribe(subID); unsubErr != nil {
		if waitErr != nil {
			waitErr = fmt.Errorf("%w; unsubscription error: %w", waitErr, unsubErr)
		} else if res == nil {
			waitErr = fmt.Errorf("unsubscription error: %w", unsubErr)
		}
	}
	return res, waitErr
}

// drain reads the channel for some time so that notifications sent before
// unsubscription don't block the client reader.
func drain(ch <-chan *block.Header) {
	t := time.NewTimer(time.Second)
	defer t.Stop()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-t.C:
			return
		}
	}
}
