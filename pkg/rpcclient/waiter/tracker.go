package waiter

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/util"
)

// tracker resolves the state of a single submitted transaction. It checks
// blocks one by one starting from the transaction birth, next is the
// first height that is not checked yet. Hashes of checked blocks are kept
// to detect reorganizations of the best chain.
type tracker struct {
	w      *PollingBased
	sub    *Submitted
	next   uint32
	err    error
	hashes map[uint32]util.H256
}

// trackers is a set of transactions awaited together.
type trackers struct {
	list []*tracker
}

func (w *PollingBased) newTrackers(subs []*Submitted) *trackers {
	ts := &trackers{list: make([]*tracker, 0, len(subs))}
	for _, s := range subs {
		if s != nil {
			ts.list = append(ts.list, &tracker{w: w, sub: s, next: s.Birth, hashes: make(map[uint32]util.H256)})
		}
	}
	return ts
}

// deadline returns the first height the transaction can't be included at.
func (t *tracker) deadline() uint32 {
	if t.sub.Period == 0 {
		return t.sub.Birth + t.w.config.BlockTimeout
	}
	return t.sub.Birth + t.sub.Period
}

// terminal checks whether the error is the final result of awaiting.
func (ts *trackers) terminal(err error) bool {
	return errors.Is(err, ErrTxNotAccepted) || errors.Is(err, ErrTxReplaced)
}

// advance checks all blocks up to tip (including) for every transaction of
// the set. It returns the first receipt found. When all transactions are
// known to be rejected the error of the first one is returned.
func (ts *trackers) advance(tip uint32) (*Receipt, error) {
	if len(ts.list) == 0 {
		return nil, ErrTxNotAccepted
	}
	var (
		pending  bool
		firstErr error
		rpcErr   error
	)
	for _, t := range ts.list {
		if t.err == nil {
			res, err := t.advance(tip)
			if res != nil {
				return res, nil
			}
			if err != nil && !ts.terminal(err) {
				rpcErr = err
				pending = true
				continue
			}
			t.err = err
		}
		if t.err == nil {
			pending = true
		} else if firstErr == nil {
			firstErr = t.err
		}
	}
	if pending {
		return nil, rpcErr
	}
	return nil, firstErr
}

// advance checks blocks from t.next to tip. It returns terminal error if
// the transaction can't be accepted anymore.
func (t *tracker) advance(tip uint32) (*Receipt, error) {
	deadline := t.deadline()
	for t.next <= tip && t.next < deadline {
		res, err := t.check(t.next)
		if errors.Is(err, ErrTxReplaced) {
			from, rErr := t.reorganized(t.next)
			if rErr != nil {
				return nil, rErr
			}
			if from < t.next {
				t.next = from
				continue
			}
		}
		if res != nil || err != nil {
			return res, err
		}
		t.next++
	}
	if t.next >= deadline {
		return nil, ErrTxNotAccepted
	}
	return nil, nil
}

// check looks for the transaction in the block with the given number.
func (t *tracker) check(n uint32) (*Receipt, error) {
	p := t.w.polling
	h, err := p.GetBlockHash(n)
	if err != nil {
		return nil, fmt.Errorf("block %d hash: %w", n, err)
	}
	t.hashes[n] = h
	if t.sub.Sender != nil {
		nonce, err := p.GetAccountNonceAt(*t.sub.Sender, &h)
		if err != nil {
			return nil, fmt.Errorf("nonce at %d: %w", n, err)
		}
		if nonce <= t.sub.Nonce {
			return nil, nil
		}
	}
	b, err := p.GetBlock(h)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", n, err)
	}
	tx, ok := b.ByHash(t.sub.Hash)
	if !ok {
		if t.sub.Sender != nil {
			// The nonce was consumed in this block, but not by us.
			return nil, fmt.Errorf("%w (block %d)", ErrTxReplaced, n)
		}
		return nil, nil
	}
	m, err := p.Metadata()
	if err != nil {
		return nil, err
	}
	events, err := p.GetEvents(h)
	if err != nil {
		return nil, fmt.Errorf("events of block %d: %w", n, err)
	}
	return NewReceipt(m, t.sub.Hash, tx.Index, b, events, t.w.config.WaitFor == Finalization), nil
}

// reorganized returns the first checked height below n whose block was
// replaced since it was checked, n is returned if there is none.
func (t *tracker) reorganized(n uint32) (uint32, error) {
	for i := t.sub.Birth; i < n; i++ {
		old, ok := t.hashes[i]
		if !ok {
			continue
		}
		h, err := t.w.polling.GetBlockHash(i)
		if err != nil {
			return n, fmt.Errorf("block %d hash: %w", i, err)
		}
		if h != old {
			return i, nil
		}
	}
	return n, nil
}
