package actor

import (
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Tx is a signed extrinsic along with the data needed to track it.
type Tx struct {
	*extrinsic.Extrinsic

	Sender util.AccountID
	Nonce  uint32
	Era    extrinsic.Era
	// Birth is the first block the transaction is valid at.
	Birth uint32
}

// Submitted returns the description of the transaction used to await it.
func (t *Tx) Submitted() *waiter.Submitted {
	sender := t.Sender
	return &waiter.Submitted{
		Hash:   t.Hash,
		Sender: &sender,
		Nonce:  t.Nonce,
		Birth:  t.Birth,
		Period: uint32(t.Era.Period),
	}
}

// MakeCall creates a signed transaction with the given call using actor
// default options.
func (a *Actor) MakeCall(call extrinsic.Call) (*Tx, error) {
	return a.MakeTunedCall(call, a.opts)
}

// MakeTunedCall creates a signed transaction with the given call using the
// given options.
func (a *Actor) MakeTunedCall(call extrinsic.Call, opts Options) (*Tx, error) {
	rv, err := a.client.RuntimeVersion()
	if err != nil {
		return nil, err
	}
	genesis, err := a.client.GenesisHash()
	if err != nil {
		return nil, err
	}
	var nonce uint32
	if opts.Nonce != nil {
		nonce = *opts.Nonce
	} else {
		nonce, err = a.client.GetAccountNextIndex(a.Sender())
		if err != nil {
			return nil, fmt.Errorf("failed to get nonce: %w", err)
		}
	}
	era, birth, checkpoint, err := a.era(opts, genesis)
	if err != nil {
		return nil, err
	}
	ext, err := extrinsic.Sign(call,
		extrinsic.Extra{Era: era, Nonce: nonce, Tip: opts.Tip, AppID: opts.AppID},
		extrinsic.Additional{
			SpecVersion: rv.SpecVersion,
			TxVersion:   rv.TransactionVersion,
			GenesisHash: genesis,
			BlockHash:   checkpoint,
		},
		a.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return &Tx{
		Extrinsic: ext,
		Sender:    a.Sender(),
		Nonce:     nonce,
		Era:       era,
		Birth:     birth,
	}, nil
}

// era returns the transaction era, the first block it's valid at and the
// hash of the era checkpoint block. Mortal eras are anchored at the
// finalized head.
func (a *Actor) era(opts Options, genesis util.H256) (extrinsic.Era, uint32, util.H256, error) {
	if opts.Immortal {
		best, err := a.client.GetBestHeader()
		if err != nil {
			return extrinsic.Era{}, 0, util.H256{}, err
		}
		return extrinsic.Era{}, uint32(best.Number), genesis, nil
	}
	mortality := opts.Mortality
	if mortality == 0 {
		mortality = DefaultMortality
	}
	fin, err := a.client.GetFinalizedHead()
	if err != nil {
		return extrinsic.Era{}, 0, util.H256{}, fmt.Errorf("failed to get finalized head: %w", err)
	}
	h, err := a.client.GetHeader(fin)
	if err != nil {
		return extrinsic.Era{}, 0, util.H256{}, fmt.Errorf("failed to get finalized header: %w", err)
	}
	current := uint64(h.Number)
	era := extrinsic.NewMortalEra(current, uint64(mortality))
	birth := era.Birth(current)
	checkpoint := fin
	if birth != current {
		checkpoint, err = a.client.GetBlockHash(uint32(birth))
		if err != nil {
			return extrinsic.Era{}, 0, util.H256{}, fmt.Errorf("failed to get era birth block: %w", err)
		}
	}
	return era, uint32(birth), checkpoint, nil
}
