/*
Package staking allows to bond tokens and nominate validators with the
Staking pallet via RPC.
*/
package staking

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Name is the pallet name.
const Name = "Staking"

// ErrNoTargets is returned for nominations without targets.
var ErrNoTargets = errors.New("no nomination targets")

// Invoker is used by Reader to query storage.
type Invoker interface {
	GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error)
}

// Actor is used by Pallet to create and send transactions.
type Actor interface {
	NewCall(pallet, call string, args ...any) (extrinsic.Call, error)
	MakeCall(call extrinsic.Call) (*actor.Tx, error)
	SendCall(call extrinsic.Call) (*waiter.Submitted, error)
}

// Reader provides an interface to query staking state.
type Reader struct {
	invoker Invoker
}

// Pallet provides methods to create and send staking calls.
type Pallet struct {
	Reader

	actor Actor
}

// ActiveEra is the active era information.
type ActiveEra struct {
	Index uint32
	// Start is the era start timestamp in milliseconds, nil until the
	// first block of the era.
	Start *uint64
}

// RewardKind is the kind of reward destination.
type RewardKind byte

// Reward destinations.
const (
	// Staked rewards are added to the bond.
	Staked RewardKind = iota
	// Stash rewards are paid to the stash account without bonding.
	Stash
	// Controller rewards are paid to the controller account.
	Controller
	// Account rewards are paid to the given account.
	Account
	// None means no rewards are paid.
	None
)

// RewardDestination is where staking rewards are paid to.
type RewardDestination struct {
	Kind    RewardKind
	Account util.AccountID
}

// BondedEvent represents a Staking.Bonded event.
type BondedEvent struct {
	Stash  util.AccountID
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

// ActiveEra returns the active era, nil if there is none.
func (r *Reader) ActiveEra(at *util.H256) (*ActiveEra, error) {
	v, err := unwrap.Item(r.invoker.GetStorageValue(Name, "ActiveEra", at))
	if errors.Is(err, unwrap.ErrNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx, err := unwrap.Uint32(unwrap.Field(v, nil, "index"))
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	res := &ActiveEra{Index: idx}
	start, err := unwrap.Field(v, nil, "start")
	if err != nil {
		return nil, err
	}
	if start.Kind == metadata.KindVariant && start.VariantName == "Some" && len(start.Items) == 1 {
		ts, err := unwrap.Uint64(&start.Items[0], nil)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		res.Start = &ts
	}
	return res, nil
}

// Bonded returns the controller account of the given stash, nil if the
// stash is not bonded.
func (r *Reader) Bonded(stash util.AccountID, at *util.H256) (*util.AccountID, error) {
	acc, err := unwrap.AccountID(r.invoker.GetStorageValue(Name, "Bonded", at, stash.Bytes()))
	if errors.Is(err, unwrap.ErrNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// MinNominatorBond returns the minimal bond required to nominate.
func (r *Reader) MinNominatorBond(at *util.H256) (*big.Int, error) {
	return unwrap.BigInt(r.invoker.GetStorageValue(Name, "MinNominatorBond", at))
}

// Encode returns SCALE representation of the destination.
func (d RewardDestination) Encode() (extrinsic.Raw, error) {
	switch d.Kind {
	case Staked, Stash, Controller, None:
		return extrinsic.Raw{byte(d.Kind)}, nil
	case Account:
		return append(extrinsic.Raw{byte(d.Kind)}, d.Account[:]...), nil
	default:
		return nil, fmt.Errorf("unknown reward destination %d", d.Kind)
	}
}

func compact(name string, n *big.Int) (extrinsic.Raw, error) {
	res, err := extrinsic.CompactBig(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

// BondCall creates a Staking.bond call bonding the signer (stash) tokens.
func (p *Pallet) BondCall(value *big.Int, payee RewardDestination) (extrinsic.Call, error) {
	v, err := compact("value", value)
	if err != nil {
		return extrinsic.Call{}, err
	}
	dst, err := payee.Encode()
	if err != nil {
		return extrinsic.Call{}, err
	}
	return p.actor.NewCall(Name, "bond", v, dst)
}

// BondExtraCall creates a Staking.bond_extra call adding more tokens to the
// bond.
func (p *Pallet) BondExtraCall(maxAdditional *big.Int) (extrinsic.Call, error) {
	v, err := compact("max_additional", maxAdditional)
	if err != nil {
		return extrinsic.Call{}, err
	}
	return p.actor.NewCall(Name, "bond_extra", v)
}

// UnbondCall creates a Staking.unbond call scheduling the given amount to
// be unlocked.
func (p *Pallet) UnbondCall(value *big.Int) (extrinsic.Call, error) {
	v, err := compact("value", value)
	if err != nil {
		return extrinsic.Call{}, err
	}
	return p.actor.NewCall(Name, "unbond", v)
}

// NominateCall creates a Staking.nominate call.
func (p *Pallet) NominateCall(targets ...util.AccountID) (extrinsic.Call, error) {
	if len(targets) == 0 {
		return extrinsic.Call{}, ErrNoTargets
	}
	return p.actor.NewCall(Name, "nominate", extrinsic.MultiAddressIDs(targets...))
}

// ChillCall creates a Staking.chill call, it stops nominating or
// validating.
func (p *Pallet) ChillCall() (extrinsic.Call, error) {
	return p.actor.NewCall(Name, "chill")
}

// Bond creates and sends a Staking.bond transaction.
func (p *Pallet) Bond(value *big.Int, payee RewardDestination) (*waiter.Submitted, error) {
	return p.send(p.BondCall(value, payee))
}

// BondExtra creates and sends a Staking.bond_extra transaction.
func (p *Pallet) BondExtra(maxAdditional *big.Int) (*waiter.Submitted, error) {
	return p.send(p.BondExtraCall(maxAdditional))
}

// Unbond creates and sends a Staking.unbond transaction.
func (p *Pallet) Unbond(value *big.Int) (*waiter.Submitted, error) {
	return p.send(p.UnbondCall(value))
}

// Nominate creates and sends a Staking.nominate transaction.
func (p *Pallet) Nominate(targets ...util.AccountID) (*waiter.Submitted, error) {
	return p.send(p.NominateCall(targets...))
}

// Chill creates and sends a Staking.chill transaction.
func (p *Pallet) Chill() (*waiter.Submitted, error) {
	return p.send(p.ChillCall())
}

func (p *Pallet) send(c extrinsic.Call, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.SendCall(c)
}

// BondedEvents returns all Staking.Bonded events from the given list.
func BondedEvents(events []block.EventRecord) ([]*BondedEvent, error) {
	var res []*BondedEvent
	for _, rec := range block.FilterEvents(events, Name, "Bonded") {
		stash, err := unwrap.AccountID(unwrap.Field(&rec.Fields, nil, "stash"))
		if err != nil {
			return nil, fmt.Errorf("stash: %w", err)
		}
		amount, err := unwrap.BigInt(unwrap.Field(&rec.Fields, nil, "amount"))
		if err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
		res = append(res, &BondedEvent{Stash: stash, Amount: amount})
	}
	return res, nil
}
