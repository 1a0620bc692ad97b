/*
Package dataavailability allows to work with the DataAvailability pallet via
RPC: submitting data blobs and managing application keys.

Data is submitted under the application ID set in the actor options (it's a
transaction extension, not a call argument), so a separate actor is needed
for every application.
*/
package dataavailability

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Name is the pallet name.
const Name = "DataAvailability"

var (
	// ErrEmptyData is returned for attempts to submit no data.
	ErrEmptyData = errors.New("data can't be empty")
	// ErrEmptyKey is returned for attempts to create an empty key.
	ErrEmptyKey = errors.New("application key can't be empty")
)

// Invoker is used by Reader to query storage and constants.
type Invoker interface {
	rpcclient.StorageReader

	GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error)
	GetConstant(pallet, name string) (*metadata.Value, error)
}

// Actor is used by Pallet to create and send transactions.
type Actor interface {
	NewCall(pallet, call string, args ...any) (extrinsic.Call, error)
	MakeCall(call extrinsic.Call) (*actor.Tx, error)
	SendCall(call extrinsic.Call) (*waiter.Submitted, error)
}

// Reader provides an interface to query application keys and pallet
// limits.
type Reader struct {
	invoker Invoker
}

// Pallet provides methods to submit data and create application keys.
type Pallet struct {
	Reader

	actor Actor
}

// AppKey is a registered application key.
type AppKey struct {
	Key   []byte
	Owner util.AccountID
	ID    uint32
}

// DataSubmittedEvent represents a DataAvailability.DataSubmitted event.
type DataSubmittedEvent struct {
	Who      util.AccountID
	DataHash util.H256
}

// ApplicationKeyCreatedEvent represents a
// DataAvailability.ApplicationKeyCreated event.
type ApplicationKeyCreatedEvent struct {
	AppKey
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

// AppKey returns the application registered with the given key, nil is
// returned if there is none.
func (r *Reader) AppKey(key []byte, at *util.H256) (*AppKey, error) {
	encoded, err := extrinsic.EncodeArgs(key)
	if err != nil {
		return nil, err
	}
	v, err := unwrap.Item(r.invoker.GetStorageValue(Name, "AppKeys", at, encoded))
	if errors.Is(err, unwrap.ErrNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return newAppKey(key, v)
}

func newAppKey(key []byte, v *metadata.Value) (*AppKey, error) {
	owner, err := unwrap.AccountID(unwrap.Field(v, nil, "owner"))
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	id, err := unwrap.Uint32(unwrap.Field(v, nil, "id"))
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	return &AppKey{Key: key, Owner: owner, ID: id}, nil
}

// AppKeys returns all registered application keys at the given block (nil
// for the best one), it can take a number of requests.
func (r *Reader) AppKeys(at *util.H256) ([]AppKey, error) {
	it, err := rpcclient.NewStorageIterator(r.invoker, Name, "AppKeys", at, 0)
	if err != nil {
		return nil, err
	}
	items, err := it.All()
	if err != nil {
		return nil, err
	}
	res := make([]AppKey, 0, len(items))
	for _, itm := range items {
		if len(itm.Keys) != 1 {
			return nil, fmt.Errorf("unexpected key %s", util.HexBytes(itm.Key))
		}
		key, err := unwrap.Bytes(&itm.Keys[0], nil)
		if err != nil {
			return nil, err
		}
		ak, err := newAppKey(key, itm.Value)
		if err != nil {
			return nil, err
		}
		res = append(res, *ak)
	}
	return res, nil
}

// NextAppID returns the ID the next created application will get.
func (r *Reader) NextAppID(at *util.H256) (uint32, error) {
	return unwrap.Uint32(r.invoker.GetStorageValue(Name, "NextAppId", at))
}

// MaxAppDataLength returns the maximum size of the data submitted in one
// transaction.
func (r *Reader) MaxAppDataLength() (uint32, error) {
	return unwrap.Uint32(r.invoker.GetConstant(Name, "MaxAppDataLength"))
}

// MaxAppKeyLength returns the maximum application key length.
func (r *Reader) MaxAppKeyLength() (uint32, error) {
	return unwrap.Uint32(r.invoker.GetConstant(Name, "MaxAppKeyLength"))
}

// SubmitDataCall creates a DataAvailability.submit_data call.
func (p *Pallet) SubmitDataCall(data []byte) (extrinsic.Call, error) {
	if len(data) == 0 {
		return extrinsic.Call{}, ErrEmptyData
	}
	return p.actor.NewCall(Name, "submit_data", data)
}

// SubmitData creates and sends a DataAvailability.submit_data transaction.
// The hash of the data (emitted in DataSubmitted event) can be computed
// with DataHash.
func (p *Pallet) SubmitData(data []byte) (*waiter.Submitted, error) {
	return p.send(p.SubmitDataCall(data))
}

// SubmitDataTransaction creates a signed DataAvailability.submit_data
// transaction without sending it.
func (p *Pallet) SubmitDataTransaction(data []byte) (*actor.Tx, error) {
	c, err := p.SubmitDataCall(data)
	if err != nil {
		return nil, err
	}
	return p.actor.MakeCall(c)
}

// CreateApplicationKeyCall creates a DataAvailability.create_application_key
// call.
func (p *Pallet) CreateApplicationKeyCall(key []byte) (extrinsic.Call, error) {
	if len(key) == 0 {
		return extrinsic.Call{}, ErrEmptyKey
	}
	return p.actor.NewCall(Name, "create_application_key", key)
}

// CreateApplicationKey creates and sends a
// DataAvailability.create_application_key transaction. The ID of the new
// application is available from ApplicationKeyCreated event.
func (p *Pallet) CreateApplicationKey(key []byte) (*waiter.Submitted, error) {
	return p.send(p.CreateApplicationKeyCall(key))
}

func (p *Pallet) send(c extrinsic.Call, err error) (*waiter.Submitted, error) {
	if err != nil {
		return nil, err
	}
	return p.actor.SendCall(c)
}

// DataHash returns the hash of the data as it's reported by DataSubmitted
// event.
func DataHash(data []byte) util.H256 {
	return hash.Keccak256(data)
}

// DataSubmittedEvents returns all DataAvailability.DataSubmitted events from
// the given list.
func DataSubmittedEvents(events []block.EventRecord) ([]*DataSubmittedEvent, error) {
	var res []*DataSubmittedEvent
	for i := range events {
		if !events[i].Is(Name, "DataSubmitted") {
			continue
		}
		e := new(DataSubmittedEvent)
		if err := e.FromEvent(&events[i]); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		res = append(res, e)
	}
	return res, nil
}

// FromEvent converts the event record into DataSubmittedEvent.
func (e *DataSubmittedEvent) FromEvent(rec *block.EventRecord) error {
	if !rec.Is(Name, "DataSubmitted") {
		return fmt.Errorf("not a DataSubmitted event: %s", rec)
	}
	var err error
	e.Who, err = unwrap.AccountID(unwrap.Field(&rec.Fields, nil, "who"))
	if err != nil {
		return fmt.Errorf("who: %w", err)
	}
	e.DataHash, err = unwrap.H256(unwrap.Field(&rec.Fields, nil, "data_hash"))
	if err != nil {
		return fmt.Errorf("data_hash: %w", err)
	}
	return nil
}

// ApplicationKeyCreatedEvents returns all
// DataAvailability.ApplicationKeyCreated events from the given list.
func ApplicationKeyCreatedEvents(events []block.EventRecord) ([]*ApplicationKeyCreatedEvent, error) {
	var res []*ApplicationKeyCreatedEvent
	for i := range events {
		if !events[i].Is(Name, "ApplicationKeyCreated") {
			continue
		}
		e := new(ApplicationKeyCreatedEvent)
		if err := e.FromEvent(&events[i]); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		res = append(res, e)
	}
	return res, nil
}

// FromEvent converts the event record into ApplicationKeyCreatedEvent.
func (e *ApplicationKeyCreatedEvent) FromEvent(rec *block.EventRecord) error {
	if !rec.Is(Name, "ApplicationKeyCreated") {
		return fmt.Errorf("not an ApplicationKeyCreated event: %s", rec)
	}
	key, err := unwrap.Bytes(unwrap.Field(&rec.Fields, nil, "key"))
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	ak, err := newAppKey(key, &rec.Fields)
	if err != nil {
		return err
	}
	e.AppKey = *ak
	return nil
}
