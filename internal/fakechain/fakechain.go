/*
Package fakechain contains an in-memory chain state and transaction sender
implementing interfaces used by pallet wrappers. It's backed by the
testmeta metadata.
*/
package fakechain

import (
	"bytes"
	"errors"
	"slices"
	"sync"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/avail-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// FakeChain is an in-memory state with raw storage values. It implements
// storage query methods of rpcclient.Client.
type FakeChain struct {
	lock    sync.RWMutex
	meta    *metadata.Metadata
	storage map[string][]byte

	// Best is the hash returned as the best block one.
	Best util.H256
	// Err is returned from every method if set.
	Err error
	// LastAt is the block requested by the last storage call.
	LastAt *util.H256
}

// FakeActor creates and "sends" unsigned extrinsics recording their calls.
type FakeActor struct {
	lock sync.Mutex
	meta *metadata.Metadata

	// Calls are all the calls made or sent.
	Calls []extrinsic.Call
	// Err is returned from every method if set.
	Err error
}

// NewFakeChain returns an empty chain state.
func NewFakeChain() *FakeChain {
	return &FakeChain{
		meta:    testmeta.New(),
		storage: make(map[string][]byte),
		Best:    util.H256{0xbe, 0x57},
	}
}

// NewFakeActor returns a new FakeActor.
func NewFakeActor() *FakeActor {
	return &FakeActor{meta: testmeta.New()}
}

// Put stores the value of the given storage entry, keys are SCALE-encoded
// map keys.
func (c *FakeChain) Put(pallet, item string, value []byte, keys ...[]byte) error {
	key, err := c.meta.StorageKey(pallet, item, keys...)
	if err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.storage[string(key)] = value
	return nil
}

// Metadata returns the test metadata.
func (c *FakeChain) Metadata() (*metadata.Metadata, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.meta, nil
}

// GetBestBlockHash returns Best.
func (c *FakeChain) GetBestBlockHash() (util.H256, error) {
	return c.Best, c.Err
}

// GetStorageValue implements rpcclient.Client interface.
func (c *FakeChain) GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	key, err := c.meta.StorageKey(pallet, item, keys...)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.LastAt = at
	return c.meta.DecodeStorageValue(pallet, item, c.storage[string(key)])
}

// GetConstant implements rpcclient.Client interface.
func (c *FakeChain) GetConstant(pallet, name string) (*metadata.Value, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.meta.Constant(pallet, name)
}

// GetKeysPaged implements rpcclient.Client interface.
func (c *FakeChain) GetKeysPaged(prefix []byte, count uint32, startKey []byte, at *util.H256) ([]util.HexBytes, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.LastAt = at
	var keys []string
	for k := range c.storage {
		if bytes.HasPrefix([]byte(k), prefix) && (startKey == nil || k > string(startKey)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if len(keys) > int(count) {
		keys = keys[:count]
	}
	res := make([]util.HexBytes, 0, len(keys))
	for _, k := range keys {
		res = append(res, util.HexBytes(k))
	}
	return res, nil
}

// QueryStorageAt implements rpcclient.Client interface.
func (c *FakeChain) QueryStorageAt(keys [][]byte, at *util.H256) ([]result.StorageChangeSet, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if at == nil {
		return nil, errors.New("no block")
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	set := result.StorageChangeSet{Block: *at}
	for _, k := range keys {
		set.Changes = append(set.Changes, result.StorageChange{Key: k, Value: c.storage[string(k)]})
	}
	return []result.StorageChangeSet{set}, nil
}

// NewCall implements actor.Actor interface.
func (a *FakeActor) NewCall(pallet, call string, args ...any) (extrinsic.Call, error) {
	if a.Err != nil {
		return extrinsic.Call{}, a.Err
	}
	return extrinsic.NewCall(a.meta, pallet, call, args...)
}

// MakeCall implements actor.Actor interface, the transaction is unsigned.
func (a *FakeActor) MakeCall(call extrinsic.Call) (*actor.Tx, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	a.record(call)
	return &actor.Tx{Extrinsic: extrinsic.NewUnsigned(call)}, nil
}

// SendCall implements actor.Actor interface.
func (a *FakeActor) SendCall(call extrinsic.Call) (*waiter.Submitted, error) {
	tx, err := a.MakeCall(call)
	if err != nil {
		return nil, err
	}
	return &waiter.Submitted{Hash: tx.Hash}, nil
}

// LastCall returns the last recorded call.
func (a *FakeActor) LastCall() (extrinsic.Call, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if len(a.Calls) == 0 {
		return extrinsic.Call{}, false
	}
	return a.Calls[len(a.Calls)-1], true
}

// DecodeCall decodes the call with the test metadata.
func (a *FakeActor) DecodeCall(call extrinsic.Call) (*metadata.Call, error) {
	c, _, err := a.meta.DecodeCall(call.Encode())
	return c, err
}

func (a *FakeActor) record(call extrinsic.Call) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.Calls = append(a.Calls, call)
}
