package rpcclient

import (
	"errors"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// DefaultIteratorPageSize is the number of keys fetched by StorageIterator
// per request if not specified.
const DefaultIteratorPageSize = 100

type (
	// AccountInfo is a System.Account storage value.
	AccountInfo struct {
		Nonce       uint32
		Consumers   uint32
		Providers   uint32
		Sufficients uint32
		Data        AccountData
	}

	// AccountData is the balance part of AccountInfo.
	AccountData struct {
		Free     *big.Int
		Reserved *big.Int
		Frozen   *big.Int
		Flags    *big.Int
	}

	// StorageItem is a storage map entry returned by StorageIterator.
	StorageItem struct {
		Key []byte
		// Keys are decoded map keys, nil if hashers don't allow to recover
		// them.
		Keys  []metadata.Value
		Value *metadata.Value
	}

	// StorageReader is the set of methods StorageIterator needs, Client
	// implements it.
	StorageReader interface {
		Metadata() (*metadata.Metadata, error)
		GetBestBlockHash() (util.H256, error)
		GetKeysPaged(prefix []byte, count uint32, startKey []byte, at *util.H256) ([]util.HexBytes, error)
		QueryStorageAt(keys [][]byte, at *util.H256) ([]result.StorageChangeSet, error)
	}

	// StorageIterator walks over all entries of a storage map page by page.
	// All pages are fetched at the same block.
	StorageIterator struct {
		c        StorageReader
		m        *metadata.Metadata
		pallet   string
		item     string
		prefix   []byte
		at       *util.H256
		pageSize uint32
		last     []byte
		done     bool
	}
)

// NewAccountInfo converts decoded storage value into AccountInfo.
func NewAccountInfo(v *metadata.Value) (*AccountInfo, error) {
	if v == nil {
		return nil, errors.New("no account info")
	}
	var (
		info AccountInfo
		u32s = []struct {
			name string
			dst  *uint32
		}{
			{"nonce", &info.Nonce},
			{"consumers", &info.Consumers},
			{"providers", &info.Providers},
			{"sufficients", &info.Sufficients},
		}
	)
	for _, f := range u32s {
		fv, err := v.MustField(f.name)
		if err != nil {
			return nil, err
		}
		n, err := fv.Uint()
		if err != nil {
			return nil, err
		}
		*f.dst = uint32(n)
	}
	data, err := v.MustField("data")
	if err != nil {
		return nil, err
	}
	var bigs = []struct {
		name string
		dst  **big.Int
	}{
		{"free", &info.Data.Free},
		{"reserved", &info.Data.Reserved},
		{"frozen", &info.Data.Frozen},
		{"flags", &info.Data.Flags},
	}
	for _, f := range bigs {
		fv, err := data.MustField(f.name)
		if err != nil {
			return nil, err
		}
		if *f.dst, err = fv.BigInt(); err != nil {
			return nil, err
		}
	}
	return &info, nil
}

// NewStorageIterator creates an iterator over the given storage map. If at
// is nil the best block at the moment of the first Next call is used.
func (c *Client) NewStorageIterator(pallet, item string, at *util.H256, pageSize uint32) (*StorageIterator, error) {
	return NewStorageIterator(c, pallet, item, at, pageSize)
}

// NewStorageIterator creates an iterator over the given storage map using
// any StorageReader.
func NewStorageIterator(c StorageReader, pallet, item string, at *util.H256, pageSize uint32) (*StorageIterator, error) {
	m, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	prefix, err := m.StoragePrefix(pallet, item)
	if err != nil {
		return nil, err
	}
	if pageSize == 0 {
		pageSize = DefaultIteratorPageSize
	}
	return &StorageIterator{
		c:        c,
		m:        m,
		pallet:   pallet,
		item:     item,
		prefix:   prefix,
		at:       at,
		pageSize: pageSize,
	}, nil
}

// Next returns the next page of entries, an empty page means that the
// iteration is over.
func (it *StorageIterator) Next() ([]StorageItem, error) {
	if it.done {
		return nil, nil
	}
	if it.at == nil {
		h, err := it.c.GetBestBlockHash()
		if err != nil {
			return nil, err
		}
		it.at = &h
	}
	keys, err := it.c.GetKeysPaged(it.prefix, it.pageSize, it.last, it.at)
	if err != nil {
		return nil, err
	}
	if uint32(len(keys)) < it.pageSize {
		it.done = true
	}
	if len(keys) == 0 {
		return nil, nil
	}
	it.last = keys[len(keys)-1]

	var raw = make([][]byte, 0, len(keys))
	for _, k := range keys {
		raw = append(raw, k)
	}
	sets, err := it.c.QueryStorageAt(raw, it.at)
	if err != nil {
		return nil, err
	}
	var values = make(map[string][]byte, len(keys))
	for _, set := range sets {
		for _, ch := range set.Changes {
			values[string(ch.Key)] = ch.Value
		}
	}
	var res = make([]StorageItem, 0, len(keys))
	for _, k := range keys {
		val, err := it.m.DecodeStorageValue(it.pallet, it.item, values[string(k)])
		if err != nil {
			return nil, err
		}
		item := StorageItem{Key: k, Value: val}
		if dk, err := it.m.DecodeStorageKey(it.pallet, it.item, k); err == nil {
			item.Keys = dk
		} else if !errors.Is(err, metadata.ErrKeyNotRecoverable) {
			return nil, err
		}
		res = append(res, item)
	}
	return res, nil
}

// All iterates over the whole map and returns all of its entries.
func (it *StorageIterator) All() ([]StorageItem, error) {
	var res []StorageItem
	for {
		page, err := it.Next()
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return res, nil
		}
		res = append(res, page...)
	}
}
