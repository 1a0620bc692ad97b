package rpcclient

import (
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/encoding/address"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// withAt appends optional block hash to parameters. Nodes use the best
// block when it's omitted.
func withAt(p []any, at *util.H256) []any {
	if at != nil {
		p = append(p, *at)
	}
	return p
}

// GetBlockHash returns the hash of the block with the given number.
func (c *Client) GetBlockHash(n uint32) (util.H256, error) {
	var resp *util.H256
	if err := c.performRequest(availrpc.ChainGetBlockHash, []any{n}, &resp); err != nil {
		return util.H256{}, err
	}
	if resp == nil {
		return util.H256{}, fmt.Errorf("block %d: %w", n, ErrNotFound)
	}
	return *resp, nil
}

// GetBestBlockHash returns the hash of the best (not necessarily final)
// block.
func (c *Client) GetBestBlockHash() (util.H256, error) {
	var resp util.H256
	if err := c.performRequest(availrpc.ChainGetBlockHash, nil, &resp); err != nil {
		return util.H256{}, err
	}
	return resp, nil
}

// GetFinalizedHead returns the hash of the last finalized block.
func (c *Client) GetFinalizedHead() (util.H256, error) {
	var resp util.H256
	if err := c.performRequest(availrpc.ChainGetFinalizedHead, nil, &resp); err != nil {
		return util.H256{}, err
	}
	return resp, nil
}

// GetHeader returns the header of the block with the given hash.
func (c *Client) GetHeader(h util.H256) (*block.Header, error) {
	return c.getHeader([]any{h})
}

// GetBestHeader returns the header of the best block.
func (c *Client) GetBestHeader() (*block.Header, error) {
	return c.getHeader(nil)
}

func (c *Client) getHeader(p []any) (*block.Header, error) {
	var resp *block.Header
	if err := c.performRequest(availrpc.ChainGetHeader, p, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("header: %w", ErrNotFound)
	}
	return resp, nil
}

// GetBlockCount returns the number of blocks in the chain (best block
// number plus one).
func (c *Client) GetBlockCount() (uint32, error) {
	h, err := c.GetBestHeader()
	if err != nil {
		return 0, err
	}
	return uint32(h.Number) + 1, nil
}

// GetBlock returns the block with the given hash. Extrinsics are decoded
// using the cached metadata if Init was called. Recently fetched blocks are
// served from the cache (blocks are only cached after Init).
func (c *Client) GetBlock(h util.H256) (*block.Block, error) {
	if b, ok := c.cachedBlock(h); ok {
		blockCacheHits.Inc()
		return b, nil
	}
	var resp *block.Raw
	if err := c.performRequest(availrpc.ChainGetBlock, []any{h}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("block %s: %w", h, ErrNotFound)
	}
	m := c.metadataOrNil()
	b := block.New(h, resp, m)
	if m != nil {
		c.blocks.Add(h, b)
	}
	return b, nil
}

// GetBestBlock returns the best block.
func (c *Client) GetBestBlock() (*block.Block, error) {
	h, err := c.GetBestBlockHash()
	if err != nil {
		return nil, err
	}
	return c.GetBlock(h)
}

// GetFinalizedBlock returns the last finalized block.
func (c *Client) GetFinalizedBlock() (*block.Block, error) {
	h, err := c.GetFinalizedHead()
	if err != nil {
		return nil, err
	}
	return c.GetBlock(h)
}

// GetBlockByNumber returns the block with the given number.
func (c *Client) GetBlockByNumber(n uint32) (*block.Block, error) {
	h, err := c.GetBlockHash(n)
	if err != nil {
		return nil, err
	}
	return c.GetBlock(h)
}

// GetMetadata fetches and parses the runtime metadata at the given block
// (the best one if at is nil).
func (c *Client) GetMetadata(at *util.H256) (*metadata.Metadata, error) {
	var resp string
	if err := c.performRequest(availrpc.StateGetMetadata, withAt(nil, at), &resp); err != nil {
		return nil, err
	}
	return metadata.NewFromHex(resp)
}

// GetRuntimeVersion returns the runtime version at the given block.
func (c *Client) GetRuntimeVersion(at *util.H256) (*result.RuntimeVersion, error) {
	var resp = new(result.RuntimeVersion)
	if err := c.performRequest(availrpc.StateGetRuntimeVersion, withAt(nil, at), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetStorage returns raw storage value by its full key. It returns nil
// without an error if there is no such value.
func (c *Client) GetStorage(key []byte, at *util.H256) ([]byte, error) {
	var resp *util.HexBytes
	if err := c.performRequest(availrpc.StateGetStorage, withAt([]any{util.HexBytes(key)}, at), &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return *resp, nil
}

// GetStorageValue fetches and decodes storage value of the given entry.
// Keys are SCALE-encoded map keys (not hashed). For Optional entries nil is
// returned when there is no value.
func (c *Client) GetStorageValue(pallet, item string, at *util.H256, keys ...[]byte) (*metadata.Value, error) {
	m, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	key, err := m.StorageKey(pallet, item, keys...)
	if err != nil {
		return nil, err
	}
	raw, err := c.GetStorage(key, at)
	if err != nil {
		return nil, err
	}
	return m.DecodeStorageValue(pallet, item, raw)
}

// GetKeysPaged returns up to count storage keys having the given prefix
// starting after startKey (if it's not nil).
func (c *Client) GetKeysPaged(prefix []byte, count uint32, startKey []byte, at *util.H256) ([]util.HexBytes, error) {
	var p = []any{util.HexBytes(prefix), count}
	if startKey != nil || at != nil {
		var start any
		if startKey != nil {
			start = util.HexBytes(startKey)
		}
		p = append(p, start)
	}
	var resp []util.HexBytes
	if err := c.performRequest(availrpc.StateGetKeysPaged, withAt(p, at), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// QueryStorageAt returns values of the given keys at the given block.
func (c *Client) QueryStorageAt(keys [][]byte, at *util.H256) ([]result.StorageChangeSet, error) {
	var hexKeys = make([]util.HexBytes, 0, len(keys))
	for _, k := range keys {
		hexKeys = append(hexKeys, k)
	}
	var resp []result.StorageChangeSet
	if err := c.performRequest(availrpc.StateQueryStorageAt, withAt([]any{hexKeys}, at), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetEvents returns System.Events of the given block.
func (c *Client) GetEvents(h util.H256) ([]block.EventRecord, error) {
	m, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	key, err := m.StorageKey("System", "Events")
	if err != nil {
		return nil, err
	}
	raw, err := c.GetStorage(key, &h)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return block.DecodeEvents(m, raw)
}

// GetAccountInfo returns System.Account value for the given account.
func (c *Client) GetAccountInfo(acc util.AccountID, at *util.H256) (*AccountInfo, error) {
	v, err := c.GetStorageValue("System", "Account", at, acc.Bytes())
	if err != nil {
		return nil, err
	}
	return NewAccountInfo(v)
}

// GetAccountNonceAt returns account nonce stored in the state of the given
// block. Unlike GetAccountNextIndex it doesn't take the pool into account.
func (c *Client) GetAccountNonceAt(acc util.AccountID, at *util.H256) (uint32, error) {
	info, err := c.GetAccountInfo(acc, at)
	if err != nil {
		return 0, err
	}
	return info.Nonce, nil
}

// GetConstant returns decoded pallet constant from the cached metadata.
func (c *Client) GetConstant(pallet, name string) (*metadata.Value, error) {
	m, err := c.Metadata()
	if err != nil {
		return nil, err
	}
	return m.Constant(pallet, name)
}

// SubmitExtrinsic sends the signed extrinsic to the node and returns its
// hash.
func (c *Client) SubmitExtrinsic(raw []byte) (util.H256, error) {
	var resp util.H256
	if err := c.performRequest(availrpc.AuthorSubmitExtrinsic, []any{util.HexBytes(raw)}, &resp); err != nil {
		return util.H256{}, err
	}
	return resp, nil
}

// PendingExtrinsics returns extrinsics from the node pool.
func (c *Client) PendingExtrinsics() ([]util.HexBytes, error) {
	var resp []util.HexBytes
	if err := c.performRequest(availrpc.AuthorPendingExtrinsics, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetChain returns the chain name.
func (c *Client) GetChain() (string, error) {
	return c.getString(availrpc.SystemChain)
}

// GetNodeName returns the node implementation name.
func (c *Client) GetNodeName() (string, error) {
	return c.getString(availrpc.SystemName)
}

// GetNodeVersion returns the node implementation version.
func (c *Client) GetNodeVersion() (string, error) {
	return c.getString(availrpc.SystemVersion)
}

func (c *Client) getString(method string) (string, error) {
	var resp string
	if err := c.performRequest(method, nil, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// GetHealth returns the node health status.
func (c *Client) GetHealth() (*result.Health, error) {
	var resp = new(result.Health)
	if err := c.performRequest(availrpc.SystemHealth, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetProperties returns chain properties.
func (c *Client) GetProperties() (*result.ChainProperties, error) {
	var resp = new(result.ChainProperties)
	if err := c.performRequest(availrpc.SystemProperties, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetAccountNextIndex returns the next nonce to be used by the account, it
// includes transactions from the pool.
func (c *Client) GetAccountNextIndex(acc util.AccountID) (uint32, error) {
	var resp uint32
	if err := c.performRequest(availrpc.SystemAccountNextIndex, []any{address.Encode(acc, c.ss58Prefix())}, &resp); err != nil {
		return 0, err
	}
	return resp, nil
}

// QueryFeeInfo estimates the fee of the given signed extrinsic.
func (c *Client) QueryFeeInfo(raw []byte, at *util.H256) (*result.FeeInfo, error) {
	var resp = new(result.FeeInfo)
	if err := c.performRequest(availrpc.PaymentQueryInfo, withAt([]any{util.HexBytes(raw)}, at), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBlockLength returns Avail block matrix dimensions.
func (c *Client) GetBlockLength(at *util.H256) (*result.BlockLength, error) {
	var resp = new(result.BlockLength)
	if err := c.performRequest(availrpc.KateBlockLength, withAt(nil, at), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// QueryDataProof returns data inclusion proof for the transaction with the
// given index in the block.
func (c *Client) QueryDataProof(txIndex uint32, at util.H256) (*result.ProofResponse, error) {
	var resp = new(result.ProofResponse)
	if err := c.performRequest(availrpc.KateQueryDataProof, []any{txIndex, at}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) metadataOrNil() *metadata.Metadata {
	m, _ := c.Metadata()
	return m
}

// ss58Prefix returns address prefix of the network if it's known.
func (c *Client) ss58Prefix() uint16 {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	if c.cache.properties.SS58Format != nil {
		return *c.cache.properties.SS58Format
	}
	return address.DefaultPrefix
}
