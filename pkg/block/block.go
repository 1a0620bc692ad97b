/*
Package block contains Avail block and event types: headers, blocks with
decoded extrinsics and helpers to filter them, and System.Events records
decoded with the runtime metadata.
*/
package block

import (
	"bytes"

	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/extrinsic"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

type (
	// Block is a block with its extrinsics decoded.
	Block struct {
		Hash       util.H256
		Header     Header
		Extrinsics []*Transaction
	}

	// Transaction is an extrinsic of the block.
	Transaction struct {
		Index uint32
		Raw   []byte
		Hash  util.H256
		// Decoded is nil when the extrinsic can't be parsed, Err is set
		// then.
		Decoded *extrinsic.Decoded
		Err     error
		// Pallet and Call are resolved call names (empty if metadata
		// doesn't know them), Args are decoded call arguments.
		Pallet string
		Call   string
		Args   *metadata.Value
	}

	// DataSubmission is a DataAvailability.submit_data payload.
	DataSubmission struct {
		TxHash  util.H256
		TxIndex uint32
		AppID   uint32
		Signer  util.AccountID
		Data    []byte
	}
)

// New creates a block from its RPC representation. Metadata is used to
// resolve call names and arguments, it can be nil.
func New(h util.H256, raw *Raw, m *metadata.Metadata) *Block {
	b := &Block{
		Hash:       h,
		Header:     raw.Block.Header,
		Extrinsics: make([]*Transaction, 0, len(raw.Block.Extrinsics)),
	}
	for i, ext := range raw.Block.Extrinsics {
		b.Extrinsics = append(b.Extrinsics, NewTransaction(uint32(i), ext, m))
	}
	return b
}

// NewTransaction decodes the extrinsic with the given index in block.
func NewTransaction(idx uint32, raw []byte, m *metadata.Metadata) *Transaction {
	tx := &Transaction{Index: idx, Raw: raw, Hash: hash.Blake2b256(raw)}
	tx.Decoded, tx.Err = extrinsic.Decode(raw)
	if tx.Err != nil || m == nil {
		return tx
	}
	c, _, err := m.DecodeCall(tx.Decoded.Call.Encode())
	if err != nil {
		return tx
	}
	tx.Pallet, tx.Call, tx.Args = c.Pallet, c.Name, &c.Args
	return tx
}

// Number returns block height.
func (b *Block) Number() uint32 {
	return uint32(b.Header.Number)
}

// Signer returns the transaction signer, ok is false for unsigned ones.
func (t *Transaction) Signer() (util.AccountID, bool) {
	if t.Decoded == nil || !t.Decoded.HasSigner() {
		return util.AccountID{}, false
	}
	return t.Decoded.Signer, true
}

// AppID returns the application ID of the transaction (0 for unsigned).
func (t *Transaction) AppID() uint32 {
	if t.Decoded == nil {
		return 0
	}
	return t.Decoded.Extra.AppID
}

func (b *Block) filter(f func(*Transaction) bool) []*Transaction {
	var res []*Transaction
	for _, tx := range b.Extrinsics {
		if f(tx) {
			res = append(res, tx)
		}
	}
	return res
}

// ByAppID returns transactions with the given application ID.
func (b *Block) ByAppID(id uint32) []*Transaction {
	return b.filter(func(t *Transaction) bool {
		return t.Decoded != nil && t.Decoded.Signed && t.AppID() == id
	})
}

// BySigner returns transactions signed by the given account.
func (b *Block) BySigner(acc util.AccountID) []*Transaction {
	return b.filter(func(t *Transaction) bool {
		s, ok := t.Signer()
		return ok && s == acc
	})
}

// ByCall returns transactions calling the given pallet method, empty call
// matches any call of the pallet.
func (b *Block) ByCall(pallet, call string) []*Transaction {
	return b.filter(func(t *Transaction) bool {
		return t.Pallet == pallet && (call == "" || t.Call == call)
	})
}

// BySignerNonce returns the transaction of the given account with the given
// nonce.
func (b *Block) BySignerNonce(acc util.AccountID, nonce uint32) (*Transaction, bool) {
	for _, tx := range b.BySigner(acc) {
		if tx.Decoded.Extra.Nonce == nonce {
			return tx, true
		}
	}
	return nil, false
}

// ByHash returns the transaction with the given hash.
func (b *Block) ByHash(h util.H256) (*Transaction, bool) {
	for _, tx := range b.Extrinsics {
		if tx.Hash == h {
			return tx, true
		}
	}
	return nil, false
}

// ByIndex returns the transaction with the given index.
func (b *Block) ByIndex(i uint32) (*Transaction, bool) {
	if int(i) >= len(b.Extrinsics) {
		return nil, false
	}
	return b.Extrinsics[i], true
}

// DataSubmissions returns the data submitted with DataAvailability.submit_data
// calls of the block.
func (b *Block) DataSubmissions() []DataSubmission {
	var res []DataSubmission
	for _, tx := range b.ByCall("DataAvailability", "submit_data") {
		if tx.Args == nil {
			continue
		}
		f, ok := tx.Args.Field("data")
		if !ok {
			continue
		}
		data, err := f.Bytes()
		if err != nil {
			continue
		}
		signer, _ := tx.Signer()
		res = append(res, DataSubmission{
			TxHash:  tx.Hash,
			TxIndex: tx.Index,
			AppID:   tx.AppID(),
			Signer:  signer,
			Data:    bytes.Clone(data),
		})
	}
	return res
}
