/*
Package extrinsic implements Avail extrinsic format: calls, mortal eras,
signed extensions (including the application ID one), signing payload
construction, signing and parsing of opaque extrinsics.
*/
package extrinsic

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Version is the extrinsic format version.
const Version byte = 4

// Signed bit of the version byte.
const signedBit byte = 0x80

// MaxPayloadSize is the maximum size of the signing payload that is signed as
// is, longer ones are hashed first.
const MaxPayloadSize = 256

// Multiaddress and signature variant indexes used by Avail.
const (
	AddressID        byte = 0
	AddressIndex     byte = 1
	AddressRaw       byte = 2
	Address32        byte = 3
	Address20        byte = 4
	SignatureEd25519 byte = 0
	SignatureSr25519 byte = 1
	SignatureEcdsa   byte = 2
)

// SignatureSize is the size of sr25519 and ed25519 signatures.
const SignatureSize = 64

// ErrNegativeTip is returned for extensions with negative tip.
var ErrNegativeTip = errors.New("negative tip")

type (
	// Extra is the data of signed extensions included into the extrinsic.
	Extra struct {
		Era   Era
		Nonce uint32
		// Tip is optional, nil means zero.
		Tip   *big.Int
		AppID uint32
	}

	// Additional is the data signed along with the extrinsic, but not
	// included into it.
	Additional struct {
		SpecVersion uint32
		TxVersion   uint32
		GenesisHash util.H256
		// BlockHash is the era birth block hash, it's the genesis hash for
		// immortal transactions.
		BlockHash util.H256
	}

	// Signer is able to sign signing payloads on behalf of an sr25519 account.
	Signer interface {
		AccountID() util.AccountID
		Sign(payload []byte) ([]byte, error)
	}

	// Extrinsic is an encoded extrinsic ready to be submitted.
	Extrinsic struct {
		// Bytes include the compact length prefix.
		Bytes []byte
		Hash  util.H256
	}
)

func compact(w *scale.Encoder, n *big.Int) error {
	return w.EncodeUintCompact(*n)
}

// Encode returns SCALE representation of signed extensions data.
func (e Extra) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := scale.NewEncoder(&buf)
	tip := e.Tip
	if tip == nil {
		tip = new(big.Int)
	}
	if tip.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTip, tip)
	}
	buf.Write(e.Era.Encode())
	if err := compact(w, new(big.Int).SetUint64(uint64(e.Nonce))); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	if err := compact(w, tip); err != nil {
		return nil, fmt.Errorf("tip: %w", err)
	}
	if err := compact(w, new(big.Int).SetUint64(uint64(e.AppID))); err != nil {
		return nil, fmt.Errorf("app ID: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode returns SCALE representation of additional signed data.
func (a Additional) Encode() []byte {
	res := make([]byte, 0, 8+2*util.H256Size)
	res = binary.LittleEndian.AppendUint32(res, a.SpecVersion)
	res = binary.LittleEndian.AppendUint32(res, a.TxVersion)
	res = append(res, a.GenesisHash[:]...)
	return append(res, a.BlockHash[:]...)
}

// SigningPayload returns the data to be signed for the given call and
// extensions. Payloads longer than MaxPayloadSize are replaced by their
// blake2b-256 hash.
func SigningPayload(call Call, extra Extra, add Additional) ([]byte, error) {
	ext, err := extra.Encode()
	if err != nil {
		return nil, err
	}
	payload := call.Encode()
	payload = append(payload, ext...)
	payload = append(payload, add.Encode()...)
	if len(payload) > MaxPayloadSize {
		h := hash.Blake2b256(payload)
		return h.Bytes(), nil
	}
	return payload, nil
}

// Sign creates a signed extrinsic.
func Sign(call Call, extra Extra, add Additional, signer Signer) (*Extrinsic, error) {
	ext, err := extra.Encode()
	if err != nil {
		return nil, err
	}
	payload, err := SigningPayload(call, extra, add)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("unexpected signature size %d", len(sig))
	}
	id := signer.AccountID()
	body := make([]byte, 0, 2+len(id)+1+len(sig)+16+len(call.Args)+2)
	body = append(body, Version|signedBit, AddressID)
	body = append(body, id[:]...)
	body = append(body, SignatureSr25519)
	body = append(body, sig...)
	body = append(body, ext...)
	body = append(body, call.Encode()...)
	return wrap(body), nil
}

// NewUnsigned creates an unsigned (inherent-style) extrinsic.
func NewUnsigned(call Call) *Extrinsic {
	return wrap(append([]byte{Version}, call.Encode()...))
}

func wrap(body []byte) *Extrinsic {
	var buf bytes.Buffer
	_ = compact(scale.NewEncoder(&buf), new(big.Int).SetUint64(uint64(len(body))))
	buf.Write(body)
	b := buf.Bytes()
	return &Extrinsic{Bytes: b, Hash: hash.Blake2b256(b)}
}

// Hex returns 0x-prefixed hex representation of the extrinsic.
func (e *Extrinsic) Hex() string {
	return "0x" + hex.EncodeToString(e.Bytes)
}
