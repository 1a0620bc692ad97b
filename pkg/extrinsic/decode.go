package extrinsic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// ErrUnsupportedVersion is returned for extrinsics of unknown format version.
var ErrUnsupportedVersion = errors.New("unsupported extrinsic version")

// Decoded is a parsed opaque extrinsic.
type Decoded struct {
	Signed bool
	// AddressKind is the MultiAddress variant, Signer is only set for
	// AddressID and Address32 ones, Address holds the raw address data.
	AddressKind   byte
	Address       []byte
	Signer        util.AccountID
	SignatureKind byte
	Signature     []byte
	Extra         Extra
	Call          Call
	Hash          util.H256
	// Size is the full extrinsic size including the length prefix.
	Size int
}

// HasSigner returns true when the extrinsic is signed by an account ID.
func (d *Decoded) HasSigner() bool {
	return d.Signed && (d.AddressKind == AddressID || d.AddressKind == Address32)
}

// Decode parses the extrinsic from b (with the compact length prefix).
func Decode(b []byte) (*Decoded, error) {
	r := bytes.NewReader(b)
	dec := scale.NewDecoder(r)
	l, err := dec.DecodeUintCompact()
	if err != nil {
		return nil, fmt.Errorf("bad length prefix: %w", err)
	}
	prefix := len(b) - r.Len()
	if !l.IsInt64() || l.Int64() != int64(r.Len()) {
		return nil, fmt.Errorf("length prefix %s doesn't match the data size %d", l, r.Len())
	}
	d, err := decodeBody(b[prefix:])
	if err != nil {
		return nil, err
	}
	d.Hash = hash.Blake2b256(b)
	d.Size = len(b)
	return d, nil
}

func decodeBody(body []byte) (*Decoded, error) {
	if len(body) == 0 {
		return nil, errors.New("empty extrinsic")
	}
	if body[0]&^signedBit != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, body[0]&^signedBit)
	}
	d := &Decoded{Signed: body[0]&signedBit != 0}
	body = body[1:]
	if d.Signed {
		n, err := d.decodeSignature(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
	}
	c, err := DecodeCall(body)
	if err != nil {
		return nil, err
	}
	d.Call = c
	return d, nil
}

func (d *Decoded) decodeSignature(body []byte) (int, error) {
	r := bytes.NewReader(body)
	dec := scale.NewDecoder(r)
	read := func(n int) ([]byte, error) {
		if n > r.Len() {
			return nil, fmt.Errorf("%d bytes expected, %d left", n, r.Len())
		}
		buf := make([]byte, n)
		if n == 0 {
			return buf, nil
		}
		return buf, dec.Read(buf)
	}
	var err error
	d.AddressKind, err = dec.ReadOneByte()
	if err != nil {
		return 0, err
	}
	switch d.AddressKind {
	case AddressID, Address32:
		d.Address, err = read(util.AccountIDSize)
		if err == nil {
			d.Signer, err = util.AccountIDDecodeBytes(d.Address)
		}
	case AddressIndex:
		var idx *big.Int
		idx, err = dec.DecodeUintCompact()
		if err == nil {
			d.Address = idx.Bytes()
		}
	case AddressRaw:
		var l *big.Int
		l, err = dec.DecodeUintCompact()
		if err == nil {
			if !l.IsInt64() {
				return 0, errors.New("raw address is too long")
			}
			d.Address, err = read(int(l.Int64()))
		}
	case Address20:
		d.Address, err = read(20)
	default:
		return 0, fmt.Errorf("unknown address kind %d", d.AddressKind)
	}
	if err != nil {
		return 0, fmt.Errorf("bad address: %w", err)
	}

	d.SignatureKind, err = dec.ReadOneByte()
	if err != nil {
		return 0, err
	}
	switch d.SignatureKind {
	case SignatureEd25519, SignatureSr25519:
		d.Signature, err = read(SignatureSize)
	case SignatureEcdsa:
		d.Signature, err = read(SignatureSize + 1)
	default:
		return 0, fmt.Errorf("unknown signature kind %d", d.SignatureKind)
	}
	if err != nil {
		return 0, fmt.Errorf("bad signature: %w", err)
	}

	off := len(body) - r.Len()
	era, n, err := DecodeEra(body[off:])
	if err != nil {
		return 0, err
	}
	d.Extra.Era = era
	if _, err = r.Seek(int64(off+n), io.SeekStart); err != nil {
		return 0, err
	}
	nonce, err := dec.DecodeUintCompact()
	if err != nil {
		return 0, fmt.Errorf("bad nonce: %w", err)
	}
	if !nonce.IsUint64() || nonce.Uint64() > 1<<32-1 {
		return 0, errors.New("nonce overflows u32")
	}
	d.Extra.Nonce = uint32(nonce.Uint64())
	d.Extra.Tip, err = dec.DecodeUintCompact()
	if err != nil {
		return 0, fmt.Errorf("bad tip: %w", err)
	}
	appID, err := dec.DecodeUintCompact()
	if err != nil {
		return 0, fmt.Errorf("bad app id: %w", err)
	}
	if !appID.IsUint64() || appID.Uint64() > 1<<32-1 {
		return 0, errors.New("app id overflows u32")
	}
	d.Extra.AppID = uint32(appID.Uint64())
	return len(body) - r.Len(), nil
}
