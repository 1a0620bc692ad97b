package extrinsic

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Raw is an already SCALE-encoded call argument.
type Raw []byte

// MultiAddressID returns encoded MultiAddress::Id for the given account.
func MultiAddressID(id util.AccountID) Raw {
	return append(Raw{AddressID}, id[:]...)
}

// MultiAddressIDs returns encoded Vec<MultiAddress> of MultiAddress::Id
// items.
func MultiAddressIDs(ids ...util.AccountID) Raw {
	res := Compact(uint64(len(ids)))
	for _, id := range ids {
		res = append(res, MultiAddressID(id)...)
	}
	return res
}

// Compact returns SCALE compact encoding of n.
func Compact(n uint64) Raw {
	b, _ := codec.Encode(types.NewUCompactFromUInt(n))
	return b
}

// CompactBig returns SCALE compact encoding of a non-negative n.
func CompactBig(n *big.Int) (Raw, error) {
	if n == nil || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid compact value %v", n)
	}
	return codec.Encode(types.NewUCompact(n))
}

// Calls returns encoded Vec<RuntimeCall> of the given calls.
func Calls(calls ...Call) Raw {
	res := Compact(uint64(len(calls)))
	for _, c := range calls {
		res = append(res, c.Encode()...)
	}
	return res
}

// Call is a runtime call with SCALE-encoded arguments.
type Call struct {
	PalletIndex uint8
	CallIndex   uint8
	Args        []byte
}

// NewCall creates a call of the given pallet resolving its indexes via
// metadata. Arguments are encoded with the SCALE codec in order, Raw
// arguments are appended as is.
func NewCall(m *metadata.Metadata, pallet, call string, args ...any) (Call, error) {
	p, c, err := m.CallIndex(pallet, call)
	if err != nil {
		return Call{}, err
	}
	encoded, err := EncodeArgs(args...)
	if err != nil {
		return Call{}, fmt.Errorf("%s.%s: %w", pallet, call, err)
	}
	return Call{PalletIndex: p, CallIndex: c, Args: encoded}, nil
}

// EncodeArgs SCALE-encodes the given values one after another.
func EncodeArgs(args ...any) ([]byte, error) {
	var res []byte
	for i, arg := range args {
		if r, ok := arg.(Raw); ok {
			res = append(res, r...)
			continue
		}
		b, err := codec.Encode(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		res = append(res, b...)
	}
	return res, nil
}

// Encode returns SCALE representation of the call.
func (c Call) Encode() []byte {
	res := make([]byte, 0, 2+len(c.Args))
	res = append(res, c.PalletIndex, c.CallIndex)
	return append(res, c.Args...)
}

// DecodeCall parses call indexes from b, the rest of b is treated as
// arguments.
func DecodeCall(b []byte) (Call, error) {
	if len(b) < 2 {
		return Call{}, fmt.Errorf("call too short: %d bytes", len(b))
	}
	return Call{PalletIndex: b[0], CallIndex: b[1], Args: append([]byte{}, b[2:]...)}, nil
}
