package testmeta

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Compact returns SCALE compact encoding of n.
func Compact(n uint64) []byte {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).EncodeUintCompact(*new(big.Int).SetUint64(n)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Bytes returns SCALE encoding of Vec<u8>.
func Bytes(b []byte) []byte {
	return append(Compact(uint64(len(b))), b...)
}

// U128 returns SCALE encoding of u128.
func U128(n *big.Int) []byte {
	be := n.FillBytes(make([]byte, 16))
	le := make([]byte, 16)
	for i := range be {
		le[15-i] = be[i]
	}
	return le
}

// AccountInfo returns encoded System.Account value with the given nonce and
// free balance.
func AccountInfo(nonce uint32, free *big.Int) []byte {
	res := binary.LittleEndian.AppendUint32(nil, nonce)
	res = append(res, make([]byte, 12)...) // consumers, providers, sufficients
	res = append(res, U128(free)...)
	return append(res, make([]byte, 48)...)
}

// AppKeyInfo returns encoded DataAvailability.AppKeys value.
func AppKeyInfo(owner util.AccountID, id uint32) []byte {
	return append(owner.Bytes(), Compact(uint64(id))...)
}

// Events returns encoded System.Events value containing the given records.
func Events(records ...[]byte) []byte {
	res := Compact(uint64(len(records)))
	for _, r := range records {
		res = append(res, r...)
	}
	return res
}

func applyExtrinsic(idx uint32) []byte {
	return append([]byte{0}, binary.LittleEndian.AppendUint32(nil, idx)...)
}

func record(phase []byte, pallet, event uint8, fields ...[]byte) []byte {
	res := append(append([]byte{}, phase...), pallet, event)
	for _, f := range fields {
		res = append(res, f...)
	}
	return append(res, 0) // no topics
}

// dispatchInfo is zero weight, Normal class, Pays::Yes.
var dispatchInfo = []byte{0, 0, 0, 0}

// ExtrinsicSuccess returns System.ExtrinsicSuccess event record for the
// extrinsic with the given index.
func ExtrinsicSuccess(idx uint32) []byte {
	return record(applyExtrinsic(idx), SystemIndex, 0, dispatchInfo)
}

// ExtrinsicFailed returns System.ExtrinsicFailed event record with
// DispatchError::Module error of the given pallet.
func ExtrinsicFailed(idx uint32, pallet, errIndex uint8) []byte {
	dispatchErr := []byte{3, pallet, errIndex, 0, 0, 0}
	return record(applyExtrinsic(idx), SystemIndex, 1, dispatchErr, dispatchInfo)
}

// ExtrinsicFailedBadOrigin returns System.ExtrinsicFailed event record with
// DispatchError::BadOrigin.
func ExtrinsicFailedBadOrigin(idx uint32) []byte {
	return record(applyExtrinsic(idx), SystemIndex, 1, []byte{2}, dispatchInfo)
}

// Transfer returns Balances.Transfer event record.
func Transfer(idx uint32, from, to util.AccountID, amount *big.Int) []byte {
	return record(applyExtrinsic(idx), BalancesIndex, 2, from.Bytes(), to.Bytes(), U128(amount))
}

// DataSubmitted returns DataAvailability.DataSubmitted event record.
func DataSubmitted(idx uint32, who util.AccountID, dataHash util.H256) []byte {
	return record(applyExtrinsic(idx), DataAvailabilityIndex, 1, who.Bytes(), dataHash.Bytes())
}

// ApplicationKeyCreated returns DataAvailability.ApplicationKeyCreated event
// record.
func ApplicationKeyCreated(idx uint32, key []byte, owner util.AccountID, id uint32) []byte {
	return record(applyExtrinsic(idx), DataAvailabilityIndex, 0, Bytes(key), owner.Bytes(), Compact(uint64(id)))
}

// Remarked returns System.Remarked event record.
func Remarked(idx uint32, sender util.AccountID, h util.H256) []byte {
	return record(applyExtrinsic(idx), SystemIndex, 7, sender.Bytes(), h.Bytes())
}

// BatchCompleted returns Utility.BatchCompleted event record.
func BatchCompleted(idx uint32) []byte {
	return record(applyExtrinsic(idx), UtilityIndex, 1)
}

// Finalization returns System.NewAccount event record in the Finalization
// phase.
func Finalization(acc util.AccountID) []byte {
	return record([]byte{1}, SystemIndex, 3, acc.Bytes())
}

// BatchInterrupted returns Utility.BatchInterrupted event record with
// DispatchError::Module error of the given pallet.
func BatchInterrupted(idx, callIdx uint32, pallet, errIndex uint8) []byte {
	dispatchErr := []byte{3, pallet, errIndex, 0, 0, 0}
	return record(applyExtrinsic(idx), UtilityIndex, 0, binary.LittleEndian.AppendUint32(nil, callIdx), dispatchErr)
}

// Bonded returns Staking.Bonded event record.
func Bonded(idx uint32, stash util.AccountID, amount *big.Int) []byte {
	return record(applyExtrinsic(idx), StakingIndex, 7, stash.Bytes(), U128(amount))
}
