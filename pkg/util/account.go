package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AccountIDSize is the size of AccountID in bytes.
const AccountIDSize = 32

// AccountID is a 32-byte account identifier (sr25519/ed25519 public key).
type AccountID [AccountIDSize]byte

// AccountIDDecodeBytes creates an AccountID from the given slice.
func AccountIDDecodeBytes(b []byte) (a AccountID, err error) {
	if len(b) != AccountIDSize {
		return a, fmt.Errorf("expected []byte of size %d got %d", AccountIDSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AccountIDDecodeString decodes 0x-prefixed or bare hex string into an
// AccountID. SS58 addresses are handled by the address package.
func AccountIDDecodeString(s string) (a AccountID, err error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return a, err
	}
	return AccountIDDecodeBytes(b)
}

// Bytes returns a copy of the identifier as a byte slice.
func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDSize)
	copy(b, a[:])
	return b
}

// IsZero checks whether a is all zeroes.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// String returns 0x-prefixed hex representation of the identifier.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalJSON implements the json.Marshaler interface.
func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *AccountID) UnmarshalJSON(data []byte) (err error) {
	var s string
	if err = json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a, err = AccountIDDecodeString(s)
	return err
}
