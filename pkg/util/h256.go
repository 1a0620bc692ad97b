/*
Package util contains fixed-size hash and account identifier types used across
the SDK along with their hex and JSON representations.
*/
package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// H256Size is the size of H256 in bytes.
const H256Size = 32

// H256 is a 32 byte long hash (block hash, extrinsic hash, state root). Byte
// order is the one used on the wire, there is no reversal.
type H256 [H256Size]byte

// H256DecodeString attempts to decode the given hex string (with or without
// 0x prefix) into an H256.
func H256DecodeString(s string) (u H256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != H256Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", H256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return H256DecodeBytes(b)
}

// H256DecodeBytes attempts to decode the given bytes into an H256.
func H256DecodeBytes(b []byte) (u H256, err error) {
	if len(b) != H256Size {
		return u, fmt.Errorf("expected []byte of size %d got %d", H256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Bytes returns a byte slice representation of u.
func (u H256) Bytes() []byte {
	b := make([]byte, H256Size)
	copy(b, u[:])
	return b
}

// Equals returns true if both H256 values are the same.
func (u H256) Equals(other H256) bool {
	return u == other
}

// IsZero checks whether u is all zeroes.
func (u H256) IsZero() bool {
	return u == H256{}
}

// String implements the stringer interface, the result is 0x-prefixed hex.
func (u H256) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *H256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = H256DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u H256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// MarshalText implements the encoding.TextMarshaler interface.
func (u H256) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (u *H256) UnmarshalText(text []byte) (err error) {
	*u, err = H256DecodeString(string(text))
	return err
}
