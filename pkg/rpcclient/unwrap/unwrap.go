/*
Package unwrap provides a set of proxy methods to process decoded storage
and constant values.

Functions implemented there are intended to be used as wrappers for other
functions that return (*metadata.Value, error) pair (of which there are
many). These functions will check for error, check for value presence,
descend into the requested fields, cast them to appropriate type (if
everything is OK) and then return a result or error. They're mostly useful
for pallet-specific packages.
*/
package unwrap

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// ErrNoValue is returned for missing optional storage values.
var ErrNoValue = errors.New("no value")

// Item checks the error and the value presence and returns the value.
func Item(v *metadata.Value, err error) (*metadata.Value, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNoValue
	}
	return v, nil
}

// Field returns the field of the composite value following the path of
// field names.
func Field(v *metadata.Value, err error, path ...string) (*metadata.Value, error) {
	v, err = Item(v, err)
	if err != nil {
		return nil, err
	}
	for _, name := range path {
		v, err = v.MustField(name)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// BigInt expects an integer value and returns it as big.Int.
func BigInt(v *metadata.Value, err error) (*big.Int, error) {
	itm, err := Item(v, err)
	if err != nil {
		return nil, err
	}
	return itm.BigInt()
}

// Uint64 expects an unsigned integer value fitting into uint64.
func Uint64(v *metadata.Value, err error) (uint64, error) {
	itm, err := Item(v, err)
	if err != nil {
		return 0, err
	}
	return itm.Uint()
}

// Uint32 expects an unsigned integer value fitting into uint32.
func Uint32(v *metadata.Value, err error) (uint32, error) {
	n, err := Uint64(v, err)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("uint32 overflow: %d", n)
	}
	return uint32(n), nil
}

// Bool expects a boolean value.
func Bool(v *metadata.Value, err error) (bool, error) {
	itm, err := Item(v, err)
	if err != nil {
		return false, err
	}
	return itm.Boolean()
}

// Bytes expects a byte sequence or array.
func Bytes(v *metadata.Value, err error) ([]byte, error) {
	itm, err := Item(v, err)
	if err != nil {
		return nil, err
	}
	return itm.Bytes()
}

// UTF8String expects a string or a byte sequence with a valid UTF-8 string.
func UTF8String(v *metadata.Value, err error) (string, error) {
	itm, err := Item(v, err)
	if err != nil {
		return "", err
	}
	if s, err := itm.Str(); err == nil {
		return s, nil
	}
	b, err := itm.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return string(b), nil
}

// PrintableASCIIString is similar to UTF8String, but it only accepts
// printable ASCII characters.
func PrintableASCIIString(v *metadata.Value, err error) (string, error) {
	s, err := UTF8String(v, err)
	if err != nil {
		return "", err
	}
	for _, c := range s {
		if c < 32 || c >= 127 {
			return "", errors.New("not a printable ASCII string")
		}
	}
	return s, nil
}

// AccountID expects an account ID (or MultiAddress::Id) value.
func AccountID(v *metadata.Value, err error) (util.AccountID, error) {
	itm, err := Item(v, err)
	if err != nil {
		return util.AccountID{}, err
	}
	return itm.AccountID()
}

// H256 expects a 32-byte hash value.
func H256(v *metadata.Value, err error) (util.H256, error) {
	itm, err := Item(v, err)
	if err != nil {
		return util.H256{}, err
	}
	return itm.H256()
}

// Variant expects an enum value and returns its variant name.
func Variant(v *metadata.Value, err error) (string, error) {
	itm, err := Item(v, err)
	if err != nil {
		return "", err
	}
	return itm.Variant()
}
