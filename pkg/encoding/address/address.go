/*
Package address implements SS58 address encoding used by Substrate-based
chains to represent account identifiers.
*/
package address

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// DefaultPrefix is the generic Substrate network prefix used by Avail.
const DefaultPrefix uint16 = 42

// maxPrefix is the maximum prefix that can be encoded by SS58.
const maxPrefix = 16383

var (
	checksumPrefix = []byte("SS58PRE")

	// ErrInvalidChecksum is returned for addresses with mismatching checksum.
	ErrInvalidChecksum = errors.New("invalid SS58 checksum")
)

// Encode returns the SS58 address of the given account for the network
// identified by prefix. It panics if prefix is out of SS58 range.
func Encode(id util.AccountID, prefix uint16) string {
	if prefix > maxPrefix {
		panic(fmt.Sprintf("SS58 prefix %d is too big", prefix))
	}
	b := append(encodePrefix(prefix), id[:]...)
	b = append(b, checksum(b)...)
	return base58.Encode(b)
}

// EncodeDefault returns the SS58 address of the given account with
// DefaultPrefix.
func EncodeDefault(id util.AccountID) string {
	return Encode(id, DefaultPrefix)
}

// Decode decodes the given SS58 address into an account identifier and the
// network prefix.
func Decode(s string) (util.AccountID, uint16, error) {
	var id util.AccountID

	b, err := base58.Decode(s)
	if err != nil {
		return id, 0, fmt.Errorf("invalid base58: %w", err)
	}
	if len(b) < 1 {
		return id, 0, errors.New("empty address")
	}
	var (
		prefix    uint16
		prefixLen = 1
	)
	switch {
	case b[0] < 64:
		prefix = uint16(b[0])
	case b[0] < 128:
		if len(b) < 2 {
			return id, 0, errors.New("address is too short")
		}
		lower := (b[0] << 2) | (b[1] >> 6)
		upper := b[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return id, 0, fmt.Errorf("invalid SS58 prefix byte %d", b[0])
	}
	if len(b) != prefixLen+util.AccountIDSize+2 {
		return id, 0, fmt.Errorf("unexpected address length %d", len(b))
	}
	body := b[:len(b)-2]
	if !bytes.Equal(checksum(body), b[len(b)-2:]) {
		return id, 0, ErrInvalidChecksum
	}
	copy(id[:], body[prefixLen:])
	return id, prefix, nil
}

// StringToAccountID converts SS58 address or 0x-prefixed hex string into an
// account identifier.
func StringToAccountID(s string) (util.AccountID, error) {
	if strings.HasPrefix(s, "0x") {
		return util.AccountIDDecodeString(s)
	}
	id, _, err := Decode(s)
	return id, err
}

func encodePrefix(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	first := byte((prefix&0xfc)>>2) | 0x40
	second := byte(prefix>>8) | byte((prefix&0x03)<<6)
	return []byte{first, second}
}

func checksum(data []byte) []byte {
	return hash.Blake2b512(append(append([]byte{}, checksumPrefix...), data...))[:2]
}
