package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BlockNumber is a block height. Nodes return it as a hex string in headers,
// but plain JSON numbers are accepted as well.
type BlockNumber uint32

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *BlockNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var u uint32
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("invalid block number %s", string(data))
		}
		*n = BlockNumber(u)
		return nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return fmt.Errorf("invalid block number %q: %w", s, err)
	}
	*n = BlockNumber(v)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (n BlockNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + strconv.FormatUint(uint64(n), 16))
}

// HexBytes is a byte slice that is represented as 0x-prefixed hex in JSON.
type HexBytes []byte

// HexBytesDecodeString decodes 0x-prefixed or bare hex string.
func HexBytesDecodeString(s string) (HexBytes, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// String implements the fmt.Stringer interface.
func (h HexBytes) String() string {
	return "0x" + hex.EncodeToString(h)
}

// MarshalJSON implements the json.Marshaler interface.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := HexBytesDecodeString(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}
