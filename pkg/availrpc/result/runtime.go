/*
Package result contains types returned by Avail node RPC methods.
*/
package result

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/avail-go/pkg/util"
)

type (
	// RuntimeVersion is the state_getRuntimeVersion result.
	RuntimeVersion struct {
		SpecName           string          `json:"specName"`
		ImplName           string          `json:"implName"`
		AuthoringVersion   uint32          `json:"authoringVersion"`
		SpecVersion        uint32          `json:"specVersion"`
		ImplVersion        uint32          `json:"implVersion"`
		Apis               json.RawMessage `json:"apis,omitempty"`
		TransactionVersion uint32          `json:"transactionVersion"`
		StateVersion       uint8           `json:"stateVersion"`
	}

	// Health is the system_health result.
	Health struct {
		Peers           int  `json:"peers"`
		IsSyncing       bool `json:"isSyncing"`
		ShouldHavePeers bool `json:"shouldHavePeers"`
	}

	// ChainProperties is the system_properties result. Fields are optional
	// on the node side, so they're pointers.
	ChainProperties struct {
		SS58Format    *uint16 `json:"ss58Format,omitempty"`
		TokenDecimals *uint8  `json:"tokenDecimals,omitempty"`
		TokenSymbol   *string `json:"tokenSymbol,omitempty"`
	}

	// chainPropertiesAux is used to handle both scalar and array (for
	// multi-token chains) property values.
	chainPropertiesAux struct {
		SS58Format    *uint16         `json:"ss58Format"`
		TokenDecimals json.RawMessage `json:"tokenDecimals"`
		TokenSymbol   json.RawMessage `json:"tokenSymbol"`
	}

	// FeeInfo is the payment_queryInfo result.
	FeeInfo struct {
		Weight     Weight  `json:"weight"`
		Class      string  `json:"class"`
		PartialFee Balance `json:"partialFee"`
	}

	// Weight is a two-dimensional dispatch weight.
	Weight struct {
		RefTime   uint64 `json:"ref_time"`
		ProofSize uint64 `json:"proof_size"`
	}

	// Balance is a u128 amount that's marshalled as a decimal string.
	Balance struct {
		big.Int
	}

	// StorageChangeSet is an item of the state_queryStorageAt result. Nil
	// values are missing ones.
	StorageChangeSet struct {
		Block   util.H256
		Changes []StorageChange
	}

	// StorageChange is a storage key with its value at some block.
	StorageChange struct {
		Key   util.HexBytes
		Value util.HexBytes
	}
)

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *ChainProperties) UnmarshalJSON(data []byte) error {
	var aux chainPropertiesAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.SS58Format = aux.SS58Format
	if len(aux.TokenDecimals) != 0 && string(aux.TokenDecimals) != "null" {
		var d uint8
		if err := firstOf(aux.TokenDecimals, &d); err != nil {
			return fmt.Errorf("tokenDecimals: %w", err)
		}
		p.TokenDecimals = &d
	}
	if len(aux.TokenSymbol) != 0 && string(aux.TokenSymbol) != "null" {
		var s string
		if err := firstOf(aux.TokenSymbol, &s); err != nil {
			return fmt.Errorf("tokenSymbol: %w", err)
		}
		p.TokenSymbol = &s
	}
	return nil
}

// firstOf unmarshals either a scalar or the first element of an array.
func firstOf(data json.RawMessage, v any) error {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) == 0 {
			return nil
		}
		data = arr[0]
	}
	return json.Unmarshal(data, v)
}

// MarshalJSON implements the json.Marshaler interface.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Int.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface. Both decimal
// strings and numbers (including 0x-prefixed hex strings) are accepted.
func (b *Balance) UnmarshalJSON(data []byte) error {
	s := string(data)
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s = str
	}
	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	if _, ok := b.Int.SetString(s, base); !ok {
		return fmt.Errorf("invalid balance %q", string(data))
	}
	return nil
}

type storageChangeSetAux struct {
	Block   util.H256          `json:"block"`
	Changes [][]*util.HexBytes `json:"changes"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *StorageChangeSet) UnmarshalJSON(data []byte) error {
	var aux storageChangeSetAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Block = aux.Block
	s.Changes = make([]StorageChange, 0, len(aux.Changes))
	for i, c := range aux.Changes {
		if len(c) != 2 || c[0] == nil {
			return fmt.Errorf("malformed change %d", i)
		}
		ch := StorageChange{Key: *c[0]}
		if c[1] != nil {
			ch.Value = *c[1]
		}
		s.Changes = append(s.Changes, ch)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (s StorageChangeSet) MarshalJSON() ([]byte, error) {
	aux := storageChangeSetAux{Block: s.Block, Changes: make([][]*util.HexBytes, 0, len(s.Changes))}
	for i := range s.Changes {
		c := []*util.HexBytes{&s.Changes[i].Key, nil}
		if s.Changes[i].Value != nil {
			c[1] = &s.Changes[i].Value
		}
		aux.Changes = append(aux.Changes, c)
	}
	return json.Marshal(aux)
}
