package block

import (
	"encoding/json"

	"github.com/nspcc-dev/avail-go/pkg/util"
)

// Header is the block header as it's returned by the node. Avail-specific
// header extension (data availability commitments) is kept raw.
type Header struct {
	ParentHash     util.H256        `json:"parentHash"`
	Number         util.BlockNumber `json:"number"`
	StateRoot      util.H256        `json:"stateRoot"`
	ExtrinsicsRoot util.H256        `json:"extrinsicsRoot"`
	Digest         Digest           `json:"digest"`
	Extension      json.RawMessage  `json:"extension,omitempty"`
}

// Digest is a set of SCALE-encoded header digest items.
type Digest struct {
	Logs []util.HexBytes `json:"logs"`
}

// Raw is a block as it's returned by chain_getBlock.
type Raw struct {
	Block struct {
		Header     Header          `json:"header"`
		Extrinsics []util.HexBytes `json:"extrinsics"`
	} `json:"block"`
	Justifications json.RawMessage `json:"justifications,omitempty"`
}
