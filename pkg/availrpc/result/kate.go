package result

import (
	"encoding/json"

	"github.com/nspcc-dev/avail-go/pkg/util"
)

type (
	// BlockLength is the kate_blockLength result.
	BlockLength struct {
		Max       PerDispatchClass `json:"max"`
		Cols      uint32           `json:"cols"`
		Rows      uint32           `json:"rows"`
		ChunkSize uint32           `json:"chunkSize"`
	}

	// PerDispatchClass holds a value for each dispatch class.
	PerDispatchClass struct {
		Normal      uint32 `json:"normal"`
		Operational uint32 `json:"operational"`
		Mandatory   uint32 `json:"mandatory"`
	}

	// ProofResponse is the kate_queryDataProof result.
	ProofResponse struct {
		DataProof DataProof `json:"dataProof"`
		// Message is the bridge message (if the transaction was a bridge
		// one), it's kept raw.
		Message json.RawMessage `json:"message,omitempty"`
	}

	// DataProof is a Merkle proof of the submitted data inclusion.
	DataProof struct {
		Roots          DataRoots   `json:"roots"`
		Proof          []util.H256 `json:"proof"`
		NumberOfLeaves uint32      `json:"numberOfLeaves"`
		LeafIndex      uint32      `json:"leafIndex"`
		Leaf           util.H256   `json:"leaf"`
	}

	// DataRoots are the data root and its components.
	DataRoots struct {
		DataRoot   util.H256 `json:"dataRoot"`
		BlobRoot   util.H256 `json:"blobRoot"`
		BridgeRoot util.H256 `json:"bridgeRoot"`
	}
)
