package testserdes

import (
	"encoding/json"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/stretchr/testify/require"
)

// MarshalUnmarshalJSON checks if expected stays the same after
// marshal/unmarshal via JSON.
func MarshalUnmarshalJSON(t *testing.T, expected, actual any) {
	data, err := json.Marshal(expected)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, actual))
	require.Equal(t, expected, actual)
}

// EncodeDecode checks if expected stays the same after SCALE
// serializing/deserializing. actual must be a pointer.
func EncodeDecode(t *testing.T, expected, actual any) {
	data, err := Encode(expected)
	require.NoError(t, err)
	require.NoError(t, Decode(data, actual))
	require.Equal(t, expected, actual)
}

// Encode SCALE-serializes a to a byte slice.
func Encode(a any) ([]byte, error) {
	return codec.Encode(a)
}

// Decode SCALE-deserializes a from a byte slice.
func Decode(data []byte, a any) error {
	return codec.Decode(data, a)
}
