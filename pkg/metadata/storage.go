package metadata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
)

// ErrKeyNotRecoverable is returned when the storage key was hashed with
// a non-concatenating hasher, so the original key can't be extracted.
var ErrKeyNotRecoverable = errors.New("storage key is not recoverable")

// StoragePrefix returns Twox128(pallet prefix) || Twox128(item), the common
// prefix of all keys of the given storage entry.
func (m *Metadata) StoragePrefix(pallet, item string) ([]byte, error) {
	p, _, err := m.StorageEntry(pallet, item)
	if err != nil {
		return nil, err
	}
	return storagePrefix(p.StoragePrefix, item), nil
}

func storagePrefix(prefix, item string) []byte {
	return append(hash.Twox128([]byte(prefix)), hash.Twox128([]byte(item))...)
}

// StorageKey builds the storage key for the given entry. keys are
// SCALE-encoded map keys, one per entry hasher; plain values take no keys.
// Fewer keys than hashers produce a partial key usable as an iteration
// prefix.
func (m *Metadata) StorageKey(pallet, item string, keys ...[]byte) ([]byte, error) {
	p, e, err := m.StorageEntry(pallet, item)
	if err != nil {
		return nil, err
	}
	if len(keys) > len(e.Hashers) {
		return nil, fmt.Errorf("%s.%s: %d keys given, %d expected", pallet, item, len(keys), len(e.Hashers))
	}
	res := storagePrefix(p.StoragePrefix, item)
	for i, k := range keys {
		res = append(res, e.Hashers[i].Hash(k)...)
	}
	return res, nil
}

// DecodeStorageKey extracts map keys from the full storage key of the given
// entry. Keys are returned SCALE-decoded. Every hasher must be a
// concatenating one.
func (m *Metadata) DecodeStorageKey(pallet, item string, key []byte) ([]Value, error) {
	p, e, err := m.StorageEntry(pallet, item)
	if err != nil {
		return nil, err
	}
	prefix := storagePrefix(p.StoragePrefix, item)
	if !bytes.HasPrefix(key, prefix) {
		return nil, fmt.Errorf("key doesn't belong to %s.%s", pallet, item)
	}
	key = key[len(prefix):]
	if len(e.Hashers) == 0 {
		return nil, nil
	}
	keyTypes := []int64{e.Key}
	if len(e.Hashers) > 1 {
		t, err := m.Type(e.Key)
		if err != nil {
			return nil, err
		}
		if t.Kind != DefTuple || len(t.Tuple) != len(e.Hashers) {
			return nil, fmt.Errorf("%s.%s: key type doesn't match hashers", pallet, item)
		}
		keyTypes = t.Tuple
	}
	res := make([]Value, 0, len(keyTypes))
	for i, h := range e.Hashers {
		if !h.Concat() {
			return nil, fmt.Errorf("%w: %s hasher", ErrKeyNotRecoverable, h)
		}
		if len(key) < h.Size() {
			return nil, errors.New("storage key is too short")
		}
		key = key[h.Size():]
		v, n, err := m.Decode(keyTypes[i], key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		key = key[n:]
		res = append(res, v)
	}
	if len(key) != 0 {
		return nil, fmt.Errorf("%w: %d bytes left in the key", ErrTrailingData, len(key))
	}
	return res, nil
}

// DecodeStorageValue decodes the raw storage value of the given entry. nil
// raw means that there is no value in the storage, then Optional entries
// return nil and the others return the decoded default.
func (m *Metadata) DecodeStorageValue(pallet, item string, raw []byte) (*Value, error) {
	_, e, err := m.StorageEntry(pallet, item)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		if e.Optional {
			return nil, nil
		}
		raw = e.Fallback
	}
	v, err := m.DecodeAll(e.Value, raw)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", pallet, item, err)
	}
	return &v, nil
}
