/*
Package metadata provides access to the runtime metadata (V14) of a
Substrate-based chain: pallets with their calls, events, errors, storage
entries and constants along with the portable type registry and a decoder
that can decode any SCALE-encoded value described by it.
*/
package metadata

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
)

// NoType is used for absent type references (like pallets without calls).
const NoType int64 = -1

var (
	// ErrPalletNotFound is returned when there is no pallet with the given
	// name or index.
	ErrPalletNotFound = errors.New("pallet not found")
	// ErrCallNotFound is returned when pallet has no call with the given name.
	ErrCallNotFound = errors.New("call not found")
	// ErrStorageNotFound is returned when pallet has no such storage entry.
	ErrStorageNotFound = errors.New("storage entry not found")
	// ErrConstantNotFound is returned when pallet has no such constant.
	ErrConstantNotFound = errors.New("constant not found")
)

type (
	// Metadata is the runtime metadata.
	Metadata struct {
		Types   Registry
		Pallets []*Pallet

		byName  map[string]*Pallet
		byIndex map[uint8]*Pallet
	}

	// Pallet describes a single runtime pallet.
	Pallet struct {
		Name  string
		Index uint8
		// Calls, Events and Errors are IDs of the corresponding enum types
		// or NoType.
		Calls  int64
		Events int64
		Errors int64

		StoragePrefix string
		Storage       []StorageEntry
		Constants     []Constant
	}

	// StorageEntry describes a storage item.
	StorageEntry struct {
		Name string
		// Optional entries return nothing for missing keys, non-optional
		// ones return Fallback.
		Optional bool
		Fallback []byte
		// Hashers are empty for plain storage values.
		Hashers []hash.Hasher
		// Key is the key type (a tuple for N-maps), only valid for maps.
		Key   int64
		Value int64
	}

	// Constant is a pallet constant with SCALE-encoded value.
	Constant struct {
		Name   string
		TypeID int64
		Value  []byte
	}
)

// New creates Metadata from the given registry and pallets.
func New(types Registry, pallets []*Pallet) *Metadata {
	m := &Metadata{
		Types:   types,
		Pallets: pallets,
		byName:  make(map[string]*Pallet, len(pallets)),
		byIndex: make(map[uint8]*Pallet, len(pallets)),
	}
	for _, p := range pallets {
		m.byName[p.Name] = p
		m.byIndex[p.Index] = p
	}
	return m
}

// Pallet returns the pallet with the given name.
func (m *Metadata) Pallet(name string) (*Pallet, error) {
	p, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPalletNotFound, name)
	}
	return p, nil
}

// PalletByIndex returns the pallet with the given index.
func (m *Metadata) PalletByIndex(idx uint8) (*Pallet, error) {
	p, ok := m.byIndex[idx]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrPalletNotFound, idx)
	}
	return p, nil
}

// Type returns the type definition for the given ID.
func (m *Metadata) Type(id int64) (*TypeDef, error) {
	t, ok := m.Types[id]
	if !ok {
		return nil, fmt.Errorf("unknown type #%d", id)
	}
	return t, nil
}

// CallIndex returns pallet and call indexes for the given call of the given
// pallet.
func (m *Metadata) CallIndex(pallet, call string) (uint8, uint8, error) {
	p, err := m.Pallet(pallet)
	if err != nil {
		return 0, 0, err
	}
	v, err := m.palletVariant(p.Calls, call)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s.%s", ErrCallNotFound, pallet, call)
	}
	return p.Index, v.Index, nil
}

// CallName returns pallet and call names for the given indexes.
func (m *Metadata) CallName(palletIdx, callIdx uint8) (string, string, error) {
	return m.variantName(palletIdx, callIdx, func(p *Pallet) int64 { return p.Calls })
}

// EventName returns pallet and event names for the given indexes.
func (m *Metadata) EventName(palletIdx, eventIdx uint8) (string, string, error) {
	return m.variantName(palletIdx, eventIdx, func(p *Pallet) int64 { return p.Events })
}

// ErrorName returns pallet and error names for the given indexes (as they're
// found in DispatchError::Module).
func (m *Metadata) ErrorName(palletIdx, errIdx uint8) (string, string, error) {
	return m.variantName(palletIdx, errIdx, func(p *Pallet) int64 { return p.Errors })
}

// StorageEntry returns the storage entry description.
func (m *Metadata) StorageEntry(pallet, item string) (*Pallet, *StorageEntry, error) {
	p, err := m.Pallet(pallet)
	if err != nil {
		return nil, nil, err
	}
	for i := range p.Storage {
		if p.Storage[i].Name == item {
			return p, &p.Storage[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s.%s", ErrStorageNotFound, pallet, item)
}

// Constant returns the decoded value of the given pallet constant.
func (m *Metadata) Constant(pallet, name string) (*Value, error) {
	p, err := m.Pallet(pallet)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Constants {
		if c.Name == name {
			v, _, err := m.Decode(c.TypeID, c.Value)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", pallet, name, err)
			}
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrConstantNotFound, pallet, name)
}

func (m *Metadata) palletVariant(typeID int64, name string) (*Variant, error) {
	if typeID == NoType {
		return nil, errors.New("no such enum")
	}
	t, err := m.Type(typeID)
	if err != nil {
		return nil, err
	}
	v, ok := t.VariantByName(name)
	if !ok {
		return nil, fmt.Errorf("no variant %s", name)
	}
	return v, nil
}

func (m *Metadata) variantName(palletIdx, idx uint8, typ func(*Pallet) int64) (string, string, error) {
	p, err := m.PalletByIndex(palletIdx)
	if err != nil {
		return "", "", err
	}
	id := typ(p)
	if id == NoType {
		return "", "", fmt.Errorf("pallet %s has no such enum", p.Name)
	}
	t, err := m.Type(id)
	if err != nil {
		return "", "", err
	}
	v, ok := t.Variant(idx)
	if !ok {
		return "", "", fmt.Errorf("pallet %s has no variant #%d", p.Name, idx)
	}
	return p.Name, v.Name, nil
}
