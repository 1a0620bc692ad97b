package metadata

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/nspcc-dev/avail-go/pkg/crypto/hash"
)

// NewFromHex decodes metadata from 0x-prefixed hex string as it's returned
// by the state_getMetadata RPC call.
func NewFromHex(s string) (*Metadata, error) {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	var meta types.Metadata
	if err := codec.DecodeFromHex(s, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return fromSubstrate(&meta)
}

// NewFromBytes decodes metadata from its SCALE representation.
func NewFromBytes(b []byte) (*Metadata, error) {
	var meta types.Metadata
	if err := codec.Decode(b, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return fromSubstrate(&meta)
}

func fromSubstrate(meta *types.Metadata) (*Metadata, error) {
	if meta.Version != 14 {
		return nil, fmt.Errorf("unsupported metadata version %d", meta.Version)
	}
	v14 := &meta.AsMetadataV14
	reg := make(Registry, len(v14.Lookup.Types))
	for i := range v14.Lookup.Types {
		pt := &v14.Lookup.Types[i]
		id := lookupID(&pt.ID)
		def, err := convertType(&pt.Type)
		if err != nil {
			return nil, fmt.Errorf("type #%d: %w", id, err)
		}
		reg[id] = def
	}
	pallets := make([]*Pallet, 0, len(v14.Pallets))
	for i := range v14.Pallets {
		pallets = append(pallets, convertPallet(&v14.Pallets[i]))
	}
	return New(reg, pallets), nil
}

func lookupID(id *types.Si1LookupTypeID) int64 {
	v := big.Int(id.UCompact)
	return v.Int64()
}

func convertType(t *types.Si1Type) (*TypeDef, error) {
	def := &TypeDef{Path: make([]string, 0, len(t.Path))}
	for _, p := range t.Path {
		def.Path = append(def.Path, string(p))
	}
	d := &t.Def
	switch {
	case d.IsComposite:
		def.Kind = DefComposite
		def.Fields = convertFields(d.Composite.Fields)
	case d.IsVariant:
		def.Kind = DefVariant
		def.Variants = make([]Variant, 0, len(d.Variant.Variants))
		for i := range d.Variant.Variants {
			v := &d.Variant.Variants[i]
			def.Variants = append(def.Variants, Variant{
				Name:   string(v.Name),
				Index:  uint8(v.Index),
				Fields: convertFields(v.Fields),
			})
		}
	case d.IsSequence:
		def.Kind = DefSequence
		def.Elem = lookupID(&d.Sequence.Type)
	case d.IsArray:
		def.Kind = DefArray
		def.Len = uint32(d.Array.Len)
		def.Elem = lookupID(&d.Array.Type)
	case d.IsTuple:
		def.Kind = DefTuple
		def.Tuple = make([]int64, 0, len(d.Tuple))
		for i := range d.Tuple {
			def.Tuple = append(def.Tuple, lookupID(&d.Tuple[i]))
		}
	case d.IsPrimitive:
		def.Kind = DefPrimitive
		def.Primitive = Primitive(d.Primitive.Si0TypeDefPrimitive)
	case d.IsCompact:
		def.Kind = DefCompact
		def.Elem = lookupID(&d.Compact.Type)
	case d.IsBitSequence:
		def.Kind = DefBitSequence
		def.Elem = lookupID(&d.BitSequence.BitStoreType)
	default:
		return nil, errors.New("unsupported type definition")
	}
	return def, nil
}

func convertFields(fields []types.Si1Field) []Field {
	res := make([]Field, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		res = append(res, Field{
			Name:     string(f.Name),
			TypeName: string(f.TypeName),
			TypeID:   lookupID(&f.Type),
		})
	}
	return res
}

func convertPallet(p *types.PalletMetadataV14) *Pallet {
	res := &Pallet{
		Name:   string(p.Name),
		Index:  uint8(p.Index),
		Calls:  NoType,
		Events: NoType,
		Errors: NoType,
	}
	if p.HasCalls {
		res.Calls = lookupID(&p.Calls.Type)
	}
	if p.HasEvents {
		res.Events = lookupID(&p.Events.Type)
	}
	if p.HasErrors {
		res.Errors = lookupID(&p.Errors.Type)
	}
	if p.HasStorage {
		res.StoragePrefix = string(p.Storage.Prefix)
		res.Storage = make([]StorageEntry, 0, len(p.Storage.Items))
		for i := range p.Storage.Items {
			it := &p.Storage.Items[i]
			e := StorageEntry{
				Name:     string(it.Name),
				Optional: it.Modifier.IsOptional,
				Fallback: []byte(it.Fallback),
				Key:      NoType,
			}
			if it.Type.IsMap {
				e.Key = lookupID(&it.Type.AsMap.Key)
				e.Value = lookupID(&it.Type.AsMap.Value)
				for _, h := range it.Type.AsMap.Hashers {
					e.Hashers = append(e.Hashers, convertHasher(h))
				}
			} else {
				e.Value = lookupID(&it.Type.AsPlainType)
			}
			res.Storage = append(res.Storage, e)
		}
	}
	for i := range p.Constants {
		c := &p.Constants[i]
		res.Constants = append(res.Constants, Constant{
			Name:   string(c.Name),
			TypeID: lookupID(&c.Type),
			Value:  []byte(c.Value),
		})
	}
	return res
}

func convertHasher(h types.StorageHasherV10) hash.Hasher {
	switch {
	case h.IsBlake2_128:
		return hash.Blake2_128
	case h.IsBlake2_256:
		return hash.Blake2_256
	case h.IsBlake2_128Concat:
		return hash.Blake2_128Concat
	case h.IsTwox128:
		return hash.Twox128Hasher
	case h.IsTwox256:
		return hash.Twox256Hasher
	case h.IsTwox64Concat:
		return hash.Twox64Concat
	default:
		return hash.Identity
	}
}
