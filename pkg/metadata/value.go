package metadata

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/avail-go/pkg/util"
	json "github.com/nspcc-dev/go-ordered-json"
)

// Kind is the kind of decoded Value.
type Kind byte

// Value kinds.
const (
	// KindComposite is a struct or a tuple, Items are fields (Names are
	// empty for unnamed ones).
	KindComposite Kind = iota
	// KindVariant is an enum value, VariantName and VariantIndex identify
	// the variant, Items are its fields.
	KindVariant
	// KindSequence is a vector or an array of non-byte elements.
	KindSequence
	KindBool
	// KindUint and KindInt are integers of any size stored in Num, compact
	// values are KindUint too.
	KindUint
	KindInt
	// KindString is a str or char.
	KindString
	// KindBytes is a Vec<u8>, [u8; N] or a bit sequence.
	KindBytes
)

// ErrWrongKind is returned from accessors applied to values of inappropriate
// kind.
var ErrWrongKind = errors.New("wrong value kind")

// Value is a dynamically decoded SCALE value.
type Value struct {
	TypeID int64
	Kind   Kind

	VariantName  string
	VariantIndex uint8

	Names []string
	Items []Value

	Bool bool
	Num  *big.Int
	Text string
	Raw  []byte
}

// Field returns the named field of a composite or variant value.
func (v *Value) Field(name string) (*Value, bool) {
	for i := range v.Names {
		if v.Names[i] == name {
			return &v.Items[i], true
		}
	}
	return nil, false
}

// MustField is like Field, but returns an error for missing fields.
func (v *Value) MustField(name string) (*Value, error) {
	f, ok := v.Field(name)
	if !ok {
		return nil, fmt.Errorf("no field %q", name)
	}
	return f, nil
}

// Index returns i-th item of a composite, variant or sequence.
func (v *Value) Index(i int) (*Value, bool) {
	if i < 0 || i >= len(v.Items) {
		return nil, false
	}
	return &v.Items[i], true
}

// Len returns the number of items (or bytes for KindBytes).
func (v *Value) Len() int {
	if v.Kind == KindBytes {
		return len(v.Raw)
	}
	return len(v.Items)
}

// Unwrap descends into single-field composites (newtypes like
// AccountId32([u8; 32]) or Perbill(u32)) and returns the innermost value.
func (v *Value) Unwrap() *Value {
	for v.Kind == KindComposite && len(v.Items) == 1 {
		v = &v.Items[0]
	}
	return v
}

// Variant returns the variant name for enum values.
func (v *Value) Variant() (string, error) {
	u := v.Unwrap()
	if u.Kind != KindVariant {
		return "", fmt.Errorf("%w: variant expected", ErrWrongKind)
	}
	return u.VariantName, nil
}

// BigInt returns integer value.
func (v *Value) BigInt() (*big.Int, error) {
	u := v.Unwrap()
	if u.Kind != KindUint && u.Kind != KindInt {
		return nil, fmt.Errorf("%w: integer expected", ErrWrongKind)
	}
	return new(big.Int).Set(u.Num), nil
}

// Uint returns unsigned integer value that fits into uint64.
func (v *Value) Uint() (uint64, error) {
	u := v.Unwrap()
	if u.Kind != KindUint {
		return 0, fmt.Errorf("%w: unsigned integer expected", ErrWrongKind)
	}
	if !u.Num.IsUint64() {
		return 0, errors.New("integer overflows uint64")
	}
	return u.Num.Uint64(), nil
}

// Boolean returns boolean value.
func (v *Value) Boolean() (bool, error) {
	u := v.Unwrap()
	if u.Kind != KindBool {
		return false, fmt.Errorf("%w: bool expected", ErrWrongKind)
	}
	return u.Bool, nil
}

// Bytes returns byte value.
func (v *Value) Bytes() ([]byte, error) {
	u := v.Unwrap()
	if u.Kind != KindBytes {
		return nil, fmt.Errorf("%w: bytes expected", ErrWrongKind)
	}
	return u.Raw, nil
}

// Str returns string value.
func (v *Value) Str() (string, error) {
	u := v.Unwrap()
	if u.Kind != KindString {
		return "", fmt.Errorf("%w: string expected", ErrWrongKind)
	}
	return u.Text, nil
}

// AccountID returns 32-byte account identifier. MultiAddress::Id values are
// accepted too.
func (v *Value) AccountID() (util.AccountID, error) {
	u := v.Unwrap()
	if u.Kind == KindVariant && u.VariantName == "Id" && len(u.Items) == 1 {
		u = u.Items[0].Unwrap()
	}
	b, err := u.Bytes()
	if err != nil {
		return util.AccountID{}, err
	}
	return util.AccountIDDecodeBytes(b)
}

// H256 returns 32-byte hash value.
func (v *Value) H256() (util.H256, error) {
	b, err := v.Bytes()
	if err != nil {
		return util.H256{}, err
	}
	return util.H256DecodeBytes(b)
}

// MarshalJSON implements the json.Marshaler interface. Named fields are
// emitted in declaration order, integers not fitting into 2^53 are strings,
// bytes are 0x-prefixed hex, field-less variants are just their names.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.jsonValue())
}

const maxSafeInt = 1<<53 - 1

func (v *Value) jsonValue() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindUint, KindInt:
		if v.Num.IsInt64() && v.Num.Int64() <= maxSafeInt && v.Num.Int64() >= -maxSafeInt {
			return v.Num.Int64()
		}
		return v.Num.String()
	case KindString:
		return v.Text
	case KindBytes:
		return "0x" + hex.EncodeToString(v.Raw)
	case KindSequence:
		return v.itemsJSON()
	case KindVariant:
		if len(v.Items) == 0 {
			return v.VariantName
		}
		obj := make(json.OrderedObject, 1)
		obj[0].Key = v.VariantName
		obj[0].Value = v.fieldsJSON()
		return obj
	default:
		return v.fieldsJSON()
	}
}

func (v *Value) fieldsJSON() any {
	if len(v.Items) == 1 && v.Names[0] == "" {
		return v.Items[0].jsonValue()
	}
	if len(v.Names) == 0 || v.Names[0] == "" {
		return v.itemsJSON()
	}
	obj := make(json.OrderedObject, len(v.Items))
	for i := range v.Items {
		obj[i].Key = v.Names[i]
		obj[i].Value = v.Items[i].jsonValue()
	}
	return obj
}

func (v *Value) itemsJSON() []any {
	res := make([]any, len(v.Items))
	for i := range v.Items {
		res[i] = v.Items[i].jsonValue()
	}
	return res
}
