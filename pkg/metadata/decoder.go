package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// MaxDecodeDepth is the maximum nesting level the decoder accepts.
const MaxDecodeDepth = 128

// ErrTrailingData is returned by DecodeAll for inputs that have extra bytes
// after the value.
var ErrTrailingData = errors.New("trailing data after the value")

// Call is a decoded runtime call.
type Call struct {
	PalletIndex uint8
	CallIndex   uint8
	Pallet      string
	Name        string
	// Args is the call variant value, its Items are call arguments.
	Args Value
}

type decoder struct {
	m     *Metadata
	r     *bytes.Reader
	d     *scale.Decoder
	depth int
}

func (m *Metadata) newDecoder(data []byte) *decoder {
	r := bytes.NewReader(data)
	return &decoder{m: m, r: r, d: scale.NewDecoder(r)}
}

func (d *decoder) consumed(total int) int {
	return total - d.r.Len()
}

// Decode decodes the value of the given type from the beginning of data. It
// returns the value and the number of bytes consumed.
func (m *Metadata) Decode(typeID int64, data []byte) (Value, int, error) {
	d := m.newDecoder(data)
	v, err := d.decode(typeID)
	if err != nil {
		return Value{}, 0, err
	}
	return v, d.consumed(len(data)), nil
}

// DecodeAll is like Decode, but requires the whole data to be consumed.
func (m *Metadata) DecodeAll(typeID int64, data []byte) (Value, error) {
	v, n, err := m.Decode(typeID, data)
	if err != nil {
		return Value{}, err
	}
	if n != len(data) {
		return Value{}, fmt.Errorf("%w: %d bytes left", ErrTrailingData, len(data)-n)
	}
	return v, nil
}

// DecodeCall decodes the call (pallet index, call index and arguments) from
// the beginning of data and returns the number of bytes consumed.
func (m *Metadata) DecodeCall(data []byte) (*Call, int, error) {
	if len(data) < 2 {
		return nil, 0, errors.New("call is too short")
	}
	p, err := m.PalletByIndex(data[0])
	if err != nil {
		return nil, 0, err
	}
	if p.Calls == NoType {
		return nil, 0, fmt.Errorf("pallet %s has no calls", p.Name)
	}
	d := m.newDecoder(data[1:])
	v, err := d.decode(p.Calls)
	if err != nil {
		return nil, 0, fmt.Errorf("%s call: %w", p.Name, err)
	}
	return &Call{
		PalletIndex: p.Index,
		CallIndex:   v.VariantIndex,
		Pallet:      p.Name,
		Name:        v.VariantName,
		Args:        v,
	}, 1 + d.consumed(len(data)-1), nil
}

func (d *decoder) decode(typeID int64) (Value, error) {
	if d.depth >= MaxDecodeDepth {
		return Value{}, errors.New("too deep nesting")
	}
	d.depth++
	defer func() { d.depth-- }()

	t, err := d.m.Type(typeID)
	if err != nil {
		return Value{}, err
	}
	v := Value{TypeID: typeID}
	switch t.Kind {
	case DefComposite:
		v.Kind = KindComposite
		err = d.fields(&v, t.Fields)
	case DefVariant:
		var idx byte
		idx, err = d.d.ReadOneByte()
		if err != nil {
			return v, err
		}
		vr, ok := t.Variant(idx)
		if !ok {
			return v, fmt.Errorf("type #%d (%s) has no variant %d", typeID, t.Name(), idx)
		}
		v.Kind = KindVariant
		v.VariantName = vr.Name
		v.VariantIndex = vr.Index
		err = d.fields(&v, vr.Fields)
	case DefSequence:
		var n *big.Int
		n, err = d.d.DecodeUintCompact()
		if err != nil {
			return v, err
		}
		if !n.IsInt64() || n.Int64() > int64(d.r.Len()) {
			return v, fmt.Errorf("sequence length %s exceeds the data left", n)
		}
		err = d.items(&v, t.Elem, int(n.Int64()))
	case DefArray:
		err = d.items(&v, t.Elem, int(t.Len))
	case DefTuple:
		v.Kind = KindComposite
		v.Names = make([]string, len(t.Tuple))
		v.Items = make([]Value, len(t.Tuple))
		for i, id := range t.Tuple {
			v.Items[i], err = d.decode(id)
			if err != nil {
				break
			}
		}
	case DefPrimitive:
		err = d.primitive(&v, t.Primitive)
	case DefCompact:
		v.Kind = KindUint
		v.Num, err = d.d.DecodeUintCompact()
	case DefBitSequence:
		err = d.bits(&v, t.Elem)
	default:
		err = fmt.Errorf("unknown type kind %d", t.Kind)
	}
	return v, err
}

func (d *decoder) fields(v *Value, fields []Field) error {
	v.Names = make([]string, len(fields))
	v.Items = make([]Value, len(fields))
	for i := range fields {
		var err error
		v.Names[i] = fields[i].Name
		v.Items[i], err = d.decode(fields[i].TypeID)
		if err != nil {
			return fmt.Errorf("field %q: %w", fields[i].Name, err)
		}
	}
	return nil
}

func (d *decoder) items(v *Value, elem int64, n int) error {
	if d.isByte(elem) {
		if n > d.r.Len() {
			return fmt.Errorf("%d bytes expected, %d left", n, d.r.Len())
		}
		v.Kind = KindBytes
		v.Raw = make([]byte, n)
		return d.read(v.Raw)
	}
	v.Kind = KindSequence
	v.Items = make([]Value, 0, min(n, d.r.Len()))
	for i := 0; i < n; i++ {
		item, err := d.decode(elem)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		v.Items = append(v.Items, item)
	}
	return nil
}

func (d *decoder) read(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return d.d.Read(buf)
}

func (d *decoder) isByte(id int64) bool {
	t, ok := d.m.Types[id]
	return ok && t.Kind == DefPrimitive && t.Primitive == U8
}

func (d *decoder) primitive(v *Value, p Primitive) error {
	switch p {
	case Bool:
		b, err := d.d.ReadOneByte()
		if err != nil {
			return err
		}
		if b > 1 {
			return fmt.Errorf("invalid bool byte %d", b)
		}
		v.Kind = KindBool
		v.Bool = b == 1
		return nil
	case Str:
		n, err := d.d.DecodeUintCompact()
		if err != nil {
			return err
		}
		if !n.IsInt64() || n.Int64() > int64(d.r.Len()) {
			return fmt.Errorf("string length %s exceeds the data left", n)
		}
		buf := make([]byte, n.Int64())
		if err := d.read(buf); err != nil {
			return err
		}
		if !utf8.Valid(buf) {
			return errors.New("invalid UTF-8 string")
		}
		v.Kind = KindString
		v.Text = string(buf)
		return nil
	case Char:
		buf := make([]byte, 4)
		if err := d.read(buf); err != nil {
			return err
		}
		v.Kind = KindString
		v.Text = string(rune(leUint(buf).Int64()))
		return nil
	}
	size, signed, ok := intSize(p)
	if !ok {
		return fmt.Errorf("unknown primitive %d", p)
	}
	buf := make([]byte, size)
	if err := d.read(buf); err != nil {
		return err
	}
	v.Num = leUint(buf)
	v.Kind = KindUint
	if signed {
		v.Kind = KindInt
		if buf[size-1]&0x80 != 0 {
			v.Num.Sub(v.Num, new(big.Int).Lsh(big.NewInt(1), uint(size*8)))
		}
	}
	return nil
}

func (d *decoder) bits(v *Value, store int64) error {
	n, err := d.d.DecodeUintCompact()
	if err != nil {
		return err
	}
	size := 1
	if t, ok := d.m.Types[store]; ok && t.Kind == DefPrimitive {
		if s, _, ok := intSize(t.Primitive); ok {
			size = s
		}
	}
	bits := int64(size * 8)
	if !n.IsInt64() {
		return errors.New("bit sequence is too long")
	}
	length := (n.Int64() + bits - 1) / bits * int64(size)
	if length > int64(d.r.Len()) {
		return fmt.Errorf("bit sequence of %s bits exceeds the data left", n)
	}
	v.Kind = KindBytes
	v.Raw = make([]byte, length)
	return d.read(v.Raw)
}

func intSize(p Primitive) (int, bool, bool) {
	switch p {
	case U8:
		return 1, false, true
	case U16:
		return 2, false, true
	case U32:
		return 4, false, true
	case U64:
		return 8, false, true
	case U128:
		return 16, false, true
	case U256:
		return 32, false, true
	case I8:
		return 1, true, true
	case I16:
		return 2, true, true
	case I32:
		return 4, true, true
	case I64:
		return 8, true, true
	case I128:
		return 16, true, true
	case I256:
		return 32, true, true
	}
	return 0, false, false
}

func leUint(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}
