package metadata

// DefKind is the kind of the type definition from the portable registry.
type DefKind byte

// Type definition kinds.
const (
	DefComposite DefKind = iota
	DefVariant
	DefSequence
	DefArray
	DefTuple
	DefPrimitive
	DefCompact
	DefBitSequence
)

// Primitive is a primitive type identifier (matches the metadata encoding).
type Primitive byte

// Primitive types.
const (
	Bool Primitive = iota
	Char
	Str
	U8
	U16
	U32
	U64
	U128
	U256
	I8
	I16
	I32
	I64
	I128
	I256
)

type (
	// TypeDef is a type definition from the portable type registry.
	TypeDef struct {
		Path      []string
		Kind      DefKind
		Fields    []Field   // DefComposite.
		Variants  []Variant // DefVariant.
		Elem      int64     // DefSequence, DefArray, DefCompact, DefBitSequence (store type).
		Len       uint32    // DefArray.
		Tuple     []int64   // DefTuple.
		Primitive Primitive // DefPrimitive.
	}

	// Field is a composite or variant field.
	Field struct {
		Name     string
		TypeName string
		TypeID   int64
	}

	// Variant is a single enum variant.
	Variant struct {
		Name   string
		Index  uint8
		Fields []Field
	}

	// Registry is a set of type definitions by their IDs.
	Registry map[int64]*TypeDef
)

// Variant returns the variant with the given index.
func (t *TypeDef) Variant(index uint8) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Index == index {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// VariantByName returns the variant with the given name.
func (t *TypeDef) VariantByName(name string) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// Name returns the last path segment of the type (like "AccountId32"), it's
// empty for anonymous types.
func (t *TypeDef) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}
