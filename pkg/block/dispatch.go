package block

import (
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/metadata"
)

// DispatchError is a failed extrinsic dispatch result.
type DispatchError struct {
	// Kind is the DispatchError variant (Module, BadOrigin, Token, ...).
	Kind string
	// Pallet and Name are set for Module errors that can be resolved via
	// metadata.
	Pallet string
	Name   string
	// Detail is the nested variant for Token, Arithmetic and
	// Transactional errors.
	Detail string
	Value  *metadata.Value
}

// NewDispatchError converts the decoded DispatchError into DispatchError
// resolving module errors with the metadata (which can be nil).
func NewDispatchError(m *metadata.Metadata, v *metadata.Value) *DispatchError {
	u := v.Unwrap()
	de := &DispatchError{Kind: u.VariantName, Value: v}
	if u.Kind != metadata.KindVariant || len(u.Items) == 0 {
		return de
	}
	inner := u.Items[0].Unwrap()
	if u.VariantName != "Module" {
		if inner.Kind == metadata.KindVariant {
			de.Detail = inner.VariantName
		}
		return de
	}
	idx, ok := inner.Field("index")
	if !ok {
		return de
	}
	palletIdx, err := idx.Uint()
	if err != nil {
		return de
	}
	errField, ok := inner.Field("error")
	if !ok {
		return de
	}
	var errIdx uint64
	if b, err := errField.Bytes(); err == nil && len(b) > 0 {
		errIdx = uint64(b[0])
	} else if errIdx, err = errField.Uint(); err != nil {
		return de
	}
	if m == nil {
		de.Detail = fmt.Sprintf("%d:%d", palletIdx, errIdx)
		return de
	}
	de.Pallet, de.Name, err = m.ErrorName(uint8(palletIdx), uint8(errIdx))
	if err != nil {
		de.Detail = fmt.Sprintf("%d:%d", palletIdx, errIdx)
	}
	return de
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	switch {
	case e.Name != "":
		return fmt.Sprintf("dispatch error: %s.%s", e.Pallet, e.Name)
	case e.Detail != "":
		return fmt.Sprintf("dispatch error: %s(%s)", e.Kind, e.Detail)
	default:
		return "dispatch error: " + e.Kind
	}
}
