package block

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
)

// PhaseKind is the block execution phase an event was emitted at.
type PhaseKind byte

// Execution phases.
const (
	ApplyExtrinsic PhaseKind = iota
	Finalization
	Initialization
)

// Phase is the event phase, ExtrinsicIndex is only valid for ApplyExtrinsic.
type Phase struct {
	Kind           PhaseKind
	ExtrinsicIndex uint32
}

// EventRecord is a System.Events item.
type EventRecord struct {
	Phase       Phase
	PalletIndex uint8
	EventIndex  uint8
	Pallet      string
	Name        string
	// Fields is the event variant, its Items are event fields.
	Fields metadata.Value
	Topics []util.H256
}

// ErrNoOutcome is returned when there are no System.ExtrinsicSuccess or
// System.ExtrinsicFailed events for the transaction.
var ErrNoOutcome = errors.New("no extrinsic outcome event")

// DecodeEvents decodes raw System.Events storage value.
func DecodeEvents(m *metadata.Metadata, raw []byte) ([]EventRecord, error) {
	v, err := m.DecodeStorageValue("System", "Events", raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	res := make([]EventRecord, 0, v.Len())
	for i := range v.Items {
		rec, err := newEventRecord(&v.Items[i])
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		res = append(res, rec)
	}
	return res, nil
}

func newEventRecord(v *metadata.Value) (EventRecord, error) {
	var rec EventRecord

	phase, ok := v.Field("phase")
	if !ok || phase.Kind != metadata.KindVariant {
		return rec, errors.New("no phase")
	}
	switch phase.VariantName {
	case "ApplyExtrinsic":
		idx, _ := phase.Index(0)
		if idx == nil {
			return rec, errors.New("no extrinsic index")
		}
		n, err := idx.Uint()
		if err != nil {
			return rec, err
		}
		rec.Phase.ExtrinsicIndex = uint32(n)
	case "Finalization":
		rec.Phase.Kind = Finalization
	case "Initialization":
		rec.Phase.Kind = Initialization
	default:
		return rec, fmt.Errorf("unknown phase %s", phase.VariantName)
	}

	ev, ok := v.Field("event")
	if !ok || ev.Kind != metadata.KindVariant || len(ev.Items) != 1 {
		return rec, errors.New("malformed event")
	}
	inner := ev.Items[0].Unwrap()
	if inner.Kind != metadata.KindVariant {
		return rec, errors.New("malformed pallet event")
	}
	rec.Pallet, rec.PalletIndex = ev.VariantName, ev.VariantIndex
	rec.Name, rec.EventIndex = inner.VariantName, inner.VariantIndex
	rec.Fields = *inner

	if topics, ok := v.Field("topics"); ok {
		for i := range topics.Items {
			h, err := topics.Items[i].H256()
			if err != nil {
				return rec, fmt.Errorf("topic %d: %w", i, err)
			}
			rec.Topics = append(rec.Topics, h)
		}
	}
	return rec, nil
}

// Is checks whether the event is the given one.
func (e *EventRecord) Is(pallet, name string) bool {
	return e.Pallet == pallet && e.Name == name
}

// Field returns the named event field.
func (e *EventRecord) Field(name string) (*metadata.Value, bool) {
	return e.Fields.Field(name)
}

// String implements the fmt.Stringer interface.
func (e *EventRecord) String() string {
	return e.Pallet + "." + e.Name
}

// EventsForTx returns the events emitted by the extrinsic with the given
// index.
func EventsForTx(events []EventRecord, idx uint32) []EventRecord {
	var res []EventRecord
	for i := range events {
		if events[i].Phase.Kind == ApplyExtrinsic && events[i].Phase.ExtrinsicIndex == idx {
			res = append(res, events[i])
		}
	}
	return res
}

// FindEvent returns the first event with the given pallet and name.
func FindEvent(events []EventRecord, pallet, name string) (*EventRecord, bool) {
	for i := range events {
		if events[i].Is(pallet, name) {
			return &events[i], true
		}
	}
	return nil, false
}

// FilterEvents returns all events with the given pallet and name.
func FilterEvents(events []EventRecord, pallet, name string) []EventRecord {
	var res []EventRecord
	for i := range events {
		if events[i].Is(pallet, name) {
			res = append(res, events[i])
		}
	}
	return res
}

// TxSuccess checks the outcome of the transaction given its events. It
// returns true for System.ExtrinsicSuccess, false and a *DispatchError for
// System.ExtrinsicFailed and ErrNoOutcome if there are none of them.
func TxSuccess(m *metadata.Metadata, events []EventRecord) (bool, error) {
	for i := range events {
		switch {
		case events[i].Is("System", "ExtrinsicSuccess"):
			return true, nil
		case events[i].Is("System", "ExtrinsicFailed"):
			de, ok := events[i].Field("dispatch_error")
			if !ok {
				return false, &DispatchError{Kind: "Unknown"}
			}
			return false, NewDispatchError(m, de)
		}
	}
	return false, ErrNoOutcome
}
