package extrinsic

import (
	"errors"
	"fmt"
	"math/bits"
)

// Mortal era period limits.
const (
	MinPeriod = 4
	MaxPeriod = 1 << 16
)

// Era is the transaction validity period. Zero Era is immortal.
type Era struct {
	Period uint64
	Phase  uint64
}

// NewMortalEra creates an era starting at the current block and lasting
// for about period blocks. Period is rounded up to the power of two within
// [MinPeriod, MaxPeriod], phase is quantized for big periods.
func NewMortalEra(current, period uint64) Era {
	switch {
	case period > MaxPeriod/2:
		period = MaxPeriod
	case period < MinPeriod:
		period = MinPeriod
	default:
		period = 1 << bits.Len64(period-1)
	}
	phase := current % period
	q := quantizeFactor(period)
	return Era{Period: period, Phase: phase / q * q}
}

func quantizeFactor(period uint64) uint64 {
	return max(period>>12, 1)
}

// IsImmortal returns true for immortal eras.
func (e Era) IsImmortal() bool {
	return e.Period == 0
}

// Birth returns the first block of the era for the given current block.
func (e Era) Birth(current uint64) uint64 {
	if e.IsImmortal() {
		return 0
	}
	return (max(current, e.Phase)-e.Phase)/e.Period*e.Period + e.Phase
}

// Death returns the first block the transaction is no longer valid at.
func (e Era) Death(current uint64) uint64 {
	if e.IsImmortal() {
		return ^uint64(0)
	}
	return e.Birth(current) + e.Period
}

// Encode returns SCALE representation of the era.
func (e Era) Encode() []byte {
	if e.IsImmortal() {
		return []byte{0}
	}
	tz := uint64(bits.TrailingZeros64(e.Period))
	encoded := min(15, max(1, tz-1)) | (e.Phase/quantizeFactor(e.Period))<<4
	return []byte{byte(encoded), byte(encoded >> 8)}
}

// DecodeEra decodes an era from the beginning of b and returns the number of
// bytes consumed.
func DecodeEra(b []byte) (Era, int, error) {
	if len(b) == 0 {
		return Era{}, 0, errors.New("empty era")
	}
	if b[0] == 0 {
		return Era{}, 1, nil
	}
	if len(b) < 2 {
		return Era{}, 0, errors.New("truncated mortal era")
	}
	encoded := uint64(b[0]) | uint64(b[1])<<8
	period := uint64(2) << (encoded % 16)
	phase := (encoded >> 4) * quantizeFactor(period)
	if period < MinPeriod || phase >= period {
		return Era{}, 0, fmt.Errorf("invalid mortal era %#04x", encoded)
	}
	return Era{Period: period, Phase: phase}, 2, nil
}

// String implements the fmt.Stringer interface.
func (e Era) String() string {
	if e.IsImmortal() {
		return "immortal"
	}
	return fmt.Sprintf("mortal(%d, %d)", e.Period, e.Phase)
}
