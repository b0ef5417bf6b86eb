// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package rangeproof encodes range membership as bit decompositions.
//
// A value v lies in [lo, hi] exactly when both differences v-lo and hi-v are
// non-negative. Over a prime field "non-negative" means "fits in B bits":
// each difference is decomposed into B little-endian bits, and verifiers
// (native or in-circuit) recompose the bits and compare against the
// differences recomputed from data they trust. B is capped two below the
// field bit length and the bounds themselves must fit B bits, so a wrapped
// difference can never pass as a valid decomposition.
package rangeproof

import (
	"errors"
	"fmt"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/protocol"
)

var (
	// ErrEmptyRange is returned when lo > hi.
	ErrEmptyRange = errors.New("empty range")

	// ErrBoundsOverflow is returned when lo or hi does not fit the
	// decomposition width.
	ErrBoundsOverflow = errors.New("range bound overflows bit width")

	// ErrOutOfRange is returned when the value lies outside [lo, hi].
	ErrOutOfRange = errors.New("value out of range")

	// ErrBitLength is returned by Reconstruct when the bit slices are empty
	// or of unequal length.
	ErrBitLength = errors.New("unexpected bit length")

	// ErrNotBoolean is returned by Reconstruct when a bit entry is neither
	// zero nor one.
	ErrNotBoolean = errors.New("bit is not boolean")
)

// Witness holds the little-endian bit decompositions of value-lo and
// hi-value, B entries each, every entry zero or one.
type Witness struct {
	LoBits []field.Element
	HiBits []field.Element
}

// BitWidth returns the decomposition width B.
func (w Witness) BitWidth() int {
	return len(w.LoBits)
}

// Encode proves value ∈ [lo, hi] by decomposing value-lo and hi-value into
// bitWidth bits each. Both ends are inclusive. The bounds must themselves fit
// bitWidth bits; without that cap a bound near the modulus would let a
// wrapped difference fall back inside the width.
func Encode(f *field.Field, value, lo, hi field.Element, bitWidth int) (Witness, error) {
	if bitWidth < protocol.MinBitWidth || bitWidth > f.BitLen()-2 {
		return Witness{}, fmt.Errorf("%w: bit width %d outside [%d, %d]",
			protocol.ErrParameterMismatch, bitWidth, protocol.MinBitWidth, f.BitLen()-2)
	}
	for _, e := range []field.Element{value, lo, hi} {
		if !e.Field().Equal(f) {
			return Witness{}, fmt.Errorf("%w: element field differs from encoder field", protocol.ErrParameterMismatch)
		}
	}
	if lo.Cmp(hi) > 0 {
		return Witness{}, fmt.Errorf("%w: lo %s > hi %s", ErrEmptyRange, lo, hi)
	}
	if lo.BitLen() > bitWidth || hi.BitLen() > bitWidth {
		return Witness{}, fmt.Errorf("%w: bounds must fit %d bits", ErrBoundsOverflow, bitWidth)
	}

	loBits, err := value.Sub(lo).Bits(bitWidth)
	if err != nil {
		return Witness{}, fmt.Errorf("%w: value-lo exceeds %d bits", ErrOutOfRange, bitWidth)
	}
	hiBits, err := hi.Sub(value).Bits(bitWidth)
	if err != nil {
		return Witness{}, fmt.Errorf("%w: hi-value exceeds %d bits", ErrOutOfRange, bitWidth)
	}
	return Witness{LoBits: liftBits(f, loBits), HiBits: liftBits(f, hiBits)}, nil
}

// Reconstruct recomposes the two differences from the bit slices. This is the
// explicit check mirrored in-circuit: callers compare the results against
// value-lo and hi-value computed from values they trust.
func (w Witness) Reconstruct(f *field.Field) (dLo, dHi field.Element, err error) {
	if len(w.LoBits) == 0 || len(w.LoBits) != len(w.HiBits) {
		return field.Element{}, field.Element{}, fmt.Errorf("%w: lo has %d bits, hi has %d",
			ErrBitLength, len(w.LoBits), len(w.HiBits))
	}
	if dLo, err = recompose(f, w.LoBits); err != nil {
		return field.Element{}, field.Element{}, err
	}
	if dHi, err = recompose(f, w.HiBits); err != nil {
		return field.Element{}, field.Element{}, err
	}
	return dLo, dHi, nil
}

func recompose(f *field.Field, bits []field.Element) (field.Element, error) {
	acc := f.Zero()
	weight := f.One()
	two := f.NewElementFromUint64(2)
	for i, b := range bits {
		if !b.Field().Equal(f) {
			return field.Element{}, fmt.Errorf("%w: bit %d outside the field", ErrNotBoolean, i)
		}
		if !b.IsZero() {
			if !b.Equal(f.One()) {
				return field.Element{}, fmt.Errorf("%w: bit %d", ErrNotBoolean, i)
			}
			acc = acc.Add(weight)
		}
		weight = weight.Mul(two)
	}
	return acc, nil
}

func liftBits(f *field.Field, bits []uint8) []field.Element {
	out := make([]field.Element, len(bits))
	for i, b := range bits {
		out[i] = f.NewElementFromUint64(uint64(b))
	}
	return out
}
