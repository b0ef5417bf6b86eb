// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package witness assembles the private side of one membership-and-range
// claim into the fixed vector shape shared by the native verifier and the
// circuit.
//
// Assembly is purely structural: shapes and field membership are checked,
// validity is not. A witness that assembles cleanly can still fail
// verification.
package witness

import (
	"errors"
	"fmt"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/merkle"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/rangeproof"
)

// ErrShapeMismatch is returned when a component does not have the shape the
// parameters require.
var ErrShapeMismatch = errors.New("witness shape mismatch")

// Witness carries the private inputs of one claim: the leaf value, its Merkle
// path and the two range bit decompositions.
type Witness struct {
	Value field.Element
	Path  merkle.Path
	Range rangeproof.Witness

	params protocol.Params
	f      *field.Field
}

// New returns an empty witness bound to p, ready for ReadFrom.
func New(p protocol.Params) (*Witness, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f, err := p.Field()
	if err != nil {
		return nil, err
	}
	return &Witness{params: p, f: f}, nil
}

// Assemble binds the three components into a witness under p.
func Assemble(p protocol.Params, value field.Element, path merkle.Path, rw rangeproof.Witness) (*Witness, error) {
	w, err := New(p)
	if err != nil {
		return nil, err
	}
	if err := w.validate(value, path, rw); err != nil {
		return nil, err
	}
	w.Value, w.Path, w.Range = value, path, rw
	return w, nil
}

// Params returns the parameters the witness is bound to.
func (w *Witness) Params() protocol.Params {
	return w.params
}

// Validate re-checks the witness against its bound parameters. Assemble and
// ReadFrom only produce valid witnesses; Validate guards hand-mutated ones.
func (w *Witness) Validate() error {
	if w.f == nil {
		return fmt.Errorf("%w: witness not bound to parameters", protocol.ErrParameterMismatch)
	}
	return w.validate(w.Value, w.Path, w.Range)
}

// Len returns the vector length, 1 + 2·Depth + 2·BitWidth.
func (w *Witness) Len() int {
	return 1 + 2*w.params.Depth + 2*w.params.BitWidth
}

// Vector flattens the witness into the fixed private-input order consumed by
// the verifier and the circuit: value, Depth direction bits, Depth siblings,
// BitWidth lo bits, BitWidth hi bits.
func (w *Witness) Vector() []field.Element {
	out := make([]field.Element, 0, w.Len())
	out = append(out, w.Value)
	for _, dir := range w.Path.Directions {
		out = append(out, w.f.NewElementFromUint64(uint64(dir)))
	}
	out = append(out, w.Path.Siblings...)
	out = append(out, w.Range.LoBits...)
	out = append(out, w.Range.HiBits...)
	return out
}

func (w *Witness) validate(value field.Element, path merkle.Path, rw rangeproof.Witness) error {
	if value.Field() == nil {
		return fmt.Errorf("%w: witness has no value", ErrShapeMismatch)
	}
	if !value.Field().Equal(w.f) {
		return fmt.Errorf("%w: value field differs from curve scalar field", protocol.ErrParameterMismatch)
	}
	d := w.params.Depth
	if len(path.Siblings) != d || len(path.Directions) != d {
		return fmt.Errorf("%w: path has %d siblings and %d directions, depth is %d",
			ErrShapeMismatch, len(path.Siblings), len(path.Directions), d)
	}
	for _, s := range path.Siblings {
		if !s.Field().Equal(w.f) {
			return fmt.Errorf("%w: sibling field differs from curve scalar field", protocol.ErrParameterMismatch)
		}
	}
	b := w.params.BitWidth
	if len(rw.LoBits) != b || len(rw.HiBits) != b {
		return fmt.Errorf("%w: range bits are %d and %d, bit width is %d",
			ErrShapeMismatch, len(rw.LoBits), len(rw.HiBits), b)
	}
	for _, bits := range [][]field.Element{rw.LoBits, rw.HiBits} {
		for _, bit := range bits {
			if !bit.Field().Equal(w.f) {
				return fmt.Errorf("%w: range bit field differs from curve scalar field", protocol.ErrParameterMismatch)
			}
		}
	}
	return nil
}
