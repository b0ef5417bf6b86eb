// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/verifier"
	"github.com/consensys/anchoredrange/witness"
)

// NewAssignment lifts a native witness and its public claim into a full
// circuit assignment. The witness must have been assembled under p.
func NewAssignment(p protocol.Params, pub verifier.PublicInputs, w *witness.Witness) (*AnchoredRangeCircuit, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil witness", witness.ErrShapeMismatch)
	}
	if w.Params().Fingerprint() != p.Fingerprint() {
		return nil, fmt.Errorf("%w: witness assembled under different parameters", protocol.ErrParameterMismatch)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	a, err := PublicAssignment(p, pub)
	if err != nil {
		return nil, err
	}

	a.Value = w.Value.BigInt()
	a.Directions = make([]frontend.Variable, p.Depth)
	a.Siblings = make([]frontend.Variable, p.Depth)
	for i := range w.Path.Siblings {
		a.Directions[i] = uint64(w.Path.Directions[i])
		a.Siblings[i] = w.Path.Siblings[i].BigInt()
	}
	a.LoBits = make([]frontend.Variable, p.BitWidth)
	a.HiBits = make([]frontend.Variable, p.BitWidth)
	for i := range w.Range.LoBits {
		a.LoBits[i] = w.Range.LoBits[i].BigInt()
		a.HiBits[i] = w.Range.HiBits[i].BigInt()
	}
	return a, nil
}

// PublicAssignment builds the public-only assignment used on the verifier
// side. The secret slices stay nil.
func PublicAssignment(p protocol.Params, pub verifier.PublicInputs) (*AnchoredRangeCircuit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f, err := p.Field()
	if err != nil {
		return nil, err
	}
	for _, e := range []field.Element{pub.Anchor, pub.Lo, pub.Hi} {
		if !e.Field().Equal(f) {
			return nil, fmt.Errorf("%w: public inputs not in the parameter field", protocol.ErrParameterMismatch)
		}
	}
	return &AnchoredRangeCircuit{
		Anchor: pub.Anchor.BigInt(),
		Lo:     pub.Lo.BigInt(),
		Hi:     pub.Hi.BigInt(),
	}, nil
}
