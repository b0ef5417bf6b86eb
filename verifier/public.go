// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package verifier

import (
	"fmt"

	"github.com/consensys/anchoredrange/anchor"
	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/protocol"
)

// PublicInputs is the public triple of one claim, in wire order: the anchor,
// then both inclusive bounds.
type PublicInputs struct {
	Anchor field.Element
	Lo     field.Element
	Hi     field.Element
}

// FromRoot derives the anchor from a trusted root and returns the completed
// triple. This is what an honest verifier computes before calling Check.
func FromRoot(p protocol.Params, root, lo, hi field.Element) (PublicInputs, error) {
	a, err := anchor.DeriveForParams(p, root, lo, hi)
	if err != nil {
		return PublicInputs{}, err
	}
	return PublicInputs{Anchor: a, Lo: lo, Hi: hi}, nil
}

// MarshalBinary encodes the triple as three fixed-width canonical elements.
func (p PublicInputs) MarshalBinary() ([]byte, error) {
	f := p.Anchor.Field()
	for _, e := range []field.Element{p.Anchor, p.Lo, p.Hi} {
		if e.Field() == nil || !e.Field().Equal(f) {
			return nil, fmt.Errorf("%w: public inputs do not share one field", protocol.ErrParameterMismatch)
		}
	}
	out := make([]byte, 0, 3*f.ByteLen())
	out = append(out, p.Anchor.Bytes()...)
	out = append(out, p.Lo.Bytes()...)
	out = append(out, p.Hi.Bytes()...)
	return out, nil
}

// PublicInputsFromBytes decodes a MarshalBinary encoding into f.
func PublicInputsFromBytes(f *field.Field, data []byte) (PublicInputs, error) {
	n := f.ByteLen()
	if len(data) != 3*n {
		return PublicInputs{}, fmt.Errorf("%w: got %d bytes, want %d", field.ErrInvalidEncoding, len(data), 3*n)
	}
	a, err := f.FromBytes(data[:n])
	if err != nil {
		return PublicInputs{}, fmt.Errorf("anchor: %w", err)
	}
	lo, err := f.FromBytes(data[n : 2*n])
	if err != nil {
		return PublicInputs{}, fmt.Errorf("lo: %w", err)
	}
	hi, err := f.FromBytes(data[2*n:])
	if err != nil {
		return PublicInputs{}, fmt.Errorf("hi: %w", err)
	}
	return PublicInputs{Anchor: a, Lo: lo, Hi: hi}, nil
}
