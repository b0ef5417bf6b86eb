// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package hash selects, per curve, the algebraic hash used by the Merkle
// accumulator, the anchor derivation and the sigma protocols.
//
// The hash is MiMC over the curve's scalar field, taken from gnark-crypto's
// registry; its in-circuit counterpart lives in gnark's std/hash/mimc. Every
// call is domain separated: the first absorbed block is a tag identifying the
// construction site (leaf, node, anchor, sigma challenge), so digests from
// one site cannot be replayed at another.
package hash

import (
	"errors"
	"fmt"
	stdhash "hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	gchash "github.com/consensys/gnark-crypto/hash"

	"github.com/consensys/anchoredrange/field"
)

// ErrFieldMismatch is returned when a Hasher is constructed over a field that
// is not the scalar field of its curve.
var ErrFieldMismatch = errors.New("field does not match curve")

// ForCurve returns the MiMC instance defined over the scalar field of id.
func ForCurve(id ecc.ID) (gchash.Hash, error) {
	switch id {
	case ecc.BN254:
		return gchash.MIMC_BN254, nil
	case ecc.BLS12_377:
		return gchash.MIMC_BLS12_377, nil
	case ecc.BLS12_381:
		return gchash.MIMC_BLS12_381, nil
	case ecc.BLS24_315:
		return gchash.MIMC_BLS24_315, nil
	case ecc.BLS24_317:
		return gchash.MIMC_BLS24_317, nil
	case ecc.BW6_761:
		return gchash.MIMC_BW6_761, nil
	case ecc.BW6_633:
		return gchash.MIMC_BW6_633, nil
	default:
		return 0, fmt.Errorf("%w: no MiMC instance for %s", field.ErrUnsupportedCurve, id)
	}
}

// Hasher computes domain-tagged MiMC digests as field elements.
type Hasher struct {
	f  *field.Field
	id gchash.Hash
}

// New returns a Hasher over f using the MiMC instance of the given curve.
// f must be the curve's scalar field.
func New(f *field.Field, curve ecc.ID) (*Hasher, error) {
	id, err := ForCurve(curve)
	if err != nil {
		return nil, err
	}
	if f.Modulus().Cmp(curve.ScalarField()) != 0 {
		return nil, fmt.Errorf("%w: field order differs from %s scalar field", ErrFieldMismatch, curve)
	}
	return &Hasher{f: f, id: id}, nil
}

// Field returns the field digests live in.
func (h *Hasher) Field() *field.Field {
	return h.f
}

// Sum absorbs the tag, then each element in order, one canonical big-endian
// block each, and returns the digest as a field element. A fresh MiMC state
// is used per call, so Sum is safe for concurrent use.
func (h *Hasher) Sum(tag field.Element, elems ...field.Element) field.Element {
	hw := h.id.New()
	h.write(hw, tag)
	for _, e := range elems {
		h.write(hw, e)
	}
	digest := hw.Sum(nil)
	return h.f.NewElement(new(big.Int).SetBytes(digest))
}

// write absorbs one canonical block. Elements are reduced by construction, so
// a write error means memory corruption rather than bad input.
func (h *Hasher) write(hw stdhash.Hash, e field.Element) {
	block := e.BigInt().FillBytes(make([]byte, h.f.ByteLen()))
	if _, err := hw.Write(block); err != nil {
		panic(fmt.Sprintf("hash: non-canonical block: %v", err))
	}
}
