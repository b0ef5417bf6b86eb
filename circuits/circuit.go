// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package circuits carries the claim into a SNARK: the gnark circuit whose
// constraints mirror the native verifier, and the Groth16/PLONK backends
// behind the snark.Backend boundary.
package circuits

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/bits"

	"github.com/consensys/anchoredrange/protocol"
)

// AnchoredRangeCircuit proves knowledge of a leaf of the anchored tree whose
// value lies in the public range [Lo, Hi].
//
// The constraints are exactly the native verifier's semantics: fold the leaf
// up to the root along the path, re-derive the anchor, and recompose both
// range differences from their bit decompositions. Only the anchor and the
// bounds are public; the leaf value, its position and its path stay private.
type AnchoredRangeCircuit struct {
	Anchor frontend.Variable `gnark:",public"`
	Lo     frontend.Variable `gnark:",public"`
	Hi     frontend.Variable `gnark:",public"`

	Value      frontend.Variable
	Directions []frontend.Variable
	Siblings   []frontend.Variable
	LoBits     []frontend.Variable
	HiBits     []frontend.Variable

	depth     int
	bitWidth  int
	domainTag *big.Int
}

// NewCircuit returns the compile-time shape of the circuit for p. The same
// value serves as the placeholder for frontend.Compile.
func NewCircuit(p protocol.Params) (*AnchoredRangeCircuit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &AnchoredRangeCircuit{
		Directions: make([]frontend.Variable, p.Depth),
		Siblings:   make([]frontend.Variable, p.Depth),
		LoBits:     make([]frontend.Variable, p.BitWidth),
		HiBits:     make([]frontend.Variable, p.BitWidth),
		depth:      p.Depth,
		bitWidth:   p.BitWidth,
		domainTag:  new(big.Int).Set(p.DomainTag),
	}, nil
}

func (c *AnchoredRangeCircuit) Define(api frontend.API) error {
	if c.depth == 0 ||
		len(c.Directions) != c.depth || len(c.Siblings) != c.depth ||
		len(c.LoBits) != c.bitWidth || len(c.HiBits) != c.bitWidth {
		return errors.New("circuit shape not built with NewCircuit")
	}

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// leaf hash, then fold to the root; direction k is the k-th bit of the
	// leaf index, 1 placing the running node on the right
	h.Reset()
	h.Write(protocol.TagLeaf, c.Value)
	cur := h.Sum()
	for i := 0; i < c.depth; i++ {
		api.AssertIsBoolean(c.Directions[i])
		left := api.Select(c.Directions[i], c.Siblings[i], cur)
		right := api.Select(c.Directions[i], cur, c.Siblings[i])
		h.Reset()
		h.Write(protocol.TagNode, left, right)
		cur = h.Sum()
	}

	// the single public commitment binds root, bounds and domain
	h.Reset()
	h.Write(c.domainTag, cur, c.Lo, c.Hi)
	api.AssertIsEqual(h.Sum(), c.Anchor)

	// bounds must fit the decomposition width, or a wrapped difference
	// could recompose below
	bits.ToBinary(api, c.Lo, bits.WithNbDigits(c.bitWidth))
	bits.ToBinary(api, c.Hi, bits.WithNbDigits(c.bitWidth))

	// FromBinary asserts booleanity of every bit
	dLo := bits.FromBinary(api, c.LoBits)
	api.AssertIsEqual(dLo, api.Sub(c.Value, c.Lo))
	dHi := bits.FromBinary(api, c.HiBits)
	api.AssertIsEqual(dHi, api.Sub(c.Hi, c.Value))

	return nil
}
