// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package circuits

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/consensys/anchoredrange/anchor"
	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/merkle"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/rangeproof"
	"github.com/consensys/anchoredrange/verifier"
	"github.com/consensys/anchoredrange/witness"
)

type claimFixture struct {
	params protocol.Params
	f      *field.Field
	tree   *merkle.Tree
	root   field.Element
}

// newClaimFixture builds a tree holding values 0..9 at indices 0..9.
func newClaimFixture(t *testing.T, curve ecc.ID, depth, bitWidth int) *claimFixture {
	t.Helper()
	assert := require.New(t)

	p := protocol.New(curve, depth, bitWidth)
	e, err := merkle.New(p)
	assert.NoError(err)
	f := e.Field()

	leaves := make([]field.Element, 10)
	for i := range leaves {
		leaves[i] = f.NewElementFromUint64(uint64(i))
	}
	tree, err := e.Build(leaves)
	assert.NoError(err)

	return &claimFixture{params: p, f: f, tree: tree, root: tree.Root()}
}

// claim assembles a witness and the matching public triple for one leaf and
// range.
func (fx *claimFixture) claim(t *testing.T, index, lo, hi uint64) (verifier.PublicInputs, *witness.Witness) {
	t.Helper()
	assert := require.New(t)

	value, err := fx.tree.Leaf(index)
	assert.NoError(err)
	path, err := fx.tree.Path(index)
	assert.NoError(err)

	loE := fx.f.NewElementFromUint64(lo)
	hiE := fx.f.NewElementFromUint64(hi)
	rw, err := rangeproof.Encode(fx.f, value, loE, hiE, fx.params.BitWidth)
	assert.NoError(err)
	w, err := witness.Assemble(fx.params, value, path, rw)
	assert.NoError(err)

	pub, err := verifier.FromRoot(fx.params, fx.root, loE, hiE)
	assert.NoError(err)
	return pub, w
}

// assignment lifts one leaf and range into a full circuit assignment through
// the production path.
func (fx *claimFixture) assignment(t *testing.T, index, lo, hi uint64) *AnchoredRangeCircuit {
	t.Helper()
	assert := require.New(t)

	pub, w := fx.claim(t, index, lo, hi)
	a, err := NewAssignment(fx.params, pub, w)
	assert.NoError(err)
	return a
}

// cloneAssignment deep-copies an assignment so mutations stay local.
func cloneAssignment(a *AnchoredRangeCircuit) *AnchoredRangeCircuit {
	c := *a
	c.Directions = append([]frontend.Variable(nil), a.Directions...)
	c.Siblings = append([]frontend.Variable(nil), a.Siblings...)
	c.LoBits = append([]frontend.Variable(nil), a.LoBits...)
	c.HiBits = append([]frontend.Variable(nil), a.HiBits...)
	return &c
}

func bump(v frontend.Variable) frontend.Variable {
	return new(big.Int).Add(v.(*big.Int), big.NewInt(1))
}

func bitsOf(v uint64, n int) []frontend.Variable {
	out := make([]frontend.Variable, n)
	for i := range out {
		out[i] = (v >> i) & 1
	}
	return out
}

func TestAnchoredRangeCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	circuit, err := NewCircuit(fx.params)
	assert.NoError(err)

	valid := fx.assignment(t, 5, 2, 8)
	validLowEdge := fx.assignment(t, 2, 2, 8)
	validSingleton := fx.assignment(t, 7, 7, 7)

	tamperedAnchor := cloneAssignment(valid)
	tamperedAnchor.Anchor = bump(tamperedAnchor.Anchor)

	tamperedValue := cloneAssignment(valid)
	tamperedValue.Value = bump(tamperedValue.Value)

	tamperedSibling := cloneAssignment(valid)
	tamperedSibling.Siblings[0] = bump(tamperedSibling.Siblings[0])

	nonBooleanDirection := cloneAssignment(valid)
	nonBooleanDirection.Directions[0] = 2

	nonBooleanBit := cloneAssignment(valid)
	nonBooleanBit.LoBits[0] = 2

	assert.CheckCircuit(circuit,
		test.WithValidAssignment(valid),
		test.WithValidAssignment(validLowEdge),
		test.WithValidAssignment(validSingleton),
		test.WithInvalidAssignment(tamperedAnchor),
		test.WithInvalidAssignment(tamperedValue),
		test.WithInvalidAssignment(tamperedSibling),
		test.WithInvalidAssignment(nonBooleanDirection),
		test.WithInvalidAssignment(nonBooleanBit),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
	)
}

// A leaf above the range cannot be proven by recomposing the absolute value
// of the wrapped difference.
func TestCircuitRejectsOutOfRangeForgery(t *testing.T) {
	assert := test.NewAssert(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	circuit, err := NewCircuit(fx.params)
	assert.NoError(err)

	forged := fx.assignment(t, 9, 2, 9)
	loE := fx.f.NewElementFromUint64(2)
	hiE := fx.f.NewElementFromUint64(8)
	pub, err := verifier.FromRoot(fx.params, fx.root, loE, hiE)
	assert.NoError(err)
	forged.Anchor = pub.Anchor.BigInt()
	forged.Lo = loE.BigInt()
	forged.Hi = hiE.BigInt()
	forged.LoBits = bitsOf(7, fx.params.BitWidth) // 9-2
	forged.HiBits = bitsOf(1, fx.params.BitWidth) // |8-9|

	assert.CheckCircuit(circuit,
		test.WithInvalidAssignment(forged),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
	)
}

// Bounds close to the modulus satisfy every equality with tiny differences;
// only the width decomposition of the bounds themselves rules them out.
func TestCircuitRejectsUnreducedBounds(t *testing.T) {
	assert := test.NewAssert(t)

	p := protocol.New(ecc.BN254, 2, 16)
	e, err := merkle.New(p)
	assert.NoError(err)
	f := e.Field()

	modulus := p.Curve.ScalarField()
	pm1 := f.NewElement(new(big.Int).Sub(modulus, big.NewInt(1)))
	pm2 := f.NewElement(new(big.Int).Sub(modulus, big.NewInt(2)))
	tree, err := e.Build([]field.Element{pm1})
	assert.NoError(err)

	path, err := tree.Path(0)
	assert.NoError(err)
	anc, err := anchor.DeriveForParams(p, tree.Root(), pm2, pm1)
	assert.NoError(err)

	a := &AnchoredRangeCircuit{
		Anchor:     anc.BigInt(),
		Lo:         pm2.BigInt(),
		Hi:         pm1.BigInt(),
		Value:      pm1.BigInt(),
		Directions: make([]frontend.Variable, p.Depth),
		Siblings:   make([]frontend.Variable, p.Depth),
		LoBits:     bitsOf(1, p.BitWidth), // (p-1)-(p-2)
		HiBits:     bitsOf(0, p.BitWidth),
	}
	for i := range path.Siblings {
		a.Directions[i] = uint64(path.Directions[i])
		a.Siblings[i] = path.Siblings[i].BigInt()
	}

	circuit, err := NewCircuit(p)
	assert.NoError(err)
	assert.CheckCircuit(circuit,
		test.WithInvalidAssignment(a),
		test.WithCurves(ecc.BN254),
		test.WithBackends(backend.GROTH16),
	)
}

func TestCircuitOnBLS12381(t *testing.T) {
	assert := test.NewAssert(t)

	fx := newClaimFixture(t, ecc.BLS12_381, 3, 8)
	circuit, err := NewCircuit(fx.params)
	assert.NoError(err)

	assert.CheckCircuit(circuit,
		test.WithValidAssignment(fx.assignment(t, 4, 1, 6)),
		test.WithCurves(ecc.BLS12_381),
		test.WithBackends(backend.GROTH16),
	)
}

func TestDefineRejectsBareStruct(t *testing.T) {
	assert := require.New(t)

	_, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &AnchoredRangeCircuit{})
	assert.Error(err)
}

func TestNewAssignmentValidates(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	valid := fx.assignment(t, 5, 2, 8) // production path works
	assert.NotNil(valid)

	loE := fx.f.NewElementFromUint64(2)
	hiE := fx.f.NewElementFromUint64(8)
	pub, err := verifier.FromRoot(fx.params, fx.root, loE, hiE)
	assert.NoError(err)

	_, err = NewAssignment(fx.params, pub, nil)
	assert.ErrorIs(err, witness.ErrShapeMismatch)

	// witness assembled under different parameters
	other := protocol.New(ecc.BN254, 5, 16)
	value, err := fx.tree.Leaf(5)
	assert.NoError(err)
	path, err := fx.tree.Path(5)
	assert.NoError(err)
	rw, err := rangeproof.Encode(fx.f, value, loE, hiE, fx.params.BitWidth)
	assert.NoError(err)
	w, err := witness.Assemble(fx.params, value, path, rw)
	assert.NoError(err)

	_, err = NewAssignment(other, pub, w)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)
}
