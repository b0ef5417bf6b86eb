// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package hash

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	gchash "github.com/consensys/gnark-crypto/hash"
	"github.com/stretchr/testify/require"

	"github.com/consensys/anchoredrange/field"
)

func TestForCurve(t *testing.T) {
	assert := require.New(t)

	id, err := ForCurve(ecc.BN254)
	assert.NoError(err)
	assert.Equal(gchash.MIMC_BN254, id)

	_, err = ForCurve(ecc.UNKNOWN)
	assert.ErrorIs(err, field.ErrUnsupportedCurve)

	_, err = ForCurve(ecc.SECP256K1)
	assert.ErrorIs(err, field.ErrUnsupportedCurve)
}

func TestNewRejectsForeignField(t *testing.T) {
	assert := require.New(t)

	f, err := field.FromCurve(ecc.BLS12_381)
	assert.NoError(err)

	_, err = New(f, ecc.BN254)
	assert.ErrorIs(err, ErrFieldMismatch)
}

func TestSumDeterministic(t *testing.T) {
	assert := require.New(t)

	f, err := field.FromCurve(ecc.BN254)
	assert.NoError(err)
	h, err := New(f, ecc.BN254)
	assert.NoError(err)

	tag := f.NewElementFromUint64(1)
	a, err := f.Rand(rand.Reader)
	assert.NoError(err)
	b, err := f.Rand(rand.Reader)
	assert.NoError(err)

	d1 := h.Sum(tag, a, b)
	d2 := h.Sum(tag, a, b)
	assert.True(d1.Equal(d2))
}

func TestSumDomainSeparation(t *testing.T) {
	assert := require.New(t)

	f, err := field.FromCurve(ecc.BN254)
	assert.NoError(err)
	h, err := New(f, ecc.BN254)
	assert.NoError(err)

	x, err := f.Rand(rand.Reader)
	assert.NoError(err)

	leafTag := f.NewElementFromUint64(1)
	nodeTag := f.NewElementFromUint64(2)
	assert.False(h.Sum(leafTag, x).Equal(h.Sum(nodeTag, x)))

	y := x.Add(f.One())
	assert.False(h.Sum(leafTag, x, y).Equal(h.Sum(leafTag, y, x)))
}

func TestSumMatchesRawMiMC(t *testing.T) {
	assert := require.New(t)

	f, err := field.FromCurve(ecc.BN254)
	assert.NoError(err)
	h, err := New(f, ecc.BN254)
	assert.NoError(err)

	tag := f.NewElementFromUint64(2)
	a := f.NewElementFromUint64(1234567891011)

	raw := gchash.MIMC_BN254.New()
	for _, e := range []field.Element{tag, a} {
		block := e.BigInt().FillBytes(make([]byte, f.ByteLen()))
		_, err := raw.Write(block)
		assert.NoError(err)
	}
	want := f.NewElement(new(big.Int).SetBytes(raw.Sum(nil)))

	assert.True(h.Sum(tag, a).Equal(want))
}

func TestAllCurves(t *testing.T) {
	assert := require.New(t)

	curves := []ecc.ID{
		ecc.BN254,
		ecc.BLS12_377,
		ecc.BLS12_381,
		ecc.BLS24_315,
		ecc.BLS24_317,
		ecc.BW6_761,
		ecc.BW6_633,
	}

	for _, curve := range curves {
		f, err := field.FromCurve(curve)
		assert.NoError(err, curve.String())
		h, err := New(f, curve)
		assert.NoError(err, curve.String())

		d := h.Sum(f.NewElementFromUint64(1), f.NewElementFromUint64(42))
		assert.False(d.IsZero(), curve.String())
		assert.True(d.BigInt().Cmp(f.Modulus()) < 0, curve.String())
	}
}
