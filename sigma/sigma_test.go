// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package sigma

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/protocol"
)

func testSuite(t *testing.T) *Suite {
	t.Helper()
	s, err := NewSuite(protocol.New(ecc.BN254, 4, 16))
	require.NoError(t, err)
	return s
}

func TestNewSuiteRejectsOtherCurves(t *testing.T) {
	assert := require.New(t)

	_, err := NewSuite(protocol.New(ecc.BLS12_381, 4, 16))
	assert.ErrorIs(err, field.ErrUnsupportedCurve)

	_, err = NewSuite(protocol.New(ecc.BN254, 0, 16))
	assert.ErrorIs(err, protocol.ErrParameterMismatch)
}

func TestDeriveGenerators(t *testing.T) {
	assert := require.New(t)
	s := testSuite(t)

	gens, err := s.DeriveGenerators(4, []byte("test"))
	assert.NoError(err)
	assert.Len(gens, 4)

	again, err := s.DeriveGenerators(4, []byte("test"))
	assert.NoError(err)

	base := s.Generator()
	for i := range gens {
		assert.NoError(checkPoint(gens[i]))
		assert.True(gens[i].Equal(&again[i]), "derivation must be deterministic")
		assert.False(gens[i].Equal(&base), "derived generators must avoid the canonical base")
		for j := i + 1; j < len(gens); j++ {
			assert.False(gens[i].Equal(&gens[j]), "generators %d and %d collide", i, j)
		}
	}

	other, err := s.DeriveGenerators(1, []byte("other"))
	assert.NoError(err)
	assert.False(other[0].Equal(&gens[0]), "personalization must separate families")

	_, err = s.DeriveGenerators(0, nil)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)
}

func TestSchnorrRoundTrip(t *testing.T) {
	assert := require.New(t)
	s := testSuite(t)

	secret, err := s.RandomScalar(nil)
	assert.NoError(err)
	base := s.Generator()

	proof, public, err := s.ProveSchnorr(nil, base, secret)
	assert.NoError(err)

	expected, err := s.PublicPoint(secret, base)
	assert.NoError(err)
	assert.True(public.Equal(&expected))

	ok, err := s.VerifySchnorr(base, public, proof)
	assert.NoError(err)
	assert.True(ok)
}

func TestSchnorrSoundness(t *testing.T) {
	assert := require.New(t)
	s := testSuite(t)

	secret, err := s.RandomScalar(nil)
	assert.NoError(err)
	base := s.Generator()
	proof, public, err := s.ProveSchnorr(nil, base, secret)
	assert.NoError(err)

	// wrong public point
	otherPublic, err := s.PublicPoint(secret.Add(s.f.One()), base)
	assert.NoError(err)
	ok, err := s.VerifySchnorr(base, otherPublic, proof)
	assert.NoError(err)
	assert.False(ok)

	// tampered response
	tampered := proof
	tampered.Response = tampered.Response.Add(s.f.One())
	ok, err = s.VerifySchnorr(base, public, tampered)
	assert.NoError(err)
	assert.False(ok)

	// tampered commitment
	tampered = proof
	tampered.Commitment = otherPublic
	ok, err = s.VerifySchnorr(base, public, tampered)
	assert.NoError(err)
	assert.False(ok)

	// proof does not transfer to another base
	gens, err := s.DeriveGenerators(1, nil)
	assert.NoError(err)
	ok, err = s.VerifySchnorr(gens[0], public, proof)
	assert.NoError(err)
	assert.False(ok)
}

func TestSchnorrRejectsMalformed(t *testing.T) {
	assert := require.New(t)
	s := testSuite(t)

	secret, err := s.RandomScalar(nil)
	assert.NoError(err)
	base := s.Generator()
	proof, public, err := s.ProveSchnorr(nil, base, secret)
	assert.NoError(err)

	var infinity bn254.G1Affine
	_, err = s.VerifySchnorr(base, infinity, proof)
	assert.ErrorIs(err, ErrInvalidPoint)

	var offCurve bn254.G1Affine
	offCurve.X.SetUint64(1)
	offCurve.Y.SetUint64(1)
	_, err = s.VerifySchnorr(offCurve, public, proof)
	assert.ErrorIs(err, ErrInvalidPoint)

	foreign, err := field.FromCurve(ecc.BLS12_381)
	assert.NoError(err)
	bad := proof
	bad.Response = foreign.NewElementFromUint64(5)
	_, err = s.VerifySchnorr(base, public, bad)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)

	_, err = s.PublicPoint(foreign.NewElementFromUint64(5), base)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)
}

func TestDLEQRoundTrip(t *testing.T) {
	assert := require.New(t)
	s := testSuite(t)

	gens, err := s.DeriveGenerators(2, []byte("dleq"))
	assert.NoError(err)
	secret, err := s.RandomScalar(nil)
	assert.NoError(err)

	proof, p1, p2, err := s.ProveDLEQ(nil, gens[0], gens[1], secret)
	assert.NoError(err)

	ok, err := s.VerifyDLEQ(gens[0], gens[1], p1, p2, proof)
	assert.NoError(err)
	assert.True(ok)

	// swapped commitments break the transcript
	swapped := proof
	swapped.R1, swapped.R2 = proof.R2, proof.R1
	ok, err = s.VerifyDLEQ(gens[0], gens[1], p1, p2, swapped)
	assert.NoError(err)
	assert.False(ok)

	// publics under different secrets do not share a discrete log
	otherSecret := secret.Add(s.f.One())
	q2, err := s.PublicPoint(otherSecret, gens[1])
	assert.NoError(err)
	ok, err = s.VerifyDLEQ(gens[0], gens[1], p1, q2, proof)
	assert.NoError(err)
	assert.False(ok)

	// bases swapped relative to the publics
	ok, err = s.VerifyDLEQ(gens[1], gens[0], p1, p2, proof)
	assert.NoError(err)
	assert.False(ok)
}

func TestSigmaCompletenessTrials(t *testing.T) {
	s := testSuite(t)
	gens, err := s.DeriveGenerators(2, []byte("trials"))
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)
	properties.Property("schnorr and dleq accept honest proofs", prop.ForAll(
		func(raw uint64) bool {
			secret := s.f.NewElementFromUint64(raw)
			if secret.IsZero() {
				secret = s.f.One()
			}
			sp, public, err := s.ProveSchnorr(nil, gens[0], secret)
			if err != nil {
				return false
			}
			ok, err := s.VerifySchnorr(gens[0], public, sp)
			if err != nil || !ok {
				return false
			}
			dp, p1, p2, err := s.ProveDLEQ(nil, gens[0], gens[1], secret)
			if err != nil {
				return false
			}
			ok, err = s.VerifyDLEQ(gens[0], gens[1], p1, p2, dp)
			return err == nil && ok
		},
		gen.UInt64(),
	))
	properties.TestingRun(t)
}
