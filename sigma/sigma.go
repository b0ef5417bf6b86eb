// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package sigma implements the discrete-log side protocols that link an
// anchored tree to elliptic-curve statements: Schnorr proofs of knowledge
// and Chaum-Pedersen DLEQ proofs over BN254 G1, with MiMC as the
// Fiat-Shamir hash so challenges live in the same field as the tree.
//
// Generators beyond the canonical base point are derived
// nothing-up-my-sleeve via hash-to-curve from printable seeds.
package sigma

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"golang.org/x/crypto/sha3"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
	"github.com/consensys/anchoredrange/protocol"
)

// ErrInvalidPoint is returned when a point argument is the identity or not
// on the curve.
var ErrInvalidPoint = errors.New("invalid curve point")

const generatorDomain = "anchoredrange/sigma/generator/v1"

var hashToCurveDST = []byte("anchoredrange/sigma/v1")

// Suite fixes the curve, the challenge hash and the domain tag for one set
// of sigma protocols. The group is BN254 G1; its scalar field matches the
// tree's native field, so challenges bind directly to tree material.
type Suite struct {
	f   *field.Field
	h   *hash.Hasher
	tag field.Element
}

// NewSuite builds a suite from protocol parameters. Only BN254 is supported;
// other curves are rejected with field.ErrUnsupportedCurve.
func NewSuite(p protocol.Params) (*Suite, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Curve != ecc.BN254 {
		return nil, fmt.Errorf("%w: sigma protocols are defined over BN254 only, got %s", field.ErrUnsupportedCurve, p.Curve)
	}
	f, err := p.Field()
	if err != nil {
		return nil, err
	}
	h, err := hash.New(f, p.Curve)
	if err != nil {
		return nil, err
	}
	return &Suite{
		f:   f,
		h:   h,
		tag: p.SigmaTag(f),
	}, nil
}

// Field returns the scalar field the suite operates in.
func (s *Suite) Field() *field.Field { return s.f }

// Generator returns the canonical G1 base point.
func (s *Suite) Generator() bn254.G1Affine {
	_, _, g, _ := bn254.Generators()
	return g
}

// DeriveGenerators returns n independent generators with no known relative
// discrete logs. Each point is hash-to-curve of
// sha3-256(domain || personalization || index), so distinct personalization
// strings yield disjoint generator families.
func (s *Suite) DeriveGenerators(n int, personalization []byte) ([]bn254.G1Affine, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: generator count %d", protocol.ErrParameterMismatch, n)
	}
	gens := make([]bn254.G1Affine, n)
	seed := make([]byte, 0, len(generatorDomain)+len(personalization)+8)
	seed = append(seed, generatorDomain...)
	seed = append(seed, personalization...)
	var index [8]byte
	for i := range gens {
		binary.BigEndian.PutUint64(index[:], uint64(i))
		digest := sha3.Sum256(append(seed, index[:]...))
		g, err := bn254.HashToG1(digest[:], hashToCurveDST)
		if err != nil {
			return nil, fmt.Errorf("hash to curve: %w", err)
		}
		gens[i] = g
	}
	return gens, nil
}

// RandomScalar draws a uniform scalar from rng, or crypto/rand when rng is
// nil.
func (s *Suite) RandomScalar(rng io.Reader) (field.Element, error) {
	if rng == nil {
		rng = rand.Reader
	}
	return s.f.Rand(rng)
}

// PublicPoint returns secret*base.
func (s *Suite) PublicPoint(secret field.Element, base bn254.G1Affine) (bn254.G1Affine, error) {
	if err := s.checkScalar(secret); err != nil {
		return bn254.G1Affine{}, err
	}
	if err := checkPoint(base); err != nil {
		return bn254.G1Affine{}, err
	}
	var p bn254.G1Affine
	p.ScalarMultiplication(&base, secret.BigInt())
	return p, nil
}

// SchnorrProof is a non-interactive proof of knowledge of the discrete log
// of a public point.
type SchnorrProof struct {
	// Commitment is R = r*G for the prover's nonce r.
	Commitment bn254.G1Affine
	// Response is z = r + c*secret.
	Response field.Element
}

// ProveSchnorr proves knowledge of secret with public = secret*base. The
// nonce is drawn from rng (crypto/rand when nil).
func (s *Suite) ProveSchnorr(rng io.Reader, base bn254.G1Affine, secret field.Element) (SchnorrProof, bn254.G1Affine, error) {
	public, err := s.PublicPoint(secret, base)
	if err != nil {
		return SchnorrProof{}, bn254.G1Affine{}, err
	}
	nonce, err := s.RandomScalar(rng)
	if err != nil {
		return SchnorrProof{}, bn254.G1Affine{}, err
	}
	var commitment bn254.G1Affine
	commitment.ScalarMultiplication(&base, nonce.BigInt())

	c := s.challenge(&public, &commitment)
	response := nonce.Add(c.Mul(secret))
	return SchnorrProof{Commitment: commitment, Response: response}, public, nil
}

// VerifySchnorr reports whether proof shows knowledge of the discrete log of
// public with respect to base. A malformed proof is an error, not a false.
func (s *Suite) VerifySchnorr(base, public bn254.G1Affine, proof SchnorrProof) (bool, error) {
	if err := checkPoint(base); err != nil {
		return false, err
	}
	if err := checkPoint(public); err != nil {
		return false, err
	}
	if err := checkPoint(proof.Commitment); err != nil {
		return false, err
	}
	if err := s.checkScalar(proof.Response); err != nil {
		return false, err
	}

	// z*G == R + c*P
	c := s.challenge(&public, &proof.Commitment)
	var lhs bn254.G1Affine
	lhs.ScalarMultiplication(&base, proof.Response.BigInt())
	rhs := addPoints(&proof.Commitment, scalarMul(&public, c.BigInt()))
	return lhs.Equal(rhs), nil
}

// DLEQProof is a Chaum-Pedersen proof that two public points share one
// discrete log across two bases.
type DLEQProof struct {
	// R1, R2 are the nonce commitments r*G1 and r*G2.
	R1, R2 bn254.G1Affine
	// Response is z = r + c*secret.
	Response field.Element
}

// ProveDLEQ proves that public1 = secret*base1 and public2 = secret*base2
// hold for the same secret. Both publics are returned alongside the proof.
func (s *Suite) ProveDLEQ(rng io.Reader, base1, base2 bn254.G1Affine, secret field.Element) (DLEQProof, bn254.G1Affine, bn254.G1Affine, error) {
	public1, err := s.PublicPoint(secret, base1)
	if err != nil {
		return DLEQProof{}, bn254.G1Affine{}, bn254.G1Affine{}, err
	}
	public2, err := s.PublicPoint(secret, base2)
	if err != nil {
		return DLEQProof{}, bn254.G1Affine{}, bn254.G1Affine{}, err
	}
	nonce, err := s.RandomScalar(rng)
	if err != nil {
		return DLEQProof{}, bn254.G1Affine{}, bn254.G1Affine{}, err
	}
	var r1, r2 bn254.G1Affine
	r1.ScalarMultiplication(&base1, nonce.BigInt())
	r2.ScalarMultiplication(&base2, nonce.BigInt())

	c := s.challenge(&public1, &public2, &r1, &r2)
	response := nonce.Add(c.Mul(secret))
	return DLEQProof{R1: r1, R2: r2, Response: response}, public1, public2, nil
}

// VerifyDLEQ reports whether proof shows public1 and public2 share a
// discrete log across base1 and base2.
func (s *Suite) VerifyDLEQ(base1, base2, public1, public2 bn254.G1Affine, proof DLEQProof) (bool, error) {
	for _, p := range []bn254.G1Affine{base1, base2, public1, public2, proof.R1, proof.R2} {
		if err := checkPoint(p); err != nil {
			return false, err
		}
	}
	if err := s.checkScalar(proof.Response); err != nil {
		return false, err
	}

	// z*G1 == R1 + c*P1 and z*G2 == R2 + c*P2
	c := s.challenge(&public1, &public2, &proof.R1, &proof.R2)
	var lhs1, lhs2 bn254.G1Affine
	lhs1.ScalarMultiplication(&base1, proof.Response.BigInt())
	lhs2.ScalarMultiplication(&base2, proof.Response.BigInt())
	rhs1 := addPoints(&proof.R1, scalarMul(&public1, c.BigInt()))
	rhs2 := addPoints(&proof.R2, scalarMul(&public2, c.BigInt()))
	return lhs1.Equal(rhs1) && lhs2.Equal(rhs2), nil
}

// challenge hashes the x-coordinates of the transcript points, each split
// into two 128-bit scalar limbs, under the sigma domain tag.
func (s *Suite) challenge(points ...*bn254.G1Affine) field.Element {
	elems := make([]field.Element, 0, 2*len(points))
	for _, p := range points {
		lo, hi := s.splitBase(p)
		elems = append(elems, lo, hi)
	}
	return s.h.Sum(s.tag, elems...)
}

var limbMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// splitBase maps a base-field x-coordinate into two scalar-field limbs,
// low 128 bits first. Both limbs fit the scalar field.
func (s *Suite) splitBase(p *bn254.G1Affine) (lo, hi field.Element) {
	x := p.X.BigInt(new(big.Int))
	lo = s.f.NewElement(new(big.Int).And(x, limbMask))
	hi = s.f.NewElement(new(big.Int).Rsh(x, 128))
	return lo, hi
}

func (s *Suite) checkScalar(e field.Element) error {
	if !e.Field().Equal(s.f) {
		return fmt.Errorf("%w: scalar not in the suite field", protocol.ErrParameterMismatch)
	}
	return nil
}

// checkPoint rejects the identity and off-curve points. BN254 G1 has
// cofactor one, so on-curve implies in-subgroup.
func checkPoint(p bn254.G1Affine) error {
	if p.IsInfinity() {
		return fmt.Errorf("%w: point at infinity", ErrInvalidPoint)
	}
	if !p.IsOnCurve() {
		return fmt.Errorf("%w: not on curve", ErrInvalidPoint)
	}
	return nil
}

func scalarMul(p *bn254.G1Affine, s *big.Int) *bn254.G1Affine {
	var out bn254.G1Affine
	out.ScalarMultiplication(p, s)
	return &out
}

func addPoints(a, b *bn254.G1Affine) *bn254.G1Affine {
	var acc bn254.G1Jac
	acc.FromAffine(a)
	acc.AddMixed(b)
	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return &out
}
