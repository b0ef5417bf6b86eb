// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package protocol fixes the parameters prover and verifier must agree on:
// the curve, the tree depth, the range bit width and the domain separation
// tags. Two parties holding Params with equal fingerprints interoperate;
// everything downstream (merkle, anchor, rangeproof, witness, verifier,
// circuits, sigma) is constructed from a validated Params value.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"golang.org/x/crypto/sha3"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
)

// Tag values absorbed as the first hash block at each construction site.
// DomainTag defaults to DefaultDomainTag and may be overridden per consumer,
// but never to one of the structural tags.
const (
	TagLeaf          = 1
	TagNode          = 2
	DefaultDomainTag = 3
	TagSigma         = 4
)

// Depth bounds. Capacity is 2^Depth, so the upper bound keeps arena indices
// well inside the int range on 64-bit platforms.
const (
	MinDepth = 1
	MaxDepth = 48
)

// MinBitWidth is the smallest accepted range decomposition width. The upper
// bound depends on the curve; see Params.MaxBitWidth.
const MinBitWidth = 1

// ErrParameterMismatch is returned for out-of-bounds or mutually inconsistent
// parameters, and by consumers rejecting artifacts produced under different
// parameters.
var ErrParameterMismatch = errors.New("parameter mismatch")

// Params fixes one protocol instantiation.
type Params struct {
	// Curve selects the scalar field and the MiMC instance.
	Curve ecc.ID

	// Depth is the fixed Merkle tree depth; every proof and path has exactly
	// Depth levels regardless of how many leaves are occupied.
	Depth int

	// BitWidth is the width B of the bit decompositions of value-lo and
	// hi-value. Values and bounds must fit in B bits.
	BitWidth int

	// DomainTag is the first block of the anchor derivation. Distinct
	// consumers should use distinct tags so their anchors never collide.
	DomainTag *big.Int

	// EmptyLeaf is the value padding unoccupied leaves.
	EmptyLeaf *big.Int
}

// New returns Params with the default domain tag and a zero empty leaf.
func New(curve ecc.ID, depth, bitWidth int) Params {
	return Params{
		Curve:     curve,
		Depth:     depth,
		BitWidth:  bitWidth,
		DomainTag: big.NewInt(DefaultDomainTag),
		EmptyLeaf: new(big.Int),
	}
}

// MaxBitWidth returns the widest usable decomposition width for the curve,
// BitLen(p)-2. It keeps 2^(BitWidth+1) < p, so the sum of two in-width values
// cannot wrap the modulus.
func (p Params) MaxBitWidth() int {
	return p.Curve.ScalarField().BitLen() - 2
}

// Validate checks the parameters are usable and mutually consistent. All
// violations are reported as ErrParameterMismatch.
func (p Params) Validate() error {
	if _, err := hash.ForCurve(p.Curve); err != nil {
		return fmt.Errorf("%w: %v", ErrParameterMismatch, err)
	}
	if p.Depth < MinDepth || p.Depth > MaxDepth {
		return fmt.Errorf("%w: depth %d outside [%d, %d]", ErrParameterMismatch, p.Depth, MinDepth, MaxDepth)
	}
	if maxB := p.MaxBitWidth(); p.BitWidth < MinBitWidth || p.BitWidth > maxB {
		return fmt.Errorf("%w: bit width %d outside [%d, %d] for %s", ErrParameterMismatch, p.BitWidth, MinBitWidth, maxB, p.Curve)
	}
	scalar := p.Curve.ScalarField()
	if p.DomainTag == nil || p.DomainTag.Sign() < 0 || p.DomainTag.Cmp(scalar) >= 0 {
		return fmt.Errorf("%w: domain tag must be canonical in the scalar field", ErrParameterMismatch)
	}
	for _, reserved := range []int64{TagLeaf, TagNode, TagSigma} {
		if p.DomainTag.Cmp(big.NewInt(reserved)) == 0 {
			return fmt.Errorf("%w: domain tag %d is reserved", ErrParameterMismatch, reserved)
		}
	}
	if p.EmptyLeaf == nil || p.EmptyLeaf.Sign() < 0 || p.EmptyLeaf.Cmp(scalar) >= 0 {
		return fmt.Errorf("%w: empty leaf must be canonical in the scalar field", ErrParameterMismatch)
	}
	return nil
}

// Field returns the scalar field of the configured curve.
func (p Params) Field() (*field.Field, error) {
	return field.FromCurve(p.Curve)
}

// Hasher returns the domain-tagged hasher of the configured curve.
func (p Params) Hasher() (*hash.Hasher, error) {
	f, err := p.Field()
	if err != nil {
		return nil, err
	}
	return hash.New(f, p.Curve)
}

// Capacity returns the fixed number of leaf slots, 2^Depth.
func (p Params) Capacity() uint64 {
	return 1 << uint(p.Depth)
}

// LeafTag returns the tag absorbed before hashing a leaf value.
func (p Params) LeafTag(f *field.Field) field.Element {
	return f.NewElementFromUint64(TagLeaf)
}

// NodeTag returns the tag absorbed before hashing a pair of children.
func (p Params) NodeTag(f *field.Field) field.Element {
	return f.NewElementFromUint64(TagNode)
}

// AnchorTag returns the configured domain tag as a field element.
func (p Params) AnchorTag(f *field.Field) field.Element {
	return f.NewElement(p.DomainTag)
}

// SigmaTag returns the tag absorbed before hashing a sigma challenge.
func (p Params) SigmaTag(f *field.Field) field.Element {
	return f.NewElementFromUint64(TagSigma)
}

// EmptyLeafElement returns the padding value as a field element.
func (p Params) EmptyLeafElement(f *field.Field) field.Element {
	return f.NewElement(p.EmptyLeaf)
}

// Fingerprint returns a 32-byte digest identifying the parameter set.
// Artifacts (witness blobs, proof envelopes) embed it so a consumer can
// reject anything produced under different parameters before doing any
// field work.
func (p Params) Fingerprint() [32]byte {
	var buf bytes.Buffer
	buf.WriteString("anchoredrange/params/v1")
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], uint32(p.Curve))
	buf.Write(scratch[:])
	binary.BigEndian.PutUint32(scratch[:], uint32(p.Depth))
	buf.Write(scratch[:])
	binary.BigEndian.PutUint32(scratch[:], uint32(p.BitWidth))
	buf.Write(scratch[:])
	writeBig(&buf, p.DomainTag)
	writeBig(&buf, p.EmptyLeaf)
	return sha3.Sum256(buf.Bytes())
}

func writeBig(buf *bytes.Buffer, v *big.Int) {
	var b []byte
	if v != nil {
		b = v.Bytes()
	}
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(b)))
	buf.Write(l[:])
	buf.Write(b)
}

func (p Params) String() string {
	return fmt.Sprintf("anchoredrange{curve: %s, depth: %d, bits: %d}", p.Curve, p.Depth, p.BitWidth)
}
