// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package field implements arithmetic in a prime field whose modulus is a
// runtime value.
//
// Every component of the protocol manipulates scalars through this package
// exclusively; none of them bakes in a curve order. Switching curves is then a
// matter of constructing a Field from another modulus, typically with
// FromCurve.
//
// Elements carry a reference to their Field and are immutable; operations
// return fresh values. Mixing elements of two fields with different moduli is
// a programming error and panics.
package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark"
	"github.com/consensys/gnark-crypto/ecc"
)

var (
	// ErrInvalidModulus is returned when constructing a field from a modulus
	// that is nil, too small or not prime.
	ErrInvalidModulus = errors.New("invalid modulus")

	// ErrUnsupportedCurve is returned when a curve id has no implementation.
	ErrUnsupportedCurve = errors.New("unsupported curve")

	// ErrNotInvertible is returned when inverting zero.
	ErrNotInvertible = errors.New("element is not invertible")

	// ErrOverflow is returned when a value does not fit the requested bit width.
	ErrOverflow = errors.New("value overflows bit width")

	// ErrInvalidEncoding is returned when decoding a byte string whose length
	// differs from the field's fixed width.
	ErrInvalidEncoding = errors.New("invalid encoding length")

	// ErrNonCanonical is returned when decoding a byte string representing a
	// value not strictly smaller than the modulus.
	ErrNonCanonical = errors.New("non-canonical encoding")
)

// Field is a prime field of odd order p. The zero value is not usable; use
// New or FromCurve.
type Field struct {
	p       *big.Int
	bitLen  int
	byteLen int
}

// New returns the field of order modulus. The modulus must be an odd prime;
// compositeness detected by the Miller-Rabin rounds is rejected.
func New(modulus *big.Int) (*Field, error) {
	if modulus == nil || modulus.Sign() <= 0 || modulus.BitLen() < 2 {
		return nil, fmt.Errorf("%w: nil or too small", ErrInvalidModulus)
	}
	if modulus.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: even", ErrInvalidModulus)
	}
	if !modulus.ProbablyPrime(20) {
		return nil, fmt.Errorf("%w: not prime", ErrInvalidModulus)
	}
	p := new(big.Int).Set(modulus)
	return &Field{
		p:       p,
		bitLen:  p.BitLen(),
		byteLen: (p.BitLen() + 7) / 8,
	}, nil
}

// FromCurve returns the scalar field of the given curve.
func FromCurve(id ecc.ID) (*Field, error) {
	for _, implemented := range gnark.Curves() {
		if implemented == id {
			return New(id.ScalarField())
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, id)
}

// Modulus returns a copy of the field order.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

// BitLen returns the bit length of the modulus.
func (f *Field) BitLen() int {
	return f.bitLen
}

// ByteLen returns the fixed width, in bytes, of the canonical element
// encoding; ceil(BitLen/8).
func (f *Field) ByteLen() int {
	return f.byteLen
}

// Equal reports whether both fields have the same order.
func (f *Field) Equal(other *Field) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	return f.p.Cmp(other.p) == 0
}

// NewElement returns v mod p as an element. v may be negative or exceed p;
// nil is treated as zero.
func (f *Field) NewElement(v *big.Int) Element {
	var e Element
	e.f = f
	if v != nil {
		e.v.Mod(v, f.p)
	}
	return e
}

// NewElementFromUint64 returns v reduced into the field.
func (f *Field) NewElementFromUint64(v uint64) Element {
	var e Element
	e.f = f
	e.v.SetUint64(v)
	e.v.Mod(&e.v, f.p)
	return e
}

// Zero returns the additive identity.
func (f *Field) Zero() Element {
	return Element{f: f}
}

// One returns the multiplicative identity.
func (f *Field) One() Element {
	return f.NewElementFromUint64(1)
}

// FromBytes decodes the fixed-width little-endian canonical encoding. The
// input must be exactly ByteLen bytes and must decode to a value < p.
func (f *Field) FromBytes(data []byte) (Element, error) {
	if len(data) != f.byteLen {
		return Element{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidEncoding, len(data), f.byteLen)
	}
	be := make([]byte, len(data))
	for i, b := range data {
		be[len(data)-1-i] = b
	}
	var e Element
	e.f = f
	e.v.SetBytes(be)
	if e.v.Cmp(f.p) >= 0 {
		return Element{}, fmt.Errorf("%w: value not below modulus", ErrNonCanonical)
	}
	return e, nil
}

// Rand returns a uniformly random element read from r. Pass crypto/rand's
// Reader for sampling secrets.
func (f *Field) Rand(r io.Reader) (Element, error) {
	v, err := rand.Int(r, f.p)
	if err != nil {
		return Element{}, err
	}
	var e Element
	e.f = f
	e.v.Set(v)
	return e, nil
}
