// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package field

import (
	"fmt"
	"math/big"
)

// Element is a value in a Field, always reduced mod p. The zero value is not
// usable; obtain elements from a Field.
type Element struct {
	f *Field
	v big.Int
}

func (e Element) check() {
	if e.f == nil {
		panic("field: element not initialized")
	}
}

func (e Element) sameField(o Element) {
	e.check()
	o.check()
	if e.f != o.f && e.f.p.Cmp(o.f.p) != 0 {
		panic("field: mismatched moduli")
	}
}

// Field returns the field the element belongs to, or nil for the zero value.
func (e Element) Field() *Field {
	return e.f
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	e.sameField(o)
	var r Element
	r.f = e.f
	r.v.Add(&e.v, &o.v)
	r.v.Mod(&r.v, e.f.p)
	return r
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	e.sameField(o)
	var r Element
	r.f = e.f
	r.v.Sub(&e.v, &o.v)
	r.v.Mod(&r.v, e.f.p)
	return r
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	e.sameField(o)
	var r Element
	r.f = e.f
	r.v.Mul(&e.v, &o.v)
	r.v.Mod(&r.v, e.f.p)
	return r
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	e.check()
	var r Element
	r.f = e.f
	r.v.Neg(&e.v)
	r.v.Mod(&r.v, e.f.p)
	return r
}

// Inverse returns e^-1 mod p, or ErrNotInvertible for zero.
func (e Element) Inverse() (Element, error) {
	e.check()
	if e.v.Sign() == 0 {
		return Element{}, ErrNotInvertible
	}
	var r Element
	r.f = e.f
	r.v.ModInverse(&e.v, e.f.p)
	return r, nil
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	e.check()
	return e.v.Sign() == 0
}

// Equal reports whether e and o represent the same value.
func (e Element) Equal(o Element) bool {
	e.sameField(o)
	return e.v.Cmp(&o.v) == 0
}

// Cmp compares e and o as integers in [0, p) and returns -1, 0 or 1.
func (e Element) Cmp(o Element) int {
	e.sameField(o)
	return e.v.Cmp(&o.v)
}

// BigInt returns a copy of the element's integer representative in [0, p).
func (e Element) BigInt() *big.Int {
	e.check()
	return new(big.Int).Set(&e.v)
}

// Uint64 returns the element as a uint64 if it fits, with ok reporting
// whether it did.
func (e Element) Uint64() (v uint64, ok bool) {
	e.check()
	if !e.v.IsUint64() {
		return 0, false
	}
	return e.v.Uint64(), true
}

// BitLen returns the bit length of the integer representative.
func (e Element) BitLen() int {
	e.check()
	return e.v.BitLen()
}

// Bits decomposes the element into width bits, least significant first. It
// returns ErrOverflow when the representative needs more than width bits.
func (e Element) Bits(width int) ([]uint8, error) {
	e.check()
	if width < 0 {
		return nil, fmt.Errorf("%w: negative width %d", ErrOverflow, width)
	}
	if e.v.BitLen() > width {
		return nil, fmt.Errorf("%w: need %d bits, width is %d", ErrOverflow, e.v.BitLen(), width)
	}
	bits := make([]uint8, width)
	for i := 0; i < width; i++ {
		bits[i] = uint8(e.v.Bit(i))
	}
	return bits, nil
}

// Bytes returns the fixed-width little-endian canonical encoding, the inverse
// of Field.FromBytes.
func (e Element) Bytes() []byte {
	e.check()
	be := e.v.FillBytes(make([]byte, e.f.byteLen))
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}
	return be
}

func (e Element) String() string {
	if e.f == nil {
		return "<uninitialized>"
	}
	return e.v.String()
}
