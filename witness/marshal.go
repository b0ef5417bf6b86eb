// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package witness

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/internal/ioutils"
	"github.com/consensys/anchoredrange/merkle"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/rangeproof"
)

// ErrEncoding is returned when decoding a malformed witness blob.
var ErrEncoding = errors.New("malformed witness encoding")

// Blob layout: params fingerprint, four little-endian uint64 section lengths,
// then the sections themselves: raw field elements (value, then siblings)
// followed by the intcomp-compressed direction, lo-bit and hi-bit streams.
const headerLen = 32 + 4*8

// compressedSlack bounds the per-stream overhead of an incompressible input,
// in 8-byte words. Used to cap attacker-controlled section lengths before
// allocation.
const compressedSlack = 16

// WriteTo serializes the witness. The fingerprint header lets a reader reject
// blobs produced under different parameters before touching field data.
func (w *Witness) WriteTo(out io.Writer) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	// the three integer sections compress independently
	var directions, loBits, hiBits []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		directions, err = compressBits(w.Path.Directions)
		return err
	})
	g.Go(func() error {
		var err error
		loBits, err = compressElements(w.Range.LoBits)
		return err
	})
	g.Go(func() error {
		var err error
		hiBits, err = compressElements(w.Range.HiBits)
		return err
	})

	elems := make([]byte, 0, (1+len(w.Path.Siblings))*w.f.ByteLen())
	elems = append(elems, w.Value.Bytes()...)
	for _, s := range w.Path.Siblings {
		elems = append(elems, s.Bytes()...)
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	fp := w.params.Fingerprint()
	buf := make([]byte, 0, headerLen+len(elems)+len(directions)+len(loBits)+len(hiBits))
	buf = append(buf, fp[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(elems)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(directions)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(loBits)))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(hiBits)))
	buf = append(buf, elems...)
	buf = append(buf, directions...)
	buf = append(buf, loBits...)
	buf = append(buf, hiBits...)

	n, err := out.Write(buf)
	return int64(n), err
}

// ReadFrom decodes a blob written by WriteTo into w, which must be bound to
// parameters with New. A fingerprint differing from the bound parameters is
// rejected as protocol.ErrParameterMismatch before any section is read.
func (w *Witness) ReadFrom(r io.Reader) (int64, error) {
	if w.f == nil {
		return 0, fmt.Errorf("%w: witness not bound to parameters", protocol.ErrParameterMismatch)
	}

	var header [headerLen]byte
	n, err := io.ReadFull(r, header[:])
	read := int64(n)
	if err != nil {
		return read, err
	}

	fp := w.params.Fingerprint()
	if !bytes.Equal(header[:32], fp[:]) {
		return read, fmt.Errorf("%w: witness blob fingerprint differs", protocol.ErrParameterMismatch)
	}

	d, b := w.params.Depth, w.params.BitWidth
	elemsLen := binary.LittleEndian.Uint64(header[32:40])
	dirLen := binary.LittleEndian.Uint64(header[40:48])
	loLen := binary.LittleEndian.Uint64(header[48:56])
	hiLen := binary.LittleEndian.Uint64(header[56:64])

	// section lengths are attacker controlled; pin them to the shapes the
	// parameters dictate before allocating
	byteLen := uint64(w.f.ByteLen())
	if want := (1 + uint64(d)) * byteLen; elemsLen != want {
		return read, fmt.Errorf("%w: element section is %d bytes, want %d", ErrEncoding, elemsLen, want)
	}
	maxPacked := func(count int) uint64 { return 8 * (uint64(count) + compressedSlack + 1) }
	if dirLen > maxPacked(d) || loLen > maxPacked(b) || hiLen > maxPacked(b) {
		return read, fmt.Errorf("%w: compressed section too long", ErrEncoding)
	}

	body := make([]byte, elemsLen+dirLen+loLen+hiLen)
	n, err = io.ReadFull(r, body)
	read += int64(n)
	if err != nil {
		return read, err
	}

	elems := body[:elemsLen]
	dirSection := body[elemsLen : elemsLen+dirLen]
	loSection := body[elemsLen+dirLen : elemsLen+dirLen+loLen]
	hiSection := body[elemsLen+dirLen+loLen:]

	value, err := w.f.FromBytes(elems[:byteLen])
	if err != nil {
		return read, fmt.Errorf("%w: value: %v", ErrEncoding, err)
	}
	siblings := make([]field.Element, d)
	for i := range siblings {
		off := (1 + uint64(i)) * byteLen
		if siblings[i], err = w.f.FromBytes(elems[off : off+byteLen]); err != nil {
			return read, fmt.Errorf("%w: sibling %d: %v", ErrEncoding, i, err)
		}
	}

	var dirWords, loWords, hiWords []uint64
	var g errgroup.Group
	g.Go(func() error {
		var err error
		dirWords, err = decompressSection(dirSection, d)
		return err
	})
	g.Go(func() error {
		var err error
		loWords, err = decompressSection(loSection, b)
		return err
	})
	g.Go(func() error {
		var err error
		hiWords, err = decompressSection(hiSection, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return read, err
	}

	directions := make([]uint8, len(dirWords))
	for i, v := range dirWords {
		if v > 1 {
			return read, fmt.Errorf("%w: direction %d is not a bit", ErrEncoding, i)
		}
		directions[i] = uint8(v)
	}

	path := merkle.Path{Siblings: siblings, Directions: directions}
	rw := rangeproof.Witness{LoBits: liftWords(w.f, loWords), HiBits: liftWords(w.f, hiWords)}
	if err := w.validate(value, path, rw); err != nil {
		return read, err
	}
	w.Value, w.Path, w.Range = value, path, rw
	return read, nil
}

func compressBits(bits []uint8) ([]byte, error) {
	var buf bytes.Buffer
	if err := ioutils.CompressAndWriteUints(&buf, bits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressElements(bits []field.Element) ([]byte, error) {
	words := make([]uint64, len(bits))
	for i, bit := range bits {
		v, ok := bit.Uint64()
		if !ok {
			return nil, fmt.Errorf("%w: bit %d does not fit a machine word", ErrEncoding, i)
		}
		words[i] = v
	}
	var buf bytes.Buffer
	if err := ioutils.CompressAndWriteUints(&buf, words); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressSection(section []byte, count int) ([]uint64, error) {
	n, values, err := ioutils.ReadAndDecompressUints(bytes.NewReader(section), uint64(count)+compressedSlack)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if n != len(section) {
		return nil, fmt.Errorf("%w: %d trailing bytes after compressed section", ErrEncoding, len(section)-n)
	}
	return values, nil
}

func liftWords(f *field.Field, words []uint64) []field.Element {
	out := make([]field.Element, len(words))
	for i, v := range words {
		out[i] = f.NewElementFromUint64(v)
	}
	return out
}
