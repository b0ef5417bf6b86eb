// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package merkle

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"

	"github.com/consensys/anchoredrange/field"
)

// Path is the sibling chain from a leaf slot to the root, one entry per
// level. Directions[k] is the k-th bit of the leaf index: 0 when the running
// node is the left child (sibling on the right), 1 when it is the right
// child.
type Path struct {
	Siblings   []field.Element
	Directions []uint8
}

// Depth returns the number of levels the path covers.
func (p Path) Depth() int {
	return len(p.Siblings)
}

// MarshalBinary encodes the path as Depth fixed-width sibling encodings
// followed by a direction bitmap of ceil(Depth/8) bytes, written MSB first
// with zero padding. The total size is Depth*fieldWidth + ceil(Depth/8)
// bytes.
func (p Path) MarshalBinary() ([]byte, error) {
	depth := len(p.Siblings)
	if depth == 0 || len(p.Directions) != depth {
		return nil, fmt.Errorf("%w: %d siblings, %d directions", ErrPathLength, depth, len(p.Directions))
	}
	f := p.Siblings[0].Field()
	buf := bytes.NewBuffer(make([]byte, 0, depth*f.ByteLen()+(depth+7)/8))
	for i, s := range p.Siblings {
		if !s.Field().Equal(f) {
			return nil, fmt.Errorf("%w: sibling %d from a different field", ErrPathEncoding, i)
		}
		buf.Write(s.Bytes())
	}
	w := bitio.NewWriter(buf)
	for i, d := range p.Directions {
		if d > 1 {
			return nil, fmt.Errorf("%w: level %d holds %d", ErrInvalidDirection, i, d)
		}
		if err := w.WriteBits(uint64(d), 1); err != nil {
			return nil, err
		}
	}
	// Close flushes the last byte, zero-padding the unused low bits
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PathFromBytes decodes a path serialized by Path.MarshalBinary under the
// engine's parameters. It rejects wrong lengths, non-canonical siblings and
// non-zero bitmap padding.
func (e *Engine) PathFromBytes(data []byte) (Path, error) {
	depth := e.Depth()
	width := e.f.ByteLen()
	want := depth*width + (depth+7)/8
	if len(data) != want {
		return Path{}, fmt.Errorf("%w: got %d bytes, want %d", ErrPathEncoding, len(data), want)
	}
	p := Path{
		Siblings:   make([]field.Element, depth),
		Directions: make([]uint8, depth),
	}
	for i := 0; i < depth; i++ {
		s, err := e.f.FromBytes(data[i*width : (i+1)*width])
		if err != nil {
			return Path{}, fmt.Errorf("%w: sibling %d: %v", ErrPathEncoding, i, err)
		}
		p.Siblings[i] = s
	}
	r := bitio.NewReader(bytes.NewReader(data[depth*width:]))
	for i := 0; i < depth; i++ {
		bit, err := r.ReadBits(1)
		if err != nil {
			return Path{}, fmt.Errorf("%w: bitmap: %v", ErrPathEncoding, err)
		}
		p.Directions[i] = uint8(bit)
	}
	for i := depth; i%8 != 0; i++ {
		bit, err := r.ReadBits(1)
		if err != nil {
			return Path{}, fmt.Errorf("%w: bitmap: %v", ErrPathEncoding, err)
		}
		if bit != 0 {
			return Path{}, fmt.Errorf("%w: non-zero bitmap padding", ErrPathEncoding)
		}
	}
	return p, nil
}
