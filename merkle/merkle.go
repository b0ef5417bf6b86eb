// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package merkle implements the fixed-depth Merkle accumulator the range
// proofs commit to.
//
// A tree always has exactly 2^Depth leaf slots; slots without an inserted
// value hold the protocol's empty-leaf padding. Leaves are hashed with the
// leaf tag before entering the tree, interior nodes with the node tag, so a
// leaf hash can never be confused with an interior hash. All nodes live in
// one flat arena and each level is hashed in parallel.
package merkle

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
	"github.com/consensys/anchoredrange/logger"
	"github.com/consensys/anchoredrange/protocol"
)

var (
	// ErrTooManyLeaves is returned when more leaves are supplied than the
	// tree has slots.
	ErrTooManyLeaves = errors.New("too many leaves for tree capacity")

	// ErrIndexOutOfRange is returned for leaf indices that are beyond the
	// capacity or not occupied by an inserted leaf.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	// ErrDuplicateIndex is returned when inserting twice at the same slot.
	ErrDuplicateIndex = errors.New("leaf index already set")

	// ErrPathLength is returned when a path does not have exactly Depth
	// siblings and directions.
	ErrPathLength = errors.New("path length does not match depth")

	// ErrInvalidDirection is returned when a path direction is not 0 or 1.
	ErrInvalidDirection = errors.New("path direction is not a bit")

	// ErrPathEncoding is returned when decoding a malformed serialized path.
	ErrPathEncoding = errors.New("invalid path encoding")
)

// Engine builds and verifies trees under one parameter set.
type Engine struct {
	params protocol.Params
	f      *field.Field
	h      *hash.Hasher

	leafTag, nodeTag field.Element
	emptyLeaf        field.Element
	emptyLeafHash    field.Element

	log zerolog.Logger
}

// New returns an Engine for the given parameters. The parameters are
// validated here once; everything the engine produces inherits them.
func New(params protocol.Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	f, err := params.Field()
	if err != nil {
		return nil, err
	}
	h, err := params.Hasher()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		params:    params,
		f:         f,
		h:         h,
		leafTag:   params.LeafTag(f),
		nodeTag:   params.NodeTag(f),
		emptyLeaf: params.EmptyLeafElement(f),
		log:       logger.With("merkle"),
	}
	e.emptyLeafHash = e.HashLeaf(e.emptyLeaf)
	return e, nil
}

// Params returns the parameter set the engine was built from.
func (e *Engine) Params() protocol.Params {
	return e.params
}

// Field returns the engine's scalar field.
func (e *Engine) Field() *field.Field {
	return e.f
}

// Depth returns the fixed tree depth.
func (e *Engine) Depth() int {
	return e.params.Depth
}

// Capacity returns the fixed number of leaf slots.
func (e *Engine) Capacity() uint64 {
	return e.params.Capacity()
}

// HashLeaf returns the leaf-tagged hash of a leaf value, the node stored at
// level 0 of the tree.
func (e *Engine) HashLeaf(v field.Element) field.Element {
	return e.h.Sum(e.leafTag, v)
}

func (e *Engine) hashNode(left, right field.Element) field.Element {
	return e.h.Sum(e.nodeTag, left, right)
}

func (e *Engine) checkLeafField(v field.Element) error {
	if !v.Field().Equal(e.f) {
		return fmt.Errorf("%w: leaf value from a different field", protocol.ErrParameterMismatch)
	}
	return nil
}

// Build hashes the given leaves into slots 0..len(leaves)-1, pads the
// remaining slots with the empty leaf and returns the completed tree.
func (e *Engine) Build(leaves []field.Element) (*Tree, error) {
	if uint64(len(leaves)) > e.Capacity() {
		return nil, fmt.Errorf("%w: %d leaves, capacity %d", ErrTooManyLeaves, len(leaves), e.Capacity())
	}
	for _, v := range leaves {
		if err := e.checkLeafField(v); err != nil {
			return nil, err
		}
	}
	occupied := bitset.New(uint(len(leaves)))
	for i := range leaves {
		occupied.Set(uint(i))
	}
	return e.build(leaves, occupied), nil
}

// NewBuilder returns a Builder for sparse, out-of-order leaf insertion.
func (e *Engine) NewBuilder() *Builder {
	return &Builder{
		e:        e,
		values:   make([]field.Element, e.Capacity()),
		occupied: bitset.New(0),
	}
}

// VerifyPath recomputes the root implied by leaf and path and compares it to
// root. A mismatch is reported as (false, nil); errors are reserved for
// structurally broken paths.
func (e *Engine) VerifyPath(root, leaf field.Element, path Path) (bool, error) {
	cur, err := e.RootFromPath(leaf, path)
	if err != nil {
		return false, err
	}
	return cur.Equal(root), nil
}

// RootFromPath folds leaf up the tree along path and returns the implied
// root: at each level the current node is hashed with its sibling, on the
// side the direction bit selects.
func (e *Engine) RootFromPath(leaf field.Element, path Path) (field.Element, error) {
	if len(path.Siblings) != e.Depth() || len(path.Directions) != e.Depth() {
		return field.Element{}, fmt.Errorf("%w: got %d siblings and %d directions, want %d",
			ErrPathLength, len(path.Siblings), len(path.Directions), e.Depth())
	}
	if err := e.checkLeafField(leaf); err != nil {
		return field.Element{}, err
	}
	cur := e.HashLeaf(leaf)
	for i := 0; i < e.Depth(); i++ {
		if err := e.checkLeafField(path.Siblings[i]); err != nil {
			return field.Element{}, err
		}
		switch path.Directions[i] {
		case 0:
			cur = e.hashNode(cur, path.Siblings[i])
		case 1:
			cur = e.hashNode(path.Siblings[i], cur)
		default:
			return field.Element{}, fmt.Errorf("%w: level %d holds %d", ErrInvalidDirection, i, path.Directions[i])
		}
	}
	return cur, nil
}
