// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package merkle

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/internal/parallel"
)

// Tree is a built accumulator. It is immutable and safe for concurrent
// readers; a Tree is obtained from Engine.Build or Builder.Build and never
// mutated afterwards.
//
// All 2^Depth+1 - 1 nodes live in a single arena ordered level by level:
// level 0 holds the tagged leaf hashes, level Depth holds the root. The
// original (pre-hash) leaf values are kept so that callers can recover the
// committed value when assembling a proof witness.
type Tree struct {
	e *Engine

	values   []field.Element // padded leaf values, one per slot
	arena    []field.Element // node hashes, level by level from the leaf layer
	offsets  []int           // offsets[k] = arena index of the first node of level k
	occupied *bitset.BitSet  // slots holding an inserted (non-padding) leaf
}

// build hashes values into a full tree. values may be shorter than the
// capacity; missing or unoccupied slots take the empty-leaf padding.
func (e *Engine) build(values []field.Element, occupied *bitset.BitSet) *Tree {
	start := time.Now()
	capacity := int(e.Capacity())
	depth := e.Depth()

	padded := make([]field.Element, capacity)
	for i := range padded {
		if i < len(values) && occupied.Test(uint(i)) {
			padded[i] = values[i]
		} else {
			padded[i] = e.emptyLeaf
		}
	}

	offsets := make([]int, depth+1)
	total := 0
	width := capacity
	for k := 0; k <= depth; k++ {
		offsets[k] = total
		total += width
		width >>= 1
	}
	arena := make([]field.Element, total)

	// leaf layer
	parallel.Execute(0, capacity, func(s, t int) {
		for i := s; i < t; i++ {
			if occupied.Test(uint(i)) {
				arena[i] = e.HashLeaf(padded[i])
			} else {
				arena[i] = e.emptyLeafHash
			}
		}
	})

	// interior levels, one barrier per level: level k+1 reads only level k
	for k := 1; k <= depth; k++ {
		prev, cur := offsets[k-1], offsets[k]
		parallel.Execute(0, capacity>>uint(k), func(s, t int) {
			for i := s; i < t; i++ {
				arena[cur+i] = e.hashNode(arena[prev+2*i], arena[prev+2*i+1])
			}
		})
	}

	t := &Tree{
		e:        e,
		values:   padded,
		arena:    arena,
		offsets:  offsets,
		occupied: occupied,
	}
	e.log.Debug().
		Int("depth", depth).
		Uint("leaves", occupied.Count()).
		Dur("took", time.Since(start)).
		Msg("tree built")
	return t
}

// Root returns the node at depth 0 of the hash chain, the value published for
// this dataset snapshot.
func (t *Tree) Root() field.Element {
	return t.arena[len(t.arena)-1]
}

// Depth returns the fixed depth of the tree.
func (t *Tree) Depth() int {
	return t.e.Depth()
}

// Capacity returns the number of leaf slots.
func (t *Tree) Capacity() uint64 {
	return t.e.Capacity()
}

// LeafCount returns the number of inserted (non-padding) leaves.
func (t *Tree) LeafCount() uint64 {
	return uint64(t.occupied.Count())
}

// Occupied reports whether the slot holds an inserted leaf rather than
// padding.
func (t *Tree) Occupied(index uint64) bool {
	return index < t.Capacity() && t.occupied.Test(uint(index))
}

// Leaf returns the value stored in the slot, padding included.
func (t *Tree) Leaf(index uint64) (field.Element, error) {
	if index >= t.Capacity() {
		return field.Element{}, fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, index, t.Capacity())
	}
	return t.values[index], nil
}

// Path returns the sibling chain from the slot up to the root. Only occupied
// slots have paths; asking for a padding slot is rejected, proofs are always
// about inserted leaves.
func (t *Tree) Path(index uint64) (Path, error) {
	if !t.Occupied(index) {
		return Path{}, fmt.Errorf("%w: index %d not among the %d inserted leaves", ErrIndexOutOfRange, index, t.LeafCount())
	}
	depth := t.Depth()
	p := Path{
		Siblings:   make([]field.Element, depth),
		Directions: make([]uint8, depth),
	}
	pos := int(index)
	for k := 0; k < depth; k++ {
		p.Siblings[k] = t.arena[t.offsets[k]+(pos^1)]
		p.Directions[k] = uint8(pos & 1)
		pos >>= 1
	}
	return p, nil
}
