// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package merkle

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/consensys/anchoredrange/field"
)

// Leaf is a value bound to a slot index. The index is fixed once inserted;
// the tree commits to the value only, positions are the caller's bookkeeping.
type Leaf struct {
	Index uint64
	Value field.Element
}

// Builder accumulates leaves at arbitrary slots before a build. Unlike
// Engine.Build, which packs leaves from slot 0, a Builder accepts sparse,
// out-of-order insertion. It is not safe for concurrent use.
type Builder struct {
	e        *Engine
	values   []field.Element
	occupied *bitset.BitSet
}

// Insert places a leaf in its slot. Each slot may be filled once.
func (b *Builder) Insert(l Leaf) error {
	if l.Index >= b.e.Capacity() {
		return fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, l.Index, b.e.Capacity())
	}
	if b.occupied.Test(uint(l.Index)) {
		return fmt.Errorf("%w: slot %d", ErrDuplicateIndex, l.Index)
	}
	if err := b.e.checkLeafField(l.Value); err != nil {
		return err
	}
	b.values[l.Index] = l.Value
	b.occupied.Set(uint(l.Index))
	return nil
}

// Count returns the number of inserted leaves.
func (b *Builder) Count() uint64 {
	return uint64(b.occupied.Count())
}

// Build hashes the inserted leaves, padding every empty slot, and returns the
// completed tree. The builder keeps its state and may keep inserting into
// remaining slots for a later build.
func (b *Builder) Build() *Tree {
	return b.e.build(b.values, b.occupied.Clone())
}
