// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package ioutils provides compressed integer-stream helpers shared by the
// binary codecs.
package ioutils

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ronanh/intcomp"
	"golang.org/x/exp/constraints"
)

// CompressAndWriteUints widens input to uint64, compresses it and writes it to
// w prefixed by the compressed word count.
func CompressAndWriteUints[T constraints.Unsigned](w io.Writer, input []T) error {
	widened := make([]uint64, len(input))
	for i, v := range input {
		widened[i] = uint64(v)
	}
	buffer := intcomp.CompressUint64(widened, nil)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(buffer))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, buffer)
}

// ReadAndDecompressUints reads a stream written by CompressAndWriteUints and
// returns the number of bytes read along with the decompressed values.
// Streams whose compressed word count exceeds maxWords are rejected before
// any allocation, since the count is attacker-controlled in untrusted blobs.
func ReadAndDecompressUints(r io.Reader, maxWords uint64) (int, []uint64, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return 0, nil, err
	}
	if length > maxWords {
		return 8, nil, fmt.Errorf("compressed stream of %d words exceeds limit %d", length, maxWords)
	}
	buffer := make([]uint64, length)
	if err := binary.Read(r, binary.LittleEndian, buffer); err != nil {
		return 8, nil, err
	}
	return 8 + 8*int(length), intcomp.UncompressUint64(buffer, nil), nil
}
