// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package ioutils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUintsRoundTrip(t *testing.T) {
	assert := require.New(t)

	cases := [][]uint64{
		{},
		{0},
		{1, 0, 1, 1, 0, 0, 0, 1},
		{42, 1 << 40, 0, 7, 7, 7},
	}

	for _, in := range cases {
		var buf bytes.Buffer
		assert.NoError(CompressAndWriteUints(&buf, in))
		written := buf.Len()

		n, out, err := ReadAndDecompressUints(&buf, 1<<16)
		assert.NoError(err)
		assert.Equal(written, n)
		assert.Equal(len(in), len(out))
		for i := range in {
			assert.Equal(in[i], out[i])
		}
	}
}

func TestUintsNarrowTypes(t *testing.T) {
	assert := require.New(t)

	bits := []uint8{1, 0, 0, 1, 1, 1, 0, 1, 0}
	var buf bytes.Buffer
	assert.NoError(CompressAndWriteUints(&buf, bits))

	_, out, err := ReadAndDecompressUints(&buf, 1<<16)
	assert.NoError(err)
	assert.Equal(len(bits), len(out))
	for i := range bits {
		assert.Equal(uint64(bits[i]), out[i])
	}
}

func TestUintsWordLimit(t *testing.T) {
	assert := require.New(t)

	in := make([]uint64, 1024)
	for i := range in {
		in[i] = uint64(i)
	}
	var buf bytes.Buffer
	assert.NoError(CompressAndWriteUints(&buf, in))

	_, _, err := ReadAndDecompressUints(&buf, 2)
	assert.Error(err)
}

func TestUintsTruncated(t *testing.T) {
	assert := require.New(t)

	var buf bytes.Buffer
	assert.NoError(CompressAndWriteUints(&buf, []uint64{1, 2, 3, 4, 5}))

	trunc := buf.Bytes()[:buf.Len()-3]
	_, _, err := ReadAndDecompressUints(bytes.NewReader(trunc), 1<<16)
	assert.Error(err)
}
