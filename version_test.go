// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package anchoredrange

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
	"github.com/consensys/anchoredrange/protocol"
)

func TestVersion(t *testing.T) {
	assert := require.New(t)

	assert.NotEmpty(Version.String())
	assert.Equal(uint64(0), Version.Major)
}

// Every listed curve must support the full construction chain: field,
// native hasher, validated parameters.
func TestCurvesAreUsable(t *testing.T) {
	assert := require.New(t)

	for _, id := range Curves() {
		f, err := field.FromCurve(id)
		assert.NoError(err, id.String())
		assert.Positive(f.BitLen(), id.String())

		h, err := hash.New(f, id)
		assert.NoError(err, id.String())
		assert.True(h.Field().Equal(f), id.String())

		p := protocol.New(id, 4, 8)
		assert.NoError(p.Validate(), id.String())
	}
}
