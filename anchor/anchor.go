// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package anchor derives the public digest binding a proof to an accumulator
// root and a value range.
//
// The anchor is the one public commitment prover and verifier agree on:
// H(tag, root, lo, hi). It is never stored as authoritative state; every
// verifier recomputes it from values it already trusts. The tag is the
// domain separator configured in protocol.Params, so anchors from distinct
// deployments never collide even over identical roots and ranges.
package anchor

import (
	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
	"github.com/consensys/anchoredrange/protocol"
)

// Derive returns H(tag, root, lo, hi). Changing any argument changes the
// digest, so one anchor commits to one (root, lo, hi, domain) tuple.
func Derive(h *hash.Hasher, root, lo, hi, tag field.Element) field.Element {
	return h.Sum(tag, root, lo, hi)
}

// DeriveForParams derives the anchor under the domain tag configured in p.
func DeriveForParams(p protocol.Params, root, lo, hi field.Element) (field.Element, error) {
	if err := p.Validate(); err != nil {
		return field.Element{}, err
	}
	h, err := p.Hasher()
	if err != nil {
		return field.Element{}, err
	}
	return Derive(h, root, lo, hi, p.AnchorTag(h.Field())), nil
}
