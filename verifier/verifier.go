// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package verifier checks a claim natively, without any proving backend.
//
// The verifier re-derives everything it can from the witness: the root from
// the leaf and its path, the anchor from the root and the public bounds, and
// the two range differences from the bit decompositions. Its semantics are
// exactly those enforced in-circuit, so a witness that passes here proves,
// and one that fails here is rejected before any proving work is spent.
//
// Semantic invalidity is not an error: Check returns (false, nil) for a
// well-formed witness that simply does not support the claim. Errors are
// reserved for structural and configuration faults.
package verifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/consensys/anchoredrange/anchor"
	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/hash"
	"github.com/consensys/anchoredrange/logger"
	"github.com/consensys/anchoredrange/merkle"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/rangeproof"
	"github.com/consensys/anchoredrange/witness"
)

var (
	// ErrAnchorMismatch is the diagnosis when the anchor recomputed from the
	// witness differs from the claimed one. Both membership and binding
	// failures surface here, since the anchor is the only commitment.
	ErrAnchorMismatch = errors.New("anchor mismatch")

	// ErrRangeReconstruction is the diagnosis when the range bits do not
	// recompose value-lo and hi-value, or are not boolean.
	ErrRangeReconstruction = errors.New("range reconstruction failed")
)

// Verifier checks claims under one parameter set.
type Verifier struct {
	params protocol.Params
	f      *field.Field
	h      *hash.Hasher
	engine *merkle.Engine

	log zerolog.Logger
}

// New returns a Verifier for the given parameters.
func New(p protocol.Params) (*Verifier, error) {
	engine, err := merkle.New(p)
	if err != nil {
		return nil, err
	}
	h, err := p.Hasher()
	if err != nil {
		return nil, err
	}
	return &Verifier{
		params: p,
		f:      engine.Field(),
		h:      h,
		engine: engine,
		log:    logger.With("verifier"),
	}, nil
}

// Params returns the parameter set the verifier was built from.
func (v *Verifier) Params() protocol.Params {
	return v.params
}

// Check reports whether w supports the claim pub. Semantic invalidity is
// (false, nil); a non-nil error means the inputs were structurally unusable.
func (v *Verifier) Check(pub PublicInputs, w *witness.Witness) (bool, error) {
	start := time.Now()
	err := v.Diagnose(pub, w)
	valid := err == nil
	if valid || isSemantic(err) {
		v.log.Debug().Dur("took", time.Since(start)).Bool("valid", valid).Msg("native check done")
		return valid, nil
	}
	return false, err
}

// Diagnose returns nil when w supports pub, and otherwise the structured
// reason: ErrAnchorMismatch, ErrRangeReconstruction,
// rangeproof.ErrBoundsOverflow, or a structural fault.
func (v *Verifier) Diagnose(pub PublicInputs, w *witness.Witness) error {
	if w == nil {
		return fmt.Errorf("%w: nil witness", witness.ErrShapeMismatch)
	}
	if w.Params().Fingerprint() != v.params.Fingerprint() {
		return fmt.Errorf("%w: witness bound to different parameters", protocol.ErrParameterMismatch)
	}
	if err := w.Validate(); err != nil {
		return err
	}
	for _, e := range []field.Element{pub.Anchor, pub.Lo, pub.Hi} {
		if !e.Field().Equal(v.f) {
			return fmt.Errorf("%w: public input outside the curve scalar field", protocol.ErrParameterMismatch)
		}
	}

	// the bounds must fit the decomposition width, exactly as asserted
	// in-circuit; a wider bound would let a wrapped difference recompose
	if pub.Lo.BitLen() > v.params.BitWidth || pub.Hi.BitLen() > v.params.BitWidth {
		return fmt.Errorf("%w: bound wider than %d bits", rangeproof.ErrBoundsOverflow, v.params.BitWidth)
	}

	dLo, dHi, err := w.Range.Reconstruct(v.f)
	if err != nil {
		if errors.Is(err, rangeproof.ErrNotBoolean) {
			return fmt.Errorf("%w: %v", ErrRangeReconstruction, err)
		}
		return err
	}
	if !dLo.Equal(w.Value.Sub(pub.Lo)) {
		return fmt.Errorf("%w: lo bits do not recompose value-lo", ErrRangeReconstruction)
	}
	if !dHi.Equal(pub.Hi.Sub(w.Value)) {
		return fmt.Errorf("%w: hi bits do not recompose hi-value", ErrRangeReconstruction)
	}

	root, err := v.engine.RootFromPath(w.Value, w.Path)
	if err != nil {
		return err
	}
	derived := anchor.Derive(v.h, root, pub.Lo, pub.Hi, v.params.AnchorTag(v.f))
	if !derived.Equal(pub.Anchor) {
		return fmt.Errorf("%w: derived anchor differs from claim", ErrAnchorMismatch)
	}
	return nil
}

// isSemantic separates "the claim is false" from "the inputs are broken".
func isSemantic(err error) bool {
	return errors.Is(err, ErrAnchorMismatch) ||
		errors.Is(err, ErrRangeReconstruction) ||
		errors.Is(err, rangeproof.ErrBoundsOverflow)
}
