// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package snark is the proving-backend boundary.
//
// It defines what a backend must do (Backend) and the opaque envelope proofs
// travel in (Proof), with no dependency on any particular proving stack. The
// gnark-backed implementation lives in circuits; alternative backends only
// need this package.
package snark

import (
	"errors"

	"github.com/consensys/anchoredrange/verifier"
	"github.com/consensys/anchoredrange/witness"
)

// ErrProofRejected is returned by Verify when a well-formed proof does not
// verify. Anything else a backend returns is a structural fault.
var ErrProofRejected = errors.New("proof rejected")

// Backend produces and checks proofs for one circuit instantiation.
//
// Prove fails when the witness does not support the claim; provers are
// expected to pre-check natively, so no proving work is spent on false
// claims. Verify returns nil for acceptance and ErrProofRejected for a clean
// rejection.
type Backend interface {
	Prove(w *witness.Witness, pub verifier.PublicInputs) (*Proof, error)
	Verify(p *Proof, pub verifier.PublicInputs) error
}
