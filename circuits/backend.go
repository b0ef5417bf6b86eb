// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package circuits

import (
	"bytes"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/rs/zerolog"

	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/logger"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/snark"
	"github.com/consensys/anchoredrange/verifier"
	"github.com/consensys/anchoredrange/witness"
)

// Scheme identifies the proving system a backend runs on.
type Scheme string

const (
	Groth16 Scheme = "groth16"
	Plonk   Scheme = "plonk"
)

// SRSProvider returns the canonical and Lagrange structured reference
// strings sized for the compiled constraint system. PLONK setup needs one;
// production deployments load the output of a trusted ceremony here.
type SRSProvider func(ccs constraint.ConstraintSystem) (srs, srsLagrange kzg.SRS, err error)

type backendConfig struct {
	scheme Scheme
	srs    SRSProvider
}

// Option configures a Backend at construction time.
type Option func(*backendConfig) error

// WithScheme selects the proving system. The default is Groth16.
func WithScheme(s Scheme) Option {
	return func(c *backendConfig) error {
		switch s {
		case Groth16, Plonk:
			c.scheme = s
			return nil
		default:
			return fmt.Errorf("%w: unknown scheme %q", protocol.ErrParameterMismatch, s)
		}
	}
}

// WithSRSProvider sets the SRS source used by PLONK setup.
func WithSRSProvider(p SRSProvider) Option {
	return func(c *backendConfig) error {
		c.srs = p
		return nil
	}
}

// Backend compiles the circuit for a parameter set once and then proves and
// verifies claims against it. It implements snark.Backend.
//
// A Backend is safe for concurrent use once constructed.
type Backend struct {
	params protocol.Params
	scheme Scheme
	curve  ecc.ID
	f      *field.Field
	ccs    constraint.ConstraintSystem

	g16pk groth16.ProvingKey
	g16vk groth16.VerifyingKey
	plkpk plonk.ProvingKey
	plkvk plonk.VerifyingKey

	native *verifier.Verifier
	log    zerolog.Logger
}

// NewBackend compiles the circuit for p and runs the scheme setup. Groth16
// setup is self-contained; PLONK additionally needs an SRS provider.
func NewBackend(p protocol.Params, opts ...Option) (*Backend, error) {
	cfg := backendConfig{scheme: Groth16}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	native, err := verifier.New(p)
	if err != nil {
		return nil, err
	}
	f, err := p.Field()
	if err != nil {
		return nil, err
	}
	circuit, err := NewCircuit(p)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		params: p,
		scheme: cfg.scheme,
		curve:  p.Curve,
		f:      f,
		native: native,
		log:    logger.With("circuits"),
	}

	var builder frontend.NewBuilder
	switch cfg.scheme {
	case Groth16:
		builder = r1cs.NewBuilder
	case Plonk:
		builder = scs.NewBuilder
	}
	start := time.Now()
	b.ccs, err = frontend.Compile(p.Curve.ScalarField(), builder, circuit)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	b.log.Debug().Dur("took", time.Since(start)).
		Str("scheme", string(cfg.scheme)).
		Int("nbConstraints", b.ccs.GetNbConstraints()).
		Msg("circuit compiled")

	start = time.Now()
	switch cfg.scheme {
	case Groth16:
		b.g16pk, b.g16vk, err = groth16.Setup(b.ccs)
	case Plonk:
		if cfg.srs == nil {
			return nil, fmt.Errorf("%w: plonk setup needs an SRS provider", protocol.ErrParameterMismatch)
		}
		var srs, srsLagrange kzg.SRS
		srs, srsLagrange, err = cfg.srs(b.ccs)
		if err != nil {
			return nil, fmt.Errorf("srs: %w", err)
		}
		b.plkpk, b.plkvk, err = plonk.Setup(b.ccs, srs, srsLagrange)
	}
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	b.log.Debug().Dur("took", time.Since(start)).Msg("setup done")

	return b, nil
}

// Scheme returns the proving system the backend was built for.
func (b *Backend) Scheme() Scheme { return b.scheme }

// Params returns the parameter set the circuit was compiled for.
func (b *Backend) Params() protocol.Params { return b.params }

// ConstraintCount returns the number of constraints in the compiled circuit.
func (b *Backend) ConstraintCount() int { return b.ccs.GetNbConstraints() }

// Prove generates a proof that w satisfies the claim pub. The witness is
// checked natively first so a false claim fails with the native diagnosis
// instead of an opaque solver error.
func (b *Backend) Prove(w *witness.Witness, pub verifier.PublicInputs) (*snark.Proof, error) {
	if err := b.native.Diagnose(pub, w); err != nil {
		return nil, err
	}

	assignment, err := NewAssignment(b.params, pub, w)
	if err != nil {
		return nil, err
	}
	full, err := frontend.NewWitness(assignment, b.curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness: %w", err)
	}

	start := time.Now()
	var blob bytes.Buffer
	switch b.scheme {
	case Groth16:
		proof, err := groth16.Prove(b.ccs, b.g16pk, full)
		if err != nil {
			return nil, fmt.Errorf("prove: %w", err)
		}
		if _, err := proof.WriteTo(&blob); err != nil {
			return nil, fmt.Errorf("prove: %w", err)
		}
	case Plonk:
		proof, err := plonk.Prove(b.ccs, b.plkpk, full)
		if err != nil {
			return nil, fmt.Errorf("prove: %w", err)
		}
		if _, err := proof.WriteTo(&blob); err != nil {
			return nil, fmt.Errorf("prove: %w", err)
		}
	}
	b.log.Debug().Dur("took", time.Since(start)).Int("proofSize", blob.Len()).Msg("proof generated")

	return snark.NewProof(string(b.scheme), b.params, pub, blob.Bytes())
}

// Verify checks proof against the claim pub. A nil return means the proof is
// valid for pub under the backend's parameters. Cryptographic rejection is
// reported as snark.ErrProofRejected; structural faults keep their own types.
func (b *Backend) Verify(proof *snark.Proof, pub verifier.PublicInputs) error {
	if proof == nil {
		return fmt.Errorf("%w: nil proof", snark.ErrInvalidEnvelope)
	}
	if proof.Scheme() != string(b.scheme) {
		return fmt.Errorf("%w: proof scheme %q, backend runs %q",
			protocol.ErrParameterMismatch, proof.Scheme(), b.scheme)
	}
	if proof.Fingerprint() != b.params.Fingerprint() {
		return fmt.Errorf("%w: proof generated under different parameters", protocol.ErrParameterMismatch)
	}
	for _, e := range []field.Element{pub.Anchor, pub.Lo, pub.Hi} {
		if !e.Field().Equal(b.f) {
			return fmt.Errorf("%w: public inputs not in the parameter field", protocol.ErrParameterMismatch)
		}
	}

	// the envelope commits to the claim it was generated for; verifying it
	// against any other claim is a rejection, not a parameter fault
	embedded, err := proof.PublicInputs(b.f)
	if err != nil {
		return err
	}
	if !embedded.Anchor.Equal(pub.Anchor) || !embedded.Lo.Equal(pub.Lo) || !embedded.Hi.Equal(pub.Hi) {
		return fmt.Errorf("%w: envelope carries a different claim", snark.ErrProofRejected)
	}

	pubAssignment, err := PublicAssignment(b.params, pub)
	if err != nil {
		return err
	}
	pubWitness, err := frontend.NewWitness(pubAssignment, b.curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("witness: %w", err)
	}

	start := time.Now()
	switch b.scheme {
	case Groth16:
		gp := groth16.NewProof(b.curve)
		if _, err := gp.ReadFrom(bytes.NewReader(proof.Blob())); err != nil {
			return fmt.Errorf("%w: undecodable proof blob: %v", snark.ErrInvalidEnvelope, err)
		}
		if err := groth16.Verify(gp, b.g16vk, pubWitness); err != nil {
			return fmt.Errorf("%w: %v", snark.ErrProofRejected, err)
		}
	case Plonk:
		pp := plonk.NewProof(b.curve)
		if _, err := pp.ReadFrom(bytes.NewReader(proof.Blob())); err != nil {
			return fmt.Errorf("%w: undecodable proof blob: %v", snark.ErrInvalidEnvelope, err)
		}
		if err := plonk.Verify(pp, b.plkvk, pubWitness); err != nil {
			return fmt.Errorf("%w: %v", snark.ErrProofRejected, err)
		}
	}
	b.log.Debug().Dur("took", time.Since(start)).Msg("proof verified")

	return nil
}

var _ snark.Backend = (*Backend)(nil)
