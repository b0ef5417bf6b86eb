// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package circuits

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/stretchr/testify/require"

	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/snark"
	"github.com/consensys/anchoredrange/verifier"
)

func TestGroth16EndToEnd(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	b, err := NewBackend(fx.params)
	assert.NoError(err)
	assert.Equal(Groth16, b.Scheme())
	assert.Positive(b.ConstraintCount())

	pub, w := fx.claim(t, 5, 2, 8)
	proof, err := b.Prove(w, pub)
	assert.NoError(err)
	assert.Equal(string(Groth16), proof.Scheme())
	assert.NoError(b.Verify(proof, pub))

	// the envelope survives the wire
	var buf bytes.Buffer
	_, err = proof.WriteTo(&buf)
	assert.NoError(err)
	decoded, _, err := snark.ReadProof(bytes.NewReader(buf.Bytes()), fx.params)
	assert.NoError(err)
	assert.NoError(b.Verify(decoded, pub))
}

func TestPlonkEndToEnd(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	b, err := NewBackend(fx.params,
		WithScheme(Plonk),
		WithSRSProvider(func(ccs constraint.ConstraintSystem) (kzg.SRS, kzg.SRS, error) {
			return unsafekzg.NewSRS(ccs)
		}),
	)
	assert.NoError(err)
	assert.Equal(Plonk, b.Scheme())

	pub, w := fx.claim(t, 3, 0, 9)
	proof, err := b.Prove(w, pub)
	assert.NoError(err)
	assert.Equal(string(Plonk), proof.Scheme())
	assert.NoError(b.Verify(proof, pub))
}

func TestProveRejectsFalseClaim(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	b, err := NewBackend(fx.params)
	assert.NoError(err)

	// witness supports [2,9] but the claim is [2,8]
	_, w := fx.claim(t, 9, 2, 9)
	loE := fx.f.NewElementFromUint64(2)
	hiE := fx.f.NewElementFromUint64(8)
	narrow, err := verifier.FromRoot(fx.params, fx.root, loE, hiE)
	assert.NoError(err)
	_, err = b.Prove(w, narrow)
	assert.ErrorIs(err, verifier.ErrRangeReconstruction)

	// a claim against a different anchor fails before any proving work
	pub, w := fx.claim(t, 5, 2, 8)
	pub.Anchor = pub.Anchor.Add(fx.f.One())
	_, err = b.Prove(w, pub)
	assert.ErrorIs(err, verifier.ErrAnchorMismatch)
}

func TestVerifyRejectsForgedEnvelope(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	b, err := NewBackend(fx.params)
	assert.NoError(err)

	pub, w := fx.claim(t, 5, 2, 8)
	proof, err := b.Prove(w, pub)
	assert.NoError(err)

	// same proof blob re-enveloped under a wider claim
	loE := fx.f.NewElementFromUint64(2)
	hiE := fx.f.NewElementFromUint64(9)
	wider, err := verifier.FromRoot(fx.params, fx.root, loE, hiE)
	assert.NoError(err)
	forged, err := snark.NewProof(string(Groth16), fx.params, wider, proof.Blob())
	assert.NoError(err)
	err = b.Verify(forged, wider)
	assert.ErrorIs(err, snark.ErrProofRejected)

	// honest proof checked against a claim it does not carry
	err = b.Verify(proof, wider)
	assert.ErrorIs(err, snark.ErrProofRejected)
}

func TestVerifyRejectsStructuralFaults(t *testing.T) {
	assert := require.New(t)

	fx := newClaimFixture(t, ecc.BN254, 4, 16)
	b, err := NewBackend(fx.params)
	assert.NoError(err)

	pub, w := fx.claim(t, 5, 2, 8)
	proof, err := b.Prove(w, pub)
	assert.NoError(err)

	err = b.Verify(nil, pub)
	assert.ErrorIs(err, snark.ErrInvalidEnvelope)

	// scheme mismatch
	relabeled, err := snark.NewProof(string(Plonk), fx.params, pub, proof.Blob())
	assert.NoError(err)
	err = b.Verify(relabeled, pub)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)

	// proof generated under different parameters
	other := protocol.New(ecc.BN254, 5, 16)
	bOther, err := NewBackend(other)
	assert.NoError(err)
	err = bOther.Verify(proof, pub)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)

	// garbage blob inside a well-formed envelope
	mangled, err := snark.NewProof(string(Groth16), fx.params, pub, []byte{0x01, 0x02, 0x03})
	assert.NoError(err)
	err = b.Verify(mangled, pub)
	assert.ErrorIs(err, snark.ErrInvalidEnvelope)
}

func TestBackendOptions(t *testing.T) {
	assert := require.New(t)

	p := protocol.New(ecc.BN254, 4, 16)

	_, err := NewBackend(p, WithScheme("bulletproofs"))
	assert.ErrorIs(err, protocol.ErrParameterMismatch)

	// plonk without an SRS source cannot set up
	_, err = NewBackend(p, WithScheme(Plonk))
	assert.ErrorIs(err, protocol.ErrParameterMismatch)

	// invalid parameters surface before any compilation
	bad := protocol.New(ecc.BN254, 0, 16)
	_, err = NewBackend(bad)
	assert.ErrorIs(err, protocol.ErrParameterMismatch)
}
