// Copyright 2020-2025 Consensys Software Inc.
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package snark

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/consensys/anchoredrange"
	"github.com/consensys/anchoredrange/field"
	"github.com/consensys/anchoredrange/protocol"
	"github.com/consensys/anchoredrange/verifier"
)

// ErrInvalidEnvelope is returned when decoding a malformed proof envelope.
var ErrInvalidEnvelope = errors.New("invalid proof envelope")

var envelopeMagic = [4]byte{'a', 'r', 'p', 'f'}

// frame = magic + body length; the body is deterministic CBOR.
const frameLen = 4 + 8

// maxEnvelopeSize caps the attacker-controlled body length before allocation.
const maxEnvelopeSize = 1 << 24

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Proof is the opaque envelope a backend proof travels in. It binds the
// backend blob to the scheme that made it, the protocol version, the
// parameter fingerprint and the public triple it proves. Immutable once
// constructed.
type Proof struct {
	scheme      string
	version     semver.Version
	fingerprint [32]byte
	publicBytes []byte
	blob        []byte
}

type envelope struct {
	Scheme      string `cbor:"1,keyasint"`
	Version     string `cbor:"2,keyasint"`
	Fingerprint []byte `cbor:"3,keyasint"`
	Public      []byte `cbor:"4,keyasint"`
	Blob        []byte `cbor:"5,keyasint"`
}

// NewProof wraps a backend blob into an envelope for the given parameters and
// claim. The blob is copied.
func NewProof(scheme string, p protocol.Params, pub verifier.PublicInputs, blob []byte) (*Proof, error) {
	if scheme == "" {
		return nil, fmt.Errorf("%w: empty scheme", ErrInvalidEnvelope)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrInvalidEnvelope)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	publicBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Proof{
		scheme:      scheme,
		version:     anchoredrange.Version,
		fingerprint: p.Fingerprint(),
		publicBytes: publicBytes,
		blob:        append([]byte(nil), blob...),
	}, nil
}

// Scheme names the backend scheme that produced the proof.
func (p *Proof) Scheme() string {
	return p.scheme
}

// Version is the protocol version the proof was produced under.
func (p *Proof) Version() semver.Version {
	return p.version
}

// Fingerprint identifies the parameter set the proof was produced under.
func (p *Proof) Fingerprint() [32]byte {
	return p.fingerprint
}

// PublicInputs decodes the claim triple embedded in the envelope.
func (p *Proof) PublicInputs(f *field.Field) (verifier.PublicInputs, error) {
	return verifier.PublicInputsFromBytes(f, p.publicBytes)
}

// Blob returns a copy of the backend proof bytes.
func (p *Proof) Blob() []byte {
	return append([]byte(nil), p.blob...)
}

// Clone returns an independent copy.
func (p *Proof) Clone() *Proof {
	q := *p
	q.publicBytes = append([]byte(nil), p.publicBytes...)
	q.blob = append([]byte(nil), p.blob...)
	return &q
}

// WriteTo frames and serializes the envelope.
func (p *Proof) WriteTo(w io.Writer) (int64, error) {
	body, err := encMode.Marshal(envelope{
		Scheme:      p.scheme,
		Version:     p.version.String(),
		Fingerprint: p.fingerprint[:],
		Public:      p.publicBytes,
		Blob:        p.blob,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	buf := make([]byte, 0, frameLen+len(body))
	buf = append(buf, envelopeMagic[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(body)))
	buf = append(buf, body...)
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadProof decodes an envelope and checks it against the reader's
// parameters. Version-major and fingerprint mismatches are rejected as
// protocol.ErrParameterMismatch before any cryptographic work.
func ReadProof(r io.Reader, p protocol.Params) (*Proof, int64, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	f, err := p.Field()
	if err != nil {
		return nil, 0, err
	}

	var frame [frameLen]byte
	n, err := io.ReadFull(r, frame[:])
	read := int64(n)
	if err != nil {
		return nil, read, err
	}
	if !bytes.Equal(frame[:4], envelopeMagic[:]) {
		return nil, read, fmt.Errorf("%w: bad magic", ErrInvalidEnvelope)
	}
	bodyLen := binary.LittleEndian.Uint64(frame[4:])
	if bodyLen == 0 || bodyLen > maxEnvelopeSize {
		return nil, read, fmt.Errorf("%w: body of %d bytes", ErrInvalidEnvelope, bodyLen)
	}

	body := make([]byte, bodyLen)
	n, err = io.ReadFull(r, body)
	read += int64(n)
	if err != nil {
		return nil, read, err
	}

	var env envelope
	if err := decMode.Unmarshal(body, &env); err != nil {
		return nil, read, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	version, err := semver.Parse(env.Version)
	if err != nil {
		return nil, read, fmt.Errorf("%w: version %q", ErrInvalidEnvelope, env.Version)
	}
	if version.Major != anchoredrange.Version.Major {
		return nil, read, fmt.Errorf("%w: proof version %s, library version %s",
			protocol.ErrParameterMismatch, version, anchoredrange.Version)
	}
	if len(env.Fingerprint) != 32 {
		return nil, read, fmt.Errorf("%w: fingerprint of %d bytes", ErrInvalidEnvelope, len(env.Fingerprint))
	}
	fp := p.Fingerprint()
	if !bytes.Equal(env.Fingerprint, fp[:]) {
		return nil, read, fmt.Errorf("%w: proof produced under different parameters", protocol.ErrParameterMismatch)
	}
	if env.Scheme == "" || len(env.Blob) == 0 {
		return nil, read, fmt.Errorf("%w: missing scheme or blob", ErrInvalidEnvelope)
	}
	if len(env.Public) != 3*f.ByteLen() {
		return nil, read, fmt.Errorf("%w: public section of %d bytes", ErrInvalidEnvelope, len(env.Public))
	}

	proof := &Proof{
		scheme:      env.Scheme,
		version:     version,
		publicBytes: env.Public,
		blob:        env.Blob,
	}
	copy(proof.fingerprint[:], env.Fingerprint)
	return proof, read, nil
}
