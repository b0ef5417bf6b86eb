// Package anchoredrange proves, in zero knowledge, that a value committed in a
// Merkle tree lies within a numeric range, with the proof bound to one specific
// tree root and query context.
//
// A proof is anchored: its single public commitment is derived from the tree
// root, the range bounds and a domain tag, so a proof produced for one
// (root, range, consumer) context verifies under no other.
//
// The packages compose bottom-up:
//   - field: scalar-field arithmetic against a runtime modulus
//   - hash: curve-matched MiMC with domain-tagged inputs
//   - merkle: fixed-depth accumulator with padded leaves
//   - anchor: binding value derivation
//   - rangeproof: bit decompositions of the two range differences
//   - witness: private input assembly and serialization
//   - verifier: native (non-SNARK) proof predicate
//   - circuits: the gnark circuit and Groth16/PLONK backends
//   - sigma: Schnorr and DLEQ companion proofs over BN254
package anchoredrange

import (
	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
)

var Version = semver.MustParse("0.1.0")

// Curves returns the curves whose scalar fields the protocol can be
// instantiated over.
func Curves() []ecc.ID {
	return []ecc.ID{
		ecc.BN254,
		ecc.BLS12_377,
		ecc.BLS12_381,
		ecc.BLS24_315,
		ecc.BLS24_317,
		ecc.BW6_761,
		ecc.BW6_633,
	}
}
