package protocol

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// Domain separation tags for the two proof layers. The tags differ so that
// neither check can be satisfied by replaying material from the other.
var (
	proofSignatureTag = []byte("shadow_mpc_proof_v1")
	proofContextTag   = []byte("shadow_mpc_context_v1")
)

// Proof layout offsets:
// [0:32] signature, [32:64] verification key, [64:96] integrity hash (when
// present), [96:] auxiliary data.
const (
	proofSignatureEnd = 32
	proofKeyEnd       = 64
	proofHashEnd      = 96
)

// VerifyComputationProof validates a computation proof against the
// computation id and the cluster's public key. Both layers must pass:
//
//  1. Signature: an HMAC-SHA256 under the proof's verification key over
//     tag || computation id || verification key || cluster key, compared in
//     constant time against proof[0:32].
//  2. Integrity: an independently recomputed
//     SHA-256(tag2 || computation id || cluster key), compared in constant
//     time against proof[64:96] when the hash region is present.
//
// The two layers are deliberate defense in depth: a forged signature alone
// is insufficient if the hash does not match the expected computation
// context, and vice versa. Any malformed input — proof shorter than 64
// bytes, computation id not exactly 32 bytes, missing cluster key — is a
// rejection, never an error the caller might ignore.
func VerifyComputationProof(proof []byte, computationID []byte, clusterKey crypto.PublicKey) bool {
	if len(proof) < MinProofSize {
		return false
	}
	if len(computationID) != ComputationIDSize {
		return false
	}
	if clusterKey.IsZero() || len(clusterKey) != crypto.KeySize {
		return false
	}

	signature := proof[:proofSignatureEnd]
	verificationKey := proof[proofSignatureEnd:proofKeyEnd]

	mac := hmac.New(sha256.New, verificationKey)
	mac.Write(proofSignatureTag)
	mac.Write(computationID)
	mac.Write(verificationKey)
	mac.Write(clusterKey.Bytes())
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return false
	}

	if len(proof) >= proofHashEnd {
		expected := contextHash(computationID, clusterKey)
		if subtle.ConstantTimeCompare(proof[proofKeyEnd:proofHashEnd], expected[:]) != 1 {
			return false
		}
	}

	return true
}

// contextHash recomputes the integrity hash binding a proof to its
// computation context.
func contextHash(computationID []byte, clusterKey crypto.PublicKey) [32]byte {
	h := sha256.New()
	h.Write(proofContextTag)
	h.Write(computationID)
	h.Write(clusterKey.Bytes())

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SignComputationProof assembles a full proof (signature, verification key,
// integrity hash, optional auxiliary data) for a computation. This is the
// cluster-side counterpart of VerifyComputationProof, exported for the MPC
// callback implementation and for tests.
func SignComputationProof(verificationKey []byte, computationID []byte, clusterKey crypto.PublicKey, aux []byte) []byte {
	mac := hmac.New(sha256.New, verificationKey)
	mac.Write(proofSignatureTag)
	mac.Write(computationID)
	mac.Write(verificationKey)
	mac.Write(clusterKey.Bytes())

	hash := contextHash(computationID, clusterKey)

	proof := make([]byte, 0, proofHashEnd+len(aux))
	proof = append(proof, mac.Sum(nil)...)
	proof = append(proof, verificationKey...)
	proof = append(proof, hash[:]...)
	proof = append(proof, aux...)
	return proof
}
