// Package crypto provides the cryptographic primitives for sealed-bid
// submission in the Shadow protocol.
//
// This package implements the low-level operations the bid encryption
// pipeline is built on:
//
//   - Ephemeral X25519 key pairs for per-bid key encapsulation
//   - Shared secret derivation (X25519 + HKDF-SHA256)
//   - A deterministic keystream cipher over fixed-width numeric values,
//     keyed by a shared secret and an explicit 16-byte nonce
//
// Every encryption operation uses a fresh ephemeral key pair; the private
// key never leaves the calling process. The cipher operates on 32-byte
// blocks so that ciphertext elements line up with the canonical slot width
// used by the on-chain program and the result verifier.
//
// Decryption never degrades to a zero value: a ciphertext that does not
// decrypt to a well-formed block is reported as ErrDecryption.
package crypto
