package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// cipherDomain separates the cipher keystream from other uses of the shared
// secret.
var cipherDomain = []byte("shadow-value-cipher-v1")

// valueOffset is the byte offset of the big-endian uint64 value within a
// 32-byte block. The leading bytes are zero padding; the decryptor requires
// them to be zero, which is what turns a wrong-key decrypt into an explicit
// ErrDecryption instead of a garbage value.
const valueOffset = CiphertextSize - 8

// CiphertextElement is a single encrypted value occupying the canonical
// 32-byte slot.
type CiphertextElement [CiphertextSize]byte

// EncodeValueBlock lays out a uint64 as a canonical 32-byte block:
// big-endian, left-zero-padded. The on-chain program, the result parser and
// the proof verifier all assume this alignment.
func EncodeValueBlock(value uint64) [CiphertextSize]byte {
	var block [CiphertextSize]byte
	binary.BigEndian.PutUint64(block[valueOffset:], value)
	return block
}

// DecodeValueBlock recovers a uint64 from a canonical block. Returns
// ErrDecryption if the zero padding is violated.
func DecodeValueBlock(block [CiphertextSize]byte) (uint64, error) {
	var acc byte
	for _, b := range block[:valueOffset] {
		acc |= b
	}
	if acc != 0 {
		return 0, fmt.Errorf("%w: malformed value block", ErrDecryption)
	}
	return binary.BigEndian.Uint64(block[valueOffset:]), nil
}

// Encrypt encrypts fixed-width values under a shared secret and an explicit
// nonce, producing one 32-byte ciphertext element per value. The operation is
// deterministic: identical secret, values and nonce yield identical
// ciphertexts. All randomness comes from the caller-supplied nonce.
func Encrypt(secret SharedKey, values []uint64, nonce Nonce) ([]CiphertextElement, error) {
	stream, err := keystream(secret, nonce, len(values))
	if err != nil {
		return nil, err
	}

	out := make([]CiphertextElement, len(values))
	for i, v := range values {
		block := EncodeValueBlock(v)
		for j := range block {
			out[i][j] = block[j] ^ stream[i*CiphertextSize+j]
		}
	}
	return out, nil
}

// Decrypt is the inverse of Encrypt. A mismatched secret or nonce corrupts
// the zero padding of the recovered block with overwhelming probability, and
// is reported as ErrDecryption. Corrupted plaintext is never silently
// accepted as a value.
func Decrypt(secret SharedKey, elements []CiphertextElement, nonce Nonce) ([]uint64, error) {
	stream, err := keystream(secret, nonce, len(elements))
	if err != nil {
		return nil, err
	}

	out := make([]uint64, len(elements))
	for i, el := range elements {
		var block [CiphertextSize]byte
		for j := range el {
			block[j] = el[j] ^ stream[i*CiphertextSize+j]
		}
		v, err := DecodeValueBlock(block)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// keystream derives len*CiphertextSize bytes of keystream from the shared
// secret and nonce using SHAKE-256.
func keystream(secret SharedKey, nonce Nonce, elements int) ([]byte, error) {
	if len(secret) != KeySize {
		return nil, fmt.Errorf("%w: shared secret must be %d bytes, got %d", ErrInvalidKey, KeySize, len(secret))
	}

	shake := sha3.NewShake256()
	shake.Write(cipherDomain)
	shake.Write(secret)
	shake.Write(nonce[:])

	stream := make([]byte, elements*CiphertextSize)
	if _, err := shake.Read(stream); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncryption, err)
	}
	return stream, nil
}
