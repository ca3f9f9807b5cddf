package crypto

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"slices"
)

// Sizes of the fixed-width values used throughout the protocol.
const (
	// KeySize is the byte length of X25519 public and private keys.
	KeySize = 32

	// NonceSize is the byte length of the cipher nonce.
	NonceSize = 16

	// CiphertextSize is the canonical width of a single ciphertext element.
	// Every encrypted value occupies exactly one 32-byte slot regardless of
	// the magnitude of the plaintext.
	CiphertextSize = 32
)

// Errors returned by key handling and cipher operations.
var (
	// ErrInvalidKey indicates a malformed public or private key.
	ErrInvalidKey = errors.New("crypto: invalid key")

	// ErrEncryption indicates a cipher-level encryption failure.
	ErrEncryption = errors.New("crypto: encryption failed")

	// ErrDecryption indicates that a ciphertext did not decrypt to a
	// well-formed value under the given secret and nonce.
	ErrDecryption = errors.New("crypto: decryption failed")
)

// PublicKey represents an X25519 public key. Public keys identify bidders and
// the MPC cluster, and are the counterparty input to shared secret derivation.
type PublicKey []byte

// NewPublicKeyFromBytes creates a PublicKey from a byte slice.
// The input data is copied to ensure immutability.
func NewPublicKeyFromBytes(data []byte) PublicKey {
	pk := make([]byte, len(data))
	copy(pk, data)
	return PublicKey(pk)
}

// NewPublicKeyFromString creates a PublicKey from a hex-encoded string.
func NewPublicKeyFromString(data string) (PublicKey, error) {
	rawBytes, err := hex.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(rawBytes), nil
}

// Bytes returns the public key as a byte slice.
func (pk PublicKey) Bytes() []byte {
	return pk
}

// Equal compares two public keys in constant time.
func (pk PublicKey) Equal(other PublicKey) bool {
	return subtle.ConstantTimeCompare(pk, other) == 1
}

// IsZero reports whether the key is absent or all zero bytes. A zeroed
// counterparty key must never be used for shared secret derivation.
func (pk PublicKey) IsZero() bool {
	if len(pk) == 0 {
		return true
	}
	var acc byte
	for _, b := range pk {
		acc |= b
	}
	return acc == 0
}

// String returns a hex-encoded representation of the public key.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk)
}

// PrivateKey represents an X25519 private key. Private keys are ephemeral:
// generated fresh for each encryption operation and dropped after use.
type PrivateKey []byte

// NewPrivateKeyFromBytes creates a PrivateKey from a byte slice.
// The input data is copied to ensure immutability.
func NewPrivateKeyFromBytes(data []byte) PrivateKey {
	sk := make([]byte, len(data))
	copy(sk, data)
	return PrivateKey(sk)
}

// Bytes returns the private key as a byte slice. This exposes sensitive key
// material and should only be used for cryptographic operations.
func (sk PrivateKey) Bytes() []byte {
	return sk
}

// Zero overwrites the key material. Callers that are done with an ephemeral
// key should zero it rather than leaving it for the collector.
func (sk PrivateKey) Zero() {
	for i := range sk {
		sk[i] = 0
	}
}

// SharedKey represents a Diffie-Hellman derived shared secret, used as the
// symmetric key for bid encryption. It has the same lifetime as the ephemeral
// key pair that produced it.
type SharedKey []byte

// NewSharedKey creates a SharedKey from a byte slice.
// The input data is copied to ensure immutability.
func NewSharedKey(data []byte) SharedKey {
	sk := make([]byte, len(data))
	copy(sk, data)
	return SharedKey(sk)
}

// Bytes returns a copy of the shared key.
func (sk SharedKey) Bytes() []byte {
	return slices.Clone(sk)
}

// Nonce is the caller-supplied cipher nonce. The full 16 bytes are used by
// the cipher and forwarded on the wire; the nonce is never truncated.
type Nonce [NonceSize]byte

// NewNonceFromBytes creates a Nonce from a byte slice of exactly NonceSize bytes.
func NewNonceFromBytes(data []byte) (Nonce, error) {
	var n Nonce
	if len(data) != NonceSize {
		return n, ErrInvalidKey
	}
	copy(n[:], data)
	return n, nil
}

// Bytes returns the nonce as a byte slice.
func (n Nonce) Bytes() []byte {
	return n[:]
}

// String returns a hex-encoded representation of the nonce.
func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}
