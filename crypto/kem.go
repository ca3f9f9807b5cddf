package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// sharedSecretInfo is the HKDF info tag binding derived secrets to the bid
// encryption context.
var sharedSecretInfo = []byte("shadow-bid-encryption-v1")

// GenerateKeyPair generates a fresh X25519 key pair for key exchange.
// The private key is filled from crypto/rand; failure to read the secure
// random source is fatal to the caller.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	priv := make([]byte, KeySize)
	if _, err := rand.Read(priv); err != nil {
		return nil, nil, fmt.Errorf("read random source: %w", err)
	}

	var pub [KeySize]byte
	curve25519.ScalarBaseMult(&pub, (*[KeySize]byte)(priv))
	return NewPublicKeyFromBytes(pub[:]), PrivateKey(priv), nil
}

// DeriveSharedSecret performs X25519 key agreement between a private key and
// a counterparty public key and expands the shared point into a symmetric key
// using HKDF-SHA256.
//
// Returns ErrInvalidKey if either key is not exactly 32 bytes, or if the
// counterparty key is a low-order point (the agreement would yield an
// all-zero shared point).
func DeriveSharedSecret(privateKey PrivateKey, counterpartyKey PublicKey) (SharedKey, error) {
	if len(privateKey) != KeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, KeySize, len(privateKey))
	}
	if len(counterpartyKey) != KeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidKey, KeySize, len(counterpartyKey))
	}

	sharedPoint, err := curve25519.X25519(privateKey, counterpartyKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	kdf := hkdf.New(sha256.New, sharedPoint, nil, sharedSecretInfo)
	secret := make([]byte, KeySize)
	if _, err := kdf.Read(secret); err != nil {
		return nil, fmt.Errorf("expand shared secret: %w", err)
	}

	return SharedKey(secret), nil
}

// GenerateNonce returns a fresh random 16-byte cipher nonce.
func GenerateNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return n, fmt.Errorf("read random source: %w", err)
	}
	return n, nil
}
