package auction

import (
	"fmt"
	"time"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// Encryptor produces sealed bid and reserve envelopes for a single auction.
// Each call generates a fresh ephemeral key pair and nonce; the encryptor
// itself holds no secret state and is safe for concurrent use.
type Encryptor struct {
	auctionID  uint64
	clusterKey crypto.PublicKey
	scale      uint64
}

// NewEncryptor creates an encryptor bound to an auction and the MPC cluster's
// public key. Returns ErrMissingClusterKey if the key is absent, zeroed or
// not exactly 32 bytes; proceeding with a malformed cluster key would leak
// every bid encrypted under it.
func NewEncryptor(auctionID uint64, clusterKey crypto.PublicKey) (*Encryptor, error) {
	if clusterKey.IsZero() || len(clusterKey) != crypto.KeySize {
		return nil, ErrMissingClusterKey
	}
	return &Encryptor{
		auctionID:  auctionID,
		clusterKey: clusterKey,
		scale:      DefaultScale,
	}, nil
}

// Scale returns the fixed-point scale used for amount encoding.
func (e *Encryptor) Scale() uint64 {
	return e.scale
}

// EncryptBid seals a bid amount (in whole units) for the given bidder.
// The envelope carries the ephemeral public key and nonce the cluster needs
// to recover the shared secret, and the commitment binding the bid to this
// auction. The call has no side effects beyond returning the envelope; it
// transmits nothing.
func (e *Encryptor) EncryptBid(amount float64, bidder crypto.PublicKey) (*EncryptedBid, error) {
	if bidder.IsZero() || len(bidder) != crypto.KeySize {
		return nil, fmt.Errorf("%w: bidder address", crypto.ErrInvalidKey)
	}

	raw, err := EncodeAmount(amount, e.scale)
	if err != nil {
		return nil, err
	}

	value, err := e.encryptValue(raw)
	if err != nil {
		return nil, err
	}

	return &EncryptedBid{
		Bidder:          bidder,
		EncryptedAmount: value.Ciphertext,
		Nonce:           value.Nonce,
		PublicKey:       value.PublicKey,
		Commitment:      BidCommitment(e.auctionID, bidder, raw, value.Nonce),
		Timestamp:       time.Now().UTC(),
	}, nil
}

// EncryptReserve seals the auction's reserve price. Identical envelope shape
// to a bid, used once per auction.
func (e *Encryptor) EncryptReserve(price float64) (*EncryptedReserve, error) {
	raw, err := EncodeAmount(price, e.scale)
	if err != nil {
		return nil, err
	}

	value, err := e.encryptValue(raw)
	if err != nil {
		return nil, err
	}

	return &EncryptedReserve{
		AuctionID:       e.auctionID,
		EncryptedAmount: value.Ciphertext,
		Nonce:           value.Nonce,
		PublicKey:       value.PublicKey,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// encryptValue runs the full per-value pipeline: fresh key pair, shared
// secret with the cluster, fresh nonce, canonical 32-byte ciphertext.
func (e *Encryptor) encryptValue(raw uint64) (*EncryptedValue, error) {
	ephemeralPub, ephemeralPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	defer ephemeralPriv.Zero()

	secret, err := crypto.DeriveSharedSecret(ephemeralPriv, e.clusterKey)
	if err != nil {
		return nil, fmt.Errorf("derive shared secret: %w", err)
	}

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	elements, err := crypto.Encrypt(secret, []uint64{raw}, nonce)
	if err != nil {
		return nil, fmt.Errorf("encrypt value: %w", err)
	}

	return &EncryptedValue{
		Ciphertext: [crypto.CiphertextSize]byte(elements[0]),
		Nonce:      nonce,
		PublicKey:  ephemeralPub,
	}, nil
}

// DecryptValue recovers the raw fixed-point amount from an envelope using the
// recipient's private key. This is the cluster-side inverse of the encryptor
// pipeline; the SDK uses it in tests and diagnostic tooling only.
func DecryptValue(recipientPriv crypto.PrivateKey, value *EncryptedValue) (uint64, error) {
	secret, err := crypto.DeriveSharedSecret(recipientPriv, value.PublicKey)
	if err != nil {
		return 0, fmt.Errorf("derive shared secret: %w", err)
	}

	decrypted, err := crypto.Decrypt(secret, []crypto.CiphertextElement{value.Ciphertext}, value.Nonce)
	if err != nil {
		return 0, err
	}
	return decrypted[0], nil
}
