package auction

import (
	"errors"
	"time"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// ErrMissingClusterKey indicates that the MPC cluster public key is absent or
// zeroed. Encryption must not proceed with a zero-filled key: a bid encrypted
// to a zero key is trivially recoverable.
var ErrMissingClusterKey = errors.New("auction: missing or zeroed cluster public key")

// EncryptedValue is a single encrypted amount ready for on-chain embedding.
// The ciphertext always occupies exactly 32 bytes regardless of the plaintext
// magnitude; the decryptor and the result verifier both rely on this
// canonical width.
type EncryptedValue struct {
	Ciphertext [crypto.CiphertextSize]byte `json:"ciphertext"`
	Nonce      crypto.Nonce                `json:"nonce"`
	PublicKey  crypto.PublicKey            `json:"public_key"`
}

// EncryptedBid is a sealed bid envelope. It is immutable once created and is
// consumed as input to a computation batch.
type EncryptedBid struct {
	Bidder          crypto.PublicKey            `json:"bidder"`
	EncryptedAmount [crypto.CiphertextSize]byte `json:"encrypted_amount"`
	Nonce           crypto.Nonce                `json:"nonce"`
	PublicKey       crypto.PublicKey            `json:"public_key"`
	Commitment      [32]byte                    `json:"commitment"`
	Timestamp       time.Time                   `json:"timestamp"`
}

// EncryptedReserve is the auction creator's sealed reserve price. Same shape
// as a bid envelope, used once per auction.
type EncryptedReserve struct {
	AuctionID       uint64                      `json:"auction_id"`
	EncryptedAmount [crypto.CiphertextSize]byte `json:"encrypted_amount"`
	Nonce           crypto.Nonce                `json:"nonce"`
	PublicKey       crypto.PublicKey            `json:"public_key"`
	Timestamp       time.Time                   `json:"timestamp"`
}

// Validate rejects envelopes that would be trivially malformed on chain:
// all-zero ciphertexts, zeroed sender keys and zero nonces.
func (v *EncryptedValue) Validate() error {
	return validateEnvelope(v.Ciphertext, v.Nonce, v.PublicKey)
}

// Validate checks the bid envelope fields prior to submission.
func (b *EncryptedBid) Validate() error {
	if b.Bidder.IsZero() || len(b.Bidder) != crypto.KeySize {
		return errors.New("auction: bid envelope missing bidder address")
	}
	return validateEnvelope(b.EncryptedAmount, b.Nonce, b.PublicKey)
}

// Validate checks the reserve envelope fields prior to submission.
func (r *EncryptedReserve) Validate() error {
	return validateEnvelope(r.EncryptedAmount, r.Nonce, r.PublicKey)
}

func validateEnvelope(ciphertext [crypto.CiphertextSize]byte, nonce crypto.Nonce, sender crypto.PublicKey) error {
	var ctAcc, nAcc byte
	for _, b := range ciphertext {
		ctAcc |= b
	}
	for _, b := range nonce {
		nAcc |= b
	}
	if ctAcc == 0 {
		return errors.New("auction: envelope has all-zero ciphertext")
	}
	if nAcc == 0 {
		return errors.New("auction: envelope has zero nonce")
	}
	if sender.IsZero() || len(sender) != crypto.KeySize {
		return errors.New("auction: envelope missing sender public key")
	}
	return nil
}
