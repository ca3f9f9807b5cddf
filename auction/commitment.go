package auction

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// commitmentTag domain-separates bid commitments from other protocol hashes.
var commitmentTag = []byte("shadow_bid_commitment_v1")

// BidCommitment computes the hash binding a sealed bid to its auction:
// SHA-256(tag || bidder || amount LE || nonce || auction id LE). The ledger
// program uses it to tie collateral to a specific sealed bid without
// learning the amount.
func BidCommitment(auctionID uint64, bidder crypto.PublicKey, rawAmount uint64, nonce crypto.Nonce) [32]byte {
	h := sha256.New()
	h.Write(commitmentTag)
	h.Write(bidder.Bytes())

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], rawAmount)
	h.Write(buf[:])

	h.Write(nonce.Bytes())

	binary.LittleEndian.PutUint64(buf[:], auctionID)
	h.Write(buf[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
