package services

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/protocol"
)

// CreateAuctionRequest opens an auction on the gateway. The Dutch price
// schedule is optional; a sealed-bid auction omits it.
type CreateAuctionRequest struct {
	AuctionID uint64                 `json:"auction_id"`
	Schedule  *auction.PriceSchedule `json:"schedule,omitempty"`
}

// SubmitBidRequest seals one bid. Bidder is the bidder's hex-encoded
// 32-byte address; the amount is in whole units.
type SubmitBidRequest struct {
	Bidder string  `json:"bidder"`
	Amount float64 `json:"amount"`
}

// SubmitBidResponse returns the sealed envelope so the bidder can audit
// what will go on chain. The plaintext amount never appears.
type SubmitBidResponse struct {
	Bidder          string    `json:"bidder"`
	EncryptedAmount string    `json:"encrypted_amount"`
	Nonce           string    `json:"nonce"`
	PublicKey       string    `json:"public_key"`
	Commitment      string    `json:"commitment"`
	Timestamp       time.Time `json:"timestamp"`
}

// SetReserveRequest seals the auction creator's reserve price.
type SetReserveRequest struct {
	Price float64 `json:"price"`
}

// CurrentPriceResponse reports a Dutch auction's ask at the time of the
// request.
type CurrentPriceResponse struct {
	AuctionID uint64  `json:"auction_id"`
	RawPrice  uint64  `json:"raw_price"`
	Price     float64 `json:"price"`
	ElapsedS  int64   `json:"elapsed_seconds"`
}

// SettleResponse acknowledges an accepted settlement attempt.
type SettleResponse struct {
	AttemptID string `json:"attempt_id"`
	AuctionID uint64 `json:"auction_id"`
}

// SettlementStatusResponse reports an attempt's progress and, once
// verified, its result.
type SettlementStatusResponse struct {
	AttemptID string                     `json:"attempt_id"`
	AuctionID uint64                     `json:"auction_id"`
	Status    protocol.ComputationStatus `json:"status"`
	Winner    string                     `json:"winner,omitempty"`
	Amount    uint64                     `json:"winning_amount,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func newBidResponse(bid *auction.EncryptedBid) *SubmitBidResponse {
	return &SubmitBidResponse{
		Bidder:          bid.Bidder.String(),
		EncryptedAmount: hex.EncodeToString(bid.EncryptedAmount[:]),
		Nonce:           bid.Nonce.String(),
		PublicKey:       bid.PublicKey.String(),
		Commitment:      hex.EncodeToString(bid.Commitment[:]),
		Timestamp:       bid.Timestamp,
	}
}

// parseBidder decodes a hex bidder address into a public key.
func parseBidder(s string) (crypto.PublicKey, error) {
	key, err := crypto.NewPublicKeyFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: bidder address: %w", crypto.ErrInvalidKey, err)
	}
	return key, nil
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a uniform JSON error body.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &errorResponse{Error: err.Error()})
}
