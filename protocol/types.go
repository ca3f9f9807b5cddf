package protocol

import (
	"errors"
	"time"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/crypto"
)

// ComputationIDSize is the byte length of an MPC computation identifier.
const ComputationIDSize = 32

// MinProofSize is the minimum valid proof length: a 32-byte signature
// followed by a 32-byte verification key. Proofs may additionally carry a
// 32-byte integrity hash and auxiliary data.
const MinProofSize = 64

// Errors surfaced by result parsing and verification.
var (
	// ErrResultParse indicates that logs contained a queued-computation
	// marker but no recognized result format yielded a result.
	ErrResultParse = errors.New("protocol: no recognized result format in logs")

	// ErrProofVerification indicates the computation proof failed its
	// signature or integrity check.
	ErrProofVerification = errors.New("protocol: computation proof verification failed")
)

// TxSignature is the opaque transaction signature returned by the ledger.
type TxSignature string

// MPCComputationRequest batches everything the MPC cluster needs to settle
// one auction. Built once per settlement attempt and discarded after
// submission.
type MPCComputationRequest struct {
	AuctionID        uint64                    `json:"auction_id"`
	EncryptedBids    []*auction.EncryptedBid   `json:"encrypted_bids"`
	EncryptedReserve *auction.EncryptedReserve `json:"encrypted_reserve"`
	ClusterAddress   string                    `json:"cluster_address"`
	GasLimit         uint64                    `json:"gas_limit"`
}

// BidRanking is an optional per-bidder rank in the computation output.
// Rankings are best-effort: not load-bearing for settlement correctness.
type BidRanking struct {
	Bidder crypto.PublicKey `json:"bidder"`
	Rank   int              `json:"rank"`
}

// MPCResult is the outcome of an MPC auction computation, recovered from
// transaction logs. It must pass VerifyComputationProof before being acted
// upon; an unverified result must never trigger a payment transfer or a
// winner declaration.
type MPCResult struct {
	Winner        crypto.PublicKey        `json:"winner"`
	WinningAmount uint64                  `json:"winning_amount"`
	Rankings      []BidRanking            `json:"rankings,omitempty"`
	Proof         []byte                  `json:"proof"`
	ComputationID [ComputationIDSize]byte `json:"computation_id"`
	Timestamp     time.Time               `json:"timestamp"`
}

// ComputationState is the lifecycle state of a submitted computation.
type ComputationState string

const (
	// StatePending: submitted, not yet observed by the ledger.
	StatePending ComputationState = "pending"

	// StateProcessing: observed and progressing toward finality.
	StateProcessing ComputationState = "processing"

	// StateCompleted: finalized; terminal, unlocks result parsing.
	StateCompleted ComputationState = "completed"

	// StateFailed: the ledger reported instruction failure; terminal.
	StateFailed ComputationState = "failed"
)

// ComputationStatus reports polling progress. Progress is monotonically
// non-decreasing across updates for one computation.
type ComputationStatus struct {
	State    ComputationState `json:"state"`
	Progress int              `json:"progress"`
	Detail   string           `json:"detail,omitempty"`
}
