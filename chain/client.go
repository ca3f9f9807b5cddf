// Package chain provides access to the ledger the settlement protocol runs
// on. The ledger program itself is an external collaborator; this package
// only needs to submit opaque instruction payloads and read back transaction
// status and logs.
package chain

import (
	"context"

	"github.com/shadowlabs-sol/shadow/protocol"
)

// TxState is the ledger's view of a submitted transaction.
type TxState string

const (
	// TxUnknown: the ledger has not observed the signature yet.
	TxUnknown TxState = "unknown"

	// TxProcessed: executed by a node, not yet voted on.
	TxProcessed TxState = "processed"

	// TxConfirmed: confirmed by a supermajority.
	TxConfirmed TxState = "confirmed"

	// TxFinalized: rooted; terminal.
	TxFinalized TxState = "finalized"

	// TxFailed: the instruction failed; terminal.
	TxFailed TxState = "failed"
)

// TxStatus is a transaction status snapshot. Err carries the decoded
// instruction error when State is TxFailed.
type TxStatus struct {
	State TxState `json:"state"`
	Err   string  `json:"err,omitempty"`
}

// LedgerClient is the minimal ledger surface the settlement pipeline needs.
// Implementations must be safe for concurrent use.
type LedgerClient interface {
	// SubmitTransaction signs and broadcasts an instruction payload and
	// returns its opaque signature immediately, without waiting for
	// finalization.
	SubmitTransaction(ctx context.Context, payload []byte) (protocol.TxSignature, error)

	// SignatureStatus returns the current status of a transaction.
	SignatureStatus(ctx context.Context, sig protocol.TxSignature) (*TxStatus, error)

	// TransactionLogs returns the log lines of a finalized transaction.
	TransactionLogs(ctx context.Context, sig protocol.TxSignature) ([]string, error)

	// AccountInfo returns the raw data of an account, given its
	// hex-encoded address. Used to fetch the MPC cluster's public key.
	AccountInfo(ctx context.Context, address string) ([]byte, error)
}
