package settlement

import "errors"

var (
	// ErrComputationTimeout: polling exhausted its attempt budget or the
	// settlement deadline expired before the transaction finalized.
	ErrComputationTimeout = errors.New("settlement: computation timed out")

	// ErrComputationFailed: the ledger reported instruction failure. The
	// wrapping error carries the decoded reason.
	ErrComputationFailed = errors.New("settlement: computation failed")

	// ErrComputationNotInitiated: the transaction finalized but its logs
	// carry no queued-computation marker, meaning the program never handed
	// the auction to the MPC cluster.
	ErrComputationNotInitiated = errors.New("settlement: computation was never initiated")

	// ErrSettlementInFlight: a settlement attempt for the same auction is
	// already running in this process.
	ErrSettlementInFlight = errors.New("settlement: attempt already in flight for auction")
)
