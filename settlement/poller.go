package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/metrics"
	"github.com/shadowlabs-sol/shadow/protocol"
)

// maxBackoff caps the widened poll interval after transient fetch errors.
const maxBackoff = 30 * time.Second

// pollOptions collects per-call polling knobs.
type pollOptions struct {
	onStatus func(protocol.ComputationStatus)
}

// PollOption customizes one PollResult call.
type PollOption func(*pollOptions)

// WithStatusCallback registers a callback invoked on every status change.
// Progress reported through it is monotonically non-decreasing.
func WithStatusCallback(fn func(protocol.ComputationStatus)) PollOption {
	return func(o *pollOptions) { o.onStatus = fn }
}

// progressFor maps a ledger commitment state to a progress percentage.
func progressFor(state chain.TxState) int {
	switch state {
	case chain.TxProcessed:
		return 30
	case chain.TxConfirmed:
		return 70
	case chain.TxFinalized:
		return 100
	default:
		return 10
	}
}

// PollResult polls a submitted computation to finality, then parses and
// verifies its result. It returns:
//
//   - ErrComputationTimeout when the attempt budget or the context deadline
//     runs out before finalization,
//   - ErrComputationFailed (wrapping the decoded reason) on ledger-reported
//     instruction failure,
//   - ErrComputationNotInitiated when the finalized logs carry no
//     queued-computation marker,
//   - protocol.ErrResultParse / protocol.ErrProofVerification from the
//     downstream stages.
//
// Transient status-fetch errors widen the poll interval (doubling, capped)
// instead of aborting; the interval resets on the next successful poll.
func (s *Service) PollResult(ctx context.Context, sig protocol.TxSignature, clusterKey crypto.PublicKey, opts ...PollOption) (*protocol.MPCResult, error) {
	var o pollOptions
	for _, opt := range opts {
		opt(&o)
	}

	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	maxAttempts := s.cfg.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = 60
	}

	report := func(state protocol.ComputationState, progress int, detail string) {
		if o.onStatus != nil {
			o.onStatus(protocol.ComputationStatus{State: state, Progress: progress, Detail: detail})
		}
	}

	report(protocol.StatePending, 0, "submitted")

	wait := interval
	progress := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		metrics.PollAttempts.Inc()

		status, err := s.ledger.SignatureStatus(ctx, sig)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrComputationTimeout, ctx.Err())
			}
			s.log.Warn("Status poll failed, backing off",
				"signature", string(sig), "attempt", attempt, "wait", wait, "err", err)
			if !sleep(ctx, wait) {
				return nil, fmt.Errorf("%w: %w", ErrComputationTimeout, ctx.Err())
			}
			wait = min(wait*2, maxBackoff)
			continue
		}
		wait = interval

		if p := progressFor(status.State); p > progress {
			progress = p
		}

		switch status.State {
		case chain.TxFailed:
			report(protocol.StateFailed, progress, status.Err)
			return nil, fmt.Errorf("%w: %s", ErrComputationFailed, status.Err)

		case chain.TxFinalized:
			report(protocol.StateCompleted, progress, "finalized")
			return s.finalizedResult(ctx, sig, clusterKey)

		default:
			report(protocol.StateProcessing, progress, string(status.State))
		}

		if !sleep(ctx, wait) {
			return nil, fmt.Errorf("%w: %w", ErrComputationTimeout, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: %s not finalized after %d attempts", ErrComputationTimeout, sig, maxAttempts)
}

// finalizedResult fetches the finalized transaction's logs, parses the MPC
// result, and verifies its proof.
func (s *Service) finalizedResult(ctx context.Context, sig protocol.TxSignature, clusterKey crypto.PublicKey) (*protocol.MPCResult, error) {
	logs, err := s.ledger.TransactionLogs(ctx, sig)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction logs: %w", err)
	}

	result, err := protocol.ParseComputationResult(logs)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no queued-computation marker in %d log lines", ErrComputationNotInitiated, len(logs))
	}

	if !protocol.VerifyComputationProof(result.Proof, result.ComputationID[:], clusterKey) {
		return nil, fmt.Errorf("%w: signature %s", protocol.ErrProofVerification, sig)
	}
	return result, nil
}

// sleep waits for d or until ctx is done; it reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
