package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/metrics"
	"github.com/shadowlabs-sol/shadow/protocol"
)

// ServiceConfig configures a settlement Service.
type ServiceConfig struct {
	// Protocol carries the deployment parameters. Nil falls back to
	// protocol.DefaultConfig.
	Protocol *protocol.Config

	// Ledger submits transactions and reads back status and logs.
	Ledger chain.LedgerClient

	// Log is the structured logger for settlement operations.
	Log *slog.Logger
}

// Service runs settlement attempts. Safe for concurrent use across distinct
// auctions; concurrent attempts for the same auction are rejected with
// ErrSettlementInFlight.
type Service struct {
	cfg    *protocol.Config
	ledger chain.LedgerClient
	log    *slog.Logger

	mu       sync.Mutex
	inflight map[uint64]struct{}
}

// NewService creates a settlement service.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil || cfg.Ledger == nil {
		return nil, fmt.Errorf("settlement: ledger client is required")
	}

	pcfg := cfg.Protocol
	if pcfg == nil {
		pcfg = protocol.DefaultConfig()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:      pcfg,
		ledger:   cfg.Ledger,
		log:      log,
		inflight: make(map[uint64]struct{}),
	}, nil
}

// ClusterKey fetches the MPC cluster's public key from its on-ledger
// account. A missing, short, or all-zero key is
// auction.ErrMissingClusterKey: settlement must not proceed without a real
// recipient key.
func (s *Service) ClusterKey(ctx context.Context) (crypto.PublicKey, error) {
	data, err := s.ledger.AccountInfo(ctx, s.cfg.ClusterAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch cluster account: %w", auction.ErrMissingClusterKey, err)
	}
	if len(data) < crypto.KeySize {
		return nil, fmt.Errorf("%w: account data too short (%d bytes)", auction.ErrMissingClusterKey, len(data))
	}

	key := crypto.NewPublicKeyFromBytes(data[:crypto.KeySize])
	if key.IsZero() {
		return nil, fmt.Errorf("%w: account holds an all-zero key", auction.ErrMissingClusterKey)
	}
	return key, nil
}

// SubmitComputation encodes the computation request and broadcasts it,
// returning the transaction signature without waiting for finalization.
// Missing per-request parameters fall back to the deployment config.
func (s *Service) SubmitComputation(ctx context.Context, req *protocol.MPCComputationRequest) (protocol.TxSignature, error) {
	if req == nil {
		return "", fmt.Errorf("settlement: nil computation request")
	}
	if req.ClusterAddress == "" {
		req.ClusterAddress = s.cfg.ClusterAddress
	}
	if req.GasLimit == 0 {
		req.GasLimit = s.cfg.DefaultGasLimit
	}

	payload, err := protocol.EncodeComputationRequest(req)
	if err != nil {
		return "", fmt.Errorf("encode computation request: %w", err)
	}

	sig, err := s.ledger.SubmitTransaction(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("submit computation: %w", err)
	}

	s.log.Info("Submitted computation request",
		"auctionID", req.AuctionID,
		"bids", len(req.EncryptedBids),
		"signature", string(sig),
	)
	return sig, nil
}

// Settle runs one settlement attempt end to end and returns a verified
// result. The attempt is bounded by the caller's context deadline, or by
// the configured settle timeout when the context has none. On any error the
// attempt is over; retrying means re-encrypting and resubmitting from
// scratch, never reusing this attempt's nonces or ephemeral keys.
func (s *Service) Settle(ctx context.Context, req *protocol.MPCComputationRequest, opts ...PollOption) (*protocol.MPCResult, error) {
	if req == nil {
		return nil, fmt.Errorf("settlement: nil computation request")
	}

	if err := s.acquire(req.AuctionID); err != nil {
		return nil, err
	}
	defer s.release(req.AuctionID)
	metrics.SettlementsStarted.Inc()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settleTimeout())
		defer cancel()
	}

	clusterKey, err := s.ClusterKey(ctx)
	if err != nil {
		metrics.SettlementsFailed.Inc()
		return nil, err
	}

	sig, err := s.SubmitComputation(ctx, req)
	if err != nil {
		metrics.SettlementsFailed.Inc()
		return nil, err
	}

	result, err := s.PollResult(ctx, sig, clusterKey, opts...)
	if err != nil {
		metrics.SettlementsFailed.Inc()
		return nil, err
	}

	metrics.SettlementsSucceeded.Inc()
	s.log.Info("Settlement verified",
		"auctionID", req.AuctionID,
		"winner", result.Winner.String(),
		"winningAmount", result.WinningAmount,
	)
	return result, nil
}

func (s *Service) acquire(auctionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[auctionID]; busy {
		return fmt.Errorf("%w %d", ErrSettlementInFlight, auctionID)
	}
	s.inflight[auctionID] = struct{}{}
	return nil
}

func (s *Service) release(auctionID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, auctionID)
}

func (s *Service) settleTimeout() time.Duration {
	if s.cfg.SettleTimeout > 0 {
		return s.cfg.SettleTimeout
	}
	return 300 * time.Second
}
