package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/metrics"
	"github.com/shadowlabs-sol/shadow/protocol"
	"github.com/shadowlabs-sol/shadow/settlement"
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// Protocol carries the deployment parameters. Nil falls back to
	// protocol.DefaultConfig.
	Protocol *protocol.Config

	// Settler drives settlement attempts against the ledger.
	Settler *settlement.Service

	// Log is the structured logger for gateway operations.
	Log *slog.Logger
}

// Gateway is the HTTP front end of the auction pipeline. It seals bids as
// they arrive, holds the sealed envelopes until settlement, and exposes
// settlement attempts as pollable resources.
type Gateway struct {
	cfg     *protocol.Config
	settler *settlement.Service
	log     *slog.Logger

	mu       sync.Mutex
	auctions map[uint64]*auctionState
	attempts map[string]*attempt
}

// auctionState is one open auction's in-memory state. Envelopes accumulate
// here until the settle call batches them into a computation request.
type auctionState struct {
	encryptor *auction.Encryptor
	schedule  *auction.PriceSchedule
	openedAt  time.Time
	bids      []*auction.EncryptedBid
	reserve   *auction.EncryptedReserve
}

// attempt tracks one settlement attempt's observable state.
type attempt struct {
	id        string
	auctionID uint64

	mu     sync.Mutex
	status protocol.ComputationStatus
	result *protocol.MPCResult
	err    error
}

// NewGateway creates the gateway service.
func NewGateway(cfg *GatewayConfig) (*Gateway, error) {
	if cfg == nil || cfg.Settler == nil {
		return nil, fmt.Errorf("services: settlement service is required")
	}

	pcfg := cfg.Protocol
	if pcfg == nil {
		pcfg = protocol.DefaultConfig()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &Gateway{
		cfg:      pcfg,
		settler:  cfg.Settler,
		log:      log,
		auctions: make(map[uint64]*auctionState),
		attempts: make(map[string]*attempt),
	}, nil
}

// RegisterRoutes mounts the gateway API.
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auctions", g.handleCreateAuction)
		r.Post("/auctions/{auctionID}/bids", g.handleSubmitBid)
		r.Post("/auctions/{auctionID}/reserve", g.handleSetReserve)
		r.Get("/auctions/{auctionID}/price", g.handleCurrentPrice)
		r.Post("/auctions/{auctionID}/settle", g.handleSettle)
		r.Get("/settlements/{attemptID}", g.handleSettlementStatus)
	})
}

// handleCreateAuction opens an auction. The cluster key is fetched up
// front so that a misconfigured deployment fails here, not at the first
// bid.
func (g *Gateway) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	var req CreateAuctionRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	clusterKey, err := g.settler.ClusterKey(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	enc, err := auction.NewEncryptor(req.AuctionID, clusterKey)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.auctions[req.AuctionID]; exists {
		writeError(w, http.StatusConflict, fmt.Errorf("auction %d already open", req.AuctionID))
		return
	}
	g.auctions[req.AuctionID] = &auctionState{
		encryptor: enc,
		schedule:  req.Schedule,
		openedAt:  time.Now().UTC(),
	}

	g.log.Info("Opened auction", "auctionID", req.AuctionID, "dutch", req.Schedule != nil)
	writeJSON(w, http.StatusCreated, &req)
}

// handleSubmitBid seals a bid and stores its envelope. For Dutch auctions
// the bid must meet the current ask.
func (g *Gateway) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	auctionID, err := auctionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req SubmitBidRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bidder, err := parseBidder(req.Bidder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := g.auctionState(auctionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if state.schedule != nil {
		raw, err := auction.EncodeAmount(req.Amount, state.encryptor.Scale())
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		elapsed := time.Since(state.openedAt)
		if !state.schedule.Accepts(raw, elapsed) {
			writeError(w, http.StatusConflict,
				fmt.Errorf("bid below current ask %d", state.schedule.PriceAt(elapsed)))
			return
		}
	}

	bid, err := state.encryptor.EncryptBid(req.Amount, bidder)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	g.mu.Lock()
	state.bids = append(state.bids, bid)
	g.mu.Unlock()
	metrics.BidsEncrypted.Inc()

	g.log.Info("Sealed bid", "auctionID", auctionID, "bidder", bid.Bidder.String())
	writeJSON(w, http.StatusCreated, newBidResponse(bid))
}

// handleSetReserve seals the auction's reserve price.
func (g *Gateway) handleSetReserve(w http.ResponseWriter, r *http.Request) {
	auctionID, err := auctionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req SetReserveRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := g.auctionState(auctionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	reserve, err := state.encryptor.EncryptReserve(req.Price)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	g.mu.Lock()
	state.reserve = reserve
	g.mu.Unlock()

	g.log.Info("Sealed reserve price", "auctionID", auctionID)
	w.WriteHeader(http.StatusNoContent)
}

// handleCurrentPrice reports a Dutch auction's ask right now.
func (g *Gateway) handleCurrentPrice(w http.ResponseWriter, r *http.Request) {
	auctionID, err := auctionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := g.auctionState(auctionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if state.schedule == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("auction %d has no price schedule", auctionID))
		return
	}

	elapsed := time.Since(state.openedAt)
	raw := state.schedule.PriceAt(elapsed)
	writeJSON(w, http.StatusOK, &CurrentPriceResponse{
		AuctionID: auctionID,
		RawPrice:  raw,
		Price:     auction.DecodeAmount(raw, state.encryptor.Scale()),
		ElapsedS:  int64(elapsed / time.Second),
	})
}

// handleSettle batches the auction's sealed envelopes into a computation
// request and starts a settlement attempt in the background.
func (g *Gateway) handleSettle(w http.ResponseWriter, r *http.Request) {
	auctionID, err := auctionIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state, err := g.auctionState(auctionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	g.mu.Lock()
	req := &protocol.MPCComputationRequest{
		AuctionID:        auctionID,
		EncryptedBids:    append([]*auction.EncryptedBid(nil), state.bids...),
		EncryptedReserve: state.reserve,
		ClusterAddress:   g.cfg.ClusterAddress,
		GasLimit:         g.cfg.DefaultGasLimit,
	}
	g.mu.Unlock()

	if len(req.EncryptedBids) == 0 {
		writeError(w, http.StatusConflict, fmt.Errorf("auction %d has no bids", auctionID))
		return
	}
	if req.EncryptedReserve == nil {
		writeError(w, http.StatusConflict, fmt.Errorf("auction %d has no reserve price", auctionID))
		return
	}

	att := &attempt{
		id:        ksuid.New().String(),
		auctionID: auctionID,
		status:    protocol.ComputationStatus{State: protocol.StatePending},
	}
	g.mu.Lock()
	g.attempts[att.id] = att
	g.mu.Unlock()

	go g.runSettlement(att, req)

	g.log.Info("Started settlement attempt", "auctionID", auctionID, "attemptID", att.id)
	writeJSON(w, http.StatusAccepted, &SettleResponse{AttemptID: att.id, AuctionID: auctionID})
}

// runSettlement drives one attempt to completion and records the outcome.
func (g *Gateway) runSettlement(att *attempt, req *protocol.MPCComputationRequest) {
	result, err := g.settler.Settle(context.Background(), req,
		settlement.WithStatusCallback(func(st protocol.ComputationStatus) {
			att.mu.Lock()
			att.status = st
			att.mu.Unlock()
		}))

	att.mu.Lock()
	defer att.mu.Unlock()
	if err != nil {
		att.err = err
		att.status.State = protocol.StateFailed
		g.log.Error("Settlement attempt failed", "attemptID", att.id, "err", err)
		return
	}
	att.result = result
	att.status = protocol.ComputationStatus{State: protocol.StateCompleted, Progress: 100}
}

// handleSettlementStatus reports an attempt's progress or outcome.
func (g *Gateway) handleSettlementStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")

	g.mu.Lock()
	att, ok := g.attempts[id]
	g.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no settlement attempt %s", id))
		return
	}

	att.mu.Lock()
	defer att.mu.Unlock()
	resp := &SettlementStatusResponse{
		AttemptID: att.id,
		AuctionID: att.auctionID,
		Status:    att.status,
	}
	if att.err != nil {
		resp.Error = att.err.Error()
	}
	if att.result != nil {
		resp.Winner = att.result.Winner.String()
		resp.Amount = att.result.WinningAmount
	}
	writeJSON(w, http.StatusOK, resp)
}

// auctionState looks up an open auction.
func (g *Gateway) auctionState(auctionID uint64) (*auctionState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("no open auction %d", auctionID)
	}
	return state, nil
}

// auctionIDParam parses the auctionID route parameter.
func auctionIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "auctionID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid auction id: %w", err)
	}
	return id, nil
}

// statusForError maps pipeline errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, crypto.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, auction.ErrMissingClusterKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
