package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/protocol"
	"github.com/shadowlabs-sol/shadow/settlement"
	"github.com/shadowlabs-sol/shadow/testutil"
)

type gatewayFixture struct {
	srv        *httptest.Server
	ledger     *testutil.FakeLedger
	clusterPub crypto.PublicKey
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	clusterPub, _ := testutil.MustGenerateKeyPair()
	ledger := testutil.NewFakeLedger().SetClusterKey(clusterPub.String(), clusterPub)

	cfg := protocol.DefaultConfig()
	cfg.ClusterAddress = clusterPub.String()
	cfg.PollInterval = time.Millisecond
	cfg.MaxPollAttempts = 10
	cfg.SettleTimeout = 5 * time.Second

	settler, err := settlement.NewService(&settlement.ServiceConfig{
		Protocol: cfg,
		Ledger:   ledger,
	})
	require.NoError(t, err)

	gw, err := NewGateway(&GatewayConfig{Protocol: cfg, Settler: settler})
	require.NoError(t, err)

	router := chi.NewRouter()
	gw.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &gatewayFixture{srv: srv, ledger: ledger, clusterPub: clusterPub}
}

func (f *gatewayFixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func (f *gatewayFixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *gatewayFixture) openAuction(t *testing.T, id uint64, schedule *auction.PriceSchedule) {
	t.Helper()
	resp := f.post(t, "/api/v1/auctions", &CreateAuctionRequest{AuctionID: id, Schedule: schedule})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGatewaySealsBid(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 1, nil)

	bidder, _ := testutil.MustGenerateKeyPair()
	resp := f.post(t, "/api/v1/auctions/1/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 7.5})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body SubmitBidResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, bidder.String(), body.Bidder)
	assert.Len(t, body.EncryptedAmount, 64) // 32 bytes hex
	assert.NotEmpty(t, body.Commitment)
	assert.NotEmpty(t, body.Nonce)
}

func TestGatewayRejectsInvalidBid(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 1, nil)

	bidder, _ := testutil.MustGenerateKeyPair()

	resp := f.post(t, "/api/v1/auctions/1/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: -3})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/api/v1/auctions/1/bids", &SubmitBidRequest{Bidder: "not-hex", Amount: 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/api/v1/auctions/99/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGatewayDutchAsk(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 2, &auction.PriceSchedule{
		StartingPrice: 10_000_000_000,
		DecreaseRate:  1_000_000_000,
		Floor:         2_000_000_000,
	})

	var price CurrentPriceResponse
	require.Equal(t, http.StatusOK, f.get(t, "/api/v1/auctions/2/price", &price))
	assert.Equal(t, uint64(2), price.AuctionID)
	assert.InDelta(t, 10.0, price.Price, 1.1)

	// Below the ask right after open.
	bidder, _ := testutil.MustGenerateKeyPair()
	resp := f.post(t, "/api/v1/auctions/2/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Meets the ask.
	resp = f.post(t, "/api/v1/auctions/2/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 10})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGatewayPriceRequiresSchedule(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 3, nil)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/v1/auctions/3/price", nil))
}

func TestGatewaySettlementLifecycle(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 4, nil)

	// Settling without envelopes is rejected.
	resp := f.post(t, "/api/v1/auctions/4/settle", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bidder, _ := testutil.MustGenerateKeyPair()
	resp = f.post(t, "/api/v1/auctions/4/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 2.5})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.post(t, "/api/v1/auctions/4/reserve", &SetReserveRequest{Price: 1.0})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Script a finalized computation whose result names our bidder.
	id := testutil.NewComputationID()
	f.ledger.ScriptStatus(chain.TxProcessed, chain.TxFinalized)
	f.ledger.Logs = testutil.ResultLogs(bidder, 2_500_000_000, id, f.clusterPub)

	resp = f.post(t, "/api/v1/auctions/4/settle", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted SettleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()
	require.NotEmpty(t, accepted.AttemptID)

	statusPath := fmt.Sprintf("/api/v1/settlements/%s", accepted.AttemptID)
	var status SettlementStatusResponse
	require.Eventually(t, func() bool {
		f.get(t, statusPath, &status)
		return status.Status.State == protocol.StateCompleted
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, bidder.String(), status.Winner)
	assert.Equal(t, uint64(2_500_000_000), status.Amount)
	assert.Equal(t, 100, status.Status.Progress)
	assert.Empty(t, status.Error)
}

func TestGatewaySettlementFailureSurfaces(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 5, nil)

	bidder, _ := testutil.MustGenerateKeyPair()
	resp := f.post(t, "/api/v1/auctions/5/bids", &SubmitBidRequest{Bidder: bidder.String(), Amount: 2})
	resp.Body.Close()
	resp = f.post(t, "/api/v1/auctions/5/reserve", &SetReserveRequest{Price: 1})
	resp.Body.Close()

	f.ledger.ScriptFailure("custom program error: 0x2a")

	resp = f.post(t, "/api/v1/auctions/5/settle", nil)
	var accepted SettleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()

	statusPath := fmt.Sprintf("/api/v1/settlements/%s", accepted.AttemptID)
	var status SettlementStatusResponse
	require.Eventually(t, func() bool {
		f.get(t, statusPath, &status)
		return status.Status.State == protocol.StateFailed
	}, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, status.Error, "0x2a")
}

func TestGatewayUnknownAttempt(t *testing.T) {
	f := newGatewayFixture(t)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/v1/settlements/nope", nil))
}

func TestGatewayDuplicateAuction(t *testing.T) {
	f := newGatewayFixture(t)
	f.openAuction(t, 6, nil)
	resp := f.post(t, "/api/v1/auctions", &CreateAuctionRequest{AuctionID: 6})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
