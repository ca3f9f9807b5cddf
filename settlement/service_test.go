package settlement

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/protocol"
	"github.com/shadowlabs-sol/shadow/testutil"
)

func fastConfig(clusterAddress string) *protocol.Config {
	cfg := protocol.DefaultConfig()
	cfg.ClusterAddress = clusterAddress
	cfg.PollInterval = time.Millisecond
	cfg.MaxPollAttempts = 10
	cfg.SettleTimeout = 5 * time.Second
	return cfg
}

// fixture builds a service over a fake ledger plus a valid computation
// request for one auction with two bids.
func fixture(t *testing.T) (*Service, *testutil.FakeLedger, *protocol.MPCComputationRequest) {
	t.Helper()

	clusterPub, _ := testutil.MustGenerateKeyPair()
	ledger := testutil.NewFakeLedger().SetClusterKey(clusterPub.String(), clusterPub)

	svc, err := NewService(&ServiceConfig{
		Protocol: fastConfig(clusterPub.String()),
		Ledger:   ledger,
		Log:      slog.Default(),
	})
	require.NoError(t, err)

	enc, err := auction.NewEncryptor(7, clusterPub)
	require.NoError(t, err)

	reserve, err := enc.EncryptReserve(1.0)
	require.NoError(t, err)

	req := &protocol.MPCComputationRequest{
		AuctionID:        7,
		EncryptedReserve: reserve,
	}
	for i := 0; i < 2; i++ {
		bidder, _ := testutil.MustGenerateKeyPair()
		bid, err := enc.EncryptBid(float64(i+2), bidder)
		require.NoError(t, err)
		req.EncryptedBids = append(req.EncryptedBids, bid)
	}
	return svc, ledger, req
}

// clusterKey resolves the configured cluster key for test fixtures.
func clusterKey(t *testing.T, svc *Service) crypto.PublicKey {
	t.Helper()
	key, err := svc.ClusterKey(context.Background())
	require.NoError(t, err)
	return key
}

func TestSettleHappyPath(t *testing.T) {
	svc, ledger, req := fixture(t)

	winner, _ := testutil.MustGenerateKeyPair()
	id := testutil.NewComputationID()
	ledger.ScriptStatus(chain.TxProcessed, chain.TxConfirmed, chain.TxFinalized)
	ledger.Logs = testutil.ResultLogs(winner, 2_500_000_000, id, clusterKey(t, svc))

	var progress []int
	result, err := svc.Settle(context.Background(), req, WithStatusCallback(func(st protocol.ComputationStatus) {
		progress = append(progress, st.Progress)
	}))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, winner.Equal(result.Winner))
	assert.Equal(t, uint64(2_500_000_000), result.WinningAmount)
	assert.Equal(t, id, result.ComputationID[:])

	// Progress never decreases and ends at 100.
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])

	// The submitted payload carries both bids.
	require.Len(t, ledger.Submissions(), 1)
}

func TestSettleTimeout(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.ScriptStatus(chain.TxProcessed) // repeats forever

	_, err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, ErrComputationTimeout)
	assert.GreaterOrEqual(t, ledger.Polls(), 10)
}

func TestSettleContextDeadline(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.ScriptStatus(chain.TxProcessed)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Millisecond)
	defer cancel()

	_, err := svc.Settle(ctx, req)
	assert.ErrorIs(t, err, ErrComputationTimeout)
}

func TestSettleFailure(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.ScriptStatus(chain.TxProcessed)
	ledger.ScriptFailure("custom program error: 0x1771")

	_, err := svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, ErrComputationFailed)
	assert.Contains(t, err.Error(), "0x1771")
}

func TestSettleBacksOffOnTransientErrors(t *testing.T) {
	svc, ledger, req := fixture(t)

	winner, _ := testutil.MustGenerateKeyPair()
	id := testutil.NewComputationID()
	ledger.ScriptError(errors.New("connection reset"))
	ledger.ScriptError(errors.New("connection reset"))
	ledger.ScriptStatus(chain.TxFinalized)
	ledger.Logs = testutil.ResultLogs(winner, 42, id, clusterKey(t, svc))

	result, err := svc.Settle(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, winner.Equal(result.Winner))
	assert.Equal(t, 3, ledger.Polls())
}

func TestSettleProofVerificationFails(t *testing.T) {
	svc, ledger, req := fixture(t)

	// Proof signed against a different cluster key.
	winner, _ := testutil.MustGenerateKeyPair()
	otherCluster, _ := testutil.MustGenerateKeyPair()
	ledger.Logs = testutil.ResultLogs(winner, 42, testutil.NewComputationID(), otherCluster)

	_, err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, protocol.ErrProofVerification)
}

func TestSettleNotInitiated(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.Logs = []string{
		"Program ShdwProg1111 invoke [1]",
		"Program log: Instruction: SubmitBid",
		"Program ShdwProg1111 success",
	}

	_, err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, ErrComputationNotInitiated)
}

func TestSettleMarkerWithoutResult(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.Logs = []string{testutil.QueuedMarkerLog(3)}

	_, err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, protocol.ErrResultParse)
}

func TestSettleMissingClusterKey(t *testing.T) {
	clusterPub, _ := testutil.MustGenerateKeyPair()
	ledger := testutil.NewFakeLedger()
	// Account exists but holds an all-zero key.
	ledger.Accounts[clusterPub.String()] = make([]byte, 32)

	svc, err := NewService(&ServiceConfig{
		Protocol: fastConfig(clusterPub.String()),
		Ledger:   ledger,
	})
	require.NoError(t, err)

	enc, err := auction.NewEncryptor(9, clusterPub)
	require.NoError(t, err)
	reserve, err := enc.EncryptReserve(1.0)
	require.NoError(t, err)
	bidder, _ := testutil.MustGenerateKeyPair()
	bid, err := enc.EncryptBid(3, bidder)
	require.NoError(t, err)

	req := &protocol.MPCComputationRequest{
		AuctionID:        9,
		EncryptedBids:    []*auction.EncryptedBid{bid},
		EncryptedReserve: reserve,
	}

	_, err = svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, auction.ErrMissingClusterKey)
}

func TestSettleInFlightGuard(t *testing.T) {
	svc, ledger, req := fixture(t)
	ledger.ScriptStatus(chain.TxProcessed)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.Settle(context.Background(), req, WithStatusCallback(func(st protocol.ComputationStatus) {
			select {
			case started <- struct{}{}:
			default:
			}
		}))
		done <- err
	}()

	<-started
	_, err := svc.Settle(context.Background(), req)
	assert.ErrorIs(t, err, ErrSettlementInFlight)

	// First attempt eventually times out and releases the guard.
	require.ErrorIs(t, <-done, ErrComputationTimeout)
	ledger.ScriptStatus(chain.TxFinalized)
	winner, _ := testutil.MustGenerateKeyPair()
	ledger.Logs = testutil.ResultLogs(winner, 1, testutil.NewComputationID(), clusterKey(t, svc))
	_, err = svc.Settle(context.Background(), req)
	assert.NoError(t, err)
}

func TestSubmitComputationDefaults(t *testing.T) {
	svc, ledger, req := fixture(t)
	req.ClusterAddress = ""
	req.GasLimit = 0

	sig, err := svc.SubmitComputation(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
	assert.Equal(t, svc.cfg.ClusterAddress, req.ClusterAddress)
	assert.Equal(t, svc.cfg.DefaultGasLimit, req.GasLimit)
	require.Len(t, ledger.Submissions(), 1)
}

func TestNewServiceRequiresLedger(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
	_, err = NewService(&ServiceConfig{})
	assert.Error(t, err)
}
