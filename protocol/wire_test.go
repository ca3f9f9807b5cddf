package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowlabs-sol/shadow/auction"
	"github.com/shadowlabs-sol/shadow/crypto"
)

func testRequest(t *testing.T, bids int) (*MPCComputationRequest, crypto.PublicKey) {
	t.Helper()
	clusterPub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	enc, err := auction.NewEncryptor(42, clusterPub)
	require.NoError(t, err)

	reserve, err := enc.EncryptReserve(2.5)
	require.NoError(t, err)

	req := &MPCComputationRequest{
		AuctionID:        42,
		EncryptedReserve: reserve,
		ClusterAddress:   clusterPub.String(),
		GasLimit:         1_000_000,
	}
	for i := 0; i < bids; i++ {
		bidder, _, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		bid, err := enc.EncryptBid(float64(i+1), bidder)
		require.NoError(t, err)
		req.EncryptedBids = append(req.EncryptedBids, bid)
	}
	return req, clusterPub
}

func TestEncodeComputationRequestLayout(t *testing.T) {
	req, clusterPub := testRequest(t, 3)

	payload, err := EncodeComputationRequest(req)
	require.NoError(t, err)

	expectedSize := 1 + 8 + 32 + 8 + reserveWireSize + 2 + 3*bidWireSize
	require.Len(t, payload, expectedSize)

	assert.Equal(t, wireVersion, payload[0])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(payload[1:9]))
	assert.Equal(t, clusterPub.String(), hex.EncodeToString(payload[9:41]))
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(payload[41:49]))

	reserveStart := 49
	assert.Equal(t, req.EncryptedReserve.EncryptedAmount[:], payload[reserveStart:reserveStart+32])

	countOffset := reserveStart + reserveWireSize
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(payload[countOffset:countOffset+2]))

	firstBid := countOffset + 2
	assert.Equal(t, req.EncryptedBids[0].Bidder.Bytes(), payload[firstBid:firstBid+32])
}

func TestEncodeComputationRequestRejectsInvalid(t *testing.T) {
	_, err := EncodeComputationRequest(nil)
	assert.Error(t, err)

	req, _ := testRequest(t, 1)

	missingReserve := *req
	missingReserve.EncryptedReserve = nil
	_, err = EncodeComputationRequest(&missingReserve)
	assert.Error(t, err)

	noBids := *req
	noBids.EncryptedBids = nil
	_, err = EncodeComputationRequest(&noBids)
	assert.Error(t, err)

	badAddr := *req
	badAddr.ClusterAddress = "not-hex"
	_, err = EncodeComputationRequest(&badAddr)
	assert.Error(t, err)

	shortAddr := *req
	shortAddr.ClusterAddress = "abcd"
	_, err = EncodeComputationRequest(&shortAddr)
	assert.Error(t, err)
}

func TestEncodeComputationRequestRejectsZeroedEnvelope(t *testing.T) {
	req, _ := testRequest(t, 1)
	req.EncryptedBids[0].EncryptedAmount = [crypto.CiphertextSize]byte{}
	_, err := EncodeComputationRequest(req)
	assert.Error(t, err)
}
