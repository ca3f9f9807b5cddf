package auction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowlabs-sol/shadow/crypto"
)

func testCluster(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub, priv
}

func testBidder(t *testing.T) crypto.PublicKey {
	t.Helper()
	pub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub
}

func TestNewEncryptorRejectsMissingClusterKey(t *testing.T) {
	_, err := NewEncryptor(1, nil)
	assert.ErrorIs(t, err, ErrMissingClusterKey)

	_, err = NewEncryptor(1, crypto.PublicKey(make([]byte, crypto.KeySize)))
	assert.ErrorIs(t, err, ErrMissingClusterKey)

	_, err = NewEncryptor(1, crypto.PublicKey([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrMissingClusterKey)
}

func TestEncryptBidRoundTrip(t *testing.T) {
	clusterPub, clusterPriv := testCluster(t)
	enc, err := NewEncryptor(42, clusterPub)
	require.NoError(t, err)

	bidder := testBidder(t)
	bid, err := enc.EncryptBid(7.5, bidder)
	require.NoError(t, err)
	require.NoError(t, bid.Validate())

	assert.Equal(t, bidder, bid.Bidder)
	assert.False(t, bid.Timestamp.IsZero())

	raw, err := DecryptValue(clusterPriv, &EncryptedValue{
		Ciphertext: bid.EncryptedAmount,
		Nonce:      bid.Nonce,
		PublicKey:  bid.PublicKey,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7_500_000_000), raw)
	assert.Equal(t, 7.5, DecodeAmount(raw, enc.Scale()))
}

func TestEncryptReserveRoundTrip(t *testing.T) {
	clusterPub, clusterPriv := testCluster(t)
	enc, err := NewEncryptor(42, clusterPub)
	require.NoError(t, err)

	reserve, err := enc.EncryptReserve(2.5)
	require.NoError(t, err)
	require.NoError(t, reserve.Validate())
	assert.Equal(t, uint64(42), reserve.AuctionID)

	raw, err := DecryptValue(clusterPriv, &EncryptedValue{
		Ciphertext: reserve.EncryptedAmount,
		Nonce:      reserve.Nonce,
		PublicKey:  reserve.PublicKey,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), raw)
}

func TestEncryptBidRejectsInvalidInputs(t *testing.T) {
	clusterPub, _ := testCluster(t)
	enc, err := NewEncryptor(1, clusterPub)
	require.NoError(t, err)

	_, err = enc.EncryptBid(-1, testBidder(t))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = enc.EncryptBid(1, nil)
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)

	_, err = enc.EncryptBid(1, crypto.PublicKey(make([]byte, crypto.KeySize)))
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestEncryptBidNonceUniqueness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping statistical nonce test in short mode")
	}

	clusterPub, _ := testCluster(t)
	enc, err := NewEncryptor(1, clusterPub)
	require.NoError(t, err)
	bidder := testBidder(t)

	const trials = 10_000
	nonces := make(map[crypto.Nonce]struct{}, trials)
	ciphertexts := make(map[[crypto.CiphertextSize]byte]struct{}, trials)

	for i := 0; i < trials; i++ {
		bid, err := enc.EncryptBid(7.5, bidder)
		require.NoError(t, err)

		_, seen := nonces[bid.Nonce]
		require.False(t, seen, "nonce collision at trial %d", i)
		nonces[bid.Nonce] = struct{}{}

		_, seen = ciphertexts[bid.EncryptedAmount]
		require.False(t, seen, "ciphertext collision at trial %d", i)
		ciphertexts[bid.EncryptedAmount] = struct{}{}
	}
}

func TestBidCommitmentDeterminism(t *testing.T) {
	bidder := testBidder(t)
	nonce, err := crypto.GenerateNonce()
	require.NoError(t, err)

	a := BidCommitment(7, bidder, 1_000_000, nonce)
	b := BidCommitment(7, bidder, 1_000_000, nonce)
	assert.Equal(t, a, b)

	c := BidCommitment(8, bidder, 1_000_000, nonce)
	assert.NotEqual(t, a, c)

	d := BidCommitment(7, bidder, 1_000_001, nonce)
	assert.NotEqual(t, a, d)
}

func TestEnvelopeValidation(t *testing.T) {
	clusterPub, _ := testCluster(t)
	enc, err := NewEncryptor(1, clusterPub)
	require.NoError(t, err)

	bid, err := enc.EncryptBid(1, testBidder(t))
	require.NoError(t, err)
	require.NoError(t, bid.Validate())

	zeroed := *bid
	zeroed.EncryptedAmount = [crypto.CiphertextSize]byte{}
	assert.Error(t, zeroed.Validate())

	noNonce := *bid
	noNonce.Nonce = crypto.Nonce{}
	assert.Error(t, noNonce.Validate())

	noSender := *bid
	noSender.PublicKey = nil
	assert.Error(t, noSender.Validate())
}
