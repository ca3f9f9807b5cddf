package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// wireVersion is the computation request encoding version.
const wireVersion byte = 1

// bidWireSize is the encoded size of one bid:
// bidder 32 || ciphertext 32 || nonce 16 || sender key 32 || commitment 32 || timestamp 8.
const bidWireSize = 32 + crypto.CiphertextSize + crypto.NonceSize + 32 + 32 + 8

// reserveWireSize is the encoded size of the reserve envelope:
// ciphertext 32 || nonce 16 || sender key 32.
const reserveWireSize = crypto.CiphertextSize + crypto.NonceSize + 32

// EncodeComputationRequest serializes a computation request into the binary
// instruction payload the ledger program consumes. All integers are
// little-endian. Envelopes are validated before encoding; a request with a
// zeroed ciphertext or missing reserve never reaches the wire.
func EncodeComputationRequest(req *MPCComputationRequest) ([]byte, error) {
	if req == nil {
		return nil, errors.New("protocol: nil computation request")
	}
	if req.EncryptedReserve == nil {
		return nil, errors.New("protocol: computation request missing encrypted reserve")
	}
	if len(req.EncryptedBids) == 0 {
		return nil, errors.New("protocol: computation request has no bids")
	}
	if len(req.EncryptedBids) > math.MaxUint16 {
		return nil, fmt.Errorf("protocol: too many bids: %d", len(req.EncryptedBids))
	}

	clusterAddr, err := hex.DecodeString(req.ClusterAddress)
	if err != nil || len(clusterAddr) != 32 {
		return nil, fmt.Errorf("protocol: malformed cluster address %q", req.ClusterAddress)
	}

	if err := req.EncryptedReserve.Validate(); err != nil {
		return nil, err
	}
	for i, bid := range req.EncryptedBids {
		if err := bid.Validate(); err != nil {
			return nil, fmt.Errorf("bid %d: %w", i, err)
		}
	}

	size := 1 + 8 + 32 + 8 + reserveWireSize + 2 + len(req.EncryptedBids)*bidWireSize
	buf := make([]byte, 0, size)

	buf = append(buf, wireVersion)
	buf = binary.LittleEndian.AppendUint64(buf, req.AuctionID)
	buf = append(buf, clusterAddr...)
	buf = binary.LittleEndian.AppendUint64(buf, req.GasLimit)

	buf = append(buf, req.EncryptedReserve.EncryptedAmount[:]...)
	buf = append(buf, req.EncryptedReserve.Nonce.Bytes()...)
	buf = append(buf, req.EncryptedReserve.PublicKey.Bytes()...)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(req.EncryptedBids)))
	for _, bid := range req.EncryptedBids {
		buf = append(buf, bid.Bidder.Bytes()...)
		buf = append(buf, bid.EncryptedAmount[:]...)
		buf = append(buf, bid.Nonce.Bytes()...)
		buf = append(buf, bid.PublicKey.Bytes()...)
		buf = append(buf, bid.Commitment[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(bid.Timestamp.Unix()))
	}

	return buf, nil
}
