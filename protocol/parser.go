package protocol

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/shadowlabs-sol/shadow/crypto"
)

// Log line markers emitted by the ledger program and the MPC callback.
// Different computation backends emit different encodings; the parser tries
// them in a fixed priority order and the first success wins.
const (
	// returnDataPrefix marks a binary return-data log line. The payload is
	// the last whitespace-separated token, base64 encoded.
	returnDataPrefix = "Program return: "

	// jsonResultPrefix marks the legacy JSON event encoding.
	jsonResultPrefix = "MPC_RESULT:"

	// queuedMarker appears in the logs of any transaction that actually
	// queued an MPC computation. Its absence means the computation was
	// never initiated.
	queuedMarker = "MPC_QUEUED"
)

// binaryResultMinSize is the minimum binary payload: winner 32 || amount 8 ||
// computation id 32. Proof bytes follow.
const binaryResultMinSize = 32 + 8 + ComputationIDSize

// ParseComputationResult extracts an MPCResult from transaction log lines.
//
// Formats are tried in priority order: the binary return-data layout first,
// then the legacy JSON event. If neither yields a result and no
// queued-computation marker is present, the parser returns (nil, nil) — the
// computation was never initiated, which callers must distinguish from
// "still pending". A marker with no parseable result is ErrResultParse.
//
// The returned result is unverified; it must pass VerifyComputationProof
// before being acted upon.
func ParseComputationResult(logs []string) (*MPCResult, error) {
	if res := parseBinaryResult(logs); res != nil {
		return res, nil
	}
	if res := parseJSONResult(logs); res != nil {
		return res, nil
	}

	for _, line := range logs {
		if strings.Contains(line, queuedMarker) {
			return nil, ErrResultParse
		}
	}
	return nil, nil
}

// parseBinaryResult decodes the fixed binary return-data layout:
// bytes [0:32] winner, [32:40] little-endian uint64 winning amount,
// [40:72] computation id, [72:] proof. Payloads shorter than 72 bytes do
// not match; the parser falls through to the next format.
func parseBinaryResult(logs []string) *MPCResult {
	for _, line := range logs {
		if !strings.HasPrefix(line, returnDataPrefix) {
			continue
		}

		// The prefix may be followed by "<program address> <base64>";
		// the payload is the last token.
		fields := strings.Fields(strings.TrimPrefix(line, returnDataPrefix))
		if len(fields) == 0 {
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(fields[len(fields)-1])
		if err != nil || len(payload) < binaryResultMinSize {
			continue
		}

		res := &MPCResult{
			Winner:        crypto.NewPublicKeyFromBytes(payload[0:32]),
			WinningAmount: binary.LittleEndian.Uint64(payload[32:40]),
			Proof:         append([]byte(nil), payload[binaryResultMinSize:]...),
			Timestamp:     time.Now().UTC(),
		}
		copy(res.ComputationID[:], payload[40:binaryResultMinSize])
		return res
	}
	return nil
}

// jsonResultEvent is the legacy JSON event shape. Missing optional fields
// default to empty or zero rather than failing the parse.
type jsonResultEvent struct {
	Winner        string       `json:"winner"`
	WinningAmount json.Number  `json:"winningAmount"`
	Rankings      []BidRanking `json:"rankings"`
	Proof         string       `json:"proof"`
	ComputationID string       `json:"computationId"`
}

func parseJSONResult(logs []string) *MPCResult {
	for _, line := range logs {
		idx := strings.Index(line, jsonResultPrefix)
		if idx < 0 {
			continue
		}

		var event jsonResultEvent
		if err := json.Unmarshal([]byte(line[idx+len(jsonResultPrefix):]), &event); err != nil {
			continue
		}

		res := &MPCResult{
			Rankings:  event.Rankings,
			Timestamp: time.Now().UTC(),
		}

		if event.Winner != "" {
			winner, err := crypto.NewPublicKeyFromString(event.Winner)
			if err != nil {
				continue
			}
			res.Winner = winner
		}
		if event.WinningAmount != "" {
			amount, err := event.WinningAmount.Int64()
			if err != nil || amount < 0 {
				continue
			}
			res.WinningAmount = uint64(amount)
		}
		if event.Proof != "" {
			proof, err := base64.StdEncoding.DecodeString(event.Proof)
			if err != nil {
				continue
			}
			res.Proof = proof
		}
		if event.ComputationID != "" {
			id, err := hex.DecodeString(event.ComputationID)
			if err != nil || len(id) != ComputationIDSize {
				continue
			}
			copy(res.ComputationID[:], id)
		}

		return res
	}
	return nil
}
