package testutil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/shadowlabs-sol/shadow/chain"
	"github.com/shadowlabs-sol/shadow/crypto"
	"github.com/shadowlabs-sol/shadow/protocol"
)

// RandomBytes returns length cryptographically random bytes, panicking on
// entropy failure. Tests only.
func RandomBytes(length int) []byte {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return buf
}

// MustGenerateKeyPair generates a key pair or panics.
func MustGenerateKeyPair() (crypto.PublicKey, crypto.PrivateKey) {
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		panic(err)
	}
	return pub, priv
}

// NewComputationID returns a random computation identifier.
func NewComputationID() []byte {
	return RandomBytes(protocol.ComputationIDSize)
}

// BinaryResultLog builds a "Program return:" log line carrying a binary
// computation result, the way the settlement program emits it.
func BinaryResultLog(winner crypto.PublicKey, amount uint64, computationID []byte, proof []byte) string {
	payload := make([]byte, 0, 72+len(proof))
	payload = append(payload, winner.Bytes()...)
	payload = binary.LittleEndian.AppendUint64(payload, amount)
	payload = append(payload, computationID...)
	payload = append(payload, proof...)
	return "Program return: ShdwProg1111 " + base64.StdEncoding.EncodeToString(payload)
}

// QueuedMarkerLog builds the log line the program emits when it queues a
// computation for the MPC cluster.
func QueuedMarkerLog(offset uint64) string {
	return fmt.Sprintf("Program log: MPC_QUEUED offset=%d", offset)
}

// ResultLogs builds a complete, verifiable log stream for a finalized
// computation: invoke line, queued marker, binary return data with a proof
// that passes verification against clusterKey, and the success line.
func ResultLogs(winner crypto.PublicKey, amount uint64, computationID []byte, clusterKey crypto.PublicKey) []string {
	proof := protocol.SignComputationProof(RandomBytes(32), computationID, clusterKey, nil)
	return []string{
		"Program ShdwProg1111 invoke [1]",
		QueuedMarkerLog(1),
		BinaryResultLog(winner, amount, computationID, proof),
		"Program ShdwProg1111 success",
	}
}

// ledgerScript is one scripted poll response.
type ledgerScript struct {
	status *chain.TxStatus
	err    error
}

// FakeLedger is an in-memory chain.LedgerClient with scripted status
// responses. Statuses are consumed in order; the last one repeats once the
// script is exhausted, and an unscripted ledger reports TxFinalized
// immediately. Safe for concurrent use.
type FakeLedger struct {
	mu sync.Mutex

	// SubmitErr, when set, fails SubmitTransaction.
	SubmitErr error

	// Logs is returned by TransactionLogs for any signature.
	Logs []string

	// LogsErr, when set, fails TransactionLogs.
	LogsErr error

	// Accounts maps address to raw account data for AccountInfo.
	Accounts map[string][]byte

	script   []ledgerScript
	sigSeq   int
	submits  [][]byte
	polls    int
	lastSent protocol.TxSignature
}

// NewFakeLedger returns an unscripted ledger.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{Accounts: map[string][]byte{}}
}

// ScriptStatus appends the given states to the status script.
func (l *FakeLedger) ScriptStatus(states ...chain.TxState) *FakeLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range states {
		l.script = append(l.script, ledgerScript{status: &chain.TxStatus{State: s}})
	}
	return l
}

// ScriptFailure appends a terminal failed status carrying reason.
func (l *FakeLedger) ScriptFailure(reason string) *FakeLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.script = append(l.script, ledgerScript{status: &chain.TxStatus{State: chain.TxFailed, Err: reason}})
	return l
}

// ScriptError appends a transient poll error to the script.
func (l *FakeLedger) ScriptError(err error) *FakeLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.script = append(l.script, ledgerScript{err: err})
	return l
}

// SetClusterKey stores pub as the account data for address.
func (l *FakeLedger) SetClusterKey(address string, pub crypto.PublicKey) *FakeLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Accounts[address] = pub.Bytes()
	return l
}

// SubmitTransaction records the payload and returns a fresh signature.
func (l *FakeLedger) SubmitTransaction(_ context.Context, payload []byte) (protocol.TxSignature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.SubmitErr != nil {
		return "", l.SubmitErr
	}
	l.sigSeq++
	cp := make([]byte, len(payload))
	copy(cp, payload)
	l.submits = append(l.submits, cp)
	l.lastSent = protocol.TxSignature(fmt.Sprintf("fake-sig-%d", l.sigSeq))
	return l.lastSent, nil
}

// SignatureStatus consumes the next scripted status.
func (l *FakeLedger) SignatureStatus(_ context.Context, _ protocol.TxSignature) (*chain.TxStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.polls++
	if len(l.script) == 0 {
		return &chain.TxStatus{State: chain.TxFinalized}, nil
	}
	next := l.script[0]
	if len(l.script) > 1 {
		l.script = l.script[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	status := *next.status
	return &status, nil
}

// TransactionLogs returns the scripted log lines.
func (l *FakeLedger) TransactionLogs(_ context.Context, _ protocol.TxSignature) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.LogsErr != nil {
		return nil, l.LogsErr
	}
	return append([]string(nil), l.Logs...), nil
}

// AccountInfo returns scripted account data.
func (l *FakeLedger) AccountInfo(_ context.Context, address string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, ok := l.Accounts[address]
	if !ok {
		return nil, fmt.Errorf("testutil: no account %s", address)
	}
	return append([]byte(nil), data...), nil
}

// Submissions returns the payloads submitted so far.
func (l *FakeLedger) Submissions() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.submits...)
}

// Polls returns how many times SignatureStatus was called.
func (l *FakeLedger) Polls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polls
}
