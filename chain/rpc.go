package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shadowlabs-sol/shadow/protocol"
)

// RPCClient talks JSON-RPC 2.0 to a ledger node over HTTP.
type RPCClient struct {
	endpoint string
	hc       *http.Client
	log      *slog.Logger
}

// RPCClientConfig configures an RPCClient.
type RPCClientConfig struct {
	// Endpoint is the node's HTTP JSON-RPC URL.
	Endpoint string

	// Timeout bounds a single RPC round trip. Defaults to 30s.
	Timeout time.Duration

	// Log is the structured logger for RPC operations.
	Log *slog.Logger
}

// NewRPCClient creates a ledger client for the given node endpoint.
func NewRPCClient(cfg *RPCClientConfig) (*RPCClient, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("chain: rpc endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	return &RPCClient{
		endpoint: cfg.Endpoint,
		hc:       &http.Client{Timeout: timeout},
		log:      log,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip and unmarshals the result into out.
func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(&rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: node returned status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("rpc %s: decode response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc %s: node error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("rpc %s: decode result: %w", method, err)
		}
	}
	return nil
}

// SubmitTransaction broadcasts a base64-encoded instruction payload and
// returns the signature the node assigned.
func (c *RPCClient) SubmitTransaction(ctx context.Context, payload []byte) (protocol.TxSignature, error) {
	var sig string
	err := c.call(ctx, "sendTransaction", []any{base64.StdEncoding.EncodeToString(payload)}, &sig)
	if err != nil {
		return "", err
	}

	c.log.Debug("Submitted transaction", "signature", sig, "payloadBytes", len(payload))
	return protocol.TxSignature(sig), nil
}

// SignatureStatus queries the node for a transaction's commitment state.
func (c *RPCClient) SignatureStatus(ctx context.Context, sig protocol.TxSignature) (*TxStatus, error) {
	var status TxStatus
	if err := c.call(ctx, "getSignatureStatus", []any{string(sig)}, &status); err != nil {
		return nil, err
	}
	if status.State == "" {
		status.State = TxUnknown
	}
	return &status, nil
}

// TransactionLogs fetches the log lines of a transaction.
func (c *RPCClient) TransactionLogs(ctx context.Context, sig protocol.TxSignature) ([]string, error) {
	var logs []string
	if err := c.call(ctx, "getTransactionLogs", []any{string(sig)}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// AccountInfo fetches an account's raw data, base64 decoded.
func (c *RPCClient) AccountInfo(ctx context.Context, address string) ([]byte, error) {
	var encoded string
	if err := c.call(ctx, "getAccountInfo", []any{address}, &encoded); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("rpc getAccountInfo: decode account data: %w", err)
	}
	return data, nil
}
