package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"solana-alerts/internal/observability"
	"solana-alerts/internal/retry"
)

// DefaultTimeout bounds a single RPC round trip.
const DefaultTimeout = 10 * time.Second

// MaxAccountsPerCall is the getMultipleAccounts key limit of public RPC nodes.
const MaxAccountsPerCall = 100

// DefaultRetryPolicy retries a failed RPC call once.
func DefaultRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 2,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// RPCClient is an AccountReader over HTTP JSON-RPC 2.0.
type RPCClient struct {
	endpoint string
	http     *http.Client
	policy   retry.Policy
	nextID   atomic.Uint64
}

// RPCOption configures an RPCClient.
type RPCOption func(*RPCClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RPCOption {
	return func(c *RPCClient) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) RPCOption {
	return func(c *RPCClient) { c.http = hc }
}

// WithRetryPolicy replaces the retry policy. Classify is always set by the client.
func WithRetryPolicy(p retry.Policy) RPCOption {
	return func(c *RPCClient) { c.policy = p }
}

// NewRPCClient creates a client for endpoint.
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	c := &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		policy:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy.Classify = classifyRPC
	return c
}

var _ AccountReader = (*RPCClient)(nil)

// GetAccounts fetches pubkeys with getMultipleAccounts using base64 encoding.
func (c *RPCClient) GetAccounts(ctx context.Context, pubkeys ...string) ([]*AccountInfo, error) {
	if len(pubkeys) == 0 {
		return nil, nil
	}
	if len(pubkeys) > MaxAccountsPerCall {
		return nil, fmt.Errorf("getMultipleAccounts: %d keys exceeds limit %d", len(pubkeys), MaxAccountsPerCall)
	}

	var result struct {
		Value []*struct {
			Owner    string   `json:"owner"`
			Lamports uint64   `json:"lamports"`
			Data     []string `json:"data"`
		} `json:"value"`
	}
	params := []any{pubkeys, map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}
	if len(result.Value) != len(pubkeys) {
		return nil, &decodeError{err: fmt.Errorf("got %d accounts for %d keys", len(result.Value), len(pubkeys))}
	}

	accounts := make([]*AccountInfo, len(pubkeys))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		info := &AccountInfo{Owner: v.Owner, Lamports: v.Lamports}
		if len(v.Data) > 0 {
			info.Data = v.Data[0]
		}
		accounts[i] = info
	}
	return accounts, nil
}

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  []any           `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the node. It is never retried.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// decodeError is a reply whose result does not fit the expected shape.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode result: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func classifyRPC(err error) retry.Class {
	var rpcErr *RPCError
	var decErr *decodeError
	switch {
	case errors.As(err, &rpcErr), errors.As(err, &decErr):
		return retry.Fatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retry.Fatal
	}
	return retry.Retryable
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	body, err := json.Marshal(rpcEnvelope{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", method, err)
	}

	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		return c.post(ctx, body, out)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *RPCClient) post(ctx context.Context, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var env rpcEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return &decodeError{err: err}
	}
	if env.Error != nil {
		return env.Error
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}
