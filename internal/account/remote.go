package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// RemoteConfig configures a remote signer account.
type RemoteConfig struct {
	// Endpoint is the signer's JSON-RPC URL.
	Endpoint string
	// APIKey is sent as a bearer token.
	APIKey string
	// ChainID is the chain ID placed in eth_signTransaction requests.
	ChainID *big.Int

	// Retry configuration
	MaxRetries     int           // default: 3
	InitialBackoff time.Duration // default: 1s
	MaxBackoff     time.Duration // default: 10s
	Timeout        time.Duration // per request, default: 30s
}

func (c *RemoteConfig) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// RemoteAccount signs transactions through a remote eth_signTransaction
// endpoint such as a POPSigner RPC gateway. The private key never leaves
// the signer.
type RemoteAccount struct {
	config     RemoteConfig
	address    common.Address
	httpClient *http.Client
}

// NewRemoteAccount creates a remote account for address.
func NewRemoteAccount(cfg RemoteConfig, address common.Address) (*RemoteAccount, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("remote signer endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("remote signer API key is required")
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, errors.New("remote signer chain ID is required")
	}
	cfg.applyDefaults()

	return &RemoteAccount{
		config:  cfg,
		address: address,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Address returns the address whose key is held by the signer.
func (a *RemoteAccount) Address() common.Address {
	return a.address
}

// SignTransaction signs tx via eth_signTransaction, retrying transient failures.
func (a *RemoteAccount) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_signTransaction",
		Params:  []interface{}{a.transactionArgs(tx)},
		ID:      1,
	}

	var lastErr error
	delay := a.config.InitialBackoff
	for attempt := 1; attempt <= a.config.MaxRetries; attempt++ {
		raw, err := a.call(ctx, req)
		if err == nil {
			signed, err := a.decodeSignedTransaction(raw)
			if err != nil {
				return nil, fmt.Errorf("decode signed transaction: %w", err)
			}
			return signed, nil
		}
		if !isRetryableError(err) {
			return nil, fmt.Errorf("signing failed: %w", err)
		}
		lastErr = err

		if attempt == a.config.MaxRetries {
			break
		}
		// Back off, doubling up to MaxBackoff.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, a.config.MaxBackoff)
	}

	return nil, fmt.Errorf("signing failed after %d attempts: %w", a.config.MaxRetries, lastErr)
}

// transactionArgs renders tx in the eth_signTransaction argument format.
// Creation transactions carry no "to".
func (a *RemoteAccount) transactionArgs(tx *types.Transaction) txArgs {
	args := txArgs{
		From:    a.address.Hex(),
		Gas:     hexutil.EncodeUint64(tx.Gas()),
		Value:   hexutil.EncodeBig(tx.Value()),
		Nonce:   hexutil.EncodeUint64(tx.Nonce()),
		ChainID: hexutil.EncodeBig(a.config.ChainID),
	}
	if to := tx.To(); to != nil {
		hex := to.Hex()
		args.To = &hex
	}
	if data := tx.Data(); len(data) > 0 {
		args.Data = hexutil.Encode(data)
	}

	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = hexPtr(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = hexPtr(tx.GasTipCap())
	} else {
		args.GasPrice = hexPtr(tx.GasPrice())
	}
	return args
}

func hexPtr(v *big.Int) *string {
	s := hexutil.EncodeBig(v)
	return &s
}

// call posts one JSON-RPC request and returns the hex-encoded result.
func (a *RemoteAccount) call(ctx context.Context, req rpcRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	// Transport failures are retryable.
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", &RetryableError{Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RetryableError{Err: fmt.Errorf("read response: %w", err)}
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return "", err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if e := rpcResp.Error; e != nil {
		err := fmt.Errorf("JSON-RPC error %d: %s", e.Code, e.Message)
		if isRetryableRPCError(e.Code) {
			return "", &RetryableError{Err: err}
		}
		return "", err
	}

	// The result is the raw signed transaction as a hex string.
	var signed string
	if err := json.Unmarshal(rpcResp.Result, &signed); err != nil {
		return "", fmt.Errorf("unmarshal result: %w", err)
	}
	return signed, nil
}

// statusError maps a non-2xx reply: 5xx is retried, 4xx becomes a SignerError.
func statusError(code int, body []byte) error {
	switch {
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("server error: %d %s", code, string(body))}
	case code >= 400:
		return &SignerError{StatusCode: code, Body: strings.TrimSpace(string(body))}
	default:
		return nil
	}
}

// decodeSignedTransaction decodes the signer's reply and checks that the
// signature recovers to this account.
func (a *RemoteAccount) decodeSignedTransaction(hexEncodedTx string) (*types.Transaction, error) {
	txBytes, err := hexutil.Decode(hexEncodedTx)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(txBytes); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(a.config.ChainID), &tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %w", err)
	}
	if from != a.address {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrSignerMismatch, a.address.Hex(), from.Hex())
	}
	return &tx, nil
}

// RemoteLoader resolves names to accounts held by one remote signer.
type RemoteLoader struct {
	config   RemoteConfig
	accounts map[string]common.Address
}

// NewRemoteLoader creates a loader for the given name to address mapping.
func NewRemoteLoader(cfg RemoteConfig, accounts map[string]common.Address) *RemoteLoader {
	return &RemoteLoader{config: cfg, accounts: accounts}
}

// Load returns the remote account registered under name.
func (l *RemoteLoader) Load(ctx context.Context, name string) (Account, error) {
	addr, err := l.Address(name)
	if err != nil {
		return nil, err
	}
	return NewRemoteAccount(l.config, addr)
}

// Address returns the signer address registered under name.
func (l *RemoteLoader) Address(name string) (common.Address, error) {
	if err := checkName(name); err != nil {
		return common.Address{}, err
	}
	addr, ok := l.accounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %q (not configured for remote signer)", ErrAccountNotFound, name)
	}
	return addr, nil
}

// JSON-RPC types

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type txArgs struct {
	From                 string  `json:"from"`
	To                   *string `json:"to,omitempty"`
	Gas                  string  `json:"gas"`
	GasPrice             *string `json:"gasPrice,omitempty"`
	MaxFeePerGas         *string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *string `json:"maxPriorityFeePerGas,omitempty"`
	Value                string  `json:"value"`
	Nonce                string  `json:"nonce"`
	Data                 string  `json:"data,omitempty"`
	ChainID              string  `json:"chainId"`
}

// isRetryableRPCError reports whether a JSON-RPC code is a server-side
// (-32000 to -32099) error.
func isRetryableRPCError(code int) bool {
	return code >= -32099 && code <= -32000
}

var (
	_ Account = (*RemoteAccount)(nil)
	_ Loader  = (*RemoteLoader)(nil)
)
