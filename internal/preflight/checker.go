// Package preflight provides pre-deployment validation checks.
package preflight

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"

	"github.com/palomachain/migrator-deploy/internal/gasfee"
)

// DefaultTimeout is the default timeout for RPC calls.
const DefaultTimeout = 10 * time.Second

// DefaultGasLimit is assumed for the funding check when no fixed gas limit
// is configured.
const DefaultGasLimit = 10_000_000

// CheckName identifies a specific pre-flight check.
type CheckName string

const (
	// CheckRPCReachable verifies the RPC endpoint is reachable.
	CheckRPCReachable CheckName = "rpc_reachable"
	// CheckChainIDMatch verifies the chain ID matches the configured value.
	CheckChainIDMatch CheckName = "chain_id_match"
	// CheckFeeQuote verifies the network reports EIP-1559 fees.
	CheckFeeQuote CheckName = "fee_quote"
	// CheckDeployerBalance verifies the deployer can pay gasLimit * maxFee.
	CheckDeployerBalance CheckName = "deployer_balance"
)

// Client is the subset of ethclient.Client used by the checks.
type Client interface {
	gasfee.Backend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// DialFunc connects to an RPC endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (Client, error)

// CheckResult represents the result of a single pre-flight check.
type CheckResult struct {
	Name    CheckName              `json:"name"`
	Passed  bool                   `json:"passed"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Request contains the parameters for pre-flight checks.
type Request struct {
	RPCURL          string         `json:"rpc_url"`
	ChainID         uint64         `json:"chain_id"`
	DeployerAddress common.Address `json:"deployer_address"`
	// GasLimit defaults to DefaultGasLimit.
	GasLimit uint64 `json:"gas_limit"`
}

// Response contains the results of all pre-flight checks.
type Response struct {
	OK                 bool          `json:"ok"`
	Checks             []CheckResult `json:"checks"`
	DeployerAddress    string        `json:"deployer_address"`
	RequiredFundingETH string        `json:"required_funding_eth,omitempty"`
	CurrentBalanceETH  string        `json:"current_balance_eth,omitempty"`
}

// Checker performs pre-flight validation checks.
type Checker struct {
	timeout time.Duration
	dial    DialFunc
}

// NewChecker creates a new pre-flight checker that dials with ethclient.
func NewChecker() *Checker {
	return &Checker{
		timeout: DefaultTimeout,
		dial:    dialEthclient,
	}
}

// WithTimeout sets a custom timeout for RPC calls.
func (c *Checker) WithTimeout(timeout time.Duration) *Checker {
	c.timeout = timeout
	return c
}

// WithDialer replaces the RPC dialer.
func (c *Checker) WithDialer(dial DialFunc) *Checker {
	c.dial = dial
	return c
}

func dialEthclient(ctx context.Context, rpcURL string) (Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// RunChecks performs all pre-flight checks. It never sends a transaction.
func (c *Checker) RunChecks(ctx context.Context, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response := &Response{
		OK:              true,
		Checks:          make([]CheckResult, 0, 4),
		DeployerAddress: req.DeployerAddress.Hex(),
	}

	client, reachableResult := c.checkRPCReachable(rpcCtx, req.RPCURL)
	response.Checks = append(response.Checks, reachableResult)
	if !reachableResult.Passed {
		response.OK = false
		return response, nil
	}
	defer client.Close()

	chainIDResult := c.checkChainIDMatch(rpcCtx, client, req.ChainID)
	response.Checks = append(response.Checks, chainIDResult)
	if !chainIDResult.Passed {
		response.OK = false
	}

	fees, feeResult := c.checkFeeQuote(rpcCtx, client)
	response.Checks = append(response.Checks, feeResult)
	if !feeResult.Passed {
		response.OK = false
		return response, nil
	}

	requiredWei := fees.Cost(gasLimit)
	response.RequiredFundingETH = weiToETHString(requiredWei)

	balanceResult := c.checkDeployerBalance(rpcCtx, client, req.DeployerAddress, requiredWei)
	response.Checks = append(response.Checks, balanceResult)
	if !balanceResult.Passed {
		response.OK = false
	}
	if haveETH, ok := balanceResult.Details["have_eth"].(string); ok {
		response.CurrentBalanceETH = haveETH
	}

	return response, nil
}

func (c *Checker) validateRequest(req *Request) error {
	if req.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if req.ChainID == 0 {
		return fmt.Errorf("chain_id is required")
	}
	if req.DeployerAddress == (common.Address{}) {
		return fmt.Errorf("deployer_address is required")
	}
	return nil
}

func (c *Checker) checkRPCReachable(ctx context.Context, rpcURL string) (Client, CheckResult) {
	result := CheckResult{Name: CheckRPCReachable}

	client, err := c.dial(ctx, rpcURL)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to connect to RPC: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return nil, result
	}

	// Dialing HTTP endpoints does not touch the network, so make one call.
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		result.Message = fmt.Sprintf("RPC connection failed: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return nil, result
	}

	result.Passed = true
	result.Message = "Connected to RPC successfully"
	return client, result
}

func (c *Checker) checkChainIDMatch(ctx context.Context, client Client, expectedChainID uint64) CheckResult {
	result := CheckResult{Name: CheckChainIDMatch}

	actualChainID, err := client.ChainID(ctx)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to get chain ID: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return result
	}

	expected := new(big.Int).SetUint64(expectedChainID)
	if actualChainID.Cmp(expected) != 0 {
		result.Message = fmt.Sprintf("Chain ID mismatch: expected %d (%s), got %s",
			expectedChainID, NetworkName(expectedChainID), actualChainID)
		result.Details = map[string]interface{}{
			"expected": expectedChainID,
			"actual":   actualChainID.String(),
		}
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Chain ID %d (%s) confirmed", expectedChainID, NetworkName(expectedChainID))
	result.Details = map[string]interface{}{"chain_id": expectedChainID}
	return result
}

func (c *Checker) checkFeeQuote(ctx context.Context, client Client) (gasfee.DerivedTransactionFees, CheckResult) {
	result := CheckResult{Name: CheckFeeQuote}

	quote, err := gasfee.NewProvider(client).Quote(ctx)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to get fee quote: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return gasfee.DerivedTransactionFees{}, result
	}
	fees, err := gasfee.Derive(quote)
	if err != nil {
		result.Message = fmt.Sprintf("Invalid fee quote: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return gasfee.DerivedTransactionFees{}, result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Max fee %s wei, max priority fee %s wei", fees.MaxFee, fees.MaxPriorityFee)
	result.Details = map[string]interface{}{
		"base_fee":         quote.BaseFee.String(),
		"priority_fee":     quote.PriorityFee.String(),
		"max_fee":          fees.MaxFee.String(),
		"max_priority_fee": fees.MaxPriorityFee.String(),
	}
	return fees, result
}

func (c *Checker) checkDeployerBalance(ctx context.Context, client Client, addr common.Address, requiredWei *big.Int) CheckResult {
	result := CheckResult{Name: CheckDeployerBalance}

	balance, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to get deployer balance: %v", err)
		result.Details = map[string]interface{}{"error": err.Error()}
		return result
	}

	haveETH := weiToETHString(balance)
	needETH := weiToETHString(requiredWei)

	result.Details = map[string]interface{}{
		"have_wei": balance.String(),
		"need_wei": requiredWei.String(),
		"have_eth": haveETH,
		"need_eth": needETH,
	}

	if balance.Cmp(requiredWei) < 0 {
		result.Message = fmt.Sprintf("Insufficient deployer balance: have %s ETH, need %s ETH", haveETH, needETH)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Deployer has sufficient balance: %s ETH", haveETH)
	return result
}

// weiToETHString converts wei to an ETH string with 6 decimal places.
func weiToETHString(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	ethFloat := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return ethFloat.Text('f', 6)
}

// NetworkName returns a human-readable name for a chain ID.
func NetworkName(chainID uint64) string {
	switch chainID {
	case 1:
		return "Ethereum Mainnet"
	case 42161:
		return "Arbitrum One"
	case 421614:
		return "Arbitrum Sepolia"
	case 11155111:
		return "Sepolia"
	case 31337:
		return "Anvil"
	default:
		return fmt.Sprintf("Chain %d", chainID)
	}
}
