// Package deployer sends a single EIP-1559 contract-creation transaction and
// waits for it to be mined.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/palomachain/migrator-deploy/internal/account"
	"github.com/palomachain/migrator-deploy/internal/artifact"
)

// GasBufferPercent is added on top of the estimated gas limit.
const GasBufferPercent = 20

// DefaultReceiptTimeout bounds the wait for the deployment receipt.
const DefaultReceiptTimeout = 10 * time.Minute

var (
	// ErrDeploymentReverted is returned when the creation transaction is
	// mined with a failed status.
	ErrDeploymentReverted = errors.New("contract deployment reverted")
	// ErrMissingFees is returned when a request has no fee cap or tip.
	ErrMissingFees = errors.New("max fee and max priority fee are required")
)

// Backend is the subset of ethclient.Client used for deployment.
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Config configures a Deployer.
type Config struct {
	ChainID *big.Int
	// GasLimit fixes the gas limit. Zero means estimate.
	GasLimit       uint64
	ReceiptTimeout time.Duration
}

// Request is one deploy call.
type Request struct {
	Sender         account.Account
	Args           []interface{}
	MaxFee         *big.Int
	MaxPriorityFee *big.Int
}

// ContractHandle identifies a deployed contract.
type ContractHandle struct {
	Address common.Address
	TxHash  common.Hash
	GasUsed uint64
	Block   uint64
}

// String returns the contract address in checksummed hex.
func (h *ContractHandle) String() string {
	return h.Address.Hex()
}

// Deployer deploys one compiled contract.
type Deployer struct {
	backend  Backend
	artifact *artifact.ContractArtifact
	config   Config
	logger   *slog.Logger
}

// New creates a Deployer for the given artifact.
func New(backend Backend, art *artifact.ContractArtifact, cfg Config, logger *slog.Logger) (*Deployer, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if art == nil {
		return nil, errors.New("artifact is required")
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, errors.New("chain ID is required")
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultReceiptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		backend:  backend,
		artifact: art,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Deploy builds, signs and sends the creation transaction, then waits for
// its receipt. The transaction is sent once and never retried.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*ContractHandle, error) {
	if req.Sender == nil {
		return nil, errors.New("sender account is required")
	}
	if req.MaxFee == nil || req.MaxPriorityFee == nil {
		return nil, ErrMissingFees
	}

	data, err := d.artifact.DeployData(req.Args...)
	if err != nil {
		return nil, fmt.Errorf("build deploy data: %w", err)
	}

	from := req.Sender.Address()
	nonce, err := d.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	gasLimit, err := d.gasLimit(ctx, from, data, req)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   d.config.ChainID,
		Nonce:     nonce,
		GasTipCap: req.MaxPriorityFee,
		GasFeeCap: req.MaxFee,
		Gas:       gasLimit,
		To:        nil,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signedTx, err := req.Sender.SignTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := d.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	d.logger.Info("deployment transaction sent",
		slog.String("tx_hash", signedTx.Hash().Hex()),
		slog.String("from", from.Hex()),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
		slog.String("max_fee", req.MaxFee.String()),
		slog.String("max_priority_fee", req.MaxPriorityFee.String()),
	)

	waitCtx, cancel := context.WithTimeout(ctx, d.config.ReceiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, d.backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt of %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s", ErrDeploymentReverted, signedTx.Hash().Hex())
	}

	handle := &ContractHandle{
		Address: receipt.ContractAddress,
		TxHash:  signedTx.Hash(),
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		handle.Block = receipt.BlockNumber.Uint64()
	}

	d.logger.Info("contract deployed",
		slog.String("address", handle.Address.Hex()),
		slog.Uint64("block", handle.Block),
		slog.Uint64("gas_used", handle.GasUsed),
	)
	return handle, nil
}

func (d *Deployer) gasLimit(ctx context.Context, from common.Address, data []byte, req Request) (uint64, error) {
	if d.config.GasLimit > 0 {
		return d.config.GasLimit, nil
	}

	estimated, err := d.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        nil,
		GasFeeCap: req.MaxFee,
		GasTipCap: req.MaxPriorityFee,
		Value:     big.NewInt(0),
		Data:      data,
	})
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}

	limit := estimated * (100 + GasBufferPercent) / 100
	d.logger.Debug("estimated gas",
		slog.Uint64("estimated", estimated),
		slog.Uint64("gas_limit", limit),
	)
	return limit, nil
}
