package gasfee

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the subset of ethclient.Client needed to quote fees.
type Backend interface {
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Provider reads the current fee quote from the connected network.
type Provider struct {
	backend Backend
}

// NewProvider creates a Provider over an RPC backend.
func NewProvider(backend Backend) *Provider {
	return &Provider{backend: backend}
}

// Quote returns eth_maxPriorityFeePerGas and the latest header's base fee.
func (p *Provider) Quote(ctx context.Context) (NetworkFeeQuote, error) {
	tip, err := p.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return NetworkFeeQuote{}, fmt.Errorf("get priority fee: %w", err)
	}

	header, err := p.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return NetworkFeeQuote{}, fmt.Errorf("get latest header: %w", err)
	}
	if header.BaseFee == nil {
		return NetworkFeeQuote{}, ErrNoBaseFee
	}

	return NetworkFeeQuote{
		PriorityFee: tip,
		BaseFee:     new(big.Int).Set(header.BaseFee),
	}, nil
}
