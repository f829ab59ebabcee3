// Package gasfee derives EIP-1559 transaction fees from a live network quote.
package gasfee

import (
	"errors"
	"fmt"
	"math/big"
)

// The fee cap covers a base fee up to 20% above the quoted one.
const (
	BaseFeeMarginNumerator   = 12
	BaseFeeMarginDenominator = 10
)

var (
	// ErrNoBaseFee is returned when the chain head carries no base fee.
	ErrNoBaseFee = errors.New("gasfee: network reports no base fee (pre-London chain?)")
	// ErrInvalidQuote is returned for nil or negative quote values.
	ErrInvalidQuote = errors.New("gasfee: invalid fee quote")
	// ErrFeeCapBelowTip is returned when max fee < max priority fee.
	ErrFeeCapBelowTip = errors.New("gasfee: max fee is below max priority fee")
)

// NetworkFeeQuote is the per-gas pricing observed on the network.
type NetworkFeeQuote struct {
	PriorityFee *big.Int `json:"priority_fee"`
	BaseFee     *big.Int `json:"base_fee"`
}

// DerivedTransactionFees are the EIP-1559 caps used for the deployment.
type DerivedTransactionFees struct {
	MaxPriorityFee *big.Int `json:"max_priority_fee"`
	MaxFee         *big.Int `json:"max_fee"`
}

// Validate rejects nil and negative quote values.
func (q NetworkFeeQuote) Validate() error {
	if q.PriorityFee == nil {
		return fmt.Errorf("%w: priority fee not set", ErrInvalidQuote)
	}
	if q.BaseFee == nil {
		return fmt.Errorf("%w: base fee not set", ErrInvalidQuote)
	}
	if q.PriorityFee.Sign() < 0 {
		return fmt.Errorf("%w: negative priority fee %s", ErrInvalidQuote, q.PriorityFee)
	}
	if q.BaseFee.Sign() < 0 {
		return fmt.Errorf("%w: negative base fee %s", ErrInvalidQuote, q.BaseFee)
	}
	return nil
}

// Derive computes
//
//	maxPriorityFee = priorityFee
//	maxFee         = floor(baseFee * 1.2) + priorityFee
//
// in exact integer arithmetic.
func Derive(q NetworkFeeQuote) (DerivedTransactionFees, error) {
	if err := q.Validate(); err != nil {
		return DerivedTransactionFees{}, err
	}

	maxFee := new(big.Int).Mul(q.BaseFee, big.NewInt(BaseFeeMarginNumerator))
	maxFee.Div(maxFee, big.NewInt(BaseFeeMarginDenominator))
	maxFee.Add(maxFee, q.PriorityFee)

	fees := DerivedTransactionFees{
		MaxPriorityFee: new(big.Int).Set(q.PriorityFee),
		MaxFee:         maxFee,
	}
	if err := fees.Validate(); err != nil {
		return DerivedTransactionFees{}, err
	}
	return fees, nil
}

// Validate checks the fee-market invariant maxFee >= maxPriorityFee.
func (f DerivedTransactionFees) Validate() error {
	if f.MaxFee == nil || f.MaxPriorityFee == nil {
		return fmt.Errorf("%w: fees not set", ErrInvalidQuote)
	}
	if f.MaxPriorityFee.Sign() < 0 || f.MaxFee.Sign() < 0 {
		return fmt.Errorf("%w: negative fee", ErrInvalidQuote)
	}
	if f.MaxFee.Cmp(f.MaxPriorityFee) < 0 {
		return fmt.Errorf("%w: max fee %s, max priority fee %s", ErrFeeCapBelowTip, f.MaxFee, f.MaxPriorityFee)
	}
	return nil
}

// Cost returns the worst-case fee paid for gasLimit units of gas.
func (f DerivedTransactionFees) Cost(gasLimit uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), f.MaxFee)
}
