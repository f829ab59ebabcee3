// Package params holds the constructor parameters of the migrator contract.
//
// All values are compile-time literals. They are kept in their textual form
// and only turned into typed values by ConstructorArgs, after Validate has
// accepted every literal.
package params

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Arbitrum One contract and wallet addresses wired into the migrator.
const (
	CompassAddress             = "0x3c1864a873879139C1BD87c7D95c4e475A91d19C"
	WETHAddress                = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
	RouterAddress              = "0x2191718CD32d02B8E60BAdFFeA33E4B5DD9A0A0D"
	PoolAddress                = "0x794a61358D6845594F94dc1DB02A252b5b4814aD"
	USDCAddress                = "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
	PAGLDAddress               = "0x3f146767AeC2F10484210a6525a807F8eA68613d"
	GoldWalletAddress          = "0x22a017ec45ea1ae0b43b1aa55f50fffe1da468ec"
	RefundWalletAddress        = "0x6dc0A87638CD75Cc700cCdB226c7ab6C054bc70b"
	ServiceFeeCollectorAddress = "0xe693603C9441f0e645Af6A5898b76a60dbf757F4"
)

// Fee constants in wei.
const (
	// GasFeeWei is charged per migration to cover relayer gas (~$10).
	GasFeeWei = "3000000000000000"
	// ServiceFeeWei is the service fee parameter (0.25%).
	ServiceFeeWei = "2500000000000000"
)

// ContractAddressSet lists every address passed to the migrator constructor.
type ContractAddressSet struct {
	Compass             string `json:"compass" yaml:"compass"`
	WETH                string `json:"weth" yaml:"weth"`
	Router              string `json:"router" yaml:"router"`
	Pool                string `json:"pool" yaml:"pool"`
	USDC                string `json:"usdc" yaml:"usdc"`
	PAGLD               string `json:"pagld" yaml:"pagld"`
	GoldWallet          string `json:"gold_wallet" yaml:"gold_wallet"`
	RefundWallet        string `json:"refund_wallet" yaml:"refund_wallet"`
	ServiceFeeCollector string `json:"service_fee_collector" yaml:"service_fee_collector"`
}

// FeeParameters are the two fee constructor arguments, in wei.
type FeeParameters struct {
	GasFee     *big.Int `json:"gas_fee" yaml:"gas_fee"`
	ServiceFee *big.Int `json:"service_fee" yaml:"service_fee"`
}

// Parameters is the full constructor input of the migrator.
type Parameters struct {
	Addresses ContractAddressSet `json:"addresses" yaml:"addresses"`
	Fees      FeeParameters      `json:"fees" yaml:"fees"`
}

// Defaults returns the production parameter set.
func Defaults() Parameters {
	return Parameters{
		Addresses: ContractAddressSet{
			Compass:             CompassAddress,
			WETH:                WETHAddress,
			Router:              RouterAddress,
			Pool:                PoolAddress,
			USDC:                USDCAddress,
			PAGLD:               PAGLDAddress,
			GoldWallet:          GoldWalletAddress,
			RefundWallet:        RefundWalletAddress,
			ServiceFeeCollector: ServiceFeeCollectorAddress,
		},
		Fees: FeeParameters{
			GasFee:     mustWei(GasFeeWei),
			ServiceFee: mustWei(ServiceFeeWei),
		},
	}
}

// Argument is a single named constructor argument.
type Argument struct {
	Name  string
	Value interface{}
}

// ConstructorArgs validates the parameters and returns them in constructor
// order:
//
//	compass, weth, router, pool, usdc, pagld, gold_wallet, refund_wallet,
//	gas_fee, service_fee_collector, service_fee
func (p Parameters) ConstructorArgs() ([]Argument, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	a := p.Addresses
	addr := common.HexToAddress
	return []Argument{
		{Name: "compass", Value: addr(a.Compass)},
		{Name: "weth", Value: addr(a.WETH)},
		{Name: "router", Value: addr(a.Router)},
		{Name: "pool", Value: addr(a.Pool)},
		{Name: "usdc", Value: addr(a.USDC)},
		{Name: "pagld", Value: addr(a.PAGLD)},
		{Name: "gold_wallet", Value: addr(a.GoldWallet)},
		{Name: "refund_wallet", Value: addr(a.RefundWallet)},
		{Name: "gas_fee", Value: new(big.Int).Set(p.Fees.GasFee)},
		{Name: "service_fee_collector", Value: addr(a.ServiceFeeCollector)},
		{Name: "service_fee", Value: new(big.Int).Set(p.Fees.ServiceFee)},
	}, nil
}

// Values strips the names from a constructor argument list.
func Values(args []Argument) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		out[i] = arg.Value
	}
	return out
}

func mustWei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("params: invalid wei literal " + s)
	}
	return v
}
