package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidParameters is wrapped by every error returned from Validate.
var ErrInvalidParameters = errors.New("params: invalid constructor parameters")

// namedAddress pairs an address literal with its constructor argument name.
type namedAddress struct {
	name  string
	value string
}

func (s ContractAddressSet) named() []namedAddress {
	return []namedAddress{
		{"compass", s.Compass},
		{"weth", s.WETH},
		{"router", s.Router},
		{"pool", s.Pool},
		{"usdc", s.USDC},
		{"pagld", s.PAGLD},
		{"gold_wallet", s.GoldWallet},
		{"refund_wallet", s.RefundWallet},
		{"service_fee_collector", s.ServiceFeeCollector},
	}
}

// contracts are the addresses that must point at distinct deployed contracts.
// Wallets may legitimately coincide.
var contracts = map[string]bool{
	"compass": true,
	"weth":    true,
	"router":  true,
	"pool":    true,
	"usdc":    true,
	"pagld":   true,
}

// Validate checks every literal and reports all problems at once.
func (p Parameters) Validate() error {
	var errs []error

	seen := make(map[common.Address]string)
	for _, a := range p.Addresses.named() {
		if err := validateAddress(a.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.name, err))
			continue
		}
		if !contracts[a.name] {
			continue
		}
		addr := common.HexToAddress(a.value)
		if prev, ok := seen[addr]; ok {
			errs = append(errs, fmt.Errorf("%s: duplicates %s (%s)", a.name, prev, addr.Hex()))
			continue
		}
		seen[addr] = a.name
	}

	if p.Fees.GasFee == nil {
		errs = append(errs, errors.New("gas_fee: not set"))
	} else if p.Fees.GasFee.Sign() < 0 {
		errs = append(errs, fmt.Errorf("gas_fee: negative value %s", p.Fees.GasFee))
	}
	if p.Fees.ServiceFee == nil {
		errs = append(errs, errors.New("service_fee: not set"))
	} else if p.Fees.ServiceFee.Sign() < 0 {
		errs = append(errs, fmt.Errorf("service_fee: negative value %s", p.Fees.ServiceFee))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidParameters, errors.Join(errs...))
}

// validateAddress accepts a 0x-prefixed, 40 hex digit, non-zero address.
// Mixed-case input must carry a correct EIP-55 checksum.
func validateAddress(s string) error {
	if !strings.HasPrefix(s, "0x") {
		return fmt.Errorf("%q is missing the 0x prefix", s)
	}
	if !common.IsHexAddress(s) {
		return fmt.Errorf("%q is not a 20-byte hex address", s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return errors.New("zero address")
	}
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if want := addr.Hex(); s != want {
			return fmt.Errorf("%q has a bad checksum, expected %s", s, want)
		}
	}
	return nil
}
