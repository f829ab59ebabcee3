package params

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Validate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestConstructorArgs_Order(t *testing.T) {
	args, err := Defaults().ConstructorArgs()
	require.NoError(t, err)
	require.Len(t, args, 11)

	expected := []struct {
		name  string
		value interface{}
	}{
		{"compass", common.HexToAddress("0x3c1864a873879139C1BD87c7D95c4e475A91d19C")},
		{"weth", common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")},
		{"router", common.HexToAddress("0x2191718CD32d02B8E60BAdFFeA33E4B5DD9A0A0D")},
		{"pool", common.HexToAddress("0x794a61358D6845594F94dc1DB02A252b5b4814aD")},
		{"usdc", common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")},
		{"pagld", common.HexToAddress("0x3f146767AeC2F10484210a6525a807F8eA68613d")},
		{"gold_wallet", common.HexToAddress("0x22a017ec45ea1ae0b43b1aa55f50fffe1da468ec")},
		{"refund_wallet", common.HexToAddress("0x6dc0A87638CD75Cc700cCdB226c7ab6C054bc70b")},
		{"gas_fee", big.NewInt(3_000_000_000_000_000)},
		{"service_fee_collector", common.HexToAddress("0xe693603C9441f0e645Af6A5898b76a60dbf757F4")},
		{"service_fee", big.NewInt(2_500_000_000_000_000)},
	}

	for i, want := range expected {
		assert.Equal(t, want.name, args[i].Name, "position %d", i)
		assert.Equal(t, want.value, args[i].Value, "position %d (%s)", i, want.name)
	}
}

func TestConstructorArgs_CopiesFees(t *testing.T) {
	p := Defaults()
	args, err := p.ConstructorArgs()
	require.NoError(t, err)

	args[8].Value.(*big.Int).SetInt64(1)
	assert.Equal(t, "3000000000000000", p.Fees.GasFee.String())
}

func TestValues(t *testing.T) {
	args, err := Defaults().ConstructorArgs()
	require.NoError(t, err)

	values := Values(args)
	require.Len(t, values, len(args))
	for i := range args {
		assert.Equal(t, args[i].Value, values[i])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Parameters)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(p *Parameters) {},
		},
		{
			name:   "all lowercase is accepted",
			mutate: func(p *Parameters) { p.Addresses.WETH = "0x82af49447d8a07e3bd95bd0d56f35241523fbab1" },
		},
		{
			name:    "missing prefix",
			mutate:  func(p *Parameters) { p.Addresses.Router = "2191718CD32d02B8E60BAdFFeA33E4B5DD9A0A0D" },
			wantErr: "router: \"2191718CD32d02B8E60BAdFFeA33E4B5DD9A0A0D\" is missing the 0x prefix",
		},
		{
			name:    "short address",
			mutate:  func(p *Parameters) { p.Addresses.Pool = "0x794a61358D6845594F94dc1DB02A252b5b4814" },
			wantErr: "pool: \"0x794a61358D6845594F94dc1DB02A252b5b4814\" is not a 20-byte hex address",
		},
		{
			name:    "non hex",
			mutate:  func(p *Parameters) { p.Addresses.USDC = "0xzz88d065e77c8cC2239327C5EDb3A432268e5831" },
			wantErr: "usdc:",
		},
		{
			name:    "zero address",
			mutate:  func(p *Parameters) { p.Addresses.RefundWallet = "0x0000000000000000000000000000000000000000" },
			wantErr: "refund_wallet: zero address",
		},
		{
			name:    "bad checksum",
			mutate:  func(p *Parameters) { p.Addresses.WETH = "0x82AF49447D8a07e3bd95BD0d56f35241523fBab1" },
			wantErr: "weth: \"0x82AF49447D8a07e3bd95BD0d56f35241523fBab1\" has a bad checksum",
		},
		{
			name:    "duplicate contract",
			mutate:  func(p *Parameters) { p.Addresses.Pool = p.Addresses.Router },
			wantErr: "pool: duplicates router",
		},
		{
			name: "wallets may coincide",
			mutate: func(p *Parameters) {
				p.Addresses.RefundWallet = p.Addresses.ServiceFeeCollector
			},
		},
		{
			name:    "missing gas fee",
			mutate:  func(p *Parameters) { p.Fees.GasFee = nil },
			wantErr: "gas_fee: not set",
		},
		{
			name:    "negative service fee",
			mutate:  func(p *Parameters) { p.Fees.ServiceFee = big.NewInt(-1) },
			wantErr: "service_fee: negative value -1",
		},
		{
			name:   "zero fees are accepted",
			mutate: func(p *Parameters) { p.Fees.GasFee = big.NewInt(0); p.Fees.ServiceFee = big.NewInt(0) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Defaults()
			tc.mutate(&p)

			err := p.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameters))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	p := Defaults()
	p.Addresses.Compass = "nope"
	p.Addresses.PAGLD = "0x0000000000000000000000000000000000000000"
	p.Fees.ServiceFee = big.NewInt(-5)

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compass:")
	assert.Contains(t, err.Error(), "pagld: zero address")
	assert.Contains(t, err.Error(), "service_fee: negative value -5")
}

func TestConstructorArgs_RejectsInvalid(t *testing.T) {
	p := Defaults()
	p.Addresses.Compass = ""

	args, err := p.ConstructorArgs()
	assert.Nil(t, args)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
