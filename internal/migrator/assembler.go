// Package migrator assembles the migrator constructor parameters and the
// EIP-1559 fees, and hands them to a deployer in a single deploy call.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/palomachain/migrator-deploy/internal/account"
	"github.com/palomachain/migrator-deploy/internal/deployer"
	"github.com/palomachain/migrator-deploy/internal/gasfee"
	"github.com/palomachain/migrator-deploy/internal/params"
)

// FeeQuoter reads the current fee quote from the active network.
type FeeQuoter interface {
	Quote(ctx context.Context) (gasfee.NetworkFeeQuote, error)
}

// ContractDeployer performs the deployment.
type ContractDeployer interface {
	Deploy(ctx context.Context, req deployer.Request) (*deployer.ContractHandle, error)
}

// Options holds the Assembler's collaborators.
type Options struct {
	Accounts account.Loader
	Fees     FeeQuoter
	Deployer ContractDeployer
	// Params defaults to params.Defaults().
	Params *params.Parameters
	// Out receives the deployed address line.
	Out    io.Writer
	Logger *slog.Logger
}

// Result describes a completed deployment.
type Result struct {
	Account  common.Address
	Quote    gasfee.NetworkFeeQuote
	Fees     gasfee.DerivedTransactionFees
	Contract *deployer.ContractHandle
}

// Assembler runs the deployment routine.
type Assembler struct {
	accounts account.Loader
	fees     FeeQuoter
	deployer ContractDeployer
	params   params.Parameters
	out      io.Writer
	logger   *slog.Logger
}

// New creates an Assembler.
func New(opts Options) (*Assembler, error) {
	if opts.Accounts == nil {
		return nil, errors.New("account loader is required")
	}
	if opts.Fees == nil {
		return nil, errors.New("fee quoter is required")
	}
	if opts.Deployer == nil {
		return nil, errors.New("deployer is required")
	}
	if opts.Out == nil {
		return nil, errors.New("output writer is required")
	}

	p := params.Defaults()
	if opts.Params != nil {
		p = *opts.Params
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		accounts: opts.Accounts,
		fees:     opts.Fees,
		deployer: opts.Deployer,
		params:   p,
		out:      opts.Out,
		logger:   logger,
	}, nil
}

// Run loads the named account, derives fees from the live quote, deploys the
// migrator contract once and writes its address as a single line to Out.
// Nothing is retried and nothing is cleaned up on failure.
func (a *Assembler) Run(ctx context.Context, accountName string) (*Result, error) {
	acct, err := a.accounts.Load(ctx, accountName)
	if err != nil {
		return nil, fmt.Errorf("load account %q: %w", accountName, err)
	}
	logger := a.logger.With(slog.String("account", acct.Address().Hex()))

	args, err := a.params.ConstructorArgs()
	if err != nil {
		return nil, err
	}

	quote, err := a.fees.Quote(ctx)
	if err != nil {
		return nil, fmt.Errorf("get fee quote: %w", err)
	}

	fees, err := gasfee.Derive(quote)
	if err != nil {
		return nil, fmt.Errorf("derive fees: %w", err)
	}
	logger.Info("derived transaction fees",
		slog.String("base_fee", quote.BaseFee.String()),
		slog.String("priority_fee", quote.PriorityFee.String()),
		slog.String("max_fee", fees.MaxFee.String()),
		slog.String("max_priority_fee", fees.MaxPriorityFee.String()),
	)

	handle, err := a.deployer.Deploy(ctx, deployer.Request{
		Sender:         acct,
		Args:           params.Values(args),
		MaxFee:         fees.MaxFee,
		MaxPriorityFee: fees.MaxPriorityFee,
	})
	if err != nil {
		return nil, fmt.Errorf("deploy migrator: %w", err)
	}

	if _, err := fmt.Fprintln(a.out, handle.String()); err != nil {
		return nil, fmt.Errorf("write address: %w", err)
	}

	return &Result{
		Account:  acct.Address(),
		Quote:    quote,
		Fees:     fees,
		Contract: handle,
	}, nil
}
