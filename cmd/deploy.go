package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/palomachain/migrator-deploy/internal/account"
	"github.com/palomachain/migrator-deploy/internal/artifact"
	"github.com/palomachain/migrator-deploy/internal/config"
	"github.com/palomachain/migrator-deploy/internal/deployer"
	"github.com/palomachain/migrator-deploy/internal/gasfee"
	"github.com/palomachain/migrator-deploy/internal/migrator"
	"github.com/palomachain/migrator-deploy/internal/params"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the migrator contract",
	Long: `Load the deployer account, derive EIP-1559 fees from the network and send
one contract-creation transaction for the migrator.

The fee cap is floor(baseFee * 1.2) + priorityFee; the tip is the network's
suggested priority fee. The transaction is sent once and never retried.

Examples:
  # Keystore account ~/.ape/accounts/deployer_account.json
  MIGRATOR_ACCOUNT_PASSWORD=... migrator-deploy deploy

  # Another account and artifact, fixed gas limit
  migrator-deploy deploy --account ops --artifact out/Migrator.json --gas-limit 3000000`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().String("account", "", "deployer account name (default from account.name)")
	deployCmd.Flags().String("artifact", "", "compiled contract JSON (default from artifact.path)")
	deployCmd.Flags().Uint64("gas-limit", 0, "fixed gas limit (default: estimate + 20%)")
	deployCmd.Flags().String("rpc", "", "RPC URL (default from network.rpc_url)")

	rootCmd.AddCommand(deployCmd)
}

// migratorParams supplies the constructor parameters for deploy.
var migratorParams = params.Defaults

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyDeployFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	art, err := artifact.Load(cfg.Artifact.Path)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	// Parameters are checked before the RPC or the keystore is touched.
	constructor := migratorParams()
	if err := constructor.Validate(); err != nil {
		return err
	}

	client, chainID, err := dialNetwork(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	loader, err := newAccountLoader(chainID)
	if err != nil {
		return err
	}

	dep, err := deployer.New(client, art, deployer.Config{
		ChainID:        chainID,
		GasLimit:       cfg.Deploy.GasLimit,
		ReceiptTimeout: cfg.Deploy.ReceiptTimeout,
	}, logger)
	if err != nil {
		return err
	}

	asm, err := migrator.New(migrator.Options{
		Accounts: loader,
		Fees:     gasfee.NewProvider(client),
		Deployer: dep,
		Params:   &constructor,
		Out:      cmd.OutOrStdout(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	_, err = asm.Run(ctx, cfg.Account.Name)
	return err
}

func applyDeployFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("account"); v != "" {
		cfg.Account.Name = v
	}
	if v, _ := cmd.Flags().GetString("artifact"); v != "" {
		cfg.Artifact.Path = v
	}
	if v, _ := cmd.Flags().GetUint64("gas-limit"); v != 0 {
		cfg.Deploy.GasLimit = v
	}
	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		cfg.Network.RPCURL = v
	}
}

// dialNetwork connects to the configured RPC and confirms the chain ID.
func dialNetwork(ctx context.Context) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, cfg.Network.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RPC: %w", err)
	}

	expected := new(big.Int).SetUint64(cfg.Network.ChainID)
	actual, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("get chain ID: %w", err)
	}
	if actual.Cmp(expected) != 0 {
		client.Close()
		return nil, nil, fmt.Errorf("RPC chain ID %s does not match configured chain ID %s", actual, expected)
	}

	logger.Debug("connected to network", "rpc_url", cfg.Network.RPCURL, "chain_id", actual.String())
	return client, expected, nil
}

// newAccountLoader builds the loader for the configured backend.
func newAccountLoader(chainID *big.Int) (account.Loader, error) {
	switch cfg.Account.Backend {
	case config.BackendRemote:
		return remoteLoader(chainID), nil
	case config.BackendKeystore:
		return account.NewKeystoreLoader(cfg.Account.KeystoreDir, chainID, passphrase()), nil
	default:
		return nil, fmt.Errorf("unknown account backend %q", cfg.Account.Backend)
	}
}

// remoteLoader exposes the names listed under remote_signer.accounts.
func remoteLoader(chainID *big.Int) *account.RemoteLoader {
	accounts := make(map[string]common.Address, len(cfg.RemoteSigner.Accounts))
	for name, addr := range cfg.RemoteSigner.Accounts {
		accounts[name] = common.HexToAddress(addr)
	}
	return account.NewRemoteLoader(account.RemoteConfig{
		Endpoint: cfg.RemoteSigner.Endpoint,
		APIKey:   cfg.RemoteSigner.APIKey,
		ChainID:  chainID,
	}, accounts)
}

// passphrase uses the configured password, or prompts when stdin is a terminal.
func passphrase() account.PassphraseFunc {
	if cfg.Account.Password != "" {
		return account.StaticPassphrase(cfg.Account.Password)
	}
	return func(name string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("no passphrase: set account.password or MIGRATOR_ACCOUNT_PASSWORD")
		}
		fmt.Fprintf(os.Stderr, "Enter passphrase for %q: ", name)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		return string(b), nil
	}
}

// deployerAddress resolves the configured account's address without
// decrypting any key.
func deployerAddress() (common.Address, error) {
	chainID := new(big.Int).SetUint64(cfg.Network.ChainID)
	switch cfg.Account.Backend {
	case config.BackendRemote:
		return remoteLoader(chainID).Address(cfg.Account.Name)
	default:
		loader := account.NewKeystoreLoader(cfg.Account.KeystoreDir, chainID, account.StaticPassphrase(""))
		return loader.Address(cfg.Account.Name)
	}
}
