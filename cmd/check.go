package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/palomachain/migrator-deploy/internal/preflight"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run pre-deployment checks",
	Long: `Check that the RPC is reachable, the chain ID matches, the network reports
EIP-1559 fees and the deployer can pay gasLimit * maxFee. No transaction is sent.

The deployer address is read from the keystore file (no passphrase needed) or
from remote_signer.accounts (remote_signer.address is registered under account.name).`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("address", "", "deployer address to check (default: configured account)")
	checkCmd.Flags().String("rpc", "", "RPC URL (default from network.rpc_url)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		cfg.Network.RPCURL = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var addr common.Address
	if v, _ := cmd.Flags().GetString("address"); v != "" {
		if !common.IsHexAddress(v) {
			return fmt.Errorf("invalid address %q", v)
		}
		addr = common.HexToAddress(v)
	} else {
		a, err := deployerAddress()
		if err != nil {
			return err
		}
		addr = a
	}

	resp, err := preflight.NewChecker().RunChecks(cmd.Context(), &preflight.Request{
		RPCURL:          cfg.Network.RPCURL,
		ChainID:         cfg.Network.ChainID,
		DeployerAddress: addr,
		GasLimit:        cfg.Deploy.GasLimit,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(w, resp); err != nil {
			return err
		}
	} else {
		for _, c := range resp.Checks {
			mark := colorGreen("✓")
			if !c.Passed {
				mark = colorRed("✗")
			}
			fmt.Fprintf(w, "%s %-17s %s\n", mark, c.Name, c.Message)
		}
		if resp.RequiredFundingETH != "" {
			fmt.Fprintf(w, "\nDeployer %s needs %s ETH", resp.DeployerAddress, resp.RequiredFundingETH)
			if resp.CurrentBalanceETH != "" {
				fmt.Fprintf(w, ", has %s ETH", resp.CurrentBalanceETH)
			}
			fmt.Fprintln(w)
		}
	}

	if !resp.OK {
		return errors.New("pre-flight checks failed")
	}
	return nil
}
