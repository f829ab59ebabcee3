package cmd

import (
	"fmt"
	"math/big"

	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/spf13/cobra"

	"github.com/palomachain/migrator-deploy/internal/gasfee"
)

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Show the current fee quote and the derived transaction fees",
	Long: `Query the network for the priority fee and latest base fee and print the
EIP-1559 fees a deployment would use right now. No transaction is sent.`,
	RunE: runFees,
}

func init() {
	feesCmd.Flags().String("rpc", "", "RPC URL (default from network.rpc_url)")
	rootCmd.AddCommand(feesCmd)
}

type feesOutput struct {
	ChainID        uint64 `json:"chain_id"`
	BaseFee        string `json:"base_fee"`
	PriorityFee    string `json:"priority_fee"`
	MaxFee         string `json:"max_fee"`
	MaxPriorityFee string `json:"max_priority_fee"`
	GasLimit       uint64 `json:"gas_limit,omitempty"`
	MaxCost        string `json:"max_cost,omitempty"`
}

func runFees(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		cfg.Network.RPCURL = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, _, err := dialNetwork(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	quote, err := gasfee.NewProvider(client).Quote(ctx)
	if err != nil {
		return err
	}
	fees, err := gasfee.Derive(quote)
	if err != nil {
		return err
	}

	out := feesOutput{
		ChainID:        cfg.Network.ChainID,
		BaseFee:        quote.BaseFee.String(),
		PriorityFee:    quote.PriorityFee.String(),
		MaxFee:         fees.MaxFee.String(),
		MaxPriorityFee: fees.MaxPriorityFee.String(),
	}
	if cfg.Deploy.GasLimit > 0 {
		out.GasLimit = cfg.Deploy.GasLimit
		out.MaxCost = fees.Cost(cfg.Deploy.GasLimit).String()
	}

	w := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Base fee:          %s wei (%s gwei)\n", out.BaseFee, gwei(quote.BaseFee))
	fmt.Fprintf(w, "Priority fee:      %s wei (%s gwei)\n", out.PriorityFee, gwei(quote.PriorityFee))
	fmt.Fprintf(w, "Max fee:           %s wei (%s gwei)\n", out.MaxFee, gwei(fees.MaxFee))
	fmt.Fprintf(w, "Max priority fee:  %s wei (%s gwei)\n", out.MaxPriorityFee, gwei(fees.MaxPriorityFee))
	if out.MaxCost != "" {
		fmt.Fprintf(w, "Max cost:          %s wei at gas limit %d\n", out.MaxCost, out.GasLimit)
	}
	return nil
}

// gwei formats wei as gwei with up to 9 decimals.
func gwei(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(ethparams.GWei))
	return f.Text('f', 9)
}
