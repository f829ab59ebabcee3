package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/palomachain/migrator-deploy/internal/params"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print and validate the migrator constructor parameters",
	Long: `Print the constructor arguments in the order they are passed to the
migrator contract and validate every address and fee literal.`,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

type paramOutput struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

func runParams(cmd *cobra.Command, args []string) error {
	constructorArgs, err := params.Defaults().ConstructorArgs()
	if err != nil {
		return err
	}

	out := make([]paramOutput, len(constructorArgs))
	for i, arg := range constructorArgs {
		out[i] = paramOutput{Position: i, Name: arg.Name, Value: formatArg(arg.Value)}
	}

	w := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(w, out)
	}

	for _, p := range out {
		fmt.Fprintf(w, "%2d  %-22s %s\n", p.Position, p.Name, p.Value)
	}
	fmt.Fprintf(w, "%s all %d parameters valid\n", colorGreen("✓"), len(out))
	return nil
}

func formatArg(v interface{}) string {
	switch val := v.(type) {
	case common.Address:
		return val.Hex()
	case *big.Int:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
