// migrator-deploy deploys the migrator contract with its fixed constructor
// parameters and EIP-1559 fees derived from the live network, then prints the
// deployed address.
package main

import "github.com/palomachain/migrator-deploy/cmd"

func main() {
	cmd.Execute()
}
