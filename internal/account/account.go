// Package account loads the identity that signs the deployment transaction.
//
// Accounts are resolved by a logical name through a Loader. Two backends are
// provided: encrypted Web3 keystore files on disk and a remote signer that
// speaks eth_signTransaction over JSON-RPC.
package account

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultName is the logical name of the deployer account.
const DefaultName = "deployer_account"

// Account is a signing identity used as the transaction sender.
type Account interface {
	Address() common.Address
	SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// Loader resolves an account by logical name.
type Loader interface {
	Load(ctx context.Context, name string) (Account, error)
}
