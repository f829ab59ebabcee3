package account

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalAccount signs with an in-memory private key.
// Use it for keystore-backed accounts and local development networks.
type LocalAccount struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewLocalAccount creates a LocalAccount from a hex-encoded private key.
// A leading "0x" is accepted.
func NewLocalAccount(hexKey string, chainID *big.Int) (*LocalAccount, error) {
	if len(hexKey) > 1 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewLocalAccountFromKey(privateKey, chainID), nil
}

// NewLocalAccountFromKey wraps an existing private key.
func NewLocalAccountFromKey(privateKey *ecdsa.PrivateKey, chainID *big.Int) *LocalAccount {
	return &LocalAccount{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    new(big.Int).Set(chainID),
	}
}

// Address returns the account's address.
func (a *LocalAccount) Address() common.Address {
	return a.address
}

// ChainID returns the chain ID used for replay protection.
func (a *LocalAccount) ChainID() *big.Int {
	return new(big.Int).Set(a.chainID)
}

// SignTransaction signs tx with the local private key.
func (a *LocalAccount) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(a.chainID)
	signedTx, err := types.SignTx(tx, signer, a.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signedTx, nil
}

var _ Account = (*LocalAccount)(nil)
