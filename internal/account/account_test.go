package account

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Anvil account 0. Never use outside tests.
const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var arbitrumOne = big.NewInt(42161)

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return key
}

func testDeployTx(chainID *big.Int) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		GasTipCap: big.NewInt(100_000_000),
		GasFeeCap: big.NewInt(60_100_000_000),
		Gas:       3_000_000,
		Data:      []byte{0x60, 0x80, 0x60, 0x40},
	})
}

// writeKeystore stores key under dir/name.json with light scrypt parameters.
func writeKeystore(t *testing.T, dir, name, passphrase string, key *ecdsa.PrivateKey) {
	t.Helper()
	k := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
	data, err := keystore.EncryptKey(k, passphrase, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0o600))
}

func TestNewLocalAccount(t *testing.T) {
	for _, hexKey := range []string{testKeyHex, "0x" + testKeyHex} {
		acct, err := NewLocalAccount(hexKey, arbitrumOne)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testAddress), acct.Address())
		assert.Equal(t, int64(42161), acct.ChainID().Int64())
	}

	_, err := NewLocalAccount("not-a-key", arbitrumOne)
	assert.Error(t, err)
}

func TestLocalAccount_SignTransaction(t *testing.T) {
	acct := NewLocalAccountFromKey(testKey(t), arbitrumOne)

	signed, err := acct.SignTransaction(context.Background(), testDeployTx(arbitrumOne))
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(arbitrumOne), signed)
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), from)
	assert.Nil(t, signed.To(), "contract creation must keep a nil recipient")
}

func TestKeystoreLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, DefaultName, "hunter2", testKey(t))

	loader := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase("hunter2"))
	acct, err := loader.Load(context.Background(), DefaultName)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), acct.Address())

	signed, err := acct.SignTransaction(context.Background(), testDeployTx(arbitrumOne))
	require.NoError(t, err)
	from, err := types.Sender(types.LatestSignerForChainID(arbitrumOne), signed)
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), from)
}

func TestKeystoreLoader_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, "other", "pw", testKey(t))

	loader := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase("pw"))
	_, err := loader.Load(context.Background(), DefaultName)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Contains(t, err.Error(), `"deployer_account"`)
	assert.Contains(t, err.Error(), "available: other")
}

func TestKeystoreLoader_NotFoundEmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	loader := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase(""))
	_, err := loader.Load(context.Background(), DefaultName)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Contains(t, err.Error(), "no accounts in")
}

func TestKeystoreLoader_BadPassphrase(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, DefaultName, "right", testKey(t))

	loader := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase("wrong"))
	_, err := loader.Load(context.Background(), DefaultName)
	assert.ErrorIs(t, err, ErrBadPassphrase)
}

func TestKeystoreLoader_PassphraseError(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, DefaultName, "pw", testKey(t))

	loader := NewKeystoreLoader(dir, arbitrumOne, func(name string) (string, error) {
		return "", assert.AnError
	})
	_, err := loader.Load(context.Background(), DefaultName)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestKeystoreLoader_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultName+".json"), []byte("{"), 0o600))

	loader := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase("pw"))
	_, err := loader.Load(context.Background(), DefaultName)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Contains(t, err.Error(), "decrypt keystore file")
}

func TestKeystoreLoader_InvalidName(t *testing.T) {
	loader := NewKeystoreLoader(t.TempDir(), arbitrumOne, StaticPassphrase(""))

	for _, name := range []string{"", ".", "..", "../etc/passwd", `a\b`} {
		_, err := loader.Load(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestKeystoreLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, "zeta", "pw", testKey(t))
	writeKeystore(t, dir, "alpha", "pw", testKey(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o700))

	names, err := NewKeystoreLoader(dir, arbitrumOne, StaticPassphrase("pw")).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestKeystoreLoader_Address(t *testing.T) {
	dir := t.TempDir()
	writeKeystore(t, dir, DefaultName, "pw", testKey(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.json"), []byte(`{"version":3}`), 0o600))

	loader := NewKeystoreLoader(dir, arbitrumOne, func(string) (string, error) {
		t.Fatal("passphrase must not be requested")
		return "", nil
	})

	addr, err := loader.Address(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddress), addr)

	_, err = loader.Address("missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = loader.Address("blank")
	assert.ErrorContains(t, err, "no valid address")
}
