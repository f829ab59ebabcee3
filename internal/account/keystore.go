package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// PassphraseFunc returns the passphrase protecting the named account.
type PassphraseFunc func(name string) (string, error)

// StaticPassphrase returns the same passphrase for every account.
func StaticPassphrase(passphrase string) PassphraseFunc {
	return func(string) (string, error) {
		return passphrase, nil
	}
}

// KeystoreLoader loads accounts from a directory of Web3 v3 keystore files
// named <name>.json, the layout ape uses under ~/.ape/accounts.
type KeystoreLoader struct {
	dir        string
	chainID    *big.Int
	passphrase PassphraseFunc
}

// NewKeystoreLoader creates a loader rooted at dir.
func NewKeystoreLoader(dir string, chainID *big.Int, passphrase PassphraseFunc) *KeystoreLoader {
	return &KeystoreLoader{
		dir:        dir,
		chainID:    new(big.Int).Set(chainID),
		passphrase: passphrase,
	}
}

// Load decrypts <dir>/<name>.json.
func (l *KeystoreLoader) Load(ctx context.Context, name string) (Account, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, l.notFound(name)
		}
		return nil, fmt.Errorf("read keystore file: %w", err)
	}

	passphrase, err := l.passphrase(name)
	if err != nil {
		return nil, fmt.Errorf("get passphrase for %q: %w", name, err)
	}

	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: %q", ErrBadPassphrase, name)
		}
		return nil, fmt.Errorf("decrypt keystore file %s: %w", path, err)
	}

	return NewLocalAccountFromKey(key.PrivateKey, l.chainID), nil
}

// Address reads the account address stored in the keystore file without
// decrypting it.
func (l *KeystoreLoader) Address(name string) (common.Address, error) {
	if err := checkName(name); err != nil {
		return common.Address{}, err
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.Address{}, l.notFound(name)
		}
		return common.Address{}, fmt.Errorf("read keystore file: %w", err)
	}

	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return common.Address{}, fmt.Errorf("parse keystore file: %w", err)
	}
	if !common.IsHexAddress(header.Address) {
		return common.Address{}, fmt.Errorf("keystore file for %q has no valid address", name)
	}
	return common.HexToAddress(header.Address), nil
}

// List returns the names of all keystore files in the directory.
func (l *KeystoreLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (l *KeystoreLoader) notFound(name string) error {
	names, _ := l.List()
	if len(names) == 0 {
		return fmt.Errorf("%w: %q (no accounts in %s)", ErrAccountNotFound, name, l.dir)
	}
	return fmt.Errorf("%w: %q (available: %s)", ErrAccountNotFound, name, strings.Join(names, ", "))
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

var _ Loader = (*KeystoreLoader)(nil)
