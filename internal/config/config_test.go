package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://arb1.arbitrum.io/rpc", cfg.Network.RPCURL)
	assert.Equal(t, uint64(42161), cfg.Network.ChainID)
	assert.Equal(t, "deployer_account", cfg.Account.Name)
	assert.Equal(t, BackendKeystore, cfg.Account.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Deploy.ReceiptTimeout)
	assert.Equal(t, uint64(0), cfg.Deploy.GasLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ape", "accounts"), cfg.Account.KeystoreDir)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
network:
  rpc_url: http://localhost:8547
  chain_id: 412346
account:
  name: ops
  keystore_dir: /tmp/keys
deploy:
  gas_limit: 4000000
  receipt_timeout: 90s
log:
  format: json
`)
	t.Setenv("MIGRATOR_ACCOUNT_PASSWORD", "s3cret")
	t.Setenv("MIGRATOR_NETWORK_CHAIN_ID", "31337")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8547", cfg.Network.RPCURL)
	assert.Equal(t, uint64(31337), cfg.Network.ChainID, "env overrides file")
	assert.Equal(t, "ops", cfg.Account.Name)
	assert.Equal(t, "/tmp/keys", cfg.Account.KeystoreDir)
	assert.Equal(t, "s3cret", cfg.Account.Password)
	assert.Equal(t, uint64(4_000_000), cfg.Deploy.GasLimit)
	assert.Equal(t, 90*time.Second, cfg.Deploy.ReceiptTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_RemoteAccounts(t *testing.T) {
	path := writeFile(t, `
account:
  name: deployer
  backend: remote
remote_signer:
  endpoint: https://rpc.popsigner.com
  api_key: psk_live_abcdef123456
  address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
  accounts:
    ops: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, map[string]string{
		"deployer": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"ops":      "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}, cfg.RemoteSigner.Accounts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "network: [\n"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "deploy:\n  receipt_timeout: soon\n"))
	assert.ErrorContains(t, err, "failed to unmarshal config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "missing rpc url",
			mutate:  func(c *Config) { c.Network.RPCURL = "" },
			wantErr: `Config.Network.RPCURL failed "required"`,
		},
		{
			name:    "bad rpc url",
			mutate:  func(c *Config) { c.Network.RPCURL = "localhost" },
			wantErr: `Config.Network.RPCURL failed "url"`,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Account.Backend = "ledger" },
			wantErr: `Config.Account.Backend failed "oneof"`,
		},
		{
			name:    "zero receipt timeout",
			mutate:  func(c *Config) { c.Deploy.ReceiptTimeout = 0 },
			wantErr: `Config.Deploy.ReceiptTimeout failed "gt"`,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: `Config.Log.Level failed "oneof"`,
		},
		{
			name:    "keystore without dir",
			mutate:  func(c *Config) { c.Account.KeystoreDir = "" },
			wantErr: "account.keystore_dir is required",
		},
		{
			name:    "remote without settings",
			mutate:  func(c *Config) { c.Account.Backend = BackendRemote },
			wantErr: "remote_signer.endpoint, remote_signer.api_key, remote_signer.address required",
		},
		{
			name: "remote with bad address",
			mutate: func(c *Config) {
				c.Account.Backend = BackendRemote
				c.RemoteSigner = RemoteSignerConfig{Endpoint: "https://rpc.popsigner.com", APIKey: "k", Address: "0x1234"}
			},
			wantErr: `Config.RemoteSigner.Address failed "eth_addr"`,
		},
		{
			name: "remote with bad named address",
			mutate: func(c *Config) {
				c.Account.Backend = BackendRemote
				c.RemoteSigner = RemoteSignerConfig{
					Endpoint: "https://rpc.popsigner.com",
					APIKey:   "k",
					Accounts: map[string]string{"ops": "0xnope"},
				}
			},
			wantErr: `Config.RemoteSigner.Accounts[ops] failed "eth_addr"`,
		},
		{
			name: "remote with named accounts only",
			mutate: func(c *Config) {
				c.Account.Backend = BackendRemote
				c.RemoteSigner = RemoteSignerConfig{
					Endpoint: "https://rpc.popsigner.com",
					APIKey:   "k",
					Accounts: map[string]string{"ops": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
				}
			},
		},
		{
			name: "remote complete",
			mutate: func(c *Config) {
				c.Account.Backend = BackendRemote
				c.RemoteSigner = RemoteSignerConfig{
					Endpoint: "https://rpc.popsigner.com",
					APIKey:   "psk_live_abcdef123456",
					Address:  "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "migrator.yaml")
	cfg := Default()
	cfg.Deploy.ReceiptTimeout = 5 * time.Minute
	cfg.Account.KeystoreDir = "/var/keys"

	require.NoError(t, cfg.Write(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "receipt_timeout: 5m0s")
	assert.NotContains(t, string(data), "password")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.Account.Password = "hunter2"
	cfg.RemoteSigner.APIKey = "psk_live_abcdef123456"

	masked := cfg.Masked()
	assert.Equal(t, "****", masked.Account.Password)
	assert.Equal(t, "psk_live...3456", masked.RemoteSigner.APIKey)
	assert.Equal(t, "hunter2", cfg.Account.Password, "original untouched")

	cfg.Account.Password = "correct horse battery staple"
	assert.Equal(t, "****", cfg.Masked().Account.Password)
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "", MaskPassword(""))
	assert.Equal(t, "****", MaskPassword("x"))
	assert.Equal(t, "****", MaskPassword("a passphrase well over twelve characters"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "12345678...wxyz", MaskSecret("12345678abcdefwxyz"))
}
