// Package config provides configuration loading for migrator-deploy.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MIGRATOR_NETWORK_RPC_URL.
const EnvPrefix = "MIGRATOR"

// FileName is the config file name without extension.
const FileName = "migrator"

// Account backends.
const (
	BackendKeystore = "keystore"
	BackendRemote   = "remote"
)

// Config holds all configuration for the deploy tool.
type Config struct {
	Network      NetworkConfig      `mapstructure:"network" json:"network" yaml:"network"`
	Account      AccountConfig      `mapstructure:"account" json:"account" yaml:"account"`
	RemoteSigner RemoteSignerConfig `mapstructure:"remote_signer" json:"remote_signer" yaml:"remote_signer"`
	Artifact     ArtifactConfig     `mapstructure:"artifact" json:"artifact" yaml:"artifact"`
	Deploy       DeployConfig       `mapstructure:"deploy" json:"deploy" yaml:"deploy"`
	Log          LogConfig          `mapstructure:"log" json:"log" yaml:"log"`
}

// NetworkConfig selects the chain to deploy to.
type NetworkConfig struct {
	RPCURL  string `mapstructure:"rpc_url" json:"rpc_url" yaml:"rpc_url" validate:"required,url"`
	ChainID uint64 `mapstructure:"chain_id" json:"chain_id" yaml:"chain_id" validate:"required"`
}

// AccountConfig selects the deployer account.
type AccountConfig struct {
	Name        string `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Backend     string `mapstructure:"backend" json:"backend" yaml:"backend" validate:"oneof=keystore remote"`
	KeystoreDir string `mapstructure:"keystore_dir" json:"keystore_dir" yaml:"keystore_dir"`
	Password    string `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`
}

// RemoteSignerConfig configures the remote signer backend.
type RemoteSignerConfig struct {
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	APIKey   string `mapstructure:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Address belongs to the account named by account.name.
	Address string `mapstructure:"address" json:"address,omitempty" yaml:"address,omitempty" validate:"omitempty,eth_addr"`
	// Accounts maps further account names to signer addresses.
	Accounts map[string]string `mapstructure:"accounts" json:"accounts,omitempty" yaml:"accounts,omitempty" validate:"omitempty,dive,eth_addr"`
}

// ArtifactConfig locates the compiled contract.
type ArtifactConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path" validate:"required"`
}

// DeployConfig tunes the deployment transaction.
type DeployConfig struct {
	// GasLimit of 0 means estimate.
	GasLimit       uint64        `mapstructure:"gas_limit" json:"gas_limit" yaml:"gas_limit"`
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout" json:"receipt_timeout" yaml:"receipt_timeout" validate:"gt=0"`
}

// MarshalYAML writes the timeout as a duration string.
func (d DeployConfig) MarshalYAML() (interface{}, error) {
	return struct {
		GasLimit       uint64 `yaml:"gas_limit"`
		ReceiptTimeout string `yaml:"receipt_timeout"`
	}{d.GasLimit, d.ReceiptTimeout.String()}, nil
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads configuration from an optional file and environment variables.
// An empty path searches ., ./config and $HOME/.migrator-deploy for
// migrator.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".migrator-deploy"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv sees it during Unmarshal.
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dir, err := expandHome(cfg.Account.KeystoreDir)
	if err != nil {
		return nil, err
	}
	cfg.Account.KeystoreDir = dir
	bindRemoteAddress(&cfg)

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			RPCURL:  "https://arb1.arbitrum.io/rpc",
			ChainID: 42161,
		},
		Account: AccountConfig{
			Name:        "deployer_account",
			Backend:     BackendKeystore,
			KeystoreDir: "~/.ape/accounts",
		},
		Artifact: ArtifactConfig{
			Path: ".build/migrator.json",
		},
		Deploy: DeployConfig{
			ReceiptTimeout: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("network.rpc_url", d.Network.RPCURL)
	v.SetDefault("network.chain_id", d.Network.ChainID)

	v.SetDefault("account.name", d.Account.Name)
	v.SetDefault("account.backend", d.Account.Backend)
	v.SetDefault("account.keystore_dir", d.Account.KeystoreDir)
	v.SetDefault("account.password", "")

	v.SetDefault("remote_signer.endpoint", "")
	v.SetDefault("remote_signer.api_key", "")
	v.SetDefault("remote_signer.address", "")

	v.SetDefault("artifact.path", d.Artifact.Path)

	v.SetDefault("deploy.gas_limit", d.Deploy.GasLimit)
	v.SetDefault("deploy.receipt_timeout", d.Deploy.ReceiptTimeout.String())

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks field constraints and the backend-specific requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	switch c.Account.Backend {
	case BackendKeystore:
		if c.Account.KeystoreDir == "" {
			return errors.New("invalid config: account.keystore_dir is required for the keystore backend")
		}
	case BackendRemote:
		var missing []string
		if c.RemoteSigner.Endpoint == "" {
			missing = append(missing, "remote_signer.endpoint")
		}
		if c.RemoteSigner.APIKey == "" {
			missing = append(missing, "remote_signer.api_key")
		}
		if c.RemoteSigner.Address == "" && len(c.RemoteSigner.Accounts) == 0 {
			missing = append(missing, "remote_signer.address")
		}
		if len(missing) > 0 {
			return fmt.Errorf("invalid config: %s required for the remote backend", strings.Join(missing, ", "))
		}
	}
	return nil
}

// Masked returns a copy with secrets masked for display.
func (c *Config) Masked() *Config {
	out := *c
	out.Account.Password = MaskPassword(c.Account.Password)
	out.RemoteSigner.APIKey = MaskSecret(c.RemoteSigner.APIKey)
	return &out
}

// Write stores the config as YAML with owner-only permissions.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	content := append([]byte("# migrator-deploy configuration\n"), data...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MaskPassword hides a passphrase entirely.
func MaskPassword(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// MaskSecret masks an API key for display, keeping its prefix and last four
// characters.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 12 {
		return "****"
	}
	return s[:8] + "..." + s[len(s)-4:]
}

// bindRemoteAddress registers remote_signer.address under the configured
// account name so later name overrides resolve through Accounts only.
func bindRemoteAddress(c *Config) {
	if c.RemoteSigner.Address == "" {
		return
	}
	if c.RemoteSigner.Accounts == nil {
		c.RemoteSigner.Accounts = make(map[string]string)
	}
	if _, ok := c.RemoteSigner.Accounts[c.Account.Name]; !ok {
		c.RemoteSigner.Accounts[c.Account.Name] = c.RemoteSigner.Address
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
