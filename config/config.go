package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"gtonstaking/crypto"
)

// Config is the on-disk daemon configuration: where to listen, where to
// persist pool state, which key owns the pool, and the parameters a freshly
// bootstrapped pool should start with.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`

	// OwnerKeystorePath points at an Ethereum v3 keystore file holding the
	// pool owner's private key. Bootstrapped on first Load if absent.
	OwnerKeystorePath string `toml:"OwnerKeystorePath"`

	// BaseAssetAddress is the bech32 address of the pool's custody account on
	// the base asset ledger. Empty falls back to the owner's address.
	BaseAssetAddress string `toml:"BaseAssetAddress"`

	// JWTSigningKeyPath points at a file holding the HMAC secret the RPC
	// server uses to verify HS256 bearer tokens on mutating methods.
	JWTSigningKeyPath string `toml:"JWTSigningKeyPath"`

	// LogFilePath, when set, routes structured logs through a rotating file
	// sink in addition to stdout.
	LogFilePath string `toml:"LogFilePath"`

	// AuditDriver selects the durable audit trail backend ("postgres" or
	// "sqlite"). Empty disables the audit trail entirely.
	AuditDriver string `toml:"AuditDriver"`
	// AuditDSN is the postgres connection string, or the sqlite file path.
	AuditDSN string `toml:"AuditDSN"`

	Global Global `toml:"Global"`
}

// Option configures optional Load behavior.
type Option func(*loadOptions)

type loadOptions struct {
	keystorePassphrase string
}

// WithKeystorePassphrase supplies the passphrase used to encrypt a
// newly-bootstrapped owner keystore. Required the first time Load runs
// against a path with no existing config file; when the file already exists
// Load neither needs nor checks it.
func WithKeystorePassphrase(passphrase string) Option {
	return func(o *loadOptions) { o.keystorePassphrase = passphrase }
}

// Load reads the daemon configuration from path, bootstrapping a default
// file and a fresh owner keystore on first run.
func Load(path string, opts ...Option) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if o.keystorePassphrase == "" {
			return nil, fmt.Errorf("config: keystore passphrase required to bootstrap %s", path)
		}
		return createDefault(path, o.keystorePassphrase)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := ValidateConfig(cfg.Global); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path, passphrase string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keystorePath := path + ".owner.keystore"
	if err := crypto.SaveToKeystore(keystorePath, key, passphrase); err != nil {
		return nil, fmt.Errorf("config: bootstrap owner keystore: %w", err)
	}

	cfg := &Config{
		ListenAddress:     ":8080",
		DataDir:           "./staking-data",
		OwnerKeystorePath: keystorePath,
		Global: Global{
			Pool: PoolParams{
				AprBasisPoints:         2500,
				HarvestIntervalSeconds: 86400,
			},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
