package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the network settings shared by all orchestrator components.
// It replaces ad-hoc environment lookups with one explicit struct that is
// loaded once and passed into each component at construction.
type Config struct {
	// NetworkName labels the target network in logs and summaries.
	NetworkName string `yaml:"network_name" validate:"required"`
	// ChainID is the execution-layer chain ID used for transaction signing.
	ChainID uint64 `yaml:"chain_id" validate:"required,gt=0"`
	// ExecutionRPC is the execution node JSON-RPC endpoint.
	ExecutionRPC string `yaml:"execution_rpc" validate:"required,url"`
	// BeaconAPI is the consensus node beacon API endpoint.
	BeaconAPI string `yaml:"beacon_api" validate:"required,url"`
	// DepositContract is the deposit contract address (0x-prefixed hex).
	DepositContract string `yaml:"deposit_contract" validate:"required,eth_addr"`
	// ComposeFile is the docker compose file describing the node services.
	ComposeFile string `yaml:"compose_file" validate:"required"`
	// DataDir is the root directory for node runtime data.
	DataDir string `yaml:"data_dir" validate:"required"`
	// TestnetDir holds the consensus chain metadata (config.yaml, genesis
	// state) consumed by the validator-manager tool.
	TestnetDir string `yaml:"testnet_dir" validate:"required"`
	// KeystoreDir is where provisioned validator keystores and secrets land.
	KeystoreDir string `yaml:"keystore_dir" validate:"required"`
}

// DefaultConfig returns the settings for a locally-run private network.
func DefaultConfig() *Config {
	return &Config{
		NetworkName:     "private-devnet",
		ChainID:         32382,
		ExecutionRPC:    "http://localhost:8545",
		BeaconAPI:       "http://localhost:5052",
		DepositContract: "0x4242424242424242424242424242424242424242",
		ComposeFile:     "docker-compose.yml",
		DataDir:         "./data",
		TestnetDir:      "./testnet",
		KeystoreDir:     "./keystores",
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}

	return cfg, nil
}

// Validate checks the struct against its validation tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "config validation failed")
	}

	return nil
}

// Write marshals the config to YAML at path, refusing to clobber an
// existing file.
func (c *Config) Write(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}

	return nil
}
