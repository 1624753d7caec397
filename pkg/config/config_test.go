package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(32382), cfg.ChainID)
	assert.Equal(t, "http://localhost:8545", cfg.ExecutionRPC)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		expectErr bool
		check     func(*testing.T, *Config)
	}{
		{
			name: "valid config",
			content: `network_name: testnet
chain_id: 1337
execution_rpc: http://localhost:8545
beacon_api: http://localhost:5052
deposit_contract: "0x4242424242424242424242424242424242424242"
compose_file: compose.yml
data_dir: /tmp/data
testnet_dir: /tmp/testnet
keystore_dir: /tmp/keys
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "testnet", cfg.NetworkName)
				assert.Equal(t, uint64(1337), cfg.ChainID)
			},
		},
		{
			name: "partial config falls back to defaults",
			content: `network_name: partial
chain_id: 99
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "partial", cfg.NetworkName)
				assert.Equal(t, uint64(99), cfg.ChainID)
				assert.Equal(t, "http://localhost:8545", cfg.ExecutionRPC)
			},
		},
		{
			name: "invalid deposit contract",
			content: `network_name: bad
chain_id: 1
execution_rpc: http://localhost:8545
beacon_api: http://localhost:5052
deposit_contract: "not-an-address"
compose_file: compose.yml
data_dir: /tmp/data
testnet_dir: /tmp/testnet
keystore_dir: /tmp/keys
`,
			expectErr: true,
		},
		{
			name:      "malformed yaml",
			content:   "chain_id: [not a number",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cfg, err := Load(path)
			if tt.expectErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestWriteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.Write(path))

	err := cfg.Write(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.NetworkName = "roundtrip"
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
