package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/validator-ops/pkg/deposit"
)

type mockCmd struct {
	run func() ([]byte, error)
}

func (m *mockCmd) CombinedOutput() ([]byte, error) {
	return m.run()
}

// installToolMock replaces the external validator-manager call with one that
// writes the given manifest entries and deposit records into the staging
// directory the provisioner asked for.
func installToolMock(t *testing.T, entries []manifestEntry, deposits []*deposit.Record, fail bool) *[]string {
	t.Helper()

	var capturedArgs []string

	origExecCommand := execCommand
	execCommand = func(name string, args ...string) commander {
		assert.Equal(t, "lighthouse", name)

		capturedArgs = args

		return &mockCmd{
			run: func() ([]byte, error) {
				if fail {
					return []byte("mock tool failure"), &exec.ExitError{ProcessState: new(os.ProcessState)}
				}

				stagingDir := ""
				for i, arg := range args {
					if arg == "--output-path" && i+1 < len(args) {
						stagingDir = args[i+1]
					}
				}

				require.NotEmpty(t, stagingDir)

				manifestData, err := json.Marshal(entries)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(filepath.Join(stagingDir, manifestFileName), manifestData, 0o600))

				depositsData, err := json.Marshal(deposits)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(filepath.Join(stagingDir, depositsFileName), depositsData, 0o600))

				return []byte("ok"), nil
			},
		}
	}

	t.Cleanup(func() { execCommand = origExecCommand })

	return &capturedArgs
}

func testPubkey(i int) string {
	return fmt.Sprintf("%02x", i) + strings.Repeat("ab", 47)
}

func testEntry(pubkey string) manifestEntry {
	return manifestEntry{
		VotingKeystore: fmt.Sprintf(`{"pubkey":"0x%s","version":4,"crypto":{}}`, strings.ToUpper(pubkey)),
		VotingPassword: "hunter2",
	}
}

func testDeposit(pubkey string) *deposit.Record {
	return &deposit.Record{
		PubKey:                pubkey,
		WithdrawalCredentials: strings.Repeat("01", 32),
		Signature:             strings.Repeat("02", 96),
		DepositDataRoot:       strings.Repeat("03", 32),
	}
}

func testProvisioner(t *testing.T, count, firstIndex uint64) *Provisioner {
	t.Helper()

	outputDir := t.TempDir()
	testnetDir := t.TempDir()

	return NewProvisioner(count, firstIndex, "0x4242424242424242424242424242424242424242", outputDir, testnetDir)
}

func TestProvision(t *testing.T) {
	entries := make([]manifestEntry, 0, 3)
	deposits := make([]*deposit.Record, 0, 3)

	for i := 0; i < 3; i++ {
		entries = append(entries, testEntry(testPubkey(i)))
		deposits = append(deposits, testDeposit(testPubkey(i)))
	}

	capturedArgs := installToolMock(t, entries, deposits, false)

	p := testProvisioner(t, 3, 0)

	summary, records, err := p.Provision()
	require.NoError(t, err)

	assert.Equal(t, uint64(3), summary.Written)
	assert.Equal(t, uint64(0), summary.Skipped)
	require.Len(t, summary.Validators, 3)
	require.Len(t, records, 3)

	seen := make(map[string]bool)

	for i, v := range summary.Validators {
		assert.Equal(t, uint64(i), v.Index)
		assert.False(t, seen[v.Pubkey], "duplicate pubkey %s", v.Pubkey)

		seen[v.Pubkey] = true

		keystorePath := filepath.Join(p.OutputDir, "validators", v.Pubkey, votingKeystoreFileName)
		secretPath := filepath.Join(p.OutputDir, "secrets", v.Pubkey)

		keystoreInfo, err := os.Stat(keystorePath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o400), keystoreInfo.Mode().Perm())

		secretInfo, err := os.Stat(secretPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o400), secretInfo.Mode().Perm())

		secret, err := os.ReadFile(secretPath)
		require.NoError(t, err)
		assert.Equal(t, "hunter2", string(secret))
	}

	// Deposit records land next to the keystores for the broadcaster.
	_, err = os.Stat(filepath.Join(p.OutputDir, DepositDataFileName))
	assert.NoError(t, err)

	assert.Contains(t, *capturedArgs, "--first-index")
	assert.Contains(t, *capturedArgs, "--count")
}

func TestProvisionFirstIndexOffset(t *testing.T) {
	entries := []manifestEntry{testEntry(testPubkey(0)), testEntry(testPubkey(1))}
	deposits := []*deposit.Record{testDeposit(testPubkey(0)), testDeposit(testPubkey(1))}

	installToolMock(t, entries, deposits, false)

	p := testProvisioner(t, 2, 10)

	summary, _, err := p.Provision()
	require.NoError(t, err)

	require.Len(t, summary.Validators, 2)
	assert.Equal(t, uint64(10), summary.Validators[0].Index)
	assert.Equal(t, uint64(11), summary.Validators[1].Index)
}

func TestProvisionNeverOverwrites(t *testing.T) {
	entries := []manifestEntry{testEntry(testPubkey(0))}
	deposits := []*deposit.Record{testDeposit(testPubkey(0))}

	installToolMock(t, entries, deposits, false)

	p := testProvisioner(t, 1, 0)

	_, _, err := p.Provision()
	require.NoError(t, err)

	existing, err := os.ReadFile(filepath.Join(p.OutputDir, "validators", testPubkey(0), votingKeystoreFileName))
	require.NoError(t, err)

	_, _, err = p.Provision()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateValidator))

	// Original key material untouched.
	after, err := os.ReadFile(filepath.Join(p.OutputDir, "validators", testPubkey(0), votingKeystoreFileName))
	require.NoError(t, err)
	assert.Equal(t, existing, after)
}

func TestProvisionSkipsMissingPubkey(t *testing.T) {
	entries := []manifestEntry{
		testEntry(testPubkey(0)),
		{VotingKeystore: `{"version":4}`, VotingPassword: "x"},
		testEntry(testPubkey(2)),
	}
	deposits := []*deposit.Record{testDeposit(testPubkey(0)), testDeposit(testPubkey(2))}

	installToolMock(t, entries, deposits, false)

	p := testProvisioner(t, 3, 0)

	summary, _, err := p.Provision()
	require.NoError(t, err)

	assert.Equal(t, uint64(2), summary.Written)
	assert.Equal(t, uint64(1), summary.Skipped)
}

func TestProvisionToolFailure(t *testing.T) {
	installToolMock(t, nil, nil, true)

	p := testProvisioner(t, 1, 0)

	_, _, err := p.Provision()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvisionFailed))
	assert.Contains(t, err.Error(), "mock tool failure")
}

func TestProvisionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Provisioner)
		wantErr error
	}{
		{
			name:   "zero count",
			mutate: func(p *Provisioner) { p.Count = 0 },
		},
		{
			name:   "invalid withdrawal address",
			mutate: func(p *Provisioner) { p.WithdrawalAddress = "0x123" },
		},
		{
			name:    "missing testnet dir",
			mutate:  func(p *Provisioner) { p.TestnetDir = filepath.Join(p.TestnetDir, "nope") },
			wantErr: ErrConfigMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installToolMock(t, nil, nil, false)

			p := testProvisioner(t, 1, 0)
			tt.mutate(p)

			_, _, err := p.Provision()
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}
