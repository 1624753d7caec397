package keystore

import (
	"encoding/json"
	"os"
	"path/filepath"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/ethpandaops/validator-ops/pkg/deposit"
)

var (
	// ErrConfigMissing marks a required external file or directory that is
	// absent. Fatal, no retry.
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrDuplicateValidator protects existing key material from being
	// overwritten. Extraction is additive only.
	ErrDuplicateValidator = errors.New("validator keystore already exists")

	// ErrProvisionFailed marks a non-zero exit from the external key
	// generation tool. Fatal for the whole batch.
	ErrProvisionFailed = errors.New("validator-manager tool failed")
)

const (
	manifestFileName = "validators.json"
	depositsFileName = "deposits.json"

	// DepositDataFileName is where provisioning leaves the records the
	// broadcaster consumes.
	DepositDataFileName = "deposit_data.json"
)

// Provisioner drives the external validator-manager tool to create a batch
// of validator identities and persists the resulting keystores and secrets.
type Provisioner struct {
	Count             uint64
	FirstIndex        uint64
	WithdrawalAddress string
	OutputDir         string
	TestnetDir        string
	MnemonicPath      string
}

// NewProvisioner constructs a Provisioner for one batch.
func NewProvisioner(count, firstIndex uint64, withdrawalAddress, outputDir, testnetDir string) *Provisioner {
	log.Info("Creating new Provisioner")
	log.Infof("Count: %d", count)
	log.Infof("First index: %d", firstIndex)
	log.Infof("Withdrawal address: %s", withdrawalAddress)
	log.Infof("Output dir: %s", outputDir)
	log.Infof("Testnet dir: %s", testnetDir)

	return &Provisioner{
		Count:             count,
		FirstIndex:        firstIndex,
		WithdrawalAddress: withdrawalAddress,
		OutputDir:         outputDir,
		TestnetDir:        testnetDir,
	}
}

// Provision generates Count validator identities starting at FirstIndex,
// extracts their keystores and passwords under OutputDir, and returns the
// deposit records the external tool produced. Secret material is written to
// disk only, never returned.
func (p *Provisioner) Provision() (*ProvisionSummary, []*deposit.Record, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}

	stagingDir, err := os.MkdirTemp("", "validator-manager-")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create staging directory")
	}

	defer os.RemoveAll(stagingDir)

	if err := p.runValidatorManager(stagingDir); err != nil {
		return nil, nil, err
	}

	summary, err := p.extractManifest(filepath.Join(stagingDir, manifestFileName))
	if err != nil {
		return nil, nil, err
	}

	deposits, err := deposit.LoadRecords(filepath.Join(stagingDir, depositsFileName))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load generated deposit records")
	}

	if err := p.writeDepositData(deposits); err != nil {
		return nil, nil, err
	}

	log.Infof("Provisioning complete: %d written, %d skipped", summary.Written, summary.Skipped)

	return summary, deposits, nil
}

func (p *Provisioner) validate() error {
	if p.Count == 0 {
		return errors.New("count must be greater than zero")
	}

	if !ethcommon.IsHexAddress(p.WithdrawalAddress) {
		return errors.Errorf("invalid withdrawal address: %s", p.WithdrawalAddress)
	}

	if _, err := os.Stat(p.TestnetDir); err != nil {
		return errors.Wrapf(ErrConfigMissing, "testnet dir not found: %s", p.TestnetDir)
	}

	return nil
}

// writeDepositData persists the deposit records next to the keystores for
// the broadcaster to consume.
func (p *Provisioner) writeDepositData(deposits []*deposit.Record) error {
	data, err := json.MarshalIndent(deposits, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal deposit records")
	}

	if err := os.MkdirAll(p.OutputDir, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create output dir: %s", p.OutputDir)
	}

	path := filepath.Join(p.OutputDir, DepositDataFileName)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write deposit data file: %s", path)
	}

	log.Infof("Wrote %d deposit record(s) to %s", len(deposits), path)

	return nil
}
