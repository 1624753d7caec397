package keystore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const votingKeystoreFileName = "voting-keystore.json"

// extractManifest reads the batch manifest produced by the validator-manager
// tool and writes one keystore file and one password file per validator.
// Entries with a missing pubkey are skipped with a warning; an attempt to
// overwrite existing key material aborts the run.
func (p *Provisioner) extractManifest(manifestPath string) (*ProvisionSummary, error) {
	log.Infof("Reading manifest: %s", manifestPath)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest file: %s", manifestPath)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse manifest file: %s", manifestPath)
	}

	log.Infof("Manifest contains %d entr(ies)", len(entries))

	summary := &ProvisionSummary{
		Requested:  p.Count,
		Validators: make([]ValidatorRecord, 0, len(entries)),
	}

	for i, entry := range entries {
		pubkey, err := pubkeyFromEntry(entry)
		if err != nil {
			log.WithError(err).Warnf("Skipping manifest entry %d", i)

			summary.Skipped++

			continue
		}

		if err := p.writeValidatorFiles(pubkey, entry); err != nil {
			return nil, err
		}

		summary.Written++
		summary.Validators = append(summary.Validators, ValidatorRecord{
			Index:  p.FirstIndex + uint64(i),
			Pubkey: pubkey,
		})

		log.Infof("Extracted validator %d: 0x%s", p.FirstIndex+uint64(i), pubkey)
	}

	return summary, nil
}

// pubkeyFromEntry decodes the embedded keystore JSON string and returns the
// pubkey normalized to lower-case hex without a 0x prefix.
func pubkeyFromEntry(entry manifestEntry) (string, error) {
	if entry.VotingKeystore == "" {
		return "", errors.New("missing voting keystore")
	}

	var ks votingKeystore
	if err := json.Unmarshal([]byte(entry.VotingKeystore), &ks); err != nil {
		return "", errors.Wrap(err, "failed to parse embedded keystore JSON")
	}

	if ks.Pubkey == "" || ks.Pubkey == "null" {
		return "", errors.New("missing or null pubkey in keystore")
	}

	return NormalizePubkey(ks.Pubkey), nil
}

// NormalizePubkey lowercases a hex pubkey and strips any 0x prefix.
func NormalizePubkey(pubkey string) string {
	return strings.ToLower(strings.TrimPrefix(pubkey, "0x"))
}

// writeValidatorFiles persists one validator's keystore and password,
// owner-read-only. Pre-existing key material for the same pubkey surfaces
// ErrDuplicateValidator rather than being clobbered.
func (p *Provisioner) writeValidatorFiles(pubkey string, entry manifestEntry) error {
	validatorDir := filepath.Join(p.OutputDir, "validators", pubkey)
	keystorePath := filepath.Join(validatorDir, votingKeystoreFileName)
	secretPath := filepath.Join(p.OutputDir, "secrets", pubkey)

	if _, err := os.Stat(keystorePath); err == nil {
		return errors.Wrapf(ErrDuplicateValidator, "keystore exists: %s", keystorePath)
	}

	if _, err := os.Stat(secretPath); err == nil {
		return errors.Wrapf(ErrDuplicateValidator, "secret exists: %s", secretPath)
	}

	if err := os.MkdirAll(validatorDir, 0o700); err != nil {
		return errors.Wrapf(err, "failed to create validator dir: %s", validatorDir)
	}

	if err := os.MkdirAll(filepath.Dir(secretPath), 0o700); err != nil {
		return errors.Wrap(err, "failed to create secrets dir")
	}

	if err := os.WriteFile(keystorePath, []byte(entry.VotingKeystore), 0o400); err != nil {
		return errors.Wrapf(err, "failed to write keystore: %s", keystorePath)
	}

	if err := os.WriteFile(secretPath, []byte(entry.VotingPassword), 0o400); err != nil {
		return errors.Wrapf(err, "failed to write secret: %s", secretPath)
	}

	log.Debugf("Wrote keystore and secret for 0x%s", pubkey)

	return nil
}
