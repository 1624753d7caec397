package keystore

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type commander interface {
	CombinedOutput() ([]byte, error)
}

var execCommand = func(name string, args ...string) commander {
	return exec.Command(name, args...)
}

// runValidatorManager invokes the external key generation tool. The call is
// synchronous and can take seconds per validator; a non-zero exit fails the
// whole batch.
func (p *Provisioner) runValidatorManager(stagingDir string) error {
	args := []string{
		"validator-manager", "create",
		"--testnet-dir", p.TestnetDir,
		"--first-index", strconv.FormatUint(p.FirstIndex, 10),
		"--count", strconv.FormatUint(p.Count, 10),
		"--eth1-withdrawal-address", p.WithdrawalAddress,
		"--output-path", stagingDir,
	}

	if p.MnemonicPath != "" {
		args = append(args, "--mnemonic-path", p.MnemonicPath)
	}

	log.Infof("Executing command: lighthouse %s", strings.Join(args, " "))
	log.Info("Key generation can take several seconds per validator")

	cmd := execCommand("lighthouse", args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Errorf("validator-manager command failed: %v", err)
		log.Errorf("Command output: %s", string(output))

		return errors.Wrapf(ErrProvisionFailed, "validator-manager exited with error: %v: %s", err, string(output))
	}

	log.Debug("validator-manager command completed successfully")

	return nil
}
