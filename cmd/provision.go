package cmd

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/keystore"
)

var (
	provisionCount        uint64
	provisionFirstIndex   uint64
	provisionWithdrawAddr string
	provisionOutputDir    string
	provisionMnemonicPath string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Generate validator keystores",
	Long: `Generates a batch of validator keystores using the lighthouse
validator-manager tool and extracts them into the keystore directory.
Existing keystores are never overwritten; re-running against a populated
directory fails rather than clobbering key material.`,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().Uint64Var(&provisionCount, "count", 0, "Number of validators to generate")
	provisionCmd.Flags().Uint64Var(&provisionFirstIndex, "first-index", 0, "Starting validator index")
	provisionCmd.Flags().StringVar(&provisionWithdrawAddr, "withdrawal-address", "", "Withdrawal address (0x-prefixed hex)")
	provisionCmd.Flags().StringVar(&provisionOutputDir, "output-dir", "", "Keystore output directory (defaults to config keystore_dir)")
	provisionCmd.Flags().StringVar(&provisionMnemonicPath, "mnemonic-path", "", "Path to mnemonic file for deterministic key derivation")

	if err := provisionCmd.MarkFlagRequired("count"); err != nil {
		panic(err)
	}

	if err := provisionCmd.MarkFlagRequired("withdrawal-address"); err != nil {
		panic(err)
	}
}

func checkProvisionDependencies() error {
	if _, err := exec.LookPath("lighthouse"); err != nil {
		return errors.Errorf("Required command 'lighthouse' not found. Please install it first.\nFor lighthouse, please visit: https://github.com/sigp/lighthouse")
	}

	return nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	initCommon()

	if err := checkProvisionDependencies(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	outputDir := provisionOutputDir
	if outputDir == "" {
		outputDir = cfg.KeystoreDir
	}

	if err := os.MkdirAll(outputDir, 0o700); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	provisioner := keystore.NewProvisioner(
		provisionCount,
		provisionFirstIndex,
		provisionWithdrawAddr,
		outputDir,
		cfg.TestnetDir,
	)
	provisioner.MnemonicPath = provisionMnemonicPath

	summary, deposits, err := provisioner.Provision()
	if err != nil {
		return errors.Wrap(err, "provisioning failed")
	}

	log.Infof("Provisioned %d validator(s), skipped %d", summary.Written, summary.Skipped)
	log.Infof("Generated %d deposit record(s)", len(deposits))

	for _, v := range summary.Validators {
		log.Infof("  validator %d: 0x%s", v.Index, v.Pubkey)
	}

	return nil
}
