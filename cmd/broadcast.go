package cmd

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/deposit"
)

var (
	broadcastDepositData string
	broadcastPrivateKey  string
	broadcastKeyFile     string
	broadcastForkVersion string
	broadcastDryRun      bool
	broadcastVerify      bool
	broadcastYes         bool
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Broadcast deposit transactions",
	Long: `Broadcasts one deposit transaction per validator to the deposit
contract, sequentially. A failed deposit is counted and the batch continues;
nothing is retried. A successful outcome means the node accepted the
transaction for broadcast, not that it was mined.`,
	RunE: runBroadcast,
}

func init() {
	rootCmd.AddCommand(broadcastCmd)

	broadcastCmd.Flags().StringVar(&broadcastDepositData, "deposit-data", "", "Path to deposit data JSON file")
	broadcastCmd.Flags().StringVar(&broadcastPrivateKey, "private-key", "", "Sender private key (hex)")
	broadcastCmd.Flags().StringVar(&broadcastKeyFile, "private-key-file", "", "Path to file holding the sender private key")
	broadcastCmd.Flags().StringVar(&broadcastForkVersion, "fork-version", "", "Genesis fork version for --verify (hex)")
	broadcastCmd.Flags().BoolVar(&broadcastDryRun, "dry-run", false, "Validate and report without sending transactions")
	broadcastCmd.Flags().BoolVar(&broadcastVerify, "verify", false, "BLS-verify deposit signatures before sending")
	broadcastCmd.Flags().BoolVar(&broadcastYes, "yes", false, "Answer yes to balance override prompts")

	if err := broadcastCmd.MarkFlagRequired("deposit-data"); err != nil {
		panic(err)
	}
}

func resolveSigningKey() (string, error) {
	if broadcastPrivateKey != "" {
		return broadcastPrivateKey, nil
	}

	if broadcastKeyFile != "" {
		data, err := os.ReadFile(broadcastKeyFile)
		if err != nil {
			return "", errors.Wrap(err, "failed to read private key file")
		}

		return strings.TrimSpace(string(data)), nil
	}

	return "", errors.New("one of --private-key or --private-key-file is required")
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	initCommon()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := deposit.LoadRecords(broadcastDepositData)
	if err != nil {
		return errors.Wrap(err, "failed to load deposit data")
	}

	log.Infof("Loaded %d deposit record(s) from %s", len(records), broadcastDepositData)

	if broadcastVerify {
		if err := deposit.VerifyRecords(records, broadcastForkVersion); err != nil {
			return errors.Wrap(err, "deposit signature verification failed")
		}

		log.Info("All deposit signatures verified")
	}

	signingKey, err := resolveSigningKey()
	if err != nil {
		if !broadcastDryRun {
			return err
		}

		// Dry runs sign nothing; a placeholder key keeps construction happy.
		signingKey = strings.Repeat("0", 63) + "1"
	}

	broadcaster, err := deposit.NewBroadcaster(
		cfg.ExecutionRPC,
		cfg.ChainID,
		cfg.DepositContract,
		signingKey,
		broadcastDryRun,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create broadcaster")
	}

	if broadcastYes {
		broadcaster.Confirm = func(string) bool { return true }
	}

	summary, err := broadcaster.Broadcast(cmd.Context(), records)
	if err != nil {
		return errors.Wrap(err, "broadcast failed")
	}

	log.Infof("Broadcast summary: %d succeeded, %d failed", summary.Succeeded, summary.Failed)

	for _, outcome := range summary.PerDeposit {
		if outcome.Status == deposit.StatusFailed {
			log.Warnf("  deposit %d (pubkey %s): failed", outcome.Index, outcome.PubKey)
		} else if outcome.TxHash != "" {
			log.Infof("  deposit %d: %s", outcome.Index, outcome.TxHash)
		}
	}

	if summary.Failed > 0 {
		return errors.Errorf("%d deposit(s) failed", summary.Failed)
	}

	return nil
}
