package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/config"
	"github.com/ethpandaops/validator-ops/pkg/deposit"
	"github.com/ethpandaops/validator-ops/pkg/keystore"
	"github.com/ethpandaops/validator-ops/pkg/node"
)

var (
	log = logrus.New()

	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "validator-ops",
	Short: "Operates validators on a private Ethereum network.",
	Long: `Operates validators on a private Ethereum network: provisions
validator keystores, broadcasts deposit transactions and manages the
execution, consensus and validator node groups.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "validator-ops.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
}

func initCommon() {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Warnf("Unknown log level %q, keeping info", logLevel)

		return
	}

	log.SetLevel(lvl)

	for _, set := range []func(string) error{
		keystore.SetLogLevel,
		deposit.SetLogLevel,
		node.SetLogLevel,
	} {
		if err := set(logLevel); err != nil {
			log.WithError(err).Warn("Failed to set package log level")
		}
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
