package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes a default validator-ops config file to the --config path.
Refuses to overwrite an existing file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		initCommon()

		cfg := config.DefaultConfig()

		if err := cfg.Write(configPath); err != nil {
			return errors.Wrap(err, "failed to write config")
		}

		log.Infof("Wrote default config to %s", configPath)
		log.Info("Edit it to match your network before running other commands")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
