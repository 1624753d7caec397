package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/config"
	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeVariant string

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage node process groups",
	Long: `Manages the execution, consensus and validator node groups through
the container runtime. State is queried live on every call; nothing is
cached between invocations.`,
}

func init() {
	rootCmd.AddCommand(nodeCmd)

	nodeCmd.PersistentFlags().StringVar(&nodeVariant, "variant", "", "Deployment profile tag (compose profile)")
}

func newNodeManager(cfg *config.Config) *node.Manager {
	return node.NewManager(cfg.ComposeFile, cfg.ExecutionRPC, cfg.BeaconAPI, nodeVariant)
}

// nodePreflight runs the shared setup for every node subcommand.
func nodePreflight() (*node.Manager, error) {
	initCommon()

	if err := node.CheckDependencies(); err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return newNodeManager(cfg), nil
}
