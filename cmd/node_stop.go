package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeStopCmd = &cobra.Command{
	Use:   "stop [role|all]",
	Short: "Stop node process groups",
	Long: `Stops one role or all of them in reverse dependency order
(validator first). Stopping an already-stopped group succeeds with a
warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodeStop,
}

func init() {
	nodeCmd.AddCommand(nodeStopCmd)
}

func runNodeStop(cmd *cobra.Command, args []string) error {
	manager, err := nodePreflight()
	if err != nil {
		return err
	}

	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	if target == "all" {
		return manager.StopAll(cmd.Context())
	}

	role, err := node.ParseRole(target)
	if err != nil {
		return errors.Wrap(err, "invalid stop target")
	}

	return manager.Stop(cmd.Context(), role)
}
