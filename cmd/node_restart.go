package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeRestartCmd = &cobra.Command{
	Use:   "restart [role|all]",
	Short: "Restart node process groups",
	Long: `Restarts one role or all of them. Restarting all stops every group
(validator first) before starting them again in dependency order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodeRestart,
}

func init() {
	nodeCmd.AddCommand(nodeRestartCmd)
}

func runNodeRestart(cmd *cobra.Command, args []string) error {
	manager, err := nodePreflight()
	if err != nil {
		return err
	}

	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	if target == "all" {
		return manager.RestartAll(cmd.Context())
	}

	role, err := node.ParseRole(target)
	if err != nil {
		return errors.Wrap(err, "invalid restart target")
	}

	return manager.Restart(cmd.Context(), role)
}
