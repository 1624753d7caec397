package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeStartCmd = &cobra.Command{
	Use:   "start [role|all]",
	Short: "Start node process groups",
	Long: `Starts one role or all of them. Starting all brings up execution
first, waits for its RPC surface, then consensus, waits for the beacon API,
then validator. Starting an already-running group is a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNodeStart,
}

func init() {
	nodeCmd.AddCommand(nodeStartCmd)
}

func runNodeStart(cmd *cobra.Command, args []string) error {
	manager, err := nodePreflight()
	if err != nil {
		return err
	}

	target := "all"
	if len(args) == 1 {
		target = args[0]
	}

	if target == "all" {
		return manager.StartAll(cmd.Context())
	}

	role, err := node.ParseRole(target)
	if err != nil {
		return errors.Wrap(err, "invalid start target")
	}

	return manager.Start(cmd.Context(), role)
}
