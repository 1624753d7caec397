package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node group status",
	Long: `Queries the container runtime for the live state of every role.
For running groups the execution block height and consensus head slot are
reported when reachable.`,
	RunE: runNodeStatus,
}

func init() {
	nodeCmd.AddCommand(nodeStatusCmd)
}

func runNodeStatus(cmd *cobra.Command, args []string) error {
	manager, err := nodePreflight()
	if err != nil {
		return err
	}

	statuses, err := manager.Status(cmd.Context())
	if err != nil {
		return err
	}

	for _, role := range []node.Role{node.RoleExecution, node.RoleConsensus, node.RoleValidator} {
		status := statuses[role]

		state := "stopped"
		if status.Running {
			state = "running"
		}

		if status.Detail != "" {
			fmt.Printf("%-10s %s (%s)\n", role, state, status.Detail)
		} else {
			fmt.Printf("%-10s %s\n", role, state)
		}
	}

	return nil
}
