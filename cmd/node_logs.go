package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/validator-ops/pkg/node"
)

var nodeLogsFollow bool

var nodeLogsCmd = &cobra.Command{
	Use:   "logs <role>",
	Short: "Stream node group logs",
	Long: `Attaches to the live output stream of one role's process group.
With --follow the stream continues until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodeLogs,
}

func init() {
	nodeCmd.AddCommand(nodeLogsCmd)

	nodeLogsCmd.Flags().BoolVar(&nodeLogsFollow, "follow", false, "Follow the log stream until interrupted")
}

func runNodeLogs(cmd *cobra.Command, args []string) error {
	manager, err := nodePreflight()
	if err != nil {
		return err
	}

	role, err := node.ParseRole(args[0])
	if err != nil {
		return errors.Wrap(err, "invalid logs target")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return manager.Logs(ctx, role, nodeLogsFollow)
}
