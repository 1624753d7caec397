package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var nodeCleanYes bool

var nodeCleanCmd = &cobra.Command{
	Use:   "clean <data|keystores|all>",
	Short: "Remove node data directories",
	Long: `Removes the node data directory, the keystore directory, or both.
Asks for confirmation unless --yes is given. Keystores contain validator
signing keys; deleting them is unrecoverable.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodeClean,
}

func init() {
	nodeCmd.AddCommand(nodeCleanCmd)

	nodeCleanCmd.Flags().BoolVar(&nodeCleanYes, "yes", false, "Skip the confirmation prompt")
}

func runNodeClean(cmd *cobra.Command, args []string) error {
	initCommon()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var targets []string

	switch args[0] {
	case "data":
		targets = []string{cfg.DataDir}
	case "keystores":
		targets = []string{cfg.KeystoreDir}
	case "all":
		targets = []string{cfg.DataDir, cfg.KeystoreDir}
	default:
		return errors.Errorf("unknown clean target: %s (expected data, keystores or all)", args[0])
	}

	if !nodeCleanYes && !confirmClean(targets) {
		return errors.New("aborted by operator")
	}

	for _, target := range targets {
		log.Infof("Removing %s", target)

		if err := os.RemoveAll(target); err != nil {
			return errors.Wrapf(err, "failed to remove %s", target)
		}
	}

	return nil
}

func confirmClean(targets []string) bool {
	fmt.Printf("This will permanently delete: %s [y/N]: ", strings.Join(targets, ", "))

	reader := bufio.NewReader(os.Stdin)

	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}
