// Command update-agent is a reference CLI and background service around
// the update library: it periodically checks for new releases, downloads
// and stages them, and hands off to a launcher to apply them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "update-agent",
		Short: "Checks for, downloads, and applies application updates",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML configuration file (required)")

	root.AddCommand(
		newCheckCommand(&configPath),
		newDownloadCommand(&configPath),
		newApplyCommand(&configPath),
		newLaunchCommand(&configPath),
		newPruneCommand(&configPath),
		newBuildSumsCommand(),
		newServiceCommand(&configPath),
	)
	return root
}
