package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newApplyCommand(configPath *string) *cobra.Command {
	var killProcesses bool
	var processTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Promote the latest staged update into the current directory, if one exists",
		Long:  "Intended to be run from the staged launcher process, not the main application.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			manager, err := newManager(cfg)
			if err != nil {
				return err
			}
			defer manager.ReleaseLock()
			version, applied, err := manager.ApplyLatest(context.Background(), killProcesses, processTimeout)
			if err != nil {
				return err
			}
			if !applied {
				cmd.Println("no update available to apply")
				return nil
			}
			cmd.Printf("applied %s\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&killProcesses, "kill-processes", true, "terminate running processes under the current and update directories before applying")
	cmd.Flags().DurationVar(&processTimeout, "process-timeout", 30*time.Second, "how long to wait for processes to exit")
	addConfigFlags(cmd.Flags())
	return cmd
}
