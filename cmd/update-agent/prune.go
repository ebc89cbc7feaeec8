package main

import "github.com/spf13/cobra"

func newPruneCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove staged updates other than the current and latest available versions",
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
			return manager.Prune()
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}
