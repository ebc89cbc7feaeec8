package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringVar(&currentVersionFlag, "current-version", "", "the version of the currently running build (required)")
}

func newCheckCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a newer release is available, without downloading it",
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
			pipeline, err := newPipeline(cfg, manager)
			if err != nil {
				return err
			}
			info, err := pipeline.GetLatest(context.Background())
			if err != nil {
				return err
			}
			cmd.Printf("%s: %s (%s)\n", info.State, info.Version, info.URL.URL())
			return nil
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}
