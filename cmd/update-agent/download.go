package main

import (
	"context"

	update "github.com/ungive/update"

	"github.com/spf13/cobra"
)

func newDownloadCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Check for a new release and, if found, download and stage it",
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
			ctx := context.Background()
			info, err := pipeline.GetLatest(ctx)
			if err != nil {
				return err
			}
			if info.State != update.NewVersionAvailable {
				cmd.Printf("%s: %s\n", info.State, info.Version)
				return nil
			}
			dir, err := pipeline.Update(ctx, info.Version, info.URL)
			if err != nil {
				return err
			}
			cmd.Printf("staged %s at %s\n", info.Version, dir)
			return nil
		},
	}
	addConfigFlags(cmd.Flags())
	return cmd
}
