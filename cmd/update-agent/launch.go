package main

import (
	update "github.com/ungive/update"

	"github.com/spf13/cobra"
)

func newLaunchCommand(configPath *string) *cobra.Command {
	var launcherPath string
	var launcherFiles []string

	cmd := &cobra.Command{
		Use:   "launch [-- launcher-args...]",
		Short: "If a newer version is staged, hand off to the launcher to apply it",
		Long:  "Intended to be run from the main application process on startup.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			manager, err := newManager(cfg)
			if err != nil {
				return err
			}
			launcher := update.Launcher{Executable: launcherPath, DependentFiles: launcherFiles}
			launched, err := manager.LaunchLatest(launcher, args)
			if err != nil {
				return err
			}
			if !launched {
				cmd.Println("no newer version available")
				return manager.ReleaseLock()
			}
			cmd.Println("launcher started")
			return nil
		},
	}
	cmd.Flags().StringVar(&launcherPath, "launcher", "", "path to the launcher executable to stage and run (required)")
	cmd.Flags().StringSliceVar(&launcherFiles, "launcher-dependency", nil, "additional files to stage alongside the launcher")
	addConfigFlags(cmd.Flags())
	return cmd
}
