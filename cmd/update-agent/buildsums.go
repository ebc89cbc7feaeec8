package main

import (
	"os"
	"path/filepath"

	update "github.com/ungive/update"

	"github.com/spf13/cobra"
)

func newBuildSumsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildsums <dir>",
		Short: "Write a SHA256SUMS manifest for every file under <dir>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			sums, err := update.BuildSHA256Sums(dir, "SHA256SUMS", "SHA256SUMS.sig")
			if err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(dir, "SHA256SUMS"), []byte(sums), 0o644)
		},
	}
	return cmd
}
