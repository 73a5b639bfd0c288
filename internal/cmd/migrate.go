package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acgh213/reelfolio/internal/content"
	"github.com/acgh213/reelfolio/internal/media"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-media",
	Short: "Move gallery files into /videos/ and rewrite videos.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := &media.Migrator{
			Content:   content.NewStore(cfg.ContentDir),
			PublicDir: cfg.PublicDir,
		}
		res, err := m.Run()
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if !res.Changed() {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %d videos and %d thumbnails.\n", res.Videos, res.Thumbnails)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
