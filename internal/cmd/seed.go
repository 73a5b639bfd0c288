package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acgh213/reelfolio/internal/content"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write starter content files",
	Long: `Create a starter JSON file for every content type that does not exist
yet in CONTENT_DIR. Existing files are left alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := content.NewStore(cfg.ContentDir)
		written, err := store.Seed(seedForce)
		for _, t := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s.json\n", t)
		}
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		if len(written) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All content files already exist. Nothing to do.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Overwrite existing content files")
}
