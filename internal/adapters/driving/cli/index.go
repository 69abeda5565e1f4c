package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or rebuild the discussion index",
	RunE:  runIndexShow,
}

var indexShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List indexed discussions",
	Args:  cobra.NoArgs,
	RunE:  runIndexShow,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from documents on disk",
	Long: `Scans the output directory for Markdown documents, reads the
discussion_id from each header and overwrites the index. When two
documents carry the same ID the most recently modified one wins.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

func init() {
	indexCmd.AddCommand(indexShowCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexShow(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	snap, err := s.Index.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	return newPrinter(cmd).Index(indexPath(), snap)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	report, err := s.Rebuilder.Rebuild(cmd.Context())
	if err != nil {
		return err
	}

	return newPrinter(cmd).Rebuild(report)
}

// indexPath is the index location shown to the user.
func indexPath() string {
	return filepath.ToSlash(filepath.Join(cfg.OutputDir, domain.IndexFileName))
}
