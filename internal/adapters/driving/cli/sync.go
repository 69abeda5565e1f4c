package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/event"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync [event-file]",
	Short: "Apply one discussion event",
	Long: `Reads a discussion event payload and mirrors it into the output directory.

The payload is read from the given file ("-" for stdin). Without an argument
the configured event_path, /github/workflow/event.json and $GITHUB_EVENT_PATH
are tried in turn. Events outside the category allow-list are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	explicit := cfg.EventPath
	if len(args) > 0 {
		explicit = args[0]
	}

	path, err := event.ResolvePath(explicit, lookupEnv)
	if err != nil {
		return err
	}
	logger.Debug("Reading event from %s", path)

	ev, err := event.LoadFile(path)
	if err != nil {
		return err
	}

	s, err := loadServices()
	if err != nil {
		return err
	}

	outcome, err := s.Syncer.Apply(cmd.Context(), ev)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	logger.Info("Discussions synchronization complete!")

	return newPrinter(cmd).Outcome(outcome)
}
