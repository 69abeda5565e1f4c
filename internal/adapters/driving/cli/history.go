package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/services"
)

var flagHistoryLimit int

var errNoJournal = fmt.Errorf("%w: set --journal or journal.path", domain.ErrJournalUnavailable)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	Long: `Lists runs recorded in the SQLite journal, newest first.
Requires --journal, $DISCUSSION_SYNC_JOURNAL or journal.path.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", services.DefaultHistoryLimit, "maximum number of runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}
	if s.History == nil {
		return errNoJournal
	}

	entries, err := s.History.Recent(cmd.Context(), flagHistoryLimit)
	if errors.Is(err, domain.ErrJournalUnavailable) {
		return errNoJournal
	}
	if err != nil {
		return err
	}

	return newPrinter(cmd).History(entries)
}
