package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/spool"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Apply event payloads dropped into a directory",
	Long: `Watches a spool directory for *.json event payloads. Payloads already
present are applied first, in name order. Each payload is renamed to
*.json.done or *.json.failed once processed.

Write payloads under another name and rename them into place so a
partially written file is never read.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadServices()
	if err != nil {
		return err
	}

	p := newPrinter(cmd)
	w := spool.New(args[0], s.Syncer, spool.Options{
		Settle: cfg.SpoolSettle,
		OnResult: func(r spool.Result) {
			if r.Outcome != nil {
				_ = p.Outcome(r.Outcome)
			}
		},
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx)
}
