package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/config"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

var (
	version = "dev"

	newServices ServiceFactory
	lookupEnv   = os.LookupEnv

	// Per-invocation state, reset by teardown.
	cfg       *config.Config
	svc       *Services
	logCloser io.Closer
)

// Global flags.
var (
	flagWorkspace  string
	flagConfig     string
	flagOutputDir  string
	flagCategories string
	flagJournal    string
	flagLogFile    string
	flagVerbose    bool
	flagQuiet      bool
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:   "discussion-sync [event-file]",
	Short: "Mirror GitHub Discussions into Markdown files",
	Long: `discussion-sync applies GitHub Discussion events to a directory of
Markdown documents and keeps an index from discussion ID to file path.

Run without a subcommand it behaves like "sync": the event payload is read
from the given file, /github/workflow/event.json or $GITHUB_EVENT_PATH.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSync,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagWorkspace, "workspace", "", "repository root (default $GITHUB_WORKSPACE or the working directory)")
	pf.StringVar(&flagConfig, "config", "", "config file (default <workspace>/.discussion-sync.toml)")
	pf.StringVar(&flagOutputDir, "output-dir", "", "directory for generated documents (default content/posts)")
	pf.StringVar(&flagCategories, "categories", "", "comma separated category slugs to process (default all)")
	pf.StringVar(&flagJournal, "journal", "", "SQLite run journal path (disabled when empty)")
	pf.StringVar(&flagLogFile, "log-file", "", "also write logs to this rotating file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "only log warnings and errors")
	pf.BoolVar(&flagJSON, "json", false, "print results as JSON")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx. Long-running commands
// stop when ctx is cancelled.
func ExecuteContext(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

// setup resolves configuration and applies logging flags.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetQuiet(flagQuiet)
	logger.SetVerbose(flagVerbose)

	if cmd == versionCmd {
		return nil
	}

	c, err := config.Resolve(config.Overrides{
		Workspace:   flagWorkspace,
		ConfigPath:  flagConfig,
		OutputDir:   flagOutputDir,
		Categories:  flagCategories,
		JournalPath: flagJournal,
		LogFile:     flagLogFile,
		WebhookAddr: flagServeAddr,
		Verbose:     flagVerbose,
	}, lookupEnv)
	if err != nil {
		return err
	}
	cfg = c

	if cfg.Verbose {
		logger.SetVerbose(true)
	}
	if cfg.LogFile != "" {
		logCloser = logger.AddFile(cfg.LogFile, logger.DefaultFileOptions)
	}

	logger.Debug("Using workspace: %s", cfg.Workspace)
	logger.Debug("Using config: %s", cfg.ConfigPath)
	return nil
}

// teardown releases per-invocation resources.
func teardown() {
	if svc != nil && svc.Close != nil {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close services: %v", err)
		}
	}
	if logCloser != nil {
		logger.SetOutput(os.Stderr)
		_ = logCloser.Close()
	}
	svc = nil
	cfg = nil
	logCloser = nil
}
