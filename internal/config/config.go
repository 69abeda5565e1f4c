// Package config resolves runtime settings.
//
// Each setting is taken from the first source that provides it:
// command-line flag, environment variable, TOML file, built-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
)

// Default values.
const (
	DefaultOutputDir    = "content/posts"
	DefaultWebhookAddr  = "127.0.0.1:8787"
	DefaultWebhookRate  = 10.0
	DefaultWebhookBurst = 20
	DefaultSpoolSettle  = 200 * time.Millisecond
)

// Environment variables consulted during resolution.
const (
	EnvWorkspace     = "GITHUB_WORKSPACE"
	EnvEventPath     = "GITHUB_EVENT_PATH"
	EnvCategories    = "INPUT_CATEGORIES"
	EnvOutputDir     = "INPUT_OUTPUT_DIR"
	EnvConfig        = "DISCUSSION_SYNC_CONFIG"
	EnvJournal       = "DISCUSSION_SYNC_JOURNAL"
	EnvLogFile       = "DISCUSSION_SYNC_LOG_FILE"
	EnvWebhookAddr   = "DISCUSSION_SYNC_WEBHOOK_ADDR"
	EnvWebhookSecret = "DISCUSSION_SYNC_WEBHOOK_SECRET"
)

// TOML keys.
const (
	KeyOutputDir     = "output_dir"
	KeyCategories    = "categories"
	KeyEventPath     = "event_path"
	KeyJournalPath   = "journal.path"
	KeyLogFile       = "log.file"
	KeyVerbose       = "log.verbose"
	KeyWebhookAddr   = "webhook.addr"
	KeyWebhookSecret = "webhook.secret"
	KeyWebhookRate   = "webhook.rate"
	KeyWebhookBurst  = "webhook.burst"
	KeySpoolSettleMS = "spool.settle_ms"
)

// Overrides carries values given on the command line. Empty means unset.
type Overrides struct {
	Workspace   string
	ConfigPath  string
	OutputDir   string
	Categories  string
	EventPath   string
	JournalPath string
	LogFile     string
	WebhookAddr string
	Verbose     bool
}

// Webhook configures the HTTP receiver.
type Webhook struct {
	Addr              string
	Secret            string
	RequestsPerSecond float64
	Burst             int
}

// Config is the resolved configuration.
type Config struct {
	// Workspace is the absolute repository root. Stored paths are
	// relative to it.
	Workspace string

	// ConfigPath is the TOML file consulted, whether or not it exists.
	ConfigPath string

	// OutputDir is where documents and the index live, as given.
	OutputDir string

	// Categories is the trimmed, lower-cased allow-list. Empty allows all.
	Categories []string

	// EventPath is the explicit payload location, if any.
	EventPath string

	// JournalPath is the run journal database. Empty disables it.
	JournalPath string

	// LogFile tees log output into a rotating file when set.
	LogFile string

	Verbose bool

	Webhook Webhook

	SpoolSettle time.Duration

	// Store is the underlying TOML store, for inspection and edits.
	Store driven.ConfigStore
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(string) (string, bool)

// Resolve builds a Config from overrides, the environment and the TOML file.
func Resolve(o Overrides, lookupEnv LookupFunc) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	env := func(key string) string {
		v, _ := lookupEnv(key)
		return strings.TrimSpace(v)
	}

	workspace := first(o.Workspace, env(EnvWorkspace))
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workspace = wd
	}
	workspace, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	configPath := first(o.ConfigPath, env(EnvConfig), filepath.Join(workspace, file.DefaultFileName))
	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	journalPath := first(o.JournalPath, env(EnvJournal), store.GetString(KeyJournalPath))
	logFile := first(o.LogFile, env(EnvLogFile), store.GetString(KeyLogFile))

	cfg := &Config{
		Workspace:   workspace,
		ConfigPath:  configPath,
		Store:       store,
		OutputDir:   first(o.OutputDir, env(EnvOutputDir), store.GetString(KeyOutputDir), DefaultOutputDir),
		EventPath:   first(o.EventPath, env(EnvEventPath), store.GetString(KeyEventPath)),
		JournalPath: inWorkspace(workspace, journalPath),
		LogFile:     inWorkspace(workspace, logFile),
		Verbose:     o.Verbose || store.GetBool(KeyVerbose),
		Webhook: Webhook{
			Addr:              first(o.WebhookAddr, env(EnvWebhookAddr), store.GetString(KeyWebhookAddr), DefaultWebhookAddr),
			Secret:            first(env(EnvWebhookSecret), store.GetString(KeyWebhookSecret)),
			RequestsPerSecond: DefaultWebhookRate,
			Burst:             DefaultWebhookBurst,
		},
		SpoolSettle: DefaultSpoolSettle,
	}

	if raw := first(o.Categories, env(EnvCategories)); raw != "" {
		cfg.Categories = NormaliseCategories(file.SplitList(raw))
	} else {
		cfg.Categories = NormaliseCategories(store.GetStringSlice(KeyCategories))
	}

	if rate := store.GetFloat(KeyWebhookRate); rate > 0 {
		cfg.Webhook.RequestsPerSecond = rate
	}
	if burst := store.GetInt(KeyWebhookBurst); burst > 0 {
		cfg.Webhook.Burst = burst
	}
	if ms := store.GetInt(KeySpoolSettleMS); ms > 0 {
		cfg.SpoolSettle = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

// NormaliseCategories trims and lower-cases each category, dropping blanks
// and duplicates.
func NormaliseCategories(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// first returns the first non-empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// inWorkspace anchors a relative path at the workspace.
func inWorkspace(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}
