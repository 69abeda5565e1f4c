package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/discussion-sync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Writes a key to the TOML config file. Nested keys use dots, e.g.
"webhook.addr". Lists are comma separated for the categories key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

type configView struct {
	ConfigPath  string   `json:"config_path"`
	Workspace   string   `json:"workspace"`
	OutputDir   string   `json:"output_dir"`
	Categories  []string `json:"categories"`
	EventPath   string   `json:"event_path,omitempty"`
	JournalPath string   `json:"journal_path,omitempty"`
	LogFile     string   `json:"log_file,omitempty"`
	WebhookAddr string   `json:"webhook_addr"`
	SecretSet   bool     `json:"webhook_secret_set"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	view := configView{
		ConfigPath:  cfg.ConfigPath,
		Workspace:   cfg.Workspace,
		OutputDir:   cfg.OutputDir,
		Categories:  nonNil(cfg.Categories),
		EventPath:   cfg.EventPath,
		JournalPath: cfg.JournalPath,
		LogFile:     cfg.LogFile,
		WebhookAddr: cfg.Webhook.Addr,
		SecretSet:   cfg.Webhook.Secret != "",
	}

	p := newPrinter(cmd)
	if p.json {
		return p.encode(view)
	}

	categories := "(all)"
	if len(view.Categories) > 0 {
		categories = strings.Join(view.Categories, ", ")
	}
	secret := "not set"
	if view.SecretSet {
		secret = "set"
	}

	p.field("Config", view.ConfigPath)
	p.field("Workspace", view.Workspace)
	p.field("Output", view.OutputDir)
	p.field("Categories", categories)
	p.field("Event", orNone(view.EventPath))
	p.field("Journal", orNone(view.JournalPath))
	p.field("Log file", orNone(view.LogFile))
	p.field("Webhook", view.WebhookAddr)
	p.field("Secret", secret)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	if err := cfg.Store.Set(key, parseValue(key, raw)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Store.Path(), err)
	}

	cmd.Printf("Set %s in %s\n", key, cfg.Store.Path())
	return nil
}

// parseValue converts a command-line string into the TOML type its key
// expects.
func parseValue(key, raw string) any {
	if key == config.KeyCategories {
		return file.SplitList(raw)
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
