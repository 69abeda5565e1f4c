package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/discussion-sync/internal/config"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/core/services"
)

const createdPayload = `{
  "action": "created",
  "discussion": {
    "node_id": "D_1",
    "title": "Hello World",
    "updated_at": "2024-03-05T10:00:00Z",
    "html_url": "https://github.com/o/r/discussions/1",
    "category": {"slug": "blogs"},
    "body": "Hi"
  }
}`

// cliEnv wires the commands to in-memory stores.
type cliEnv struct {
	ws      string
	env     map[string]string
	index   *memory.IndexStore
	docs    *memory.DocumentStore
	lastCfg *config.Config
}

func setupCLITest(t *testing.T) *cliEnv {
	t.Helper()

	e := &cliEnv{
		ws:    t.TempDir(),
		env:   map[string]string{},
		index: memory.NewIndexStore(),
		docs:  memory.NewDocumentStore("content/posts"),
	}
	e.env[config.EnvWorkspace] = e.ws

	oldFactory, oldLookup := newServices, lookupEnv
	t.Cleanup(func() {
		newServices, lookupEnv = oldFactory, oldLookup
	})

	lookupEnv = func(key string) (string, bool) {
		v, ok := e.env[key]
		return v, ok
	}
	SetServiceFactory(func(c *config.Config) (*Services, error) {
		e.lastCfg = c

		var journal driven.Journal
		var closeFn func() error
		if c.JournalPath != "" {
			j, err := sqlite.NewJournal(c.JournalPath)
			if err != nil {
				return nil, err
			}
			journal, closeFn = j, j.Close
		}

		syncSvc := services.NewSyncService(e.index, e.docs, journal, services.SyncOptions{Categories: c.Categories})
		return &Services{
			Syncer:    syncSvc,
			Index:     syncSvc,
			Rebuilder: services.NewRebuildService(e.index, e.docs),
			History:   services.NewHistoryService(journal),
			Close:     closeFn,
		}, nil
	})

	return e
}

// writeEvent stores a payload in the workspace and returns its path.
func (e *cliEnv) writeEvent(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.ws, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	resetFlags(rootCmd)

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err = ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func run(args ...string) (stdout, stderr string, err error) {
	return runCLI(context.Background(), args...)
}
