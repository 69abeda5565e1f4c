package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/services"
)

func newService(ws string, categories ...string) (*services.SyncService, *file.IndexStore) {
	index := file.NewIndexStore(ws, "posts")
	docs := file.NewDocumentStore(ws, "posts")
	return services.NewSyncService(index, docs, nil, services.SyncOptions{Categories: categories}), index
}

func event(action domain.Action, title, body string) domain.Event {
	return domain.Event{
		Action: action,
		Discussion: &domain.Discussion{
			ID:        "D1",
			Title:     title,
			UpdatedAt: "2024-03-15T00:00:00Z",
			URL:       "u",
			Category:  "general",
			Body:      body,
		},
	}
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestSyncLifecycle_OnDisk(t *testing.T) {
	ws := t.TempDir()
	svc, index := newService(ws)
	ctx := context.Background()

	// created
	_, err := svc.Apply(ctx, event(domain.ActionCreated, "Hello World", "Hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"posts/.discussions_index.json",
		"posts/2024/03/hello-world.md",
	}, listFiles(t, ws))

	data, err := os.ReadFile(filepath.Join(ws, "posts", "2024", "03", "hello-world.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: \"Hello World\"\ndate: \"2024-03-15T00:00:00Z\"\n"+
		"draft: false\ndiscussion_id: \"D1\"\n---\n\nHi", string(data))

	snap, err := index.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, snap.Entries)

	// edited: title change renames
	_, err = svc.Apply(ctx, event(domain.ActionEdited, "Goodbye World", "Bye"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"posts/.discussions_index.json",
		"posts/2024/03/goodbye-world.md",
	}, listFiles(t, ws))

	// deleted twice
	_, err = svc.Apply(ctx, event(domain.ActionDeleted, "Goodbye World", "Bye"))
	require.NoError(t, err)
	_, err = svc.Apply(ctx, event(domain.ActionDeleted, "Goodbye World", "Bye"))
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/.discussions_index.json"}, listFiles(t, ws))

	snap, err = index.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Entries.Len())
}

func TestSyncLifecycle_FilteredLeavesIndexFileUntouched(t *testing.T) {
	ws := t.TempDir()
	svc, index := newService(ws, "announcements")

	require.NoError(t, os.MkdirAll(filepath.Dir(index.Path()), 0755))
	original := []byte(`{"version": "1.0", "discussions": {"D9": "posts/x.md"}}`)
	require.NoError(t, os.WriteFile(index.Path(), original, 0644))

	outcome, err := svc.Apply(context.Background(), event(domain.ActionCreated, "Hello World", "Hi"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFiltered, outcome.Status)

	data, err := os.ReadFile(index.Path())
	require.NoError(t, err)
	assert.Equal(t, original, data)
	assert.Equal(t, []string{"posts/.discussions_index.json"}, listFiles(t, ws))
}

func TestSyncLifecycle_CorruptIndexLeavesDiskUntouched(t *testing.T) {
	ws := t.TempDir()
	svc, index := newService(ws)

	require.NoError(t, os.MkdirAll(filepath.Dir(index.Path()), 0755))
	require.NoError(t, os.WriteFile(index.Path(), []byte(`{"version":`), 0644))

	_, err := svc.Apply(context.Background(), event(domain.ActionCreated, "Hello World", "Hi"))
	require.ErrorIs(t, err, domain.ErrIndexCorrupt)
	assert.Equal(t, []string{"posts/.discussions_index.json"}, listFiles(t, ws))
}

func TestSyncLifecycle_LegacyAbsoluteEntryRenamed(t *testing.T) {
	ws := t.TempDir()
	svc, index := newService(ws)
	ctx := context.Background()

	old := filepath.Join(ws, "posts", "2024", "03", "old-title.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0755))
	require.NoError(t, os.WriteFile(old, []byte("legacy"), 0644))
	require.NoError(t, os.WriteFile(index.Path(),
		[]byte(`{"version": "1.0", "discussions": {"D1": "`+filepath.ToSlash(old)+`"}}`), 0644))

	outcome, err := svc.Apply(ctx, event(domain.ActionEdited, "Hello World", "Hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/2024/03/old-title.md"}, outcome.Removed)
	assert.Equal(t, []string{
		"posts/.discussions_index.json",
		"posts/2024/03/hello-world.md",
	}, listFiles(t, ws))
}
