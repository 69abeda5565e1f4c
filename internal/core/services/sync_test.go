package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/frontmatter"
)

// --- Test helpers ---

type recordingJournal struct {
	outcomes  []domain.Outcome
	err       error
	lastLimit int
}

func (j *recordingJournal) Record(_ context.Context, o *domain.Outcome) error {
	if j.err != nil {
		return j.err
	}
	j.outcomes = append(j.outcomes, *o)
	return nil
}

func (j *recordingJournal) Recent(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	j.lastLimit = limit
	var entries []domain.JournalEntry
	for i := len(j.outcomes) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, domain.JournalEntry{Outcome: j.outcomes[i]})
	}
	return entries, nil
}

func (j *recordingJournal) Close() error { return nil }

type syncFixture struct {
	index   *memory.IndexStore
	docs    *memory.DocumentStore
	journal *recordingJournal
	svc     *SyncService
}

func newSyncFixture(categories ...string) *syncFixture {
	f := &syncFixture{
		index:   memory.NewIndexStore(),
		docs:    memory.NewDocumentStore("posts"),
		journal: &recordingJournal{},
	}
	f.svc = NewSyncService(f.index, f.docs, f.journal, SyncOptions{Categories: categories})

	runs := 0
	f.svc.runID = func() string {
		runs++
		return fmt.Sprintf("run-%d", runs)
	}
	f.svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return f
}

func helloEvent(action domain.Action) domain.Event {
	return domain.Event{
		Action: action,
		Discussion: &domain.Discussion{
			ID:        "D1",
			Title:     "Hello World",
			UpdatedAt: "2024-03-15T00:00:00Z",
			URL:       "u",
			Category:  "general",
			Body:      "Hi",
		},
	}
}

func withTitle(ev domain.Event, title string) domain.Event {
	d := *ev.Discussion
	d.Title = title
	ev.Discussion = &d
	return ev
}

// --- Create / edit ---

func TestSyncService_Apply_CreatedScenario(t *testing.T) {
	f := newSyncFixture()
	ev := helloEvent(domain.ActionCreated)

	outcome, err := f.svc.Apply(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApplied, outcome.Status)
	assert.Equal(t, "run-1", outcome.RunID)
	assert.Equal(t, "posts/2024/03/hello-world.md", outcome.Written)
	assert.Empty(t, outcome.Removed)
	assert.Empty(t, outcome.Notices)

	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, f.docs.Paths())

	content, ok := f.docs.Content("posts/2024/03/hello-world.md")
	require.True(t, ok)
	assert.Equal(t, "---\n"+
		"title: \"Hello World\"\n"+
		"date: \"2024-03-15T00:00:00Z\"\n"+
		"draft: false\n"+
		"discussion_id: \"D1\"\n"+
		"---\n\nHi", content)
}

func TestSyncService_Apply_CreatedIsIdempotent(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	ev := helloEvent(domain.ActionCreated)

	_, err := f.svc.Apply(ctx, ev)
	require.NoError(t, err)
	second, err := f.svc.Apply(ctx, ev)
	require.NoError(t, err)

	assert.Empty(t, second.Removed)
	assert.Equal(t, 1, f.index.Entries().Len())
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, f.docs.Paths())

	content, _ := f.docs.Content("posts/2024/03/hello-world.md")
	assert.Equal(t, frontmatter.Render(*ev.Discussion), content)
}

func TestSyncService_Apply_EditedWithoutEntryCreates(t *testing.T) {
	f := newSyncFixture()

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionEdited))
	require.NoError(t, err)

	assert.Equal(t, "posts/2024/03/hello-world.md", outcome.Written)
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
}

func TestSyncService_Apply_RenameOnTitleChange(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, withTitle(helloEvent(domain.ActionCreated), "Old Title"))
	require.NoError(t, err)
	require.Equal(t, []string{"posts/2024/03/old-title.md"}, f.docs.Paths())

	outcome, err := f.svc.Apply(ctx, withTitle(helloEvent(domain.ActionEdited), "New Title"))
	require.NoError(t, err)

	assert.Equal(t, []string{"posts/2024/03/old-title.md"}, outcome.Removed)
	assert.Equal(t, "posts/2024/03/new-title.md", outcome.Written)
	assert.Equal(t, []string{"posts/2024/03/new-title.md"}, f.docs.Paths())
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/new-title.md"}, f.index.Entries())
}

func TestSyncService_Apply_BodyEditKeepsPath(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	edit := helloEvent(domain.ActionEdited)
	edit.Discussion.Body = "Updated body"
	outcome, err := f.svc.Apply(ctx, edit)
	require.NoError(t, err)

	assert.Empty(t, outcome.Removed)
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, f.docs.Paths())
	content, _ := f.docs.Content("posts/2024/03/hello-world.md")
	assert.Contains(t, content, "\n\nUpdated body")
}

func TestSyncService_Apply_TitleCaseChangeKeepsPath(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, helloEvent(domain.ActionCreated))
	require.NoError(t, err)
	outcome, err := f.svc.Apply(ctx, withTitle(helloEvent(domain.ActionEdited), "HELLO WORLD"))
	require.NoError(t, err)

	assert.Empty(t, outcome.Removed)
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, f.docs.Paths())
	content, _ := f.docs.Content("posts/2024/03/hello-world.md")
	assert.Contains(t, content, "title: \"HELLO WORLD\"")
}

func TestSyncService_Apply_PartitionChangeRemovesOldFile(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	edit := helloEvent(domain.ActionEdited)
	edit.Discussion.UpdatedAt = "2024-04-01T08:00:00Z"
	outcome, err := f.svc.Apply(ctx, edit)
	require.NoError(t, err)

	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, outcome.Removed)
	assert.Equal(t, []string{"posts/2024/04/hello-world.md"}, f.docs.Paths())
	assert.Equal(t, domain.Index{"D1": "posts/2024/04/hello-world.md"}, f.index.Entries())
}

func TestSyncService_Apply_RenameWithMissingOldFile(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "posts/2024/01/gone.md"})

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionEdited))
	require.NoError(t, err)

	assert.True(t, outcome.HasNotice(domain.NoticeFileNotFoundOnDelete))
	assert.Empty(t, outcome.Removed)
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
}

func TestSyncService_Apply_KeepsOtherEntries(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D0": "posts/2023/12/older.md"})

	_, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	assert.Equal(t, domain.Index{
		"D0": "posts/2023/12/older.md",
		"D1": "posts/2024/03/hello-world.md",
	}, f.index.Entries())
}

// --- Delete ---

func TestSyncService_Apply_DeleteRemovesFileAndEntry(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	outcome, err := f.svc.Apply(ctx, helloEvent(domain.ActionDeleted))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, outcome.Status)
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, outcome.Removed)
	assert.Empty(t, f.docs.Paths())
	assert.Equal(t, 0, f.index.Entries().Len())

	again, err := f.svc.Apply(ctx, helloEvent(domain.ActionDeleted))
	require.NoError(t, err)
	assert.Empty(t, again.Removed)
	assert.Empty(t, again.Notices)
	assert.Equal(t, 3, f.index.Saves())
}

func TestSyncService_Apply_DeleteWithMissingFile(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "posts/2024/03/hello-world.md"})

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionDeleted))
	require.NoError(t, err)

	assert.True(t, outcome.HasNotice(domain.NoticeFileNotFoundOnDelete))
	assert.Equal(t, 0, f.index.Entries().Len())
}

// --- Filter / unknown / version ---

func TestSyncService_Apply_CategoryFilterBlocksMutation(t *testing.T) {
	f := newSyncFixture("announcements")
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "posts/2024/03/hello-world.md"})
	f.docs.Put("posts/2024/03/hello-world.md", "original")

	for _, action := range []domain.Action{domain.ActionCreated, domain.ActionEdited, domain.ActionDeleted} {
		ev := withTitle(helloEvent(action), "Another Title")
		outcome, err := f.svc.Apply(context.Background(), ev)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFiltered, outcome.Status)
	}

	assert.Equal(t, 0, f.index.Saves())
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
	assert.Equal(t, []string{"posts/2024/03/hello-world.md"}, f.docs.Paths())
	content, _ := f.docs.Content("posts/2024/03/hello-world.md")
	assert.Equal(t, "original", content)
}

func TestSyncService_Apply_CategoryFilterCaseInsensitive(t *testing.T) {
	f := newSyncFixture(" General ", "Ideas")
	ev := helloEvent(domain.ActionCreated)
	ev.Discussion.Category = "GENERAL"

	outcome, err := f.svc.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, outcome.Status)
	assert.Equal(t, 1, f.index.Saves())
}

func TestSyncService_Apply_UnknownActionPersistsUnchanged(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "posts/2024/03/hello-world.md"})

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.Action("locked")))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSkipped, outcome.Status)
	assert.True(t, outcome.HasNotice(domain.NoticeUnknownAction))
	assert.Equal(t, 1, f.index.Saves())
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
	assert.Empty(t, f.docs.Paths())
}

func TestSyncService_Apply_VersionMismatchContinues(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed("0.1", domain.Index{"D0": "posts/2023/12/older.md"})

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	assert.True(t, outcome.HasNotice(domain.NoticeIndexVersionMismatch))
	assert.Equal(t, domain.IndexVersion, f.index.Version())
	assert.Equal(t, 2, f.index.Entries().Len())
}

// --- Failures ---

func TestSyncService_Apply_ValidationFailsBeforeMutation(t *testing.T) {
	f := newSyncFixture()
	ev := helloEvent(domain.ActionCreated)
	ev.Discussion.UpdatedAt = "soon"

	outcome, err := f.svc.Apply(context.Background(), ev)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 0, f.index.Saves())
	assert.Empty(t, f.docs.Paths())
	assert.Empty(t, f.journal.outcomes)
}

func TestSyncService_Apply_CorruptIndexAborts(t *testing.T) {
	f := newSyncFixture()
	f.index.LoadErr = fmt.Errorf("%w: invalid character", domain.ErrIndexCorrupt)

	_, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt))
	assert.Empty(t, f.docs.Paths())
	assert.Equal(t, 0, f.index.Saves())
}

func TestSyncService_Apply_WriteFailureLeavesIndex(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D0": "posts/2023/12/older.md"})
	f.docs.WriteErr = fmt.Errorf("%w: disk full", domain.ErrFilesystem)

	_, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFilesystem))
	assert.Equal(t, 0, f.index.Saves())
	assert.Equal(t, domain.Index{"D0": "posts/2023/12/older.md"}, f.index.Entries())
}

func TestSyncService_Apply_RemoveFailureLeavesIndex(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "posts/2024/03/hello-world.md"})
	f.docs.RemoveErr = fmt.Errorf("%w: permission denied", domain.ErrFilesystem)

	_, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionDeleted))
	require.Error(t, err)
	assert.Equal(t, 0, f.index.Saves())
	assert.Equal(t, domain.Index{"D1": "posts/2024/03/hello-world.md"}, f.index.Entries())
}

func TestSyncService_Apply_SaveFailureIsFatal(t *testing.T) {
	f := newSyncFixture()
	f.index.SaveErr = fmt.Errorf("%w: read-only file system", domain.ErrFilesystem)

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Contains(t, err.Error(), "save index")
	assert.Empty(t, f.journal.outcomes)
}

// --- Journal ---

func TestSyncService_Apply_RecordsJournal(t *testing.T) {
	f := newSyncFixture("general")
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, helloEvent(domain.ActionCreated))
	require.NoError(t, err)

	filtered := helloEvent(domain.ActionCreated)
	filtered.Discussion.Category = "random"
	_, err = f.svc.Apply(ctx, filtered)
	require.NoError(t, err)

	require.Len(t, f.journal.outcomes, 2)
	assert.Equal(t, domain.StatusApplied, f.journal.outcomes[0].Status)
	assert.Equal(t, domain.StatusFiltered, f.journal.outcomes[1].Status)
	assert.False(t, f.journal.outcomes[0].FinishedAt.IsZero())
}

func TestSyncService_Apply_JournalFailureTolerated(t *testing.T) {
	f := newSyncFixture()
	f.journal.err = errors.New("database is locked")

	outcome, err := f.svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, outcome.Status)
}

func TestSyncService_Apply_NilJournal(t *testing.T) {
	svc := NewSyncService(memory.NewIndexStore(), memory.NewDocumentStore("posts"), nil, SyncOptions{})

	outcome, err := svc.Apply(context.Background(), helloEvent(domain.ActionCreated))
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.RunID)
}

func TestSyncService_Snapshot(t *testing.T) {
	f := newSyncFixture()
	f.index.Seed(domain.IndexVersion, domain.Index{"D1": "a.md"})

	snap, err := f.svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Index{"D1": "a.md"}, snap.Entries)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "hello-world", stem("posts/2024/03/hello-world.md"))
	assert.Equal(t, "v1.2-release", stem("posts/2024/03/v1.2-release.md"))
	assert.Equal(t, "", stem("posts/2024/03/.md"))
}
