package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

// Ensure SyncService implements the interfaces.
var (
	_ driving.Syncer      = (*SyncService)(nil)
	_ driving.IndexReader = (*SyncService)(nil)
)

// SyncOptions configures a SyncService.
type SyncOptions struct {
	// Categories is the category allow-list. Matching is
	// case-insensitive. Empty allows every category.
	Categories []string
}

// SyncService mirrors one discussion event onto the output directory.
//
// Each Apply loads the index, hands it through the action handler and
// saves it as the final step, so a failure part way leaves the
// previously persisted index in place.
type SyncService struct {
	index   driven.IndexStore
	docs    driven.DocumentWriter
	journal driven.Journal
	allow   map[string]struct{}

	now   func() time.Time
	runID func() string
}

// NewSyncService creates a sync service.
// The journal is optional; if nil, runs are not recorded.
func NewSyncService(
	index driven.IndexStore,
	docs driven.DocumentWriter,
	journal driven.Journal,
	opts SyncOptions,
) *SyncService {
	allow := make(map[string]struct{}, len(opts.Categories))
	for _, c := range opts.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			allow[c] = struct{}{}
		}
	}

	return &SyncService{
		index:   index,
		docs:    docs,
		journal: journal,
		allow:   allow,
		now:     time.Now,
		runID:   uuid.NewString,
	}
}

// Apply validates ev, dispatches it by action and persists the index.
func (s *SyncService) Apply(ctx context.Context, ev domain.Event) (*domain.Outcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	d := *ev.Discussion

	outcome := &domain.Outcome{
		RunID:        s.runID(),
		Action:       ev.Action,
		DiscussionID: d.ID,
		URL:          d.URL,
		Category:     d.Category,
		StartedAt:    s.now(),
	}

	snapshot, err := s.index.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if !snapshot.VersionMatches() {
		msg := fmt.Sprintf("index file version mismatch: expected %s, got %s; loading anyway",
			domain.IndexVersion, snapshot.Version)
		logger.Warn("%s", msg)
		outcome.AddNotice(domain.NoticeIndexVersionMismatch, msg)
	}

	if !s.allowed(d.Category) {
		logger.Info("Category '%s' does not need to be processed.", d.Category)
		outcome.Status = domain.StatusFiltered
		s.finish(ctx, outcome)
		return outcome, nil
	}

	entries := snapshot.Entries.Clone()
	outcome.Status = domain.StatusApplied

	switch ev.Action {
	case domain.ActionCreated:
		logger.Info("Processing creation event: %s", d.URL)
		entries, err = s.upsert(ctx, d, entries, outcome)
	case domain.ActionEdited:
		logger.Info("Processing edit event: %s", d.URL)
		entries, err = s.upsert(ctx, d, entries, outcome)
	case domain.ActionDeleted:
		logger.Info("Processing delete event: %s", d.URL)
		entries, err = s.delete(ctx, d, entries, outcome)
	default:
		msg := fmt.Sprintf("unknown action '%s', skipping discussion %s", ev.Action, d.URL)
		logger.Warn("%s", msg)
		outcome.AddNotice(domain.NoticeUnknownAction, msg)
		outcome.Status = domain.StatusSkipped
	}
	if err != nil {
		return nil, err
	}

	if err := s.index.Save(ctx, entries); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	logger.Info("Index file updated: %s", s.index.Path())

	s.finish(ctx, outcome)
	logger.Debug("Run %s finished in %s", outcome.RunID, outcome.Duration())
	return outcome, nil
}

// Snapshot returns the persisted index without modifying it.
func (s *SyncService) Snapshot(ctx context.Context) (*domain.IndexSnapshot, error) {
	return s.index.Load(ctx)
}

// upsert handles created and edited events. Both write the document at
// the path derived from the current record and point the entry at it.
func (s *SyncService) upsert(
	ctx context.Context,
	d domain.Discussion,
	entries domain.Index,
	outcome *domain.Outcome,
) (domain.Index, error) {
	previous, indexed := entries.Lookup(d.ID)
	if indexed && stem(previous) != d.Slug() {
		logger.Debug("Title of %s changed, removing %s", d.ID, previous)
		if err := s.remove(ctx, previous, outcome); err != nil {
			return nil, err
		}
	}

	path, err := s.docs.Write(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	outcome.Written = path
	logger.Info("File generated: %s", path)

	// Same slug but a new year/month partition.
	if indexed && stem(previous) == d.Slug() && previous != path {
		logger.Debug("Partition of %s changed, removing %s", d.ID, previous)
		if err := s.remove(ctx, previous, outcome); err != nil {
			return nil, err
		}
	}

	entries.Put(d.ID, path)
	return entries, nil
}

// delete drops the entry for d and removes its document.
func (s *SyncService) delete(
	ctx context.Context,
	d domain.Discussion,
	entries domain.Index,
	outcome *domain.Outcome,
) (domain.Index, error) {
	path, ok := entries.Remove(d.ID)
	if !ok {
		logger.Debug("No document indexed for %s, nothing to delete", d.ID)
		return entries, nil
	}
	if err := s.remove(ctx, path, outcome); err != nil {
		return nil, err
	}
	return entries, nil
}

// remove deletes a stored document. An already-absent file becomes a
// notice rather than an error.
func (s *SyncService) remove(ctx context.Context, path string, outcome *domain.Outcome) error {
	removed, err := s.docs.Remove(ctx, path)
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	if !removed {
		msg := fmt.Sprintf("file does not exist: %s", path)
		logger.Warn("%s", msg)
		outcome.AddNotice(domain.NoticeFileNotFoundOnDelete, msg)
		return nil
	}
	outcome.Removed = append(outcome.Removed, path)
	logger.Info("Deleted Markdown file: %s", path)
	return nil
}

func (s *SyncService) allowed(category string) bool {
	if len(s.allow) == 0 {
		return true
	}
	_, ok := s.allow[strings.ToLower(category)]
	return ok
}

// finish stamps the outcome and records it. Journal failures never fail
// a run whose index is already saved.
func (s *SyncService) finish(ctx context.Context, outcome *domain.Outcome) {
	outcome.FinishedAt = s.now()
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, outcome); err != nil {
		logger.Warn("Failed to record run %s: %v", outcome.RunID, err)
	}
}

// stem returns the base filename of a stored path without its extension.
func stem(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
