package driving

import (
	"context"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// Syncer applies discussion lifecycle events to the output directory.
type Syncer interface {
	// Apply validates ev, applies it and persists the index.
	// Filtered and unknown-action events succeed with the matching
	// Outcome status. On error the index on disk is left untouched.
	Apply(ctx context.Context, ev domain.Event) (*domain.Outcome, error)
}

// IndexRebuilder reconstructs the index from documents on disk.
type IndexRebuilder interface {
	// Rebuild scans the output directory and overwrites the index.
	Rebuild(ctx context.Context) (*domain.RebuildReport, error)
}

// IndexReader exposes the persisted index for inspection.
type IndexReader interface {
	// Snapshot loads the current index without modifying it.
	Snapshot(ctx context.Context) (*domain.IndexSnapshot, error)
}

// History lists previous runs.
type History interface {
	// Recent returns up to limit journal entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)
}
