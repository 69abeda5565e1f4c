package driven

import (
	"context"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// Journal records the outcome of each run.
// Backed by SQLite; optional.
type Journal interface {
	// Record appends an outcome.
	Record(ctx context.Context, outcome *domain.Outcome) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)

	// Close releases the underlying storage.
	Close() error
}
