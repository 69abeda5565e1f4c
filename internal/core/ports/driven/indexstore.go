package driven

import (
	"context"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// IndexStore loads and persists the discussion index.
// Backed by a versioned JSON file inside the output directory.
type IndexStore interface {
	// Load reads the index. A missing file yields an empty snapshot.
	// An unparseable file returns an error wrapping domain.ErrIndexCorrupt.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)

	// Save overwrites the index with entries at the current version,
	// creating parent directories as needed.
	Save(ctx context.Context, entries domain.Index) error

	// Path returns where the index is kept, for diagnostics.
	Path() string
}
