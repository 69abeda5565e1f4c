package driven

import (
	"context"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
)

// DocumentWriter creates, overwrites and removes discussion documents.
type DocumentWriter interface {
	// Write renders d and writes it to its deterministic location,
	// overwriting any file already there. It returns the stored path,
	// relative to the workspace root.
	Write(ctx context.Context, d domain.Discussion) (string, error)

	// Remove deletes the document at a stored path. It reports false
	// without error when the file was already absent.
	Remove(ctx context.Context, path string) (bool, error)
}

// DocumentScanner lists the documents present in the output directory.
type DocumentScanner interface {
	// Scan returns every document carrying a readable header. Files
	// without a discussion ID are returned with an empty DiscussionID.
	Scan(ctx context.Context) ([]domain.ScannedDocument, error)
}
