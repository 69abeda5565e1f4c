package services

import (
	"context"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
)

// DefaultHistoryLimit is used when a caller asks for zero or fewer runs.
const DefaultHistoryLimit = 20

var _ driving.History = (*HistoryService)(nil)

// HistoryService lists recorded runs.
type HistoryService struct {
	journal driven.Journal
}

// NewHistoryService creates a history service. journal may be nil.
func NewHistoryService(journal driven.Journal) *HistoryService {
	return &HistoryService{journal: journal}
}

// Recent returns up to limit runs, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if s.journal == nil {
		return nil, domain.ErrJournalUnavailable
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.journal.Recent(ctx, limit)
}
