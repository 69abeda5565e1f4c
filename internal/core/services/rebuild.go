package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

// Ensure RebuildService implements the interface.
var _ driving.IndexRebuilder = (*RebuildService)(nil)

// RebuildService reconstructs the index from the documents on disk.
// It is the recovery path when the index file is corrupt or lost.
type RebuildService struct {
	index   driven.IndexStore
	scanner driven.DocumentScanner
}

// NewRebuildService creates a rebuild service.
func NewRebuildService(index driven.IndexStore, scanner driven.DocumentScanner) *RebuildService {
	return &RebuildService{index: index, scanner: scanner}
}

// Rebuild scans every document and overwrites the index.
//
// When several documents carry the same discussion ID the most recently
// modified one wins; ties go to the lexically greater path. Losers are
// reported but left on disk.
func (s *RebuildService) Rebuild(ctx context.Context) (*domain.RebuildReport, error) {
	if s.scanner == nil {
		return nil, errors.New("document scanner not configured")
	}

	logger.Section("Rebuild index")

	docs, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	report := &domain.RebuildReport{
		Entries: domain.NewIndex(),
		Scanned: len(docs),
	}

	winners := make(map[string]domain.ScannedDocument)
	for _, doc := range docs {
		if doc.DiscussionID == "" {
			report.Unidentified = append(report.Unidentified, doc.Path)
			logger.Warn("No discussion_id in %s, skipping", doc.Path)
			continue
		}

		current, seen := winners[doc.DiscussionID]
		switch {
		case !seen:
			winners[doc.DiscussionID] = doc
		case newer(doc, current):
			report.Shadowed = append(report.Shadowed, current)
			winners[doc.DiscussionID] = doc
		default:
			report.Shadowed = append(report.Shadowed, doc)
		}
	}

	for id, doc := range winners {
		report.Entries.Put(id, doc.Path)
	}
	sort.Slice(report.Shadowed, func(i, j int) bool {
		return report.Shadowed[i].Path < report.Shadowed[j].Path
	})
	sort.Strings(report.Unidentified)

	for _, doc := range report.Shadowed {
		logger.Warn("Discussion %s also found in %s (kept %s)",
			doc.DiscussionID, doc.Path, report.Entries[doc.DiscussionID])
	}

	if err := s.index.Save(ctx, report.Entries); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	logger.Info("Rebuilt index with %d entries from %d documents: %s",
		report.Entries.Len(), report.Scanned, s.index.Path())

	return report, nil
}

func newer(a, b domain.ScannedDocument) bool {
	if a.ModTime.Equal(b.ModTime) {
		return a.Path > b.Path
	}
	return a.ModTime.After(b.ModTime)
}
