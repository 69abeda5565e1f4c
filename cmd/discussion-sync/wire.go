package main

import (
	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/cli"
	"github.com/custodia-labs/discussion-sync/internal/config"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/core/services"
)

// buildServices wires the on-disk adapters into the core services.
func buildServices(cfg *config.Config) (*cli.Services, error) {
	index := file.NewIndexStore(cfg.Workspace, cfg.OutputDir)
	docs := file.NewDocumentStore(cfg.Workspace, cfg.OutputDir)

	var journal driven.Journal
	closeFn := func() error { return nil }
	if cfg.JournalPath != "" {
		j, err := sqlite.NewJournal(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		journal = j
		closeFn = j.Close
	}

	syncSvc := services.NewSyncService(index, docs, journal, services.SyncOptions{
		Categories: cfg.Categories,
	})

	return &cli.Services{
		Syncer:    syncSvc,
		Index:     syncSvc,
		Rebuilder: services.NewRebuildService(index, docs),
		History:   services.NewHistoryService(journal),
		Close:     closeFn,
	}, nil
}
