package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// legacyVersion is assumed when a file carries no version field.
const legacyVersion = "0.0"

// indexFile is the on-disk layout of the index.
type indexFile struct {
	Version     string            `json:"version"`
	Discussions map[string]string `json:"discussions"`
}

// IndexStore keeps the discussion index as a JSON file.
type IndexStore struct {
	workspace string
	filePath  string
}

// NewIndexStore creates an index store for
// <workspace>/<outputDir>/.discussions_index.json.
func NewIndexStore(workspace, outputDir string) *IndexStore {
	return &IndexStore{
		workspace: workspace,
		filePath:  filepath.Join(outputRoot(workspace, outputDir), domain.IndexFileName),
	}
}

// Path returns the index file path.
func (s *IndexStore) Path() string {
	return s.filePath
}

// Load reads the index file. A missing file is an empty index.
// Absolute paths left by older runs are rewritten to the stored form
// when they fall inside the workspace.
func (s *IndexStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.IndexSnapshot{Version: domain.IndexVersion, Entries: domain.NewIndex()}, nil
		}
		return nil, fmt.Errorf("%w: read index %s: %w", domain.ErrFilesystem, s.filePath, err)
	}

	var raw indexFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIndexCorrupt, s.filePath, err)
	}

	snapshot := &domain.IndexSnapshot{
		Version: raw.Version,
		Entries: make(domain.Index, len(raw.Discussions)),
	}
	if snapshot.Version == "" {
		snapshot.Version = legacyVersion
	}
	for id, p := range raw.Discussions {
		snapshot.Entries.Put(id, storedForm(s.workspace, filepath.FromSlash(p)))
	}
	return snapshot, nil
}

// Save writes entries at the current version. The file is replaced
// atomically so a failed write never leaves a truncated index behind.
func (s *IndexStore) Save(_ context.Context, entries domain.Index) error {
	if entries == nil {
		entries = domain.NewIndex()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(indexFile{Version: domain.IndexVersion, Discussions: entries}); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrFilesystem, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".discussions_index-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp index: %w", domain.ErrFilesystem, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp index: %w", domain.ErrFilesystem, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp index: %w", domain.ErrFilesystem, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: chmod temp index: %w", domain.ErrFilesystem, err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		return fmt.Errorf("%w: replace index %s: %w", domain.ErrFilesystem, s.filePath, err)
	}
	return nil
}
