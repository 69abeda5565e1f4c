package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/frontmatter"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentWriter  = (*DocumentStore)(nil)
	_ driven.DocumentScanner = (*DocumentStore)(nil)
)

// DocumentStore writes discussion documents below the output directory.
type DocumentStore struct {
	workspace string
	outputDir string
}

// NewDocumentStore creates a document store rooted at workspace.
// outputDir is normally relative to workspace.
func NewDocumentStore(workspace, outputDir string) *DocumentStore {
	return &DocumentStore{
		workspace: workspace,
		outputDir: filepath.ToSlash(outputDir),
	}
}

// Write renders d to <output_dir>/<YYYY>/<MM>/<slug>.md, creating
// missing directories and overwriting any existing file. The returned
// path is in the same stored form IndexStore.Load produces.
func (s *DocumentStore) Write(_ context.Context, d domain.Discussion) (string, error) {
	target := absolute(s.workspace, domain.DocumentPath(s.outputDir, d))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", domain.ErrFilesystem, filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, []byte(frontmatter.Render(d)), 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrFilesystem, target, err)
	}
	return storedForm(s.workspace, target), nil
}

// Remove deletes the document at a stored path.
// It returns false when the file is already gone.
func (s *DocumentStore) Remove(_ context.Context, stored string) (bool, error) {
	target := absolute(s.workspace, stored)

	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", domain.ErrFilesystem, target, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", domain.ErrFilesystem, target)
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: remove %s: %w", domain.ErrFilesystem, target, err)
	}
	return true, nil
}

// Scan walks the output directory for *.md documents.
// A missing output directory yields no documents.
func (s *DocumentStore) Scan(ctx context.Context) ([]domain.ScannedDocument, error) {
	root := outputRoot(s.workspace, filepath.FromSlash(s.outputDir))

	var docs []domain.ScannedDocument
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		doc := domain.ScannedDocument{
			Path:    storedForm(s.workspace, p),
			ModTime: info.ModTime(),
		}
		if h, _, parseErr := frontmatter.Parse(string(content)); parseErr == nil {
			doc.DiscussionID = h.DiscussionID
			doc.Title = h.Title
		} else {
			logger.Debug("Skipping header of %s: %v", p, parseErr)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", domain.ErrFilesystem, root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}
