package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
	"github.com/custodia-labs/discussion-sync/internal/frontmatter"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentWriter  = (*DocumentStore)(nil)
	_ driven.DocumentScanner = (*DocumentStore)(nil)
)

type document struct {
	content string
	modTime time.Time
}

// DocumentStore is an in-memory implementation of driven.DocumentWriter
// and driven.DocumentScanner keyed by stored path.
type DocumentStore struct {
	mu        sync.RWMutex
	outputDir string
	documents map[string]document
	clock     time.Time

	// WriteErr, when set, is returned by every Write.
	WriteErr error

	// RemoveErr, when set, is returned by every Remove.
	RemoveErr error
}

// NewDocumentStore creates a new in-memory document store that places
// documents under outputDir.
func NewDocumentStore(outputDir string) *DocumentStore {
	return &DocumentStore{
		outputDir: outputDir,
		documents: make(map[string]document),
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Write stores the rendered document at its deterministic path.
func (s *DocumentStore) Write(_ context.Context, d domain.Discussion) (string, error) {
	if s.WriteErr != nil {
		return "", s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := domain.DocumentPath(s.outputDir, d)
	s.documents[path] = document{content: frontmatter.Render(d), modTime: s.tick()}
	return path, nil
}

// Remove deletes a stored document.
func (s *DocumentStore) Remove(_ context.Context, path string) (bool, error) {
	if s.RemoveErr != nil {
		return false, s.RemoveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[path]; !ok {
		return false, nil
	}
	delete(s.documents, path)
	return true, nil
}

// Scan returns every stored document whose header parses.
func (s *DocumentStore) Scan(_ context.Context) ([]domain.ScannedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.ScannedDocument, 0, len(s.documents))
	for path, doc := range s.documents {
		scanned := domain.ScannedDocument{Path: path, ModTime: doc.modTime}
		if h, _, err := frontmatter.Parse(doc.content); err == nil {
			scanned.DiscussionID = h.DiscussionID
			scanned.Title = h.Title
		}
		docs = append(docs, scanned)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Put places raw content at path, bypassing rendering.
func (s *DocumentStore) Put(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[path] = document{content: content, modTime: s.tick()}
}

// Content returns the document at path.
func (s *DocumentStore) Content(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[path]
	return doc.content, ok
}

// Paths returns all stored paths in sorted order.
func (s *DocumentStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.documents))
	for p := range s.documents {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// tick advances the fake clock so later writes are strictly newer
// (caller must hold lock).
func (s *DocumentStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}
