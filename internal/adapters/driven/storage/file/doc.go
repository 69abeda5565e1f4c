// Package file provides filesystem implementations of the storage ports.
//
// Adapters:
//   - IndexStore: versioned JSON index at <output_dir>/.discussions_index.json
//   - DocumentStore: markdown documents under <output_dir>/<YYYY>/<MM>/
//
// Stored paths are slash separated and relative to the workspace root,
// unless the output directory itself was given as an absolute path.
package file

import (
	"path/filepath"
	"strings"
)

// outputRoot resolves outputDir against the workspace root.
func outputRoot(workspace, outputDir string) string {
	if filepath.IsAbs(outputDir) {
		return filepath.Clean(outputDir)
	}
	return filepath.Join(workspace, outputDir)
}

// absolute resolves a stored path to a filesystem path.
func absolute(workspace, stored string) string {
	p := filepath.FromSlash(stored)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workspace, p)
}

// storedForm converts a filesystem path into the form kept in the index.
// Paths outside the workspace stay absolute.
func storedForm(workspace, p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	rel, err := filepath.Rel(workspace, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	return filepath.ToSlash(rel)
}
