package domain

import "sort"

const (
	// IndexFileName is the index file kept inside the output directory.
	IndexFileName = ".discussions_index.json"

	// IndexVersion is the index format version this build writes.
	IndexVersion = "1.0"
)

// Index maps a discussion ID to the workspace-relative path of the
// document currently representing it. There is at most one entry per ID.
type Index map[string]string

// NewIndex creates an empty index.
func NewIndex() Index {
	return make(Index)
}

// Lookup returns the stored path for id.
func (ix Index) Lookup(id string) (string, bool) {
	path, ok := ix[id]
	return path, ok
}

// Put records path as the document for id, replacing any previous entry.
func (ix Index) Put(id, path string) {
	ix[id] = path
}

// Remove deletes the entry for id and returns the path it held.
func (ix Index) Remove(id string) (string, bool) {
	path, ok := ix[id]
	if ok {
		delete(ix, id)
	}
	return path, ok
}

// Len returns the number of entries.
func (ix Index) Len() int {
	return len(ix)
}

// IDs returns the indexed discussion IDs in sorted order.
func (ix Index) IDs() []string {
	ids := make([]string, 0, len(ix))
	for id := range ix {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (ix Index) Clone() Index {
	out := make(Index, len(ix))
	for id, path := range ix {
		out[id] = path
	}
	return out
}

// IndexSnapshot is an index as read from disk, together with the
// format version found in the file.
type IndexSnapshot struct {
	// Version is the version string stored in the file. A missing file
	// yields IndexVersion.
	Version string

	// Entries holds whatever entries parsed. Never nil.
	Entries Index
}

// VersionMatches reports whether the snapshot was written in the
// current format.
func (s *IndexSnapshot) VersionMatches() bool {
	return s.Version == IndexVersion
}
