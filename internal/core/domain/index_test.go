package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex_PutLookupRemove(t *testing.T) {
	ix := NewIndex()
	assert.Equal(t, 0, ix.Len())

	ix.Put("D1", "posts/2024/03/hello-world.md")
	path, ok := ix.Lookup("D1")
	assert.True(t, ok)
	assert.Equal(t, "posts/2024/03/hello-world.md", path)

	// Put replaces; one entry per ID.
	ix.Put("D1", "posts/2024/04/renamed.md")
	assert.Equal(t, 1, ix.Len())
	path, _ = ix.Lookup("D1")
	assert.Equal(t, "posts/2024/04/renamed.md", path)

	removed, ok := ix.Remove("D1")
	assert.True(t, ok)
	assert.Equal(t, "posts/2024/04/renamed.md", removed)
	assert.Equal(t, 0, ix.Len())

	_, ok = ix.Remove("D1")
	assert.False(t, ok)
}

func TestIndex_IDsSorted(t *testing.T) {
	ix := Index{"b": "2.md", "a": "1.md", "c": "3.md"}
	assert.Equal(t, []string{"a", "b", "c"}, ix.IDs())
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	ix := Index{"D1": "a.md"}
	cp := ix.Clone()
	cp.Put("D2", "b.md")
	cp.Put("D1", "changed.md")

	assert.Equal(t, Index{"D1": "a.md"}, ix)
	assert.Equal(t, 2, cp.Len())
}

func TestIndexSnapshot_VersionMatches(t *testing.T) {
	assert.True(t, (&IndexSnapshot{Version: IndexVersion}).VersionMatches())
	assert.False(t, (&IndexSnapshot{Version: "0.0"}).VersionMatches())
}

func TestOutcome_Notices(t *testing.T) {
	o := &Outcome{}
	assert.False(t, o.HasNotice(NoticeUnknownAction))

	o.AddNotice(NoticeUnknownAction, "unknown action \"locked\"")
	assert.True(t, o.HasNotice(NoticeUnknownAction))
	assert.False(t, o.HasNotice(NoticeFileNotFoundOnDelete))
	assert.Len(t, o.Notices, 1)
}
