package rootpath

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesSeparatorsAndTrailingSlash(t *testing.T) {
	assert.Equal(t, "a/b/c", New(`a\b\c`).String())
	assert.Equal(t, "a/b", New("a/b/").String())
	assert.Equal(t, "", New("").String())
	assert.Equal(t, "", New("/").String())
	assert.True(t, New("").IsRoot())
	assert.False(t, New("a").IsRoot())
}

func TestJoinFromRoot(t *testing.T) {
	assert.Equal(t, "file.txt", Root.Join("file.txt").String())
	assert.Equal(t, "a/b", New("a").Join("b").String())
}

func TestParent(t *testing.T) {
	_, ok := Root.Parent()
	assert.False(t, ok)

	p, ok := New("a/b/c").Parent()
	require.True(t, ok)
	assert.Equal(t, "a/b", p.String())

	p, ok = New("a").Parent()
	require.True(t, ok)
	assert.True(t, p.IsRoot())
}

func TestName(t *testing.T) {
	assert.Equal(t, "c", New("a/b/c").Name())
	assert.Equal(t, "", Root.Name())
}

// Root always sorts first, and sort order is plain lexicographic over the
// normalized representation — the invariant the boss reconciler's merge
// cursor depends on (spec §3, §8 invariant 4).
func TestCanonicalSortOrder(t *testing.T) {
	paths := []string{"b", "", "a/z", "a/b", "aa"}
	rs := make([]RootRelativePath, len(paths))
	for i, s := range paths {
		rs[i] = New(s)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Less(rs[j]) })

	got := make([]string, len(rs))
	for i, r := range rs {
		got[i] = r.String()
	}
	assert.Equal(t, []string{"", "a/b", "a/z", "aa", "b"}, got)
	assert.True(t, rs[0].IsRoot())
}
