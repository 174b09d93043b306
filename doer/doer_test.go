package doer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/transport"
	"github.com/gryfn-io/rjrssync/wireproto"
)

func startDoer(t *testing.T, root string) (transport.Conn, func()) {
	t.Helper()
	bossConn, doerConn := transport.InProcess(16)
	d := New(doerConn, common.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	require.NoError(t, bossConn.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{Root: root}, nil))
	msg, err := bossConn.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.RootInfo(), msg.Kind)

	return bossConn, cancel
}

func TestSetRootReportsExistsAndKind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.txt"), []byte("x"), 0o644))

	bossConn, doerConn := transport.InProcess(16)
	d := New(doerConn, common.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, bossConn.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{Root: root}, nil))
	msg, err := bossConn.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.RootInfo(), msg.Kind)
	info := msg.Meta.(*wireproto.RootInfoMeta)
	assert.True(t, info.Exists)
	assert.Equal(t, common.EEntityKind.Folder(), info.Kind)
}

func TestSetRootOnMissingRootReportsNotExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	bossConn, doerConn := transport.InProcess(16)
	d := New(doerConn, common.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, bossConn.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{Root: missing}, nil))
	msg, err := bossConn.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.RootInfo(), msg.Kind)
	assert.False(t, msg.Meta.(*wireproto.RootInfoMeta).Exists)
}

func TestGetEntriesAppliesFilters(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.log"), []byte("2"), 0o644))

	bossConn, doerConn := transport.InProcess(16)
	d := New(doerConn, common.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, bossConn.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{
		Root: root, Filters: []string{"-.*\\.log"},
	}, nil))
	msg, err := bossConn.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.RootInfo(), msg.Kind)

	require.NoError(t, bossConn.Send(ctx, wireproto.EKind.GetEntries(), wireproto.GetEntriesMeta{}, nil))
	var paths []string
	for {
		msg, err := bossConn.Recv(ctx)
		require.NoError(t, err)
		if msg.Kind == wireproto.EKind.EndOfEntries() {
			break
		}
		paths = append(paths, msg.Meta.(*wireproto.EntryMsgMeta).Path)
	}
	assert.Equal(t, []string{"keep.txt"}, paths)
}

func TestCreateFolderIsIdempotent(t *testing.T) {
	root := t.TempDir()
	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.CreateFolder(), wireproto.CreateFolderMeta{Path: "a/b"}, nil))
	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	require.NoError(t, boss.Send(ctx, wireproto.EKind.CreateFolder(), wireproto.CreateFolderMeta{Path: "a/b"}, nil))
	msg, err = boss.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	info, err := os.Stat(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriteFileStartChunkEndProducesFileWithContent(t *testing.T) {
	root := t.TempDir()
	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileStart(), wireproto.WriteFileStartMeta{
		Path: "x/hello.txt", Size: 11, Modified: time.Now(),
	}, nil))

	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileChunk(), wireproto.WriteFileChunkMeta{
		Path: "x/hello.txt", Offset: 0, RawLength: 11,
	}, []byte("hello world")))

	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileEnd(), wireproto.WriteFileEndMeta{Path: "x/hello.txt"}, nil))

	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	content, err := os.ReadFile(filepath.Join(root, "x", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	// No leftover temp file.
	entries, err := os.ReadDir(filepath.Join(root, "x"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileOutOfOrderChunksReassembleCorrectly(t *testing.T) {
	root := t.TempDir()
	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileStart(), wireproto.WriteFileStartMeta{Path: "f.bin", Size: 6}, nil))
	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileChunk(), wireproto.WriteFileChunkMeta{Path: "f.bin", Offset: 3, RawLength: 3}, []byte("def")))
	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileChunk(), wireproto.WriteFileChunkMeta{Path: "f.bin", Offset: 0, RawLength: 3}, []byte("abc")))
	require.NoError(t, boss.Send(ctx, wireproto.EKind.WriteFileEnd(), wireproto.WriteFileEndMeta{Path: "f.bin"}, nil))

	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	content, err := os.ReadFile(filepath.Join(root, "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(content))
}

func TestDeleteEntryRemovesFileAndFolder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dir", "f.txt"), []byte("x"), 0o644))

	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	// Children before parent, matching the boss's own dispatch order
	// (spec §4.3: "the boss guarantees that its contents are deleted
	// first") - the dest doer requires an empty folder, it doesn't
	// enforce the ordering itself.
	require.NoError(t, boss.Send(ctx, wireproto.EKind.DeleteEntry(), wireproto.DeleteEntryMeta{
		Path: "dir/f.txt", Kind: common.EEntityKind.File(),
	}, nil))
	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	require.NoError(t, boss.Send(ctx, wireproto.EKind.DeleteEntry(), wireproto.DeleteEntryMeta{
		Path: "dir", Kind: common.EEntityKind.Folder(),
	}, nil))
	msg, err = boss.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.Ack(), msg.Kind)

	_, statErr := os.Stat(filepath.Join(root, "dir"))
	assert.True(t, os.IsNotExist(statErr))
}

// TestDeleteEntryRejectsNonEmptyFolder confirms the dest doer enforces
// spec §4.3's "the folder must already be empty" invariant rather than
// silently recursing: DeleteEntry on a non-empty folder without
// Recursive set is an IoError, not a successful deletion.
func TestDeleteEntryRejectsNonEmptyFolder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dir", "f.txt"), []byte("x"), 0o644))

	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.DeleteEntry(), wireproto.DeleteEntryMeta{
		Path: "dir", Kind: common.EEntityKind.Folder(),
	}, nil))
	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.ErrorMsg(), msg.Kind)

	_, statErr := os.Stat(filepath.Join(root, "dir", "f.txt"))
	assert.NoError(t, statErr)
}

func TestGetEntriesWalksInCanonicalSortedOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "c.txt"), []byte("2"), 0o644))

	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.GetEntries(), wireproto.GetEntriesMeta{}, nil))

	var paths []string
	for {
		msg, err := boss.Recv(ctx)
		require.NoError(t, err)
		if msg.Kind == wireproto.EKind.EndOfEntries() {
			break
		}
		require.Equal(t, wireproto.EKind.EntryMsg(), msg.Kind)
		paths = append(paths, msg.Meta.(*wireproto.EntryMsgMeta).Path)
	}
	assert.Equal(t, []string{"a.txt", "b", "b/c.txt"}, paths)
}

func TestGetFileContentChunkReadsRequestedRange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("0123456789"), 0o644))

	boss, cancel := startDoer(t, root)
	defer cancel()
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.GetFileContentChunk(), wireproto.GetFileContentChunkMeta{
		Path: "f.txt", Offset: 2, Length: 4,
	}, nil))

	msg, err := boss.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, wireproto.EKind.FileChunk(), msg.Kind)
	assert.Equal(t, []byte("2345"), msg.Raw)
	assert.False(t, msg.Meta.(*wireproto.FileChunkMeta).Final)
}
