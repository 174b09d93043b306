// Package doer implements the local-filesystem side of a sync (spec
// §4.2, §4.3): the same binary acts as a source doer (answering
// GetEntries/GetFileContentChunk) or a dest doer (acting on
// CreateFolder/CreateSymlink/WriteFile*/DeleteEntry), according to
// whichever commands the boss actually sends it.
package doer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/filter"
	"github.com/gryfn-io/rjrssync/rootpath"
	"github.com/gryfn-io/rjrssync/transport"
	"github.com/gryfn-io/rjrssync/wireproto"
)

// Doer runs the receive loop for one side of a sync, over a Conn
// already connected to the boss.
type Doer struct {
	conn     transport.Conn
	logger   common.ILogger
	root     string
	filter   filter.List
	folders  *FolderCreationTracker
	writes   map[string]*ChunkedWriter
	modified map[string]time.Time
}

// New returns a Doer that will operate relative to root once SetRoot
// is received. logger may be common.NopLogger{}.
func New(conn transport.Conn, logger common.ILogger) *Doer {
	return &Doer{
		conn:     conn,
		logger:   logger,
		folders:  NewFolderCreationTracker(),
		writes:   make(map[string]*ChunkedWriter),
		modified: make(map[string]time.Time),
	}
}

// Run processes commands until the boss sends Shutdown, the
// connection closes, or ctx is cancelled.
func (d *Doer) Run(ctx context.Context) error {
	for {
		msg, err := d.conn.Recv(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := d.dispatch(ctx, msg); err != nil {
			return err
		}
		if msg.Kind == wireproto.EKind.Shutdown() {
			return nil
		}
	}
}

func (d *Doer) dispatch(ctx context.Context, msg wireproto.Message) error {
	switch msg.Kind {
	case wireproto.EKind.Handshake():
		m := msg.Meta.(*wireproto.HandshakeMeta)
		return d.conn.Send(ctx, wireproto.EKind.Handshake(), wireproto.HandshakeMeta{Version: wireproto.ProtocolVersion, Side: m.Side}, nil)

	case wireproto.EKind.SetRoot():
		return d.handleSetRoot(ctx, msg.Meta.(*wireproto.SetRootMeta))

	case wireproto.EKind.GetEntries():
		return d.handleGetEntries(ctx)

	case wireproto.EKind.GetFileContentChunk():
		return d.handleGetFileContentChunk(ctx, msg.Meta.(*wireproto.GetFileContentChunkMeta))

	case wireproto.EKind.CreateFolder():
		return d.handleCreateFolder(ctx, msg.Meta.(*wireproto.CreateFolderMeta))

	case wireproto.EKind.CreateSymlink():
		return d.handleCreateSymlink(ctx, msg.Meta.(*wireproto.CreateSymlinkMeta))

	case wireproto.EKind.WriteFileStart():
		return d.handleWriteFileStart(ctx, msg.Meta.(*wireproto.WriteFileStartMeta))

	case wireproto.EKind.WriteFileChunk():
		return d.handleWriteFileChunk(ctx, msg.Meta.(*wireproto.WriteFileChunkMeta), msg.Raw)

	case wireproto.EKind.WriteFileEnd():
		return d.handleWriteFileEnd(ctx, msg.Meta.(*wireproto.WriteFileEndMeta))

	case wireproto.EKind.DeleteEntry():
		return d.handleDeleteEntry(ctx, msg.Meta.(*wireproto.DeleteEntryMeta))

	case wireproto.EKind.ProgressMarker():
		// Echo verbatim: spec §4.4 relies on the echo preserving the
		// marker bytes, which for us means echoing the decoded fields
		// back unchanged once every command sent before it has been
		// durably applied - which holds here because the dest doer
		// processes msg strictly in receive order.
		m := msg.Meta.(*wireproto.ProgressMarkerMeta)
		return d.conn.Send(ctx, wireproto.EKind.ProgressMarker(), *m, nil)

	case wireproto.EKind.Shutdown():
		return d.abandonInFlightWrites()

	default:
		return common.NewSyncError(common.ProtocolError, errUnexpectedKind(msg.Kind))
	}
}

// handleSetRoot records the root and filters, then reports whether the
// root already exists and, if so, its kind - the dest side of spec
// §4.1 step 2 needs this to decide whether dest_root_needs_deleting
// applies; the source side gets the same response and simply ignores
// the fields it doesn't need.
func (d *Doer) handleSetRoot(ctx context.Context, m *wireproto.SetRootMeta) error {
	rules, err := filter.ParseList(m.Filters)
	if err != nil {
		return d.sendError(ctx, common.ConfigError, m.Root, err)
	}
	d.root = m.Root
	d.filter = rules

	info, statErr := os.Lstat(m.Root)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return d.conn.Send(ctx, wireproto.EKind.RootInfo(), wireproto.RootInfoMeta{Exists: false}, nil)
		}
		return d.sendError(ctx, common.IoError, m.Root, statErr)
	}
	kind := common.EEntityKind.File()
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = common.EEntityKind.Symlink()
	case info.IsDir():
		kind = common.EEntityKind.Folder()
	}
	return d.conn.Send(ctx, wireproto.EKind.RootInfo(), wireproto.RootInfoMeta{Exists: true, Kind: kind}, nil)
}

func (d *Doer) absPath(p rootpath.RootRelativePath) string {
	return filepath.Join(d.root, filepath.FromSlash(p.String()))
}

func (d *Doer) handleGetEntries(ctx context.Context) error {
	count := 0
	err := Scan(d.root, d.filter, func(e Entry) error {
		if sendErr := d.conn.Send(ctx, wireproto.EKind.EntryMsg(), wireproto.EntryMsgMeta{
			Path: e.Path.String(), Details: e.Details,
		}, nil); sendErr != nil {
			return sendErr
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	return d.conn.Send(ctx, wireproto.EKind.EndOfEntries(), wireproto.EndOfEntriesMeta{Count: count}, nil)
}

const defaultChunkSize = 4 * 1024 * 1024

func (d *Doer) handleGetFileContentChunk(ctx context.Context, m *wireproto.GetFileContentChunkMeta) error {
	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(m.Path)))
	if err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	defer f.Close()

	buf := make([]byte, m.Length)
	n, err := f.ReadAt(buf, int64(m.Offset))
	if err != nil && err != io.EOF {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}

	info, statErr := f.Stat()
	final := statErr == nil && m.Offset+uint64(n) >= uint64(info.Size())

	return d.conn.Send(ctx, wireproto.EKind.FileChunk(), wireproto.FileChunkMeta{
		Path: m.Path, Offset: m.Offset, Final: final, RawLength: uint32(n),
	}, buf[:n])
}

func (d *Doer) handleCreateFolder(ctx context.Context, m *wireproto.CreateFolderMeta) error {
	abs := filepath.Join(d.root, filepath.FromSlash(m.Path))
	_, err := d.folders.Ensure(abs, func() error {
		return os.MkdirAll(abs, 0o755)
	})
	if err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	return d.conn.Send(ctx, wireproto.EKind.Ack(), wireproto.AckMeta{Path: m.Path}, nil)
}

func (d *Doer) handleCreateSymlink(ctx context.Context, m *wireproto.CreateSymlinkMeta) error {
	abs := filepath.Join(d.root, filepath.FromSlash(m.Path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	_ = os.Remove(abs) // idempotent: a previous partial run may have left one behind
	if err := createSymlink(abs, m.Target, m.LinkKind); err != nil {
		return d.sendError(ctx, common.PolicyError, m.Path, err)
	}
	return d.conn.Send(ctx, wireproto.EKind.Ack(), wireproto.AckMeta{Path: m.Path}, nil)
}

func (d *Doer) handleWriteFileStart(ctx context.Context, m *wireproto.WriteFileStartMeta) error {
	abs := filepath.Join(d.root, filepath.FromSlash(m.Path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}

	tmp := abs + tempSuffix(m.Path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	d.writes[m.Path] = NewChunkedWriter(ctx, f)
	d.modified[m.Path] = m.Modified
	return nil // no Ack here; the boss tracks completion via WriteFileEnd's Ack
}

func (d *Doer) handleWriteFileChunk(ctx context.Context, m *wireproto.WriteFileChunkMeta, raw []byte) error {
	w, ok := d.writes[m.Path]
	if !ok {
		return d.sendError(ctx, common.ProtocolError, m.Path, errNoOpenWrite(m.Path))
	}
	return w.EnqueueChunk(ctx, raw, int64(m.Offset))
}

func (d *Doer) handleWriteFileEnd(ctx context.Context, m *wireproto.WriteFileEndMeta) error {
	w, ok := d.writes[m.Path]
	if !ok {
		return d.sendError(ctx, common.ProtocolError, m.Path, errNoOpenWrite(m.Path))
	}
	delete(d.writes, m.Path)

	if err := w.Close(ctx); err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}

	modified, hasModified := d.modified[m.Path]
	delete(d.modified, m.Path)

	abs := filepath.Join(d.root, filepath.FromSlash(m.Path))
	tmp := abs + tempSuffix(m.Path)
	if hasModified {
		if err := os.Chtimes(tmp, modified, modified); err != nil {
			return d.sendError(ctx, common.IoError, m.Path, err)
		}
	}
	if err := os.Rename(tmp, abs); err != nil {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	return d.conn.Send(ctx, wireproto.EKind.Ack(), wireproto.AckMeta{Path: m.Path}, nil)
}

// handleDeleteEntry removes a single entry. For folders this is
// os.Remove, not os.RemoveAll: spec §4.3 guarantees "the folder must
// already be empty (the boss guarantees that its contents are deleted
// first)", so a non-empty folder here means that ordering invariant
// was violated somewhere upstream, and os.Remove surfaces that as an
// IoError instead of silently deleting whatever was still inside.
// m.Recursive is the one exception: the dest_root_needs_deleting
// wholesale root-replace case (spec §4.1 step 2) legitimately removes
// a non-empty root, so that path alone uses os.RemoveAll.
func (d *Doer) handleDeleteEntry(ctx context.Context, m *wireproto.DeleteEntryMeta) error {
	abs := filepath.Join(d.root, filepath.FromSlash(m.Path))
	var err error
	if m.Recursive {
		err = os.RemoveAll(abs)
	} else {
		err = os.Remove(abs)
	}
	if err != nil && !os.IsNotExist(err) {
		return d.sendError(ctx, common.IoError, m.Path, err)
	}
	return d.conn.Send(ctx, wireproto.EKind.Ack(), wireproto.AckMeta{Path: m.Path}, nil)
}

// abandonInFlightWrites deletes the temp file for every write still
// open when Shutdown arrives, rather than renaming a partial file into
// place (spec §4.4 cancellation semantics).
func (d *Doer) abandonInFlightWrites() error {
	for path, w := range d.writes {
		_ = w.Close(context.Background())
		abs := filepath.Join(d.root, filepath.FromSlash(path))
		_ = os.Remove(abs + tempSuffix(path))
		delete(d.writes, path)
		delete(d.modified, path)
	}
	return nil
}

func (d *Doer) sendError(ctx context.Context, kind common.ErrorKind, path string, cause error) error {
	return d.conn.Send(ctx, wireproto.EKind.ErrorMsg(), wireproto.ErrorMsgMeta{
		Kind: kind.String(), Path: path, Detail: cause.Error(),
	}, nil)
}

func tempSuffix(path string) string {
	return ".rjrssync-tmp-" + rootpath.New(path).Name()
}
