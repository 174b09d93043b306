package boss

import (
	"context"

	"github.com/gryfn-io/rjrssync/accounting"
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/rootpath"
	"github.com/gryfn-io/rjrssync/transport"
	"github.com/gryfn-io/rjrssync/wireproto"
)

// chunkSize is the implementation knob spec §9 calls out as not part
// of the wire contract beyond "WriteFileChunk carries <= 2^32-1 bytes":
// 1 MiB balances transport overhead against dest write latency.
const chunkSize = 1024 * 1024

// readAck waits for the reply to a command that answers with either
// Ack or ErrorMsg, and turns an ErrorMsg into a *common.SyncError.
func readAck(ctx context.Context, conn transport.Conn) error {
	msg, err := conn.Recv(ctx)
	if err != nil {
		return err
	}
	if msg.Kind == wireproto.EKind.ErrorMsg() {
		m := msg.Meta.(*wireproto.ErrorMsgMeta)
		return common.NewIoError(m.Path, common.EEntityKind.File(), errString(m.Detail))
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

func createFolder(ctx context.Context, conn transport.Conn, path rootpath.RootRelativePath) error {
	if err := conn.Send(ctx, wireproto.EKind.CreateFolder(), wireproto.CreateFolderMeta{Path: path.String()}, nil); err != nil {
		return err
	}
	return readAck(ctx, conn)
}

func createSymlink(ctx context.Context, conn transport.Conn, path rootpath.RootRelativePath, target string, kind common.SymlinkKind) error {
	if err := conn.Send(ctx, wireproto.EKind.CreateSymlink(), wireproto.CreateSymlinkMeta{
		Path: path.String(), Target: target, LinkKind: kind,
	}, nil); err != nil {
		return err
	}
	return readAck(ctx, conn)
}

func deleteEntry(ctx context.Context, conn transport.Conn, path rootpath.RootRelativePath, kind common.EntityKind) error {
	return deleteEntryRecursive(ctx, conn, path, kind, false)
}

// deleteEntryRecursive is deleteEntry with recursive=true wired through
// for the dest_root_needs_deleting wholesale root-replace case (spec
// §4.1 step 2), the one DeleteEntry caller allowed to remove a
// non-empty folder.
func deleteEntryRecursive(ctx context.Context, conn transport.Conn, path rootpath.RootRelativePath, kind common.EntityKind, recursive bool) error {
	if err := conn.Send(ctx, wireproto.EKind.DeleteEntry(), wireproto.DeleteEntryMeta{
		Path: path.String(), Kind: kind, Recursive: recursive,
	}, nil); err != nil {
		return err
	}
	return readAck(ctx, conn)
}

// copyFile streams path's content from the source doer to the dest
// doer in chunkSize pieces (spec §4.2/§4.3 GetFileContentChunk /
// WriteFileStart..WriteFileEnd), recording each chunk's contribution in
// acct via ForCopyPartial (spec §4.5's "chunk-sum law").
func copyFile(ctx context.Context, source, dest transport.Conn, path rootpath.RootRelativePath, size uint64, details common.EntryDetails, acct *accounting.Accountant) error {
	if err := dest.Send(ctx, wireproto.EKind.WriteFileStart(), wireproto.WriteFileStartMeta{
		Path: path.String(), Size: size, Modified: details.Modified,
	}, nil); err != nil {
		return err
	}

	if size == 0 {
		// No content to request; still account for the per-entry floor
		// (spec §4.5, "forCopyPartial... floor accounted in the final
		// chunk") since no chunk round-trip will happen to do it for us.
		acct.CopySentPartial(0, 0, 0)
	}

	var offset uint64
	for offset < size {
		want := uint64(chunkSize)
		if remaining := size - offset; remaining < want {
			want = remaining
		}

		if err := source.Send(ctx, wireproto.EKind.GetFileContentChunk(), wireproto.GetFileContentChunkMeta{
			Path: path.String(), Offset: offset, Length: uint32(want),
		}, nil); err != nil {
			return err
		}
		msg, err := source.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Kind == wireproto.EKind.ErrorMsg() {
			m := msg.Meta.(*wireproto.ErrorMsgMeta)
			return common.NewIoError(m.Path, common.EEntityKind.File(), errString(m.Detail))
		}
		chunk := msg.Meta.(*wireproto.FileChunkMeta)

		if err := dest.Send(ctx, wireproto.EKind.WriteFileChunk(), wireproto.WriteFileChunkMeta{
			Path: path.String(), Offset: offset, RawLength: chunk.RawLength,
		}, msg.Raw); err != nil {
			return err
		}
		acct.CopySentPartial(offset, uint64(chunk.RawLength), size)

		offset += uint64(chunk.RawLength)
		if chunk.Final || chunk.RawLength == 0 {
			break
		}
	}

	if err := dest.Send(ctx, wireproto.EKind.WriteFileEnd(), wireproto.WriteFileEndMeta{Path: path.String()}, nil); err != nil {
		return err
	}
	return readAck(ctx, dest)
}

// maybeEmitMarker injects a ProgressMarker into the dest stream once
// enough work has been sent since the last one (spec §4.5), and blocks
// for its echo - the linearization point (spec §9) that lets the boss
// advance `completed` up to (at least) the sent snapshot carried in the
// marker.
func maybeEmitMarker(ctx context.Context, dest transport.Conn, acct *accounting.Accountant, currentEntryID int64) error {
	if !acct.ShouldEmitMarker() {
		return nil
	}
	sent := acct.SentSnapshot()
	phase := acct.MarkerPhaseKind()
	m := wireproto.ProgressMarkerMeta{
		SentWork: sent.Work, Phase: phase, CurrentEntryID: currentEntryID,
	}
	if phase == common.EProgressPhaseKind.Deleting() {
		m.Count = uint64(sent.Delete)
	} else {
		m.Count = uint64(sent.Copy)
		m.Bytes = sent.CopyBytes
	}
	if err := dest.Send(ctx, wireproto.EKind.ProgressMarker(), m, nil); err != nil {
		return err
	}
	msg, err := dest.Recv(ctx)
	if err != nil {
		return err
	}
	if msg.Kind != wireproto.EKind.ProgressMarker() {
		return common.NewSyncError(common.ProtocolError, errString("expected echoed ProgressMarker"))
	}
	acct.Completed(sent)
	return nil
}

// finalMarker sends the terminal Done marker (spec §4.1 Drain phase)
// and waits for the dest doer to echo it, establishing that every
// prior command has been durably applied before the sync is reported
// complete.
func finalMarker(ctx context.Context, dest transport.Conn, acct *accounting.Accountant) error {
	sent := acct.SentSnapshot()
	m := wireproto.ProgressMarkerMeta{SentWork: sent.Work, Phase: common.EProgressPhaseKind.Done(), CurrentEntryID: -1}
	if err := dest.Send(ctx, wireproto.EKind.ProgressMarker(), m, nil); err != nil {
		return err
	}
	msg, err := dest.Recv(ctx)
	if err != nil {
		return err
	}
	if msg.Kind != wireproto.EKind.ProgressMarker() {
		return common.NewSyncError(common.ProtocolError, errString("expected echoed final ProgressMarker"))
	}
	acct.Completed(sent)
	return nil
}
