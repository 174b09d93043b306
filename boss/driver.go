package boss

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gryfn-io/rjrssync/accounting"
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/rootpath"
	"github.com/gryfn-io/rjrssync/syncspec"
	"github.com/gryfn-io/rjrssync/transport"
	"github.com/gryfn-io/rjrssync/wireproto"
)

// Run drives one SyncSpec end to end (spec §4.1): Handshake, root
// setup (including the wholesale dest_root_needs_deleting swap),
// concurrent scan, reconciliation, dispatch and drain. source and dest
// are already-connected Conns - Run has no idea whether either one is
// a goroutine in this process or a subprocess reached over stdio.
func Run(ctx context.Context, source, dest transport.Conn, spec syncspec.SyncSpec, hooks *common.UIHooks, bar *accounting.Bar) (ActionsSummary, error) {
	start := time.Now()
	if hooks == nil {
		hooks = common.NewUIHooks()
	}
	acct := accounting.NewAccountant()
	defer source.Close()
	defer dest.Close()

	if err := handshake(ctx, source, "source"); err != nil {
		return ActionsSummary{}, common.NewConnectError(common.SideSource, err)
	}
	if err := handshake(ctx, dest, "dest"); err != nil {
		return ActionsSummary{}, common.NewConnectError(common.SideDest, err)
	}

	srcExists, srcKind, err := setRoot(ctx, source, spec.Source.Path, spec.Filters)
	if err != nil {
		return ActionsSummary{}, common.NewConnectError(common.SideSource, err)
	}
	if !srcExists {
		return ActionsSummary{}, common.NewIoError(spec.Source.Path, common.EEntityKind.Folder(), errors.New("source root does not exist"))
	}

	destExists, destKind, err := setRoot(ctx, dest, spec.Dest.Path, spec.Filters)
	if err != nil {
		return ActionsSummary{}, common.NewConnectError(common.SideDest, err)
	}

	behaviors := spec.Behaviors
	skippedEntirely := false
	if destExists && destKind != srcKind {
		r := newResolver(hooks)
		proceed, err := r.rootDeleting(&behaviors.DestRootNeedsDeleting, spec.Dest.Path)
		if err != nil {
			return ActionsSummary{}, err
		}
		if !proceed {
			skippedEntirely = true
		} else if !spec.DryRun {
			if err := deleteEntryRecursive(ctx, dest, rootpath.Root, destKind, true); err != nil {
				return ActionsSummary{}, err
			}
			destExists = false
		} else {
			destExists = false
		}
	}

	summary := ActionsSummary{DryRun: spec.DryRun}
	if skippedEntirely {
		shutdown(ctx, source)
		shutdown(ctx, dest)
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	var srcList, destList EntryList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scanInto(gctx, source, &srcList, acct, true)
	})
	g.Go(func() error {
		if !destExists {
			return nil
		}
		return scanInto(gctx, dest, &destList, acct, false)
	})
	if err := g.Wait(); err != nil {
		return ActionsSummary{}, err
	}

	plan, err := reconcile(&srcList, &destList, &behaviors, hooks, acct)
	if err != nil {
		return ActionsSummary{}, err
	}
	summary = summary.Add(plan.Summary)

	if err := execute(ctx, source, dest, plan, spec.DryRun, acct, bar); err != nil {
		return ActionsSummary{}, err
	}

	shutdown(ctx, source)
	shutdown(ctx, dest)

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// shutdown asks a doer to exit cleanly and closes the connection.
// Errors are swallowed: the sync itself has already succeeded by the
// time this runs, and a doer that's already gone is not a failure.
func shutdown(ctx context.Context, conn transport.Conn) {
	_ = conn.Send(ctx, wireproto.EKind.Shutdown(), wireproto.ShutdownMeta{}, nil)
	_ = conn.Close()
}

func handshake(ctx context.Context, conn transport.Conn, side string) error {
	if err := conn.Send(ctx, wireproto.EKind.Handshake(), wireproto.HandshakeMeta{
		Version: wireproto.ProtocolVersion, Side: side,
	}, nil); err != nil {
		return err
	}
	msg, err := conn.Recv(ctx)
	if err != nil {
		return err
	}
	m, ok := msg.Meta.(*wireproto.HandshakeMeta)
	if !ok {
		return errors.New("unexpected reply to handshake")
	}
	if m.Version != wireproto.ProtocolVersion {
		return errors.Errorf("protocol version mismatch: boss %d, peer %d", wireproto.ProtocolVersion, m.Version)
	}
	return nil
}

func setRoot(ctx context.Context, conn transport.Conn, root string, filters interface{ Raw() []string }) (exists bool, kind common.EntityKind, err error) {
	if err := conn.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{
		Root: root, Filters: filters.Raw(),
	}, nil); err != nil {
		return false, 0, err
	}
	msg, err := conn.Recv(ctx)
	if err != nil {
		return false, 0, err
	}
	if msg.Kind == wireproto.EKind.ErrorMsg() {
		m := msg.Meta.(*wireproto.ErrorMsgMeta)
		return false, 0, common.NewIoError(m.Path, common.EEntityKind.Folder(), errString(m.Detail))
	}
	m, ok := msg.Meta.(*wireproto.RootInfoMeta)
	if !ok {
		return false, 0, errors.New("unexpected reply to SetRoot")
	}
	return m.Exists, m.Kind, nil
}

// scanInto issues GetEntries and accumulates the streamed response into
// list, crediting acct's pessimistic total register as each entry
// arrives (isSource picks IncTotalForCopy vs IncTotalForDelete).
func scanInto(ctx context.Context, conn transport.Conn, list *EntryList, acct *accounting.Accountant, isSource bool) error {
	if err := conn.Send(ctx, wireproto.EKind.GetEntries(), wireproto.GetEntriesMeta{}, nil); err != nil {
		return err
	}
	for {
		msg, err := conn.Recv(ctx)
		if err != nil {
			return err
		}
		switch msg.Kind {
		case wireproto.EKind.EntryMsg():
			m := msg.Meta.(*wireproto.EntryMsgMeta)
			path := rootpath.New(m.Path)
			if err := list.Append(path, m.Details); err != nil {
				return err
			}
			if isSource {
				acct.IncTotalForCopy(m.Details.Kind, m.Details.Size)
			} else {
				acct.IncTotalForDelete()
			}
		case wireproto.EKind.EndOfEntries():
			return nil
		case wireproto.EKind.ErrorMsg():
			m := msg.Meta.(*wireproto.ErrorMsgMeta)
			return common.NewIoError(m.Path, common.EEntityKind.File(), errString(m.Detail))
		default:
			return common.NewSyncError(common.ProtocolError, errString("unexpected message during GetEntries"))
		}
	}
}

// execute carries out an already-decided Plan: every delete first, in
// reverse path order so a folder's contents are gone before the folder
// itself is removed, then every create/overwrite in forward path
// order so a folder exists before anything is written inside it. A
// dry run performs no I/O but still drives the marker/bar loop against
// the same sent/completed bookkeeping a real run would.
func execute(ctx context.Context, source, dest transport.Conn, plan Plan, dryRun bool, acct *accounting.Accountant, bar *accounting.Bar) error {
	for i := len(plan.Deletes) - 1; i >= 0; i-- {
		d := plan.Deletes[i]
		if !dryRun {
			if err := deleteEntry(ctx, dest, d.Path, d.Kind); err != nil {
				return err
			}
		}
		acct.DeleteSent()
		if err := maybeEmitMarker(ctx, dest, acct, int64(i)); err != nil {
			return err
		}
		reportProgress(bar, acct)
	}

	for i, c := range plan.Creates {
		if err := executeCreate(ctx, source, dest, c, dryRun, acct); err != nil {
			return err
		}
		if err := maybeEmitMarker(ctx, dest, acct, int64(i)); err != nil {
			return err
		}
		reportProgress(bar, acct)
	}

	if err := finalMarker(ctx, dest, acct); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}

func executeCreate(ctx context.Context, source, dest transport.Conn, c createPlan, dryRun bool, acct *accounting.Accountant) error {
	switch c.Details.Kind {
	case common.EEntityKind.Folder():
		if !dryRun {
			if err := createFolder(ctx, dest, c.Path); err != nil {
				return err
			}
		}
		acct.CopySent(c.Details.Kind, 0)
	case common.EEntityKind.Symlink():
		if !dryRun {
			if err := createSymlink(ctx, dest, c.Path, c.Details.Target, c.Details.LinkKind); err != nil {
				return err
			}
		}
		acct.CopySent(c.Details.Kind, 0)
	default:
		if !dryRun {
			if err := copyFile(ctx, source, dest, c.Path, c.Details.Size, c.Details, acct); err != nil {
				return err
			}
		} else {
			acct.CopySent(c.Details.Kind, c.Details.Size)
		}
	}
	return nil
}

func reportProgress(bar *accounting.Bar, acct *accounting.Accountant) {
	if bar == nil {
		return
	}
	total, _, completed := acct.Snapshot()
	bar.Update(acct.MarkerPhaseKind(), completed, total, -1, "")
}
