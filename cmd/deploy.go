package cmd

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/syncspec"
	"github.com/gryfn-io/rjrssync/transport"
)

// localDoerBufSize bounds the in-flight command queue between the
// boss and a same-process doer (spec §4.4 backpressure).
const localDoerBufSize = 64

// Deployer connects to one side of a sync. A local Location is always
// handled in-process; a remote one (Location.Host != "") is bootstrap
// and exec'd over SSH by whatever Deployer is wired in - SSH deploy is
// an external collaborator this repository does not implement (spec
// §1), so the narrow interface is the full extent of what lives here.
type Deployer interface {
	Connect(ctx context.Context, loc syncspec.Location, remotePort uint16, sshIdentityFile string, behaviour common.DeployBehaviour) (transport.Conn, error)
}

// unimplementedDeployer is the Deployer wired in by default: it serves
// every local Location (the common case, and the only one the test
// suite and the bundled --doer reentry point exercise) and reports a
// ConfigError for anything remote, rather than pretending to support
// SSH bootstrap it doesn't have.
type unimplementedDeployer struct{}

func (unimplementedDeployer) Connect(ctx context.Context, loc syncspec.Location, remotePort uint16, sshIdentityFile string, behaviour common.DeployBehaviour) (transport.Conn, error) {
	if loc.IsLocal() {
		return localDoerConn(ctx), nil
	}
	return nil, common.NewSyncError(common.ConfigError, errors.Errorf(
		"%q is a remote location but this build has no deploy connector wired in; SSH bootstrap is an external collaborator (see SPEC_FULL.md §1)", loc))
}

// localDoerConn spins up an in-process doer goroutine and returns the
// boss-side Conn connected to it. The goroutine exits once the boss
// sends Shutdown (or the Conn is closed), matching the lifetime the
// --doer subprocess reentry point gives a remote doer.
func localDoerConn(ctx context.Context) transport.Conn {
	bossConn, doerConn := transport.InProcess(localDoerBufSize)
	go runLocalDoer(ctx, doerConn)
	return bossConn
}
