package cmd

import (
	"context"
	"os"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/doer"
	"github.com/gryfn-io/rjrssync/transport"
)

// runLocalDoer drives a Doer bound to conn until the boss shuts it
// down or the connection closes. Log output from a collocated doer
// goes through the same run logger as the boss side.
func runLocalDoer(ctx context.Context, conn transport.Conn) {
	d := doer.New(conn, logger)
	_ = d.Run(ctx)
}

// runDoerMode implements the hidden --doer re-entry point (spec §9,
// "self-as-doer reentry"): the process reads/writes framed wireproto
// messages on stdin/stdout instead of parsing sync flags, exactly the
// shape an SSH-opened pipe to a remote copy of this binary would
// drive. It never returns until the boss disconnects.
func runDoerMode(ctx context.Context) error {
	conn := transport.Stdio(os.Stdin, os.Stdout, nil)
	defer conn.Close()
	d := doer.New(conn, common.NopLogger{})
	return d.Run(ctx)
}
