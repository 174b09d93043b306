// Command rjrssync is an incremental directory-synchronization tool:
// see cmd/root.go for the CLI surface and the boss/doer/transport
// packages for the synchronization engine itself.
package main

import (
	"os"

	"github.com/gryfn-io/rjrssync/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
