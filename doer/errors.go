package doer

import (
	"fmt"

	"github.com/gryfn-io/rjrssync/wireproto"
)

func errUnexpectedKind(k wireproto.Kind) error {
	return fmt.Errorf("unexpected message kind %s", k)
}

func errNoOpenWrite(path string) error {
	return fmt.Errorf("no open write for %q (missing WriteFileStart)", path)
}
