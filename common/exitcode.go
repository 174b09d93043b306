package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// ExitCode enumerates the process exit codes spec §6 requires to remain
// stable across releases.
var EExitCode = ExitCode(0)

type ExitCode uint8

func (ExitCode) Success() ExitCode                 { return ExitCode(0) }
func (ExitCode) SourceConnectFailure() ExitCode     { return ExitCode(10) }
func (ExitCode) DestConnectFailure() ExitCode       { return ExitCode(11) }
func (ExitCode) SyncFailure() ExitCode              { return ExitCode(12) }
func (ExitCode) SpecResolutionFailure() ExitCode    { return ExitCode(18) }
func (ExitCode) EmbeddedBinariesListingFailure() ExitCode { return ExitCode(19) }

func (c ExitCode) String() string {
	return enum.StringInt(c, reflect.TypeOf(c))
}
