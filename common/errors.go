package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a SyncError the way spec §7 requires, so the CLI
// can map it to the right process exit code without string-sniffing the
// message.
type ErrorKind uint8

const (
	// ConfigError: CLI or spec-file problem (exit 18).
	ConfigError ErrorKind = iota
	// ConnectError: handshake/transport setup failed (exit 10 or 11).
	ConnectError
	// ProtocolError: out-of-order entries or an unexpected message.
	ProtocolError
	// IoError: a per-entry filesystem failure; carries Path and EntityKind.
	IoError
	// PolicyError: a prompt behavior resolved to Error, or was cancelled.
	PolicyError
	// Cancelled: user-initiated or propagated cancellation.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case ConnectError:
		return "ConnectError"
	case ProtocolError:
		return "ProtocolError"
	case IoError:
		return "IoError"
	case PolicyError:
		return "PolicyError"
	case Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Side identifies which doer a ConnectError happened against, so the CLI
// can pick between exit codes 10 and 11 (spec §6).
type Side uint8

const (
	SideUnspecified Side = iota
	SideSource
	SideDest
)

// SyncError is the structured error type that flows out of the engine to
// the CLI layer. Path and Entity are populated for IoError, Path also
// for PolicyError; Side is populated for ConnectError; all are the zero
// value otherwise.
type SyncError struct {
	Kind   ErrorKind
	Path   string
	Entity EntityKind
	Side   Side
	cause  error
}

func NewSyncError(kind ErrorKind, cause error) *SyncError {
	return &SyncError{Kind: kind, cause: errors.WithStack(cause)}
}

func NewIoError(path string, entity EntityKind, cause error) *SyncError {
	return &SyncError{Kind: IoError, Path: path, Entity: entity, cause: errors.WithStack(cause)}
}

func NewConnectError(side Side, cause error) *SyncError {
	return &SyncError{Kind: ConnectError, Side: side, cause: errors.WithStack(cause)}
}

func (e *SyncError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Path, e.Entity, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *SyncError) Unwrap() error {
	return e.cause
}

// Cause walks all preceding errors and returns the originating error,
// the way the teacher's common/logger.go Cause() does for its own
// wrapped-error chains.
func Cause(err error) error {
	return errors.Cause(err)
}

// ExitCodeFor maps a SyncError's Kind to the stable process exit code
// spec §6/§7 requires. Non-SyncError errors (e.g. an unexpected panic
// recovered at the top level) map to the generic sync-failure code.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return EExitCode.Success()
	}
	var se *SyncError
	if !errors.As(err, &se) {
		return EExitCode.SyncFailure()
	}
	switch se.Kind {
	case ConfigError:
		return EExitCode.SpecResolutionFailure()
	case ConnectError:
		if se.Side == SideSource {
			return EExitCode.SourceConnectFailure()
		}
		return EExitCode.DestConnectFailure()
	default:
		return EExitCode.SyncFailure()
	}
}
