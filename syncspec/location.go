// Package syncspec holds the types and parsing logic that resolve a
// runnable sync configuration - positional CLI args, --filter flags,
// the --spec YAML file and the optional ~/.rjrssync.toml defaults file -
// into a final ordered list of SyncSpec values the boss driver consumes
// (spec §6, SPEC_FULL §3.1). None of this package's callers outside
// cmd/ need to know about cobra or YAML; the engine only ever sees the
// resolved SyncSpec.
package syncspec

import (
	"strings"

	"github.com/pkg/errors"
)

// Location is a parsed `[[user@]host:]path` positional argument (spec
// §6). An empty Host means "local filesystem".
type Location struct {
	User string
	Host string
	Path string
}

// IsLocal reports whether this Location refers to the local filesystem
// (no host was specified).
func (l Location) IsLocal() bool {
	return l.Host == ""
}

// ParseLocation implements spec §6's positional-argument grammar,
// cross-checked letter-for-letter against
// original_source/boss_frontend.rs's RemotePathDesc::from_str:
//
//   - The first ':' splits host-from-path, EXCEPT when the segment
//     before it is exactly one character and the segment after it is
//     empty or starts with '\\' (a Windows drive letter like "C:\foo"
//     or bare "C:").
//   - The first '@' within the pre-colon segment splits user-from-host.
//   - An empty user where '@' was present, or an empty host where ':'
//     was present, is an error.
//   - An empty path is always an error.
func ParseLocation(s string) (Location, error) {
	var l Location

	idx := strings.IndexByte(s, ':')
	isDriveLetter := idx == 1 && (len(s) == 2 || s[2] == '\\')
	if idx < 0 || isDriveLetter {
		l.Path = s
	} else {
		userAndHost, path := s[:idx], s[idx+1:]
		l.Path = path

		if at := strings.IndexByte(userAndHost, '@'); at >= 0 {
			l.User, l.Host = userAndHost[:at], userAndHost[at+1:]
			if l.User == "" {
				return Location{}, errors.New("Missing username")
			}
		} else {
			l.Host = userAndHost
		}
		if l.Host == "" {
			return Location{}, errors.New("Missing hostname")
		}
	}

	if l.Path == "" {
		return Location{}, errors.New("Path must be specified")
	}
	return l, nil
}

// String renders the Location back in the same `[[user@]host:]path`
// form it was parsed from.
func (l Location) String() string {
	var b strings.Builder
	if l.Host != "" {
		if l.User != "" {
			b.WriteString(l.User)
			b.WriteByte('@')
		}
		b.WriteString(l.Host)
		b.WriteByte(':')
	}
	b.WriteString(l.Path)
	return b.String()
}
