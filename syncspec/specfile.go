package syncspec

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gryfn-io/rjrssync/common"
)

// specFileYAML mirrors the shape spec §6 documents for --spec. Fields
// use yaml.v3's KnownFields(true) decoding (set in ParseSpecFile) so an
// unrecognized top-level key is a hard error, matching
// original_source/boss_frontend.rs's parse_spec_file hand-rolled
// "unexpected key" checks without needing to hand-roll them here.
type specFileYAML struct {
	SrcHostname     string         `yaml:"src_hostname"`
	SrcUsername     string         `yaml:"src_username"`
	DestHostname    string         `yaml:"dest_hostname"`
	DestUsername    string         `yaml:"dest_username"`
	DeployBehaviour string         `yaml:"deploy_behaviour"`
	Syncs           []syncSpecYAML `yaml:"syncs"`
}

type syncSpecYAML struct {
	Src                             string   `yaml:"src"`
	Dest                            string   `yaml:"dest"`
	Filters                         []string `yaml:"filters"`
	DestFileNewerBehaviour          string   `yaml:"dest_file_newer_behaviour"`
	DestFileOlderBehaviour          string   `yaml:"dest_file_older_behaviour"`
	FilesSameTimeBehaviour          string   `yaml:"files_same_time_behaviour"`
	DestEntryNeedsDeletingBehaviour string   `yaml:"dest_entry_needs_deleting_behaviour"`
	DestRootNeedsDeletingBehaviour  string   `yaml:"dest_root_needs_deleting_behaviour"`
}

// SpecFile is the validated, still-unresolved content of a --spec YAML
// document: behavior strings are already parsed here, while
// Location/filter resolution happens in resolve.go once CLI overrides
// are known.
type SpecFile struct {
	SrcHostname     string
	SrcUsername     string
	DestHostname    string
	DestUsername    string
	DeployBehaviour common.DeployBehaviour
	Syncs           []SyncSpecEntry
}

// SyncSpecEntry is one entry of the "syncs" list, with its behavior
// strings parsed but not yet defaulted (nil means "inherit").
type SyncSpecEntry struct {
	Src                    string
	Dest                   string
	Filters                []string
	DestFileNewer          *common.FileUpdateBehaviour
	DestFileOlder          *common.FileUpdateBehaviour
	FilesSameTime          *common.FileUpdateBehaviour
	DestEntryNeedsDeleting *common.EntryDeletingBehaviour
	DestRootNeedsDeleting  *common.RootDeletingBehaviour
}

// ParseSpecFile reads and validates a --spec YAML file (spec §6):
// unknown keys and missing required fields (per-sync src/dest) are
// errors; everything else is optional.
func ParseSpecFile(path string) (*SpecFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading spec file")
	}

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	var raw specFileYAML
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parsing spec file")
	}

	sf := &SpecFile{
		SrcHostname:     raw.SrcHostname,
		SrcUsername:     raw.SrcUsername,
		DestHostname:    raw.DestHostname,
		DestUsername:    raw.DestUsername,
		DeployBehaviour: common.EDeployBehaviour.Prompt(),
	}
	if raw.DeployBehaviour != "" {
		if err := sf.DeployBehaviour.Parse(raw.DeployBehaviour); err != nil {
			return nil, errors.Wrap(err, "parsing deploy_behaviour")
		}
	}

	for i, s := range raw.Syncs {
		entry, err := parseSyncSpecEntry(s)
		if err != nil {
			return nil, errors.Wrapf(err, "syncs[%d]", i)
		}
		sf.Syncs = append(sf.Syncs, entry)
	}
	return sf, nil
}

func parseSyncSpecEntry(s syncSpecYAML) (SyncSpecEntry, error) {
	if s.Src == "" {
		return SyncSpecEntry{}, errors.New("src must be provided and non-empty")
	}
	if s.Dest == "" {
		return SyncSpecEntry{}, errors.New("dest must be provided and non-empty")
	}

	e := SyncSpecEntry{Src: s.Src, Dest: s.Dest, Filters: s.Filters}
	var err error
	if e.DestFileNewer, err = parseFileUpdateBehaviour(s.DestFileNewerBehaviour); err != nil {
		return SyncSpecEntry{}, errors.Wrap(err, "dest_file_newer_behaviour")
	}
	if e.DestFileOlder, err = parseFileUpdateBehaviour(s.DestFileOlderBehaviour); err != nil {
		return SyncSpecEntry{}, errors.Wrap(err, "dest_file_older_behaviour")
	}
	if e.FilesSameTime, err = parseFileUpdateBehaviour(s.FilesSameTimeBehaviour); err != nil {
		return SyncSpecEntry{}, errors.Wrap(err, "files_same_time_behaviour")
	}
	if s.DestEntryNeedsDeletingBehaviour != "" {
		var b common.EntryDeletingBehaviour
		if err := b.Parse(s.DestEntryNeedsDeletingBehaviour); err != nil {
			return SyncSpecEntry{}, errors.Wrap(err, "dest_entry_needs_deleting_behaviour")
		}
		e.DestEntryNeedsDeleting = &b
	}
	if s.DestRootNeedsDeletingBehaviour != "" {
		var b common.RootDeletingBehaviour
		if err := b.Parse(s.DestRootNeedsDeletingBehaviour); err != nil {
			return SyncSpecEntry{}, errors.Wrap(err, "dest_root_needs_deleting_behaviour")
		}
		e.DestRootNeedsDeleting = &b
	}
	return e, nil
}

func parseFileUpdateBehaviour(s string) (*common.FileUpdateBehaviour, error) {
	if s == "" {
		return nil, nil
	}
	var b common.FileUpdateBehaviour
	if err := b.Parse(s); err != nil {
		return nil, err
	}
	return &b, nil
}
