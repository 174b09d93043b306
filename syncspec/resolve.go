package syncspec

import (
	"github.com/pkg/errors"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/filter"
)

// CLIOverrides is the parsed, not-yet-merged set of everything the
// command line can supply (SPEC_FULL §3.1, precedence layer 4). cmd/
// populates this from cobra flags; this package never imports cobra.
type CLIOverrides struct {
	// Positional src/dest, mutually exclusive with SpecFilePath.
	SrcArg, DestArg string
	SpecFilePath    string

	ConfigPath string // --config, "" means use DefaultUserConfigPath()
	Filters    []string
	DryRun     bool

	AllDestructive *common.AllDestructiveBehaviour

	DestFileNewer          *common.FileUpdateBehaviour
	DestFileOlder          *common.FileUpdateBehaviour
	FilesSameTime          *common.FileUpdateBehaviour
	DestEntryNeedsDeleting *common.EntryDeletingBehaviour
	DestRootNeedsDeleting  *common.RootDeletingBehaviour
	Deploy                 *common.DeployBehaviour
}

// Resolved is the final output of merging every configuration layer:
// the ordered list of syncs to run, plus the deploy behavior that
// governs any remote peer that needs deploying.
type Resolved struct {
	Syncs           []SyncSpec
	DeployBehaviour common.DeployBehaviour
}

// Resolve merges built-in defaults, the optional user config file, the
// optional --spec file, and CLI overrides into a final Resolved value,
// per the precedence chain in SPEC_FULL §3.1. Exactly one of
// o.SpecFilePath or (o.SrcArg and o.DestArg) must be set.
func Resolve(o CLIOverrides) (*Resolved, error) {
	if o.SpecFilePath != "" && (o.SrcArg != "" || o.DestArg != "") {
		return nil, errors.New("--spec is mutually exclusive with positional src/dest arguments")
	}

	configPath := o.ConfigPath
	if configPath == "" {
		configPath = DefaultUserConfigPath()
	}
	var cfg *UserConfig
	if configPath != "" {
		var err error
		cfg, err = LoadUserConfig(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &UserConfig{}
	}

	deploy := common.EDeployBehaviour.Prompt()
	if v, ok, err := cfg.DeployBehaviourOverride(); err != nil {
		return nil, err
	} else if ok {
		deploy = v
	}

	var result Resolved

	if o.SpecFilePath != "" {
		sf, err := ParseSpecFile(o.SpecFilePath)
		if err != nil {
			return nil, err
		}
		deploy = sf.DeployBehaviour
		for _, entry := range sf.Syncs {
			spec, err := buildFromSpecFileEntry(entry, sf, cfg, o)
			if err != nil {
				return nil, err
			}
			result.Syncs = append(result.Syncs, spec)
		}
	} else {
		src, err := ParseLocation(o.SrcArg)
		if err != nil {
			return nil, errors.Wrap(err, "src")
		}
		dest, err := ParseLocation(o.DestArg)
		if err != nil {
			return nil, errors.Wrap(err, "dest")
		}
		filters, err := filter.ParseList(o.Filters)
		if err != nil {
			return nil, err
		}
		behaviors := DefaultBehaviors()
		if err := cfg.ApplyTo(&behaviors); err != nil {
			return nil, err
		}
		applyCLIBehaviorOverrides(&behaviors, o, specProvided{})
		result.Syncs = append(result.Syncs, SyncSpec{
			Source: src, Dest: dest, Filters: filters, Behaviors: behaviors, DryRun: o.DryRun,
		})
	}

	if o.Deploy != nil {
		deploy = *o.Deploy
	}
	result.DeployBehaviour = deploy
	return &result, nil
}

// specProvided tracks, for one sync entry, which behavior fields the
// spec file explicitly set - needed because --all-destructive-behaviour
// only overrides a spec-provided value when that value isn't Skip
// (SPEC_FULL §3.1).
type specProvided struct {
	destFileNewer, destFileOlder, filesSameTime  bool
	destEntryNeedsDeleting, destRootNeedsDeleting bool
}

func buildFromSpecFileEntry(entry SyncSpecEntry, sf *SpecFile, cfg *UserConfig, o CLIOverrides) (SyncSpec, error) {
	src, err := ParseLocation(entry.Src)
	if err != nil {
		return SyncSpec{}, errors.Wrap(err, "src")
	}
	src.User, src.Host = firstNonEmpty(src.User, sf.SrcUsername), firstNonEmpty(src.Host, sf.SrcHostname)

	dest, err := ParseLocation(entry.Dest)
	if err != nil {
		return SyncSpec{}, errors.Wrap(err, "dest")
	}
	dest.User, dest.Host = firstNonEmpty(dest.User, sf.DestUsername), firstNonEmpty(dest.Host, sf.DestHostname)

	rawFilters := entry.Filters
	if len(o.Filters) > 0 {
		rawFilters = append(append([]string{}, rawFilters...), o.Filters...)
	}
	filters, err := filter.ParseList(rawFilters)
	if err != nil {
		return SyncSpec{}, err
	}

	behaviors := DefaultBehaviors()
	if err := cfg.ApplyTo(&behaviors); err != nil {
		return SyncSpec{}, err
	}

	var provided specProvided
	if entry.DestFileNewer != nil {
		behaviors.DestFileNewer = *entry.DestFileNewer
		provided.destFileNewer = true
	}
	if entry.DestFileOlder != nil {
		behaviors.DestFileOlder = *entry.DestFileOlder
		provided.destFileOlder = true
	}
	if entry.FilesSameTime != nil {
		behaviors.FilesSameTime = *entry.FilesSameTime
		provided.filesSameTime = true
	}
	if entry.DestEntryNeedsDeleting != nil {
		behaviors.DestEntryNeedsDeleting = *entry.DestEntryNeedsDeleting
		provided.destEntryNeedsDeleting = true
	}
	if entry.DestRootNeedsDeleting != nil {
		behaviors.DestRootNeedsDeleting = *entry.DestRootNeedsDeleting
		provided.destRootNeedsDeleting = true
	}

	applyCLIBehaviorOverrides(&behaviors, o, provided)

	return SyncSpec{Source: src, Dest: dest, Filters: filters, Behaviors: behaviors, DryRun: o.DryRun}, nil
}

// applyCLIBehaviorOverrides applies layer 4 (CLI flags) on top of
// whatever layers 1-3 produced, honoring --all-destructive-behaviour's
// special-cased precedence (SPEC_FULL §3.1): it overrides a
// spec-provided value only when that value isn't Skip, and is itself
// always overridden by an explicit per-behavior flag.
func applyCLIBehaviorOverrides(b *Behaviors, o CLIOverrides, provided specProvided) {
	if o.AllDestructive != nil {
		all := *o.AllDestructive
		if !(provided.destFileNewer && b.DestFileNewer == common.EFileUpdateBehaviour.Skip()) {
			b.DestFileNewer = all.AsFileUpdateBehaviour()
		}
		if !(provided.destFileOlder && b.DestFileOlder == common.EFileUpdateBehaviour.Skip()) {
			b.DestFileOlder = all.AsFileUpdateBehaviour()
		}
		if !(provided.filesSameTime && b.FilesSameTime == common.EFileUpdateBehaviour.Skip()) {
			b.FilesSameTime = all.AsFileUpdateBehaviour()
		}
		if !(provided.destEntryNeedsDeleting && b.DestEntryNeedsDeleting == common.EEntryDeletingBehaviour.Skip()) {
			b.DestEntryNeedsDeleting = all.AsEntryDeletingBehaviour()
		}
		if !(provided.destRootNeedsDeleting && b.DestRootNeedsDeleting == common.ERootDeletingBehaviour.Skip()) {
			b.DestRootNeedsDeleting = all.AsRootDeletingBehaviour()
		}
	}

	if o.DestFileNewer != nil {
		b.DestFileNewer = *o.DestFileNewer
	}
	if o.DestFileOlder != nil {
		b.DestFileOlder = *o.DestFileOlder
	}
	if o.FilesSameTime != nil {
		b.FilesSameTime = *o.FilesSameTime
	}
	if o.DestEntryNeedsDeleting != nil {
		b.DestEntryNeedsDeleting = *o.DestEntryNeedsDeleting
	}
	if o.DestRootNeedsDeleting != nil {
		b.DestRootNeedsDeleting = *o.DestRootNeedsDeleting
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
