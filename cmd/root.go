// Package cmd wires the external interfaces spec §6 describes onto the
// engine packages (syncspec, boss, transport, accounting, common): flag
// parsing, the spec-file/config-file/CLI precedence chain, the
// progress bar, and process exit codes. Only this package imports
// cobra; the YAML spec-file and TOML config-file parsers live in
// syncspec, and boss, doer and transport import neither.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gryfn-io/rjrssync/accounting"
	"github.com/gryfn-io/rjrssync/boss"
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/syncspec"
)

// exitCodeError lets a handful of CLI-only failure paths (notably
// --list-embedded-binaries) name an exact process exit code without
// forcing a new common.ErrorKind into the engine's error taxonomy for
// something that never happens inside a sync.
type exitCodeError struct {
	code common.ExitCode
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// Flag-backed state, mirroring the teacher's root.go package-level
// variable style (azcopyOutputFormat, azcopyMaxFileAndSocketHandles,
// etc.) rather than threading everything through cobra's Context.
var (
	flagSpecFile       string
	flagFilters        []string
	flagDryRun         bool
	flagNoProgress     bool
	flagStats          bool
	flagQuiet          bool
	flagVerbose        bool
	flagRemotePort     uint16
	flagSSHIdentity    string
	flagConfigPath     string
	flagDoerMode       bool
	flagListEmbedded   bool
	flagGenAutocomplete string

	flagDeploy         = common.EDeployBehaviour.Prompt()
	flagDestFileNewer  common.FileUpdateBehaviour
	flagDestFileOlder  common.FileUpdateBehaviour
	flagFilesSameTime  common.FileUpdateBehaviour
	flagDestEntryDel   common.EntryDeletingBehaviour
	flagDestRootDel    common.RootDeletingBehaviour
	flagAllDestructive common.AllDestructiveBehaviour

	destFileNewerSet  bool
	destFileOlderSet  bool
	filesSameTimeSet  bool
	destEntryDelSet   bool
	destRootDelSet    bool
	allDestructiveSet bool
	deploySet         bool

	logger common.ILoggerCloser = common.NopLogger{}
)

var rootCmd = &cobra.Command{
	Use:     "rjrssync <src> <dest>",
	Short:   "Fast incremental directory synchronization over a shell-opened transport",
	Long: `rjrssync makes a destination tree equivalent to a source tree with
minimum data transfer, coordinating a "boss" process against one or two
"doer" workers (local threads or remote processes reached over a shell
transport) so that syncs run at LAN speed without a preinstalled peer.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagSpecFile, "spec", "", "path to a YAML spec file describing one or more syncs (mutually exclusive with positional src/dest)")
	flags.StringArrayVar(&flagFilters, "filter", nil, "an include (+RE) or exclude (-RE) filter rule, evaluated in the order given; repeatable")
	flags.BoolVar(&flagDryRun, "dry-run", false, "report what would be done without changing the destination")
	flags.BoolVar(&flagNoProgress, "no-progress", false, "suppress the live progress bar")
	flags.BoolVar(&flagStats, "stats", false, "print an actions summary (files copied/deleted, bytes transferred) after each sync")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational log output (mutually exclusive with --verbose)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "emit debug-level log output (mutually exclusive with --quiet)")
	flags.Uint16Var(&flagRemotePort, "remote-port", 0, "TCP port used to reach a remote doer, when the configured Deployer needs one")
	flags.StringVar(&flagSSHIdentity, "ssh-identity-file", "", "SSH identity file passed through to the configured Deployer")
	flags.StringVar(&flagConfigPath, "config", "", "path to the optional local defaults file (default: ~/.rjrssync.toml if present)")
	flags.BoolVar(&flagListEmbedded, "list-embedded-binaries", false, "list peer binaries embedded in this build for remote deploy")
	flags.StringVar(&flagGenAutocomplete, "generate-auto-complete-script", "", "print a shell completion script for the given shell (bash|zsh|fish|powershell) and exit")

	varP(rootCmd, newEnumFlag(&flagDeployWrap{}, func() string { return flagDeploy.String() }, "behaviour"), "deploy", "", "how to handle deploying a peer binary to a remote host: prompt|error|ok|force")
	varP(rootCmd, newEnumFlag(&flagDestFileNewerWrap{}, func() string { return flagDestFileNewer.String() }, "behaviour"), "dest-file-newer", "", "behaviour when the dest copy of a file is newer than the source copy: prompt|error|skip|overwrite")
	varP(rootCmd, newEnumFlag(&flagDestFileOlderWrap{}, func() string { return flagDestFileOlder.String() }, "behaviour"), "dest-file-older", "", "behaviour when the dest copy of a file is older than the source copy: prompt|error|skip|overwrite")
	varP(rootCmd, newEnumFlag(&flagFilesSameTimeWrap{}, func() string { return flagFilesSameTime.String() }, "behaviour"), "files-same-time", "", "behaviour when source and dest copies of a file share a modified time: prompt|error|skip|overwrite")
	varP(rootCmd, newEnumFlag(&flagDestEntryDelWrap{}, func() string { return flagDestEntryDel.String() }, "behaviour"), "dest-entry-needs-deleting", "", "behaviour when a dest entry has no source counterpart: prompt|error|skip|delete")
	varP(rootCmd, newEnumFlag(&flagDestRootDelWrap{}, func() string { return flagDestRootDel.String() }, "behaviour"), "dest-root-needs-deleting", "", "behaviour when the dest root must be replaced wholesale: prompt|error|skip|delete")
	varP(rootCmd, newEnumFlag(&flagAllDestructiveWrap{}, func() string { return flagAllDestructive.String() }, "behaviour"), "all-destructive-behaviour", "", "override every destructive behaviour at once: prompt|error|skip|proceed")

	// Hidden self-as-doer reentry point (spec §9): the process re-enters
	// itself in doer mode, reading/writing framed wireproto messages on
	// stdio instead of parsing sync arguments. This is the "peer binary"
	// a real SSH-deploy collaborator would exec on the remote end.
	flags.BoolVar(&flagDoerMode, "doer", false, "internal: run as a doer reading/writing framed messages on stdio")
	_ = flags.MarkHidden("doer")
}

// The enum flag wrappers below give each package-level Behaviour var
// its own Parse method, which parses into that var and records in the
// matching ...Set flag that the option was given on the command line,
// so buildCLIOverrides can tell an explicit flag from a default.
type flagDeployWrap struct{}

func (flagDeployWrap) Parse(s string) error {
	if err := flagDeploy.Parse(s); err != nil {
		return err
	}
	deploySet = true
	return nil
}

type flagDestFileNewerWrap struct{}

func (flagDestFileNewerWrap) Parse(s string) error {
	if err := flagDestFileNewer.Parse(s); err != nil {
		return err
	}
	destFileNewerSet = true
	return nil
}

type flagDestFileOlderWrap struct{}

func (flagDestFileOlderWrap) Parse(s string) error {
	if err := flagDestFileOlder.Parse(s); err != nil {
		return err
	}
	destFileOlderSet = true
	return nil
}

type flagFilesSameTimeWrap struct{}

func (flagFilesSameTimeWrap) Parse(s string) error {
	if err := flagFilesSameTime.Parse(s); err != nil {
		return err
	}
	filesSameTimeSet = true
	return nil
}

type flagDestEntryDelWrap struct{}

func (flagDestEntryDelWrap) Parse(s string) error {
	if err := flagDestEntryDel.Parse(s); err != nil {
		return err
	}
	destEntryDelSet = true
	return nil
}

type flagDestRootDelWrap struct{}

func (flagDestRootDelWrap) Parse(s string) error {
	if err := flagDestRootDel.Parse(s); err != nil {
		return err
	}
	destRootDelSet = true
	return nil
}

type flagAllDestructiveWrap struct{}

func (flagAllDestructiveWrap) Parse(s string) error {
	if err := flagAllDestructive.Parse(s); err != nil {
		return err
	}
	allDestructiveSet = true
	return nil
}

// Execute runs the CLI and returns the process exit code spec §6
// requires (0 success, 10/11/12/18/19 on the various failure kinds).
// main() is expected to do nothing but os.Exit(cmd.Execute()).
func Execute() int {
	err := rootCmd.Execute()
	dumpPeakMemoryUsageIfRequested()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ece *exitCodeError
		if errors.As(err, &ece) {
			return int(ece.code)
		}
		return int(common.ExitCodeFor(err))
	}
	return int(common.EExitCode.Success())
}

// dumpPeakMemoryUsageIfRequested implements RJRSSYNC_TEST_DUMP_MEMORY_USAGE
// (spec §6): printed on exit, used by benchmarking harnesses that have no
// other reliable way to measure a remote doer's memory use.
func dumpPeakMemoryUsageIfRequested() {
	if _, ok := os.LookupEnv("RJRSSYNC_TEST_DUMP_MEMORY_USAGE"); !ok {
		return
	}
	n, err := peakMemoryUsageBytes()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read peak memory usage:", err)
		return
	}
	fmt.Printf("Boss peak memory usage: %d\n", n)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flagDoerMode {
		return runDoerMode(ctx)
	}
	if flagGenAutocomplete != "" {
		return generateAutocompleteScript(cmd, flagGenAutocomplete)
	}
	if flagListEmbedded {
		return listEmbeddedBinaries()
	}
	if flagQuiet && flagVerbose {
		return common.NewSyncError(common.ConfigError, fmt.Errorf("--quiet and --verbose are mutually exclusive"))
	}

	overrides, err := buildCLIOverrides(args)
	if err != nil {
		return common.NewSyncError(common.ConfigError, err)
	}

	resolved, err := syncspec.Resolve(*overrides)
	if err != nil {
		return common.NewSyncError(common.ConfigError, err)
	}

	runID := common.NewRunID()
	logger, err = common.NewRunLogger(runID, logLevel(), defaultLogDir())
	if err != nil {
		return common.NewSyncError(common.ConfigError, err)
	}
	defer logger.Close()

	hooks := buildUIHooks()

	var total boss.ActionsSummary
	for i, spec := range resolved.Syncs {
		var bar *accounting.Bar
		if !flagNoProgress && !flagQuiet {
			bar = accounting.NewBar(os.Stderr)
		}

		summary, err := runOneSync(ctx, spec, resolved.DeployBehaviour, hooks, bar)
		if bar != nil {
			bar.Finish()
			bar.Stop()
		}
		if err != nil {
			return err
		}
		total = total.Add(summary)
		if flagStats {
			printSummary(fmt.Sprintf("sync[%d] %s -> %s", i, spec.Source, spec.Dest), summary)
		}
	}
	if flagStats && len(resolved.Syncs) > 1 {
		printSummary("total", total)
	}
	return nil
}

// runOneSync connects both sides of one SyncSpec via the configured
// Deployer and drives boss.Run to completion.
func runOneSync(ctx context.Context, spec syncspec.SyncSpec, deployBehaviour common.DeployBehaviour, hooks *common.UIHooks, bar *accounting.Bar) (boss.ActionsSummary, error) {
	deployer := Deployer(unimplementedDeployer{})

	source, err := deployer.Connect(ctx, spec.Source, flagRemotePort, flagSSHIdentity, deployBehaviour)
	if err != nil {
		return boss.ActionsSummary{}, err
	}
	dest, err := deployer.Connect(ctx, spec.Dest, flagRemotePort, flagSSHIdentity, deployBehaviour)
	if err != nil {
		source.Close()
		return boss.ActionsSummary{}, err
	}

	return boss.Run(ctx, source, dest, spec, hooks, bar)
}

func buildCLIOverrides(args []string) (*syncspec.CLIOverrides, error) {
	o := &syncspec.CLIOverrides{
		SpecFilePath: flagSpecFile,
		ConfigPath:   flagConfigPath,
		Filters:      flagFilters,
		DryRun:       flagDryRun,
	}
	if len(args) > 0 {
		o.SrcArg = args[0]
	}
	if len(args) > 1 {
		o.DestArg = args[1]
	}
	if deploySet {
		o.Deploy = &flagDeploy
	}
	if destFileNewerSet {
		o.DestFileNewer = &flagDestFileNewer
	}
	if destFileOlderSet {
		o.DestFileOlder = &flagDestFileOlder
	}
	if filesSameTimeSet {
		o.FilesSameTime = &flagFilesSameTime
	}
	if destEntryDelSet {
		o.DestEntryNeedsDeleting = &flagDestEntryDel
	}
	if destRootDelSet {
		o.DestRootNeedsDeleting = &flagDestRootDel
	}
	if allDestructiveSet {
		o.AllDestructive = &flagAllDestructive
	}
	return o, nil
}

func logLevel() common.LogLevel {
	switch {
	case flagVerbose:
		return common.ELogLevel.Debug()
	case flagQuiet:
		return common.ELogLevel.None()
	default:
		return common.ELogLevel.Warning()
	}
}

// defaultLogDir returns "" (logging disabled) unless RJRSSYNC_LOG_DIR is
// set; there is no always-on log directory because a CLI tool shouldn't
// write files a user didn't ask for.
func defaultLogDir() string {
	return os.Getenv("RJRSSYNC_LOG_DIR")
}

// buildUIHooks wires the prompt callback spec §4.1 describes: an
// interactive terminal prompt by default, overridden per-rule by
// RJRSSYNC_TEST_PROMPT_RESPONSE (spec §6) so CI never blocks on stdin.
func buildUIHooks() *common.UIHooks {
	h := common.NewUIHooks()
	h.Info = func(msg string) {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	h.Warn = func(msg string) {
		fmt.Fprintln(os.Stderr, "warning:", msg)
	}

	interactive := func(message string, details common.PromptDetails) common.ResponseOption {
		fmt.Fprintf(os.Stderr, "%s [y]es/[n]o/yes-to-[a]ll/no-to-a[ll]: ", message)
		var line string
		fmt.Scanln(&line)
		switch strings.TrimSpace(line) {
		case "a", "A":
			return common.EResponseOption.YesForAll()
		case "ll", "LL", "never":
			return common.EResponseOption.NoForAll()
		case "y", "Y", "yes", "":
			return common.EResponseOption.Yes()
		default:
			return common.EResponseOption.No()
		}
	}

	rules, err := parsePromptResponseEnv(os.Getenv("RJRSSYNC_TEST_PROMPT_RESPONSE"))
	if err != nil {
		h.Warn(err.Error())
		h.Prompt = interactive
		return h
	}
	h.Prompt = testPrompt(rules, interactive)
	return h
}

func printSummary(label string, s boss.ActionsSummary) {
	verb := "would copy/delete"
	if !s.DryRun {
		verb = "copied/deleted"
	}
	fmt.Printf("%s: %s %d folder(s), %d file(s) (%d skipped), %d symlink(s) created; %d file(s), %d folder(s), %d symlink(s) deleted; %s in %s\n",
		label, verb, s.FoldersCreated, s.FilesCopied, s.FilesSkipped, s.SymlinksCreated,
		s.FilesDeleted, s.FoldersDeleted, s.SymlinksDeleted, humanizeBytes(s.BytesCopied), s.Elapsed.Round(time.Millisecond))
}

func humanizeBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatUint(n, 10) + "B"
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// listEmbeddedBinaries implements --list-embedded-binaries (spec §6).
// This build embeds no peer binaries: SSH bootstrap/deploy is an
// external collaborator this repository does not implement (SPEC_FULL
// §1, §2.2), so there is nothing to list. Exit 19 per spec rather than
// silently succeeding with an empty list, since the user explicitly
// asked for a listing this build cannot provide.
func listEmbeddedBinaries() error {
	return &exitCodeError{
		code: common.EExitCode.EmbeddedBinariesListingFailure(),
		err: fmt.Errorf(
			"this build embeds no peer binaries for remote deploy; SSH bootstrap is an external collaborator not implemented by this repository"),
	}
}

func generateAutocompleteScript(cmd *cobra.Command, shell string) error {
	root := cmd.Root()
	switch strings.ToLower(shell) {
	case "bash":
		return root.GenBashCompletionV2(os.Stdout, true)
	case "zsh":
		return root.GenZshCompletion(os.Stdout)
	case "fish":
		return root.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return common.NewSyncError(common.ConfigError, fmt.Errorf("unsupported shell %q for --generate-auto-complete-script", shell))
	}
}
