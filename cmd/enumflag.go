package cmd

import "github.com/spf13/cobra"

// parser is satisfied by every behavior/enum type in this repo: each
// has a pointer-receiver Parse(string) error and a value-receiver
// String() string, the shape enum.Parse/enum.StringInt produce.
type parser interface {
	Parse(string) error
}

// enumFlag adapts one of our JeffreyRichter/enum-style types to
// pflag.Value so it can be registered directly as a cobra flag,
// rather than parsing a string flag by hand in PersistentPreRunE.
type enumFlag struct {
	value    parser
	stringer func() string
	typeName string
}

func newEnumFlag(value parser, stringer func() string, typeName string) *enumFlag {
	return &enumFlag{value: value, stringer: stringer, typeName: typeName}
}

func (f *enumFlag) String() string {
	if f.stringer == nil {
		return ""
	}
	return f.stringer()
}

func (f *enumFlag) Set(s string) error { return f.value.Parse(s) }
func (f *enumFlag) Type() string       { return f.typeName }

// varP registers an enumFlag the same way cmd.Flags().VarP does,
// avoiding repeating the same four lines at every call site in root.go.
func varP(cmd *cobra.Command, flag *enumFlag, name, shorthand, usage string) {
	cmd.Flags().VarP(flag, name, shorthand, usage)
}
