// Package filter implements the ordered include/exclude regex filter
// engine described in spec §4.6: the first matching rule wins; if none
// match, the decision is the negation of the first rule's polarity
// (so an empty list includes everything).
package filter

import (
	"regexp"

	"github.com/gryfn-io/rjrssync/rootpath"
)

// Polarity is whether a Rule includes or excludes matching paths.
type Polarity bool

const (
	Exclude Polarity = false
	Include Polarity = true
)

// Rule is one (+|-, regex) pair from the --filter flag or spec-file
// "filters" list.
type Rule struct {
	Polarity Polarity
	Pattern  string
	re       *regexp.Regexp
}

// NewRule parses a single filter string of the form "+REGEX" or
// "-REGEX" (spec §6).
func NewRule(s string) (Rule, error) {
	if len(s) < 1 || (s[0] != '+' && s[0] != '-') {
		return Rule{}, &ParseError{Raw: s, Reason: "filter must start with '+' or '-'"}
	}
	pattern := s[1:]
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, &ParseError{Raw: s, Reason: err.Error()}
	}
	return Rule{Polarity: s[0] == '+', Pattern: pattern, re: re}, nil
}

// String reconstructs the raw "+REGEX"/"-REGEX" form, the inverse of
// NewRule - used to re-serialize a List onto the wire in a SetRoot
// command without the doer needing to know about the regexp.Regexp
// struct it was compiled from.
func (r Rule) String() string {
	prefix := "-"
	if r.Polarity == Include {
		prefix = "+"
	}
	return prefix + r.Pattern
}

// ParseError reports a malformed filter rule string.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid filter \"" + e.Raw + "\": " + e.Reason
}

// List is an ordered sequence of filter rules.
type List struct {
	rules []Rule
}

// NewList builds a List from already-parsed rules.
func NewList(rules ...Rule) List {
	return List{rules: rules}
}

// ParseList parses a sequence of raw "+REGEX"/"-REGEX" strings in order.
func ParseList(raw []string) (List, error) {
	rules := make([]Rule, 0, len(raw))
	for _, s := range raw {
		r, err := NewRule(s)
		if err != nil {
			return List{}, err
		}
		rules = append(rules, r)
	}
	return NewList(rules...), nil
}

// Empty reports whether this is the empty filter list (includes
// everything).
func (l List) Empty() bool {
	return len(l.rules) == 0
}

// Raw returns the ordered "+REGEX"/"-REGEX" strings for this list, for
// shipping over the wire in a SetRoot command.
func (l List) Raw() []string {
	raw := make([]string, len(l.rules))
	for i, r := range l.rules {
		raw[i] = r.String()
	}
	return raw
}

// Includes evaluates the ordered rule list against a normalized
// root-relative path. The entire normalized path must match - a
// substring match is not sufficient, matching spec §6's documented
// regex semantics (we anchor the match to consume the whole string).
func (l List) Includes(path rootpath.RootRelativePath) bool {
	if l.Empty() {
		return true
	}
	s := path.String()
	for _, r := range l.rules {
		if matchesWhole(r.re, s) {
			return bool(r.Polarity)
		}
	}
	return !bool(l.rules[0].Polarity)
}

func matchesWhole(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}
