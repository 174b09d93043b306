package cmd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gryfn-io/rjrssync/common"
)

// promptResponseRule is one "count:regex:response" triple from
// RJRSSYNC_TEST_PROMPT_RESPONSE (spec §6): up to count prompts whose
// message matches regex are answered with response instead of
// reaching a real interactive prompt, so CI and scripted tests never
// block on stdin.
type promptResponseRule struct {
	remaining int
	re        *regexp.Regexp
	response  common.ResponseOption
}

// parsePromptResponseEnv parses the whole RJRSSYNC_TEST_PROMPT_RESPONSE
// value: one or more triples separated by commas.
func parsePromptResponseEnv(raw string) ([]*promptResponseRule, error) {
	if raw == "" {
		return nil, nil
	}
	var rules []*promptResponseRule
	for _, triple := range strings.Split(raw, ",") {
		parts := strings.SplitN(triple, ":", 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("RJRSSYNC_TEST_PROMPT_RESPONSE: %q is not count:regex:response", triple)
		}
		count, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Wrapf(err, "RJRSSYNC_TEST_PROMPT_RESPONSE: bad count in %q", triple)
		}
		re, err := regexp.Compile(parts[1])
		if err != nil {
			return nil, errors.Wrapf(err, "RJRSSYNC_TEST_PROMPT_RESPONSE: bad regex in %q", triple)
		}
		resp, err := parseResponseOption(parts[2])
		if err != nil {
			return nil, errors.Wrapf(err, "RJRSSYNC_TEST_PROMPT_RESPONSE: %q", triple)
		}
		rules = append(rules, &promptResponseRule{remaining: count, re: re, response: resp})
	}
	return rules, nil
}

func parseResponseOption(s string) (common.ResponseOption, error) {
	switch strings.ToLower(s) {
	case "yes":
		return common.EResponseOption.Yes(), nil
	case "no":
		return common.EResponseOption.No(), nil
	case "yesforall":
		return common.EResponseOption.YesForAll(), nil
	case "noforall":
		return common.EResponseOption.NoForAll(), nil
	default:
		return 0, errors.Errorf("unrecognized response %q", s)
	}
}

// testPrompt returns a UIHooks.Prompt implementation that consults
// rules before falling back to fallback, consuming one use of the
// first matching rule with remaining budget left.
func testPrompt(rules []*promptResponseRule, fallback func(string, common.PromptDetails) common.ResponseOption) func(string, common.PromptDetails) common.ResponseOption {
	return func(message string, details common.PromptDetails) common.ResponseOption {
		for _, r := range rules {
			if r.remaining > 0 && r.re.MatchString(message) {
				r.remaining--
				return r.response
			}
		}
		return fallback(message, details)
	}
}
