// Package pattern applies ignore and replacement rules to raw links.
package pattern

import (
	"fmt"
	"regexp"

	"github.com/boillodmanuel/markdown-link-check/config"
)

type replacement struct {
	re   *regexp.Regexp
	with string
}

// Rules is a compiled set of ignore and replacement rules. It is immutable
// and safe for concurrent use.
type Rules struct {
	ignore  []*regexp.Regexp
	replace []replacement
}

// Compile compiles the configured rules. A malformed expression is returned
// as a *config.Error.
func Compile(ignore []config.IgnorePattern, replace []config.ReplacementPattern) (*Rules, error) {
	rules := &Rules{}
	for i, p := range replace {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, &config.Error{Field: fmt.Sprintf("replacementPatterns[%d]", i), Err: err}
		}
		rules.replace = append(rules.replace, replacement{re: re, with: p.Replacement})
	}
	for i, p := range ignore {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, &config.Error{Field: fmt.Sprintf("ignorePatterns[%d]", i), Err: err}
		}
		rules.ignore = append(rules.ignore, re)
	}
	return rules, nil
}

// Classify applies the replacement rules in order, each to its first match
// only, then tests the ignore rules against the resulting link.
func (r *Rules) Classify(raw string) (ignored bool, effective string) {
	effective = raw
	for _, rep := range r.replace {
		loc := rep.re.FindStringIndex(effective)
		if loc == nil {
			continue
		}
		effective = effective[:loc[0]] + rep.with + effective[loc[1]:]
	}
	for _, re := range r.ignore {
		if re.MatchString(effective) {
			return true, effective
		}
	}
	return false, effective
}
