package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Options is the user-facing, uncompiled configuration of one rule.
type Options struct {
	ExcludedSupertypes []string `yaml:"excluded_supertypes" json:"excluded_supertypes,omitempty"`
	IgnoreAnonymous    bool     `yaml:"ignore_anonymous" json:"ignore_anonymous,omitempty"`
}

// Compile validates the options. Malformed patterns fail here, never
// during traversal.
func (o Options) Compile(ruleID string) (Config, error) {
	p, err := CompilePatterns(o.ExcludedSupertypes)
	if err != nil {
		return Config{}, fmt.Errorf("rule %s: %w", ruleID, err)
	}
	return Config{Excluded: p, IgnoreAnonymous: o.IgnoreAnonymous}, nil
}

type Settings struct {
	SeverityThreshold string
	Disabled          map[string]bool    // UPPER(ruleID) -> disabled
	Options           map[string]Options // UPPER(ruleID) -> options
}

func DefaultSettings() Settings {
	return Settings{
		SeverityThreshold: "LOW",
		Disabled:          map[string]bool{},
		Options:           map[string]Options{},
	}
}

// Normalize fills defaults and upper-cases rule keys.
func (s Settings) Normalize() Settings {
	out := DefaultSettings()
	if t := strings.ToUpper(strings.TrimSpace(s.SeverityThreshold)); t != "" {
		out.SeverityThreshold = t
	}
	for id, off := range s.Disabled {
		out.Disabled[key(id)] = off
	}
	for id, o := range s.Options {
		out.Options[key(id)] = o
	}
	return out
}

// Enabled reports whether r is switched on and at or above the threshold.
func (s Settings) Enabled(r Rule) bool {
	if s.Disabled[key(r.ID)] {
		return false
	}
	return SeverityRank(r.Severity) >= SeverityRank(s.SeverityThreshold)
}

func (s Settings) OptionsFor(id string) Options {
	return s.Options[key(id)]
}

// DisabledList returns the disabled rule IDs, upper-cased and sorted.
func (s Settings) DisabledList() []string {
	var out []string
	for id, off := range s.Disabled {
		if off {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func SeverityRank(sev string) int {
	switch strings.ToUpper(strings.TrimSpace(sev)) {
	case "HIGH":
		return 3
	case "MEDIUM":
		return 2
	default:
		return 1 // LOW or unknown → LOW
	}
}

func key(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }
