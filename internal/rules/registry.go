package rules

import (
	"sort"
)

// The catalog holds the built-in rules; each rule file registers itself
// from init. Engines pick what they activate from here.
var (
	registry  []Rule
	ruleIndex = map[string]int{} // UPPER(ruleID) -> index
)

// Register adds r to the catalog. Re-registering an ID replaces it.
func Register(r Rule) {
	if i, ok := ruleIndex[key(r.ID)]; ok {
		registry[i] = r
		return
	}
	registry = append(registry, r)
	ruleIndex[key(r.ID)] = len(registry) - 1
}

// List returns every catalog rule sorted by ID.
func List() []Rule {
	out := append([]Rule(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Enabled returns the catalog rules the settings switch on.
func Enabled(s Settings) []Rule {
	var out []Rule
	for _, r := range List() {
		if s.Enabled(r) {
			out = append(out, r)
		}
	}
	return out
}

// Get returns a rule by ID if registered.
func Get(id string) (Rule, bool) {
	idx, ok := ruleIndex[key(id)]
	if !ok || idx < 0 || idx >= len(registry) {
		return Rule{}, false
	}
	return registry[idx], true
}
