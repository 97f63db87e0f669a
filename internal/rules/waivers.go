package rules

import (
	"strings"
	"time"

	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/storage"
)

// ApplyWaivers filters out issues that match any waiver active at now.
// Returns (kept, waivedCount)
func ApplyWaivers(in []ir.Issue, waivers []storage.Waiver, now time.Time) ([]ir.Issue, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	var out []ir.Issue
	waived := 0
nextIssue:
	for _, is := range in {
		for _, w := range waivers {
			if !w.Active(now) {
				continue
			}
			if !eqCI(is.RuleID, w.RuleID) {
				continue
			}
			if w.Unit != "" && strings.TrimSpace(w.Unit) != is.Unit {
				continue
			}
			if w.ClassSub != "" && !strings.Contains(is.Node, strings.TrimSpace(w.ClassSub)) {
				continue
			}
			// matched → waive it
			waived++
			continue nextIssue
		}
		out = append(out, is)
	}
	return out, waived
}

func eqCI(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
