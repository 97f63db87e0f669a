package rules

import (
	"testing"
	"time"

	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/storage"
)

func TestApplyWaivers(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	revoked := now.Add(-time.Minute)

	issues := []ir.Issue{
		{ID: "1", RuleID: InnerMissingUIDID, Unit: "app/A.java", Node: "app.A.Legacy"},
		{ID: "2", RuleID: InnerMissingUIDID, Unit: "app/B.java", Node: "app.B.Inner"},
		{ID: "3", RuleID: InnerNonSerializableOuterID, Unit: "app/A.java", Node: "app.A.Legacy"},
		{ID: "4", RuleID: MissingUIDID, Unit: "app/C.java", Node: "app.C"},
	}
	waivers := []storage.Waiver{
		{RuleID: InnerMissingUIDID, ClassSub: "Legacy", ExpiresAt: later},
		{RuleID: "serializableinnerclasswithnonserializableouterclass", Unit: "app/B.java", ExpiresAt: later},
		{RuleID: MissingUIDID, ExpiresAt: now},
		{RuleID: InnerNonSerializableOuterID, ExpiresAt: later, RevokedAt: &revoked},
	}

	kept, waived := ApplyWaivers(issues, waivers, now)
	if waived != 1 {
		t.Fatalf("waived = %d", waived)
	}
	var ids []string
	for _, is := range kept {
		ids = append(ids, is.ID)
	}
	if len(ids) != 3 || ids[0] != "2" || ids[1] != "3" || ids[2] != "4" {
		t.Fatalf("kept = %v", ids)
	}

	if out, n := ApplyWaivers(issues, nil, now); n != 0 || len(out) != len(issues) {
		t.Fatalf("no waivers must keep everything")
	}
}
