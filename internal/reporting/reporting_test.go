package reporting

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codewithboateng/jinspect/internal/ir"
)

func issue(rule, node, sev string, line int) ir.Issue {
	return ir.Issue{ID: rule + node, RuleID: rule, Unit: "app/A.java", Node: node, Severity: sev, Line: line, Message: node + " " + rule}
}

func TestCompare(t *testing.T) {
	base := &ir.Run{Issues: []ir.Issue{
		issue("R1", "app.A.X", "LOW", 3),
		issue("R1", "app.A.Y", "LOW", 9),
		issue("R2", "app.A.X", "MEDIUM", 3),
	}}
	head := &ir.Run{Issues: []ir.Issue{
		issue("R1", "app.A.X", "LOW", 4),
		issue("R2", "app.A.X", "MEDIUM", 3),
		issue("R2", "app.A.Z", "MEDIUM", 20),
	}}
	d := Compare("b", "h", base, head)

	if diff := cmp.Diff(DiffSummary{NewCount: 1, RemovedCount: 1, ChangedCount: 1}, d.Summary); diff != "" {
		t.Fatalf("summary (-want +got):\n%s", diff)
	}
	if d.New[0].Key != "R2|app/A.java|app.A.Z" {
		t.Fatalf("new = %+v", d.New)
	}
	if d.Removed[0].Node != "app.A.Y" {
		t.Fatalf("removed = %+v", d.Removed)
	}
	if diff := cmp.Diff([]string{"line"}, d.Changed[0].Changed); diff != "" {
		t.Fatalf("changed fields (-want +got):\n%s", diff)
	}
}

func TestWriters(t *testing.T) {
	dir := t.TempDir()
	run := &ir.Run{
		ID: "r1",
		Context: ir.Context{RuleSeverityThreshold: "LOW", DisabledRules: []string{"R9"}, Waived: 2},
		Units: []ir.Unit{
			{Path: "app/A.java", Classes: 2, Issues: 1},
			{Path: "app/Bad.java", Error: "pass failed: <b>cycle</b>"},
		},
		Issues: []ir.Issue{issue("R1", "app.A.X", "LOW", 3)},
	}

	p, err := WriteJSON("r1", dir, run)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	b, _ := os.ReadFile(p)
	var back ir.Run
	if err := json.Unmarshal(b, &back); err != nil || len(back.Issues) != 1 {
		t.Fatalf("json roundtrip: %v %+v", err, back)
	}

	p, err = WriteHTML("r1", dir, run)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	b, _ = os.ReadFile(p)
	page := string(b)
	for _, want := range []string{"app.A.X", "Waived: 2", "R9", "Failed Units", "&lt;b&gt;cycle&lt;/b&gt;"} {
		if !strings.Contains(page, want) {
			t.Errorf("html missing %q", want)
		}
	}

	p, err = WriteDiffJSON("r1", "r1", dir, run, run)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	b, _ = os.ReadFile(p)
	var d Diff
	if err := json.Unmarshal(b, &d); err != nil {
		t.Fatalf("diff decode: %v", err)
	}
	if d.Summary != (DiffSummary{}) {
		t.Fatalf("self diff = %+v", d.Summary)
	}
}
