package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/jinspect/internal/ir"
)

type Diff struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary DiffSummary   `json:"summary"`
	New     []DiffIssue   `json:"new"`
	Removed []DiffIssue   `json:"removed"`
	Changed []DiffChanged `json:"changed"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type DiffIssue struct {
	Key      string `json:"key"`
	RuleID   string `json:"rule_id"`
	Unit     string `json:"unit"`
	Node     string `json:"node"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

type DiffChanged struct {
	Key     string    `json:"key"`
	Base    DiffIssue `json:"base"`
	Head    DiffIssue `json:"head"`
	Changed []string  `json:"fields_changed"`
}

// Compare matches issues of two runs by rule|unit|node.
func Compare(baseID, headID string, base, head *ir.Run) Diff {
	bm := map[string]ir.Issue{}
	hm := map[string]ir.Issue{}
	for _, is := range base.Issues {
		bm[keyOf(is)] = is
	}
	for _, is := range head.Issues {
		hm[keyOf(is)] = is
	}

	d := Diff{BaseID: baseID, HeadID: headID, New: []DiffIssue{}, Removed: []DiffIssue{}, Changed: []DiffChanged{}}
	for k, hi := range hm {
		bi, ok := bm[k]
		if !ok {
			d.New = append(d.New, asDiff(k, hi))
			continue
		}
		var fields []string
		if norm(bi.Severity) != norm(hi.Severity) {
			fields = append(fields, "severity")
		}
		if strings.TrimSpace(bi.Message) != strings.TrimSpace(hi.Message) {
			fields = append(fields, "message")
		}
		if bi.Line != hi.Line {
			fields = append(fields, "line")
		}
		if len(fields) > 0 {
			d.Changed = append(d.Changed, DiffChanged{Key: k, Base: asDiff(k, bi), Head: asDiff(k, hi), Changed: fields})
		}
	}
	for k, bi := range bm {
		if _, ok := hm[k]; !ok {
			d.Removed = append(d.Removed, asDiff(k, bi))
		}
	}

	sort.Slice(d.New, func(i, j int) bool { return d.New[i].Key < d.New[j].Key })
	sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Key < d.Removed[j].Key })
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Key < d.Changed[j].Key })
	d.Summary = DiffSummary{NewCount: len(d.New), RemovedCount: len(d.Removed), ChangedCount: len(d.Changed)}
	return d
}

func WriteDiffJSON(baseID, headID, outDir string, base, head *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	b, err := json.MarshalIndent(Compare(baseID, headID, base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func keyOf(is ir.Issue) string {
	return norm(is.RuleID) + "|" + strings.TrimSpace(is.Unit) + "|" + strings.TrimSpace(is.Node)
}

func asDiff(key string, is ir.Issue) DiffIssue {
	return DiffIssue{
		Key:      key,
		RuleID:   is.RuleID,
		Unit:     is.Unit,
		Node:     is.Node,
		Line:     is.Line,
		Severity: is.Severity,
		Message:  is.Message,
	}
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
