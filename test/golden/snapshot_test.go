package golden

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/codewithboateng/jinspect/internal/analysis"
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/rules"
)

var update = flag.Bool("update", false, "update golden snapshot")

const goldenFile = "testdata/expected.json"

const sampleShop = `
package: shop
classes:
  - name: Cart
    line: 3
    supertypes: [java.io.Serializable]
    fields:
      - {name: serialVersionUID, type: long, modifiers: [private, static, final]}
    nested:
      - name: Item
        line: 7
        supertypes: [java.io.Serializable]
      - name: Key
        line: 11
        modifiers: [static]
        supertypes: [java.io.Serializable]
  - name: View
    line: 15
    nested:
      - name: State
        line: 17
        supertypes: [java.io.Serializable]
        fields:
          - {name: serialVersionUID, type: long}
      - anonymous: true
        line: 21
        supertypes: [javax.swing.AbstractAction]
      - name: Listener
        kind: interface
        line: 25
        supertypes: [java.io.Serializable]
`

func analyzeSample(t *testing.T, severity string) ir.Run {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "shop", "Cart.unit.yaml")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(sampleShop), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	res, err := analysis.Analyze(context.Background(), analysis.Request{
		Root:     dir,
		RunID:    "run-golden",
		Settings: rules.Settings{SeverityThreshold: severity},
		Workers:  2,
		Messages: messages.MustLoad("en"),
		Locale:   "en",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return res.Run
}

func TestGolden_ShopSnapshot(t *testing.T) {
	run := analyzeSample(t, "LOW")

	got, err := json.MarshalIndent(normalize(run), "", "  ")
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}

	if *update {
		if err := os.WriteFile(goldenFile, got, 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		t.Logf("updated %s", goldenFile)
		return
	}

	want, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("read golden (%s): %v\nRun with: go test ./test/golden -run TestGolden_ShopSnapshot -args -update", goldenFile, err)
	}
	if !bytes.Equal(bytes.TrimSpace(got), bytes.TrimSpace(want)) {
		tmp := filepath.Join(t.TempDir(), "got.json")
		_ = os.WriteFile(tmp, got, 0o644)
		t.Fatalf("golden mismatch.\n  golden: %s\n  actual: %s\nTip: update with\n  go test ./test/golden -run TestGolden_ShopSnapshot -count=1 -args -update", goldenFile, tmp)
	}
}

type runLite struct {
	ID        string      `json:"id"`
	IRVersion string      `json:"ir_version"`
	Context   ir.Context  `json:"context"`
	Units     []ir.Unit   `json:"units"`
	Issues    []issueLite `json:"issues"`
}

type issueLite struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Unit     string `json:"unit"`
	Node     string `json:"node"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// normalize drops volatile fields (issue IDs, timestamps, source dir).
// Issue order is the engine's own and is part of the snapshot.
func normalize(run ir.Run) runLite {
	out := runLite{
		ID:        run.ID,
		IRVersion: run.IRVersion,
		Context:   run.Context,
		Units:     run.Units,
		Issues:    make([]issueLite, 0, len(run.Issues)),
	}
	for _, is := range run.Issues {
		out.Issues = append(out.Issues, issueLite{
			RuleID:   is.RuleID,
			Severity: is.Severity,
			Unit:     is.Unit,
			Node:     is.Node,
			Line:     is.Line,
			Message:  is.Message,
			Fix:      is.Fix,
		})
	}
	return out
}
