package reporting

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/jinspect/internal/ir"
)

func WriteHTML(runID, outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	renderHTML(f, runID, run)
	return path, nil
}

func renderHTML(w io.Writer, runID string, run *ir.Run) {
	fmt.Fprintf(w, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(w, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .err{color:#a00}</style>")
	fmt.Fprint(w, "</head><body>")

	fmt.Fprintf(w, "<h1>jinspect report – <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(w, "<p>Units: %d &nbsp; Issues: %d", len(run.Units), len(run.Issues))
	if run.Context.Waived > 0 {
		fmt.Fprintf(w, " &nbsp; Waived: %d", run.Context.Waived)
	}
	fmt.Fprint(w, "</p>")

	fmt.Fprintf(w, "<p class='dim'>Severity threshold: %s", html.EscapeString(run.Context.RuleSeverityThreshold))
	if n := len(run.Context.DisabledRules); n > 0 {
		fmt.Fprintf(w, " &nbsp; Disabled rules: %s", html.EscapeString(strings.Join(run.Context.DisabledRules, ", ")))
	}
	fmt.Fprint(w, "</p>")

	// by rule
	if len(run.Issues) > 0 {
		counts := map[string]int{}
		for _, is := range run.Issues {
			counts[is.RuleID]++
		}
		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprint(w, "<h2>By Rule</h2><table><tr><th>Rule</th><th>Issues</th></tr>")
		for _, id := range ids {
			fmt.Fprintf(w, "<tr><td class='mono'>%s</td><td>%d</td></tr>", html.EscapeString(id), counts[id])
		}
		fmt.Fprint(w, "</table>")
	}

	if len(run.Issues) > 0 {
		fmt.Fprint(w, "<h2>All Issues</h2><table><tr><th>Severity</th><th>Rule</th><th>Unit</th><th>Class</th><th>Line</th><th>Message</th><th>Fix</th></tr>")
		for _, is := range run.Issues {
			line := ""
			if is.Line > 0 {
				line = fmt.Sprint(is.Line)
			}
			fmt.Fprintf(w, "<tr><td>%s</td><td class='mono'>%s</td><td class='mono'>%s</td><td class='mono'>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(is.Severity),
				html.EscapeString(is.RuleID),
				html.EscapeString(is.Unit),
				html.EscapeString(is.Node),
				line,
				html.EscapeString(is.Message),
				html.EscapeString(is.Fix),
			)
		}
		fmt.Fprint(w, "</table>")
	} else {
		fmt.Fprint(w, "<h2>All Issues</h2><p class='dim'>No issues at or above the configured threshold.</p>")
	}

	var failed []ir.Unit
	for _, u := range run.Units {
		if u.Error != "" {
			failed = append(failed, u)
		}
	}
	if len(failed) > 0 {
		fmt.Fprint(w, "<h2>Failed Units</h2><table><tr><th>Unit</th><th>Error</th></tr>")
		for _, u := range failed {
			fmt.Fprintf(w, "<tr><td class='mono'>%s</td><td class='err'>%s</td></tr>", html.EscapeString(u.Path), html.EscapeString(u.Error))
		}
		fmt.Fprint(w, "</table>")
	}

	fmt.Fprint(w, "</body></html>")
}
