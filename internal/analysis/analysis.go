// Package analysis runs the full inspection pipeline over a snapshot tree:
// load units, resolve the workspace, run passes and assemble a run record.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codewithboateng/jinspect/internal/engine"
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/loader"
	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/storage"
	"github.com/codewithboateng/jinspect/internal/tree"
)

type Request struct {
	Root     string
	RunID    string // generated when empty
	Settings rules.Settings
	Catalog  []rules.Rule // defaults to rules.List()
	Workers  int
	Messages messages.Formatter
	Locale   string
	Waivers  []storage.Waiver
	Now      func() time.Time
	Logger   *slog.Logger
}

type Result struct {
	Run   ir.Run
	Files []*loader.File
	Diags loader.Diagnostics
}

// Analyze loads every snapshot under req.Root and inspects it. Units whose
// pass fails are recorded with their error and contribute no issues.
func Analyze(ctx context.Context, req Request) (*Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if req.Now != nil {
		now = req.Now
	}
	catalog := req.Catalog
	if catalog == nil {
		catalog = rules.List()
	}
	settings := req.Settings.Normalize()

	eng := engine.New(req.Messages, logger)
	if err := eng.Configure(settings, catalog); err != nil {
		return nil, err
	}

	files, diags := loader.Load(req.Root)
	for _, w := range diags.Warnings {
		logger.Warn("load warning", "warning", w)
	}
	units := loader.Units(files)
	ws := tree.NewWorkspace(units...)

	run := ir.Run{
		ID:        req.RunID,
		StartedAt: now().UTC(),
		Source:    req.Root,
		IRVersion: ir.Version,
		Context: ir.Context{
			RuleSeverityThreshold: settings.SeverityThreshold,
			DisabledRules:         settings.DisabledList(),
			Locale:                req.Locale,
		},
	}
	if run.ID == "" {
		run.ID = "run-" + uuid.NewString()
	}
	for _, r := range eng.Rules() {
		run.Context.Rules = append(run.Context.Rules, r.ID)
	}

	results := eng.RunPasses(ctx, ws, units, req.Workers)
	issues, passErr := engine.Collect(results)
	if passErr != nil {
		logger.Warn("some units failed", "err", passErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issues, waived := rules.ApplyWaivers(issues, req.Waivers, now())
	engine.SortIssues(issues)
	run.Issues = issues
	run.Context.Waived = waived

	perUnit := map[string]int{}
	for _, is := range issues {
		perUnit[is.Unit]++
	}
	for _, r := range results {
		u := ir.Unit{Path: r.Unit.Path, Classes: r.Unit.Count(), Issues: perUnit[r.Unit.Path]}
		if r.Err != nil {
			u.Error = r.Err.Error()
		}
		run.Units = append(run.Units, u)
	}

	logger.Info("analysis complete",
		"run", run.ID,
		"units", len(units),
		"issues", len(issues),
		"waived", waived,
	)
	return &Result{Run: run, Files: files, Diags: diags}, nil
}
