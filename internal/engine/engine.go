// Package engine runs inspection passes: it walks a unit's class tree,
// evaluates the active rules at each node and collects issues.
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/tree"
)

// ErrPassFailed wraps any failure that aborted a pass.
var ErrPassFailed = errors.New("pass failed")

type bound struct {
	rule rules.Rule
	cfg  rules.Config
}

// Engine holds the active rule set. The set is replaced, never edited in
// place, so passes already running keep the rules they started with.
type Engine struct {
	mu     sync.RWMutex
	active []bound
	msgs   messages.Formatter
	logger *slog.Logger
}

func New(msgs messages.Formatter, logger *slog.Logger) *Engine {
	if msgs == nil {
		msgs = messages.MustLoad(messages.DefaultLocale)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{msgs: msgs, logger: logger}
}

// FromSettings builds an engine with every catalog rule the settings enable.
func FromSettings(s rules.Settings, msgs messages.Formatter, logger *slog.Logger) (*Engine, error) {
	e := New(msgs, logger)
	if err := e.Configure(s, rules.List()); err != nil {
		return nil, err
	}
	return e, nil
}

// RegisterRule adds r with the given options. Registering an ID that is
// already active is a no-op. Malformed options are rejected here.
func (e *Engine) RegisterRule(r rules.Rule, opts rules.Options) error {
	if err := check(r); err != nil {
		return err
	}
	cfg, err := opts.Compile(r.ID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.active {
		if strings.EqualFold(b.rule.ID, r.ID) {
			return nil
		}
	}
	next := make([]bound, len(e.active), len(e.active)+1)
	copy(next, e.active)
	e.active = append(next, bound{rule: r, cfg: cfg})
	return nil
}

// Configure replaces the whole active set with the catalog rules s enables.
// On error the previous set stays active.
func (e *Engine) Configure(s rules.Settings, catalog []rules.Rule) error {
	s = s.Normalize()
	var next []bound
	seen := map[string]bool{}
	for _, r := range catalog {
		if !s.Enabled(r) || seen[strings.ToUpper(r.ID)] {
			continue
		}
		if err := check(r); err != nil {
			return err
		}
		cfg, err := s.OptionsFor(r.ID).Compile(r.ID)
		if err != nil {
			return err
		}
		seen[strings.ToUpper(r.ID)] = true
		next = append(next, bound{rule: r, cfg: cfg})
	}
	e.mu.Lock()
	e.active = next
	e.mu.Unlock()
	return nil
}

func check(r rules.Rule) error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("rule without id")
	}
	if r.Evaluate == nil {
		return fmt.Errorf("rule %s: no evaluate function", r.ID)
	}
	return nil
}

// Rules returns the active rules in registration order.
func (e *Engine) Rules() []rules.Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]rules.Rule, 0, len(e.active))
	for _, b := range e.active {
		out = append(out, b.rule)
	}
	return out
}

func (e *Engine) snapshot() []bound {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// RunPass analyzes one unit. An invalid tree or a failing rule aborts the
// pass: the result is an error and no issues, never a partial list.
func (e *Engine) RunPass(f tree.Facade, u *tree.Unit) (issues []ir.Issue, err error) {
	if err := tree.Validate(u); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPassFailed, err)
	}
	defer func() {
		if r := recover(); r != nil {
			issues, err = nil, fmt.Errorf("%w: %s: rule panic: %v", ErrPassFailed, u.Path, r)
		}
	}()

	w := &walker{
		facade: f,
		unit:   u,
		rules:  e.snapshot(),
		sink:   NewSink(),
		issue:  e.newIssue,
	}
	w.run()
	issues = w.sink.Drain()
	e.logger.Debug("pass complete", "unit", u.Path, "rules", len(w.rules), "issues", len(issues))
	return issues, nil
}

func (e *Engine) newIssue(u *tree.Unit, c *tree.ClassNode, b bound) ir.Issue {
	is := ir.Issue{
		ID:       makeID(b.rule.ID, u.Path, c.QualifiedName),
		Unit:     u.Path,
		Node:     c.QualifiedName,
		Line:     c.Line,
		RuleID:   b.rule.ID,
		Severity: strings.ToUpper(b.rule.Severity),
		Message:  e.msgs.Format(b.rule.ProblemKey, c.QualifiedName),
	}
	if b.rule.Fix != nil {
		if a := b.rule.Fix(c); a != nil {
			is.Action = a
			is.Fix = a.Name()
		}
	}
	return is
}

// UnitResult is the outcome of one unit's pass.
type UnitResult struct {
	Unit   *tree.Unit
	Issues []ir.Issue
	Err    error
}

// RunPasses analyzes units concurrently on up to workers goroutines.
// Cancellation is checked before each unit starts; units not started get
// ctx's error. Results keep the input order.
func (e *Engine) RunPasses(ctx context.Context, f tree.Facade, units []*tree.Unit, workers int) []UnitResult {
	if workers < 1 {
		workers = 1
	}
	out := make([]UnitResult, len(units))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, u := range units {
		if err := ctx.Err(); err != nil {
			out[i] = UnitResult{Unit: u, Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = UnitResult{Unit: u, Err: err}
				return nil
			}
			issues, err := e.RunPass(f, u)
			if err != nil {
				e.logger.Warn("pass failed", "unit", unitPath(u), "err", err)
			}
			out[i] = UnitResult{Unit: u, Issues: issues, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Collect merges unit results into one ordered issue list through a shared
// sink, and joins the unit errors.
func Collect(results []UnitResult) ([]ir.Issue, error) {
	sink := NewSink()
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", unitPath(r.Unit), r.Err))
			continue
		}
		for _, is := range r.Issues {
			sink.Report(is)
		}
	}
	return sink.Drain(), errors.Join(errs...)
}

// SortIssues orders issues by severity (desc), then unit, node and rule.
func SortIssues(in []ir.Issue) {
	sort.SliceStable(in, func(i, j int) bool {
		si, sj := rules.SeverityRank(in[i].Severity), rules.SeverityRank(in[j].Severity)
		if si != sj {
			return si > sj
		}
		if in[i].Unit != in[j].Unit {
			return in[i].Unit < in[j].Unit
		}
		if in[i].Node != in[j].Node {
			return in[i].Node < in[j].Node
		}
		return in[i].RuleID < in[j].RuleID
	})
}

func makeID(ruleID, unit, node string) string {
	sum := crc32.ChecksumIEEE([]byte(ruleID + "|" + unit + "|" + node))
	return fmt.Sprintf("%s-%08x", ruleID, sum)
}

func unitPath(u *tree.Unit) string {
	if u == nil {
		return "<nil>"
	}
	return u.Path
}
