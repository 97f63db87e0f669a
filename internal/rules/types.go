package rules

import (
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/tree"
)

// Control tells the traversal driver whether to descend into the nested
// classes of the node a rule was just evaluated on, on behalf of that rule.
type Control int

const (
	SkipChildren Control = iota
	ContinueInto
)

// Verdict is the outcome of one rule evaluation at one class node.
type Verdict struct {
	Flag    bool
	Control Control
}

var (
	pass    = Verdict{Control: SkipChildren}
	flagged = Verdict{Flag: true, Control: SkipChildren}
)

// EvalContext is everything a rule may look at. Config is a value: rules
// never hold per-run state.
type EvalContext struct {
	Facade tree.Facade
	Class  *tree.ClassNode
	Config Config
}

// Rule represents a single inspection evaluated at every class node.
type Rule struct {
	ID         string
	Summary    string
	Severity   string // LOW|MEDIUM|HIGH
	DisplayKey string // message bundle key for the display name
	ProblemKey string // message bundle key for the problem text
	// Evaluate inspects one class node. It must not block or mutate.
	Evaluate func(ctx EvalContext) Verdict
	// Fix builds the corrective action for a flagged node; nil when the
	// rule offers none.
	Fix func(c *tree.ClassNode) ir.FixAction
}

// Config is the compiled, read-only configuration of one rule.
type Config struct {
	Excluded        Patterns
	IgnoreAnonymous bool
}
