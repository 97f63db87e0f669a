package ir

import (
	"time"

	"github.com/codewithboateng/jinspect/internal/tree"
)

const Version = "1.0"

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Context Context `json:"context"`
	Units   []Unit  `json:"units"`
	Issues  []Issue `json:"issues,omitempty"`
}

type Context struct {
	RuleSeverityThreshold string   `json:"rule_severity_threshold,omitempty"`
	DisabledRules         []string `json:"disabled_rules,omitempty"`
	Rules                 []string `json:"rules,omitempty"`
	Locale                string   `json:"locale,omitempty"`
	Waived                int      `json:"waived,omitempty"`
}

// Unit summarizes one analyzed compilation unit.
type Unit struct {
	Path    string `json:"path"`
	Classes int    `json:"classes"`
	Issues  int    `json:"issues"`
	Error   string `json:"error,omitempty"`
}

// Issue is one rule violation bound to a class node.
type Issue struct {
	ID       string `json:"id"`
	Unit     string `json:"unit"`
	Node     string `json:"node"` // qualified class name
	Line     int    `json:"line,omitempty"`
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"` // LOW|MEDIUM|HIGH
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`

	// Action is the live corrective action, if the rule offers one.
	Action FixAction `json:"-"`
}

// FixAction is an opaque corrective command. The engine never applies one;
// the host does, after confirmation.
type FixAction interface {
	Name() string
	Apply(ed Editor) error
}

// Editor is the host-side mutation surface fix actions write through.
type Editor interface {
	InsertField(class string, f tree.FieldNode) error
}
