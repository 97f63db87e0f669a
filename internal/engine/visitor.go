package engine

import (
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/tree"
)

// walker drives one pass over one unit. Every class node is an entry point
// for every rule; a rule answering ContinueInto additionally gets the
// node's nested classes handed to it right away.
type walker struct {
	facade tree.Facade
	unit   *tree.Unit
	rules  []bound
	sink   *Sink
	issue  func(u *tree.Unit, c *tree.ClassNode, b bound) ir.Issue
}

func (w *walker) run() {
	w.unit.Walk(func(c *tree.ClassNode) bool {
		for _, b := range w.rules {
			w.visit(c, b)
		}
		return true
	})
}

func (w *walker) visit(c *tree.ClassNode, b bound) {
	v := b.rule.Evaluate(rules.EvalContext{Facade: w.facade, Class: c, Config: b.cfg})
	if v.Flag {
		w.sink.Report(w.issue(w.unit, c, b))
	}
	if v.Control != rules.ContinueInto {
		return
	}
	for _, n := range c.Nested {
		w.visit(n, b)
	}
}
