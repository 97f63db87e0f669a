package rules

import (
	"github.com/codewithboateng/jinspect/internal/fixes"
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/predicate"
	"github.com/codewithboateng/jinspect/internal/tree"
)

const InnerMissingUIDID = "SerializableNonStaticInnerClassWithoutSerialVersionUID"

func init() {
	Register(Rule{
		ID:         InnerMissingUIDID,
		Summary:    "Serializable non-static inner class does not declare serialVersionUID.",
		Severity:   "LOW",
		DisplayKey: "serializable.inner.class.has.serial.version.uid.field.display.name",
		ProblemKey: "serializable.inner.class.has.serial.version.uid.field.problem.descriptor",
		Evaluate:   evalInnerMissingUID,
		Fix:        addUIDFix,
	})
}

// Top-level and static nested classes are left to
// SerializableClassWithoutSerialVersionUID.
func evalInnerMissingUID(ctx EvalContext) Verdict {
	f, c := ctx.Facade, ctx.Class
	if predicate.ExcludedKind(f, c) {
		return pass
	}
	if predicate.HasVersionIDField(f, c) {
		return pass
	}
	if !predicate.Nested(f, c) {
		return pass
	}
	if !predicate.InnerNonStatic(f, c) {
		return pass
	}
	if ctx.Config.IgnoreAnonymous && predicate.Anonymous(c) {
		return pass
	}
	if !predicate.IsSerializable(f, c) {
		return pass
	}
	if predicate.IgnoredSubclass(f, c, ctx.Config.Excluded.Matcher()) != predicate.No {
		return pass
	}
	return flagged
}

func addUIDFix(c *tree.ClassNode) ir.FixAction {
	return fixes.AddSerialVersionUID{Class: c.QualifiedName}
}
