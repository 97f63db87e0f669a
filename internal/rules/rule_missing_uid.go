package rules

import (
	"github.com/codewithboateng/jinspect/internal/predicate"
)

const MissingUIDID = "SerializableClassWithoutSerialVersionUID"

func init() {
	Register(Rule{
		ID:         MissingUIDID,
		Summary:    "Serializable top-level or static nested class does not declare serialVersionUID.",
		Severity:   "LOW",
		DisplayKey: "serializable.class.without.serial.version.uid.display.name",
		ProblemKey: "serializable.class.without.serial.version.uid.problem.descriptor",
		Evaluate:   evalMissingUID,
		Fix:        addUIDFix,
	})
}

func evalMissingUID(ctx EvalContext) Verdict {
	f, c := ctx.Facade, ctx.Class
	if predicate.ExcludedKind(f, c) {
		return pass
	}
	if predicate.HasVersionIDField(f, c) {
		return pass
	}
	if predicate.InnerNonStatic(f, c) {
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
