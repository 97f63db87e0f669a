package rules

import (
	"github.com/codewithboateng/jinspect/internal/predicate"
)

const InnerNonSerializableOuterID = "SerializableInnerClassWithNonSerializableOuterClass"

func init() {
	Register(Rule{
		ID:         InnerNonSerializableOuterID,
		Summary:    "Serializable non-static inner class is enclosed by a non-serializable class.",
		Severity:   "MEDIUM",
		DisplayKey: "serializable.inner.class.with.non.serializable.outer.class.display.name",
		ProblemKey: "serializable.inner.class.with.non.serializable.outer.class.problem.descriptor",
		Evaluate:   evalInnerNonSerializableOuter,
		// no mechanical fix: make the class static or the outer class
		// serializable, which is the author's call
	})
}

func evalInnerNonSerializableOuter(ctx EvalContext) Verdict {
	f, c := ctx.Facade, ctx.Class
	if predicate.ExcludedKind(f, c) {
		return pass
	}
	outer := f.EnclosingClass(c)
	if outer == nil {
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
	// only a known non-serializable outer class is a problem
	if predicate.Serializable(f, outer) != predicate.No {
		return pass
	}
	if predicate.IgnoredSubclass(f, c, ctx.Config.Excluded.Matcher()) != predicate.No {
		return pass
	}
	return flagged
}
