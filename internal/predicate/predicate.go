// Package predicate holds the reusable checks inspections compose. They are
// pure functions of the facade and the class node; none of them traverse.
package predicate

import (
	"github.com/codewithboateng/jinspect/internal/tree"
)

// VersionIDField is the well-known serialization version identifier.
const VersionIDField = "serialVersionUID"

// Fact is a tri-state answer for checks that depend on possibly incomplete
// model information.
type Fact int

const (
	Unknown Fact = iota
	Yes
	No
)

func (f Fact) String() string {
	switch f {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Serializable reports whether the serialization marker is reachable from
// c. Unknown when the marker was not found but the hierarchy has gaps.
func Serializable(f tree.Facade, c *tree.ClassNode) Fact {
	if c == nil {
		return Unknown
	}
	ok, err := f.ImplementsMarker(c, tree.SerializableMarker)
	if ok {
		return Yes
	}
	if err != nil {
		return Unknown
	}
	return No
}

// IsSerializable is Serializable collapsed to a conservative bool.
func IsSerializable(f tree.Facade, c *tree.ClassNode) bool {
	return Serializable(f, c) == Yes
}

// ExcludedKind: interfaces, annotations and enums are never flagged.
func ExcludedKind(f tree.Facade, c *tree.ClassNode) bool {
	switch f.Kind(c) {
	case tree.KindInterface, tree.KindAnnotation, tree.KindEnum:
		return true
	}
	return false
}

// HasVersionIDField checks the field name only; type and modifiers are
// not looked at.
func HasVersionIDField(f tree.Facade, c *tree.ClassNode) bool {
	for _, fld := range f.Fields(c) {
		if fld.Name == VersionIDField {
			return true
		}
	}
	return false
}

func Nested(f tree.Facade, c *tree.ClassNode) bool {
	return f.EnclosingClass(c) != nil
}

func InnerNonStatic(f tree.Facade, c *tree.ClassNode) bool {
	return f.EnclosingClass(c) != nil && !f.Modifiers(c).Has(tree.Static)
}

func Anonymous(c *tree.ClassNode) bool {
	return c.Anonymous
}

// IgnoredSubclass reports whether any supertype of c matches the
// exclusion matcher. A nil matcher excludes nothing.
func IgnoredSubclass(f tree.Facade, c *tree.ClassNode, match func(string) bool) Fact {
	if match == nil {
		return No
	}
	chain, err := f.SupertypeChain(c)
	for _, s := range chain {
		if match(s) {
			return Yes
		}
	}
	if err != nil {
		return Unknown
	}
	return No
}
