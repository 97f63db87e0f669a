// Package tree is the read-only semantic model the inspections consume:
// classes, their fields and modifiers, enclosing relations and supertypes.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnresolved marks a fact the model cannot answer, e.g. a supertype
	// that is neither in the workspace nor in the library index.
	ErrUnresolved = errors.New("unresolved")
	// ErrIntegrity marks a tree whose enclosing/nested relations disagree.
	ErrIntegrity = errors.New("tree integrity violation")
)

// Kind is the declaration kind of a class node.
type Kind string

const (
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindEnum       Kind = "enum"
	KindAnnotation Kind = "annotation"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindClass, nil
	case KindClass, KindInterface, KindEnum, KindAnnotation:
		return k, nil
	case "@interface":
		return KindAnnotation, nil
	default:
		return "", fmt.Errorf("unknown class kind %q", s)
	}
}

type Modifier string

const (
	Public    Modifier = "public"
	Protected Modifier = "protected"
	Private   Modifier = "private"
	Static    Modifier = "static"
	Final     Modifier = "final"
	Abstract  Modifier = "abstract"
	Transient Modifier = "transient"
	Volatile  Modifier = "volatile"
)

// Modifiers is a set of modifiers.
type Modifiers map[Modifier]struct{}

func NewModifiers(ms ...Modifier) Modifiers {
	out := make(Modifiers, len(ms))
	for _, m := range ms {
		out[Modifier(strings.ToLower(strings.TrimSpace(string(m))))] = struct{}{}
	}
	return out
}

func (m Modifiers) Has(mod Modifier) bool {
	_, ok := m[mod]
	return ok
}

// Sorted returns the modifiers in a stable order (for encoding).
func (m Modifiers) Sorted() []Modifier {
	out := make([]Modifier, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type FieldNode struct {
	Name      string
	Type      string
	Modifiers Modifiers
}

// ClassNode is one class, interface, enum or annotation declaration.
//
// Enclosing is a back reference to the declaring class and is nil for top
// level declarations. Nested holds the member (and anonymous) classes in
// declaration order.
type ClassNode struct {
	Name          string
	QualifiedName string
	Kind          Kind
	Modifiers     Modifiers
	Fields        []FieldNode
	Supertypes    []string
	Enclosing     *ClassNode
	Nested        []*ClassNode
	Anonymous     bool
	Line          int
}

// Inner reports whether c is a non-static nested class.
func (c *ClassNode) Inner() bool {
	return c.Enclosing != nil && !c.Modifiers.Has(Static)
}

// Unit is one compilation unit: a source path and its top-level classes.
type Unit struct {
	Path    string
	Package string
	Classes []*ClassNode
}

// Walk visits every class of the unit in pre-order, declaration order.
// Returning false from fn skips the node's nested classes.
func (u *Unit) Walk(fn func(c *ClassNode) bool) {
	var walk func(cs []*ClassNode)
	walk = func(cs []*ClassNode) {
		for _, c := range cs {
			if fn(c) {
				walk(c.Nested)
			}
		}
	}
	walk(u.Classes)
}

// Count returns the number of class nodes in the unit.
func (u *Unit) Count() int {
	n := 0
	u.Walk(func(*ClassNode) bool { n++; return true })
	return n
}

// Validate checks that every enclosing pointer agrees with the nested
// lists it should appear in.
func Validate(u *Unit) error {
	if u == nil {
		return fmt.Errorf("%w: nil unit", ErrIntegrity)
	}
	seen := make(map[*ClassNode]struct{})
	var check func(parent *ClassNode, cs []*ClassNode) error
	check = func(parent *ClassNode, cs []*ClassNode) error {
		for _, c := range cs {
			if c == nil {
				return fmt.Errorf("%w: nil class under %s", ErrIntegrity, nameOf(parent))
			}
			if _, dup := seen[c]; dup {
				return fmt.Errorf("%w: %s declared twice", ErrIntegrity, c.QualifiedName)
			}
			seen[c] = struct{}{}
			if c.Enclosing != parent {
				return fmt.Errorf("%w: %s claims enclosing %s but is declared in %s",
					ErrIntegrity, c.QualifiedName, nameOf(c.Enclosing), nameOf(parent))
			}
			if err := check(c, c.Nested); err != nil {
				return err
			}
		}
		return nil
	}
	return check(nil, u.Classes)
}

func nameOf(c *ClassNode) string {
	if c == nil {
		return "<top level>"
	}
	return c.QualifiedName
}
