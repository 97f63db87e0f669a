package tree

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	SerializableMarker   = "java.io.Serializable"
	ExternalizableMarker = "java.io.Externalizable"
)

// Facade is the read-only view predicates use to ask about a class.
type Facade interface {
	Kind(c *ClassNode) Kind
	Modifiers(c *ClassNode) Modifiers
	Fields(c *ClassNode) []FieldNode
	EnclosingClass(c *ClassNode) *ClassNode
	// ImplementsMarker reports whether marker is reachable from c through
	// its supertypes. A negative answer over an incomplete hierarchy
	// returns ErrUnresolved.
	ImplementsMarker(c *ClassNode, marker string) (bool, error)
	// SupertypeChain returns every transitive supertype of c, nearest
	// first. An incomplete hierarchy returns what was resolved plus
	// ErrUnresolved.
	SupertypeChain(c *ClassNode) ([]string, error)
}

// library lists platform types the workspace can resolve without source.
var library = map[string][]string{
	"java.lang.Object":            nil,
	"java.io.Serializable":        nil,
	"java.io.Externalizable":      {"java.io.Serializable"},
	"java.lang.Cloneable":         nil,
	"java.lang.Comparable":        nil,
	"java.lang.Runnable":          nil,
	"java.lang.Number":            {"java.lang.Object", "java.io.Serializable"},
	"java.lang.Enum":              {"java.lang.Object", "java.lang.Comparable", "java.io.Serializable"},
	"java.lang.Record":            {"java.lang.Object"},
	"java.lang.Thread":            {"java.lang.Object", "java.lang.Runnable"},
	"java.lang.Throwable":         {"java.lang.Object", "java.io.Serializable"},
	"java.lang.Exception":         {"java.lang.Throwable"},
	"java.lang.RuntimeException":  {"java.lang.Exception"},
	"java.util.EventObject":       {"java.lang.Object", "java.io.Serializable"},
	"java.util.AbstractList":      {"java.lang.Object"},
	"java.util.ArrayList":         {"java.util.AbstractList", "java.lang.Cloneable", "java.io.Serializable"},
	"java.util.AbstractMap":       {"java.lang.Object"},
	"java.util.HashMap":           {"java.util.AbstractMap", "java.lang.Cloneable", "java.io.Serializable"},
	"java.awt.Component":          {"java.lang.Object", "java.io.Serializable"},
	"java.awt.Container":          {"java.awt.Component"},
	"javax.swing.JComponent":      {"java.awt.Container"},
	"javax.swing.JPanel":          {"javax.swing.JComponent"},
	"javax.swing.AbstractAction":  {"java.lang.Object", "java.lang.Cloneable", "java.io.Serializable"},
	"java.util.concurrent.Future": nil,
}

type closure struct {
	chain      []string
	set        map[string]struct{}
	incomplete bool
}

// Workspace resolves supertypes across a set of units and the library
// index. Supertype closures are computed once, when the workspace is built;
// after that the workspace is read-only and safe for concurrent use.
type Workspace struct {
	classes  map[string]*ClassNode
	units    map[*ClassNode]*Unit
	closures map[string]*closure
}

func NewWorkspace(units ...*Unit) *Workspace {
	ws := &Workspace{
		classes:  make(map[string]*ClassNode),
		units:    make(map[*ClassNode]*Unit),
		closures: make(map[string]*closure),
	}
	for _, u := range units {
		u.Walk(func(c *ClassNode) bool {
			if _, dup := ws.classes[c.QualifiedName]; !dup {
				ws.classes[c.QualifiedName] = c
			}
			ws.units[c] = u
			return true
		})
	}
	for _, u := range units {
		u.Walk(func(c *ClassNode) bool {
			ws.closureOf(c.QualifiedName, map[string]bool{}, nil)
			return true
		})
	}
	for _, name := range slices.Sorted(maps.Keys(library)) {
		ws.closureOf(name, map[string]bool{}, nil)
	}
	return ws
}

// Class looks a class up by qualified name.
func (ws *Workspace) Class(name string) (*ClassNode, bool) {
	c, ok := ws.classes[name]
	return c, ok
}

func (ws *Workspace) Kind(c *ClassNode) Kind {
	if c.Kind == "" {
		return KindClass
	}
	return c.Kind
}

func (ws *Workspace) Modifiers(c *ClassNode) Modifiers      { return c.Modifiers }
func (ws *Workspace) Fields(c *ClassNode) []FieldNode       { return c.Fields }
func (ws *Workspace) EnclosingClass(c *ClassNode) *ClassNode { return c.Enclosing }

func (ws *Workspace) ImplementsMarker(c *ClassNode, marker string) (bool, error) {
	cl := ws.closureFor(c)
	if _, ok := cl.set[marker]; ok {
		return true, nil
	}
	if cl.incomplete {
		return false, fmt.Errorf("%s: %w supertype", c.QualifiedName, ErrUnresolved)
	}
	return false, nil
}

func (ws *Workspace) SupertypeChain(c *ClassNode) ([]string, error) {
	cl := ws.closureFor(c)
	out := append([]string(nil), cl.chain...)
	if cl.incomplete {
		return out, fmt.Errorf("%s: %w supertype", c.QualifiedName, ErrUnresolved)
	}
	return out, nil
}

// closureFor covers classes that are not the indexed instance of their
// name: classes built outside the workspace, and a second declaration of a
// name another unit already owns. Their closure is computed into a scratch
// cache so ws.closures is never written after construction.
func (ws *Workspace) closureFor(c *ClassNode) *closure {
	if cl, ok := ws.closures[c.QualifiedName]; ok && ws.classes[c.QualifiedName] == c {
		return cl
	}
	return ws.expand(c, c.Supertypes, map[string]bool{c.QualifiedName: true}, map[string]*closure{})
}

// closureOf stores new closures in scratch, or in ws.closures when scratch
// is nil. Only NewWorkspace passes nil.
func (ws *Workspace) closureOf(name string, visiting map[string]bool, scratch map[string]*closure) *closure {
	if cl, ok := ws.closures[name]; ok {
		return cl
	}
	if cl, ok := scratch[name]; ok {
		return cl
	}
	if visiting[name] {
		// cyclic hierarchy; treat the back edge as unresolved
		return &closure{set: map[string]struct{}{}, incomplete: true}
	}
	visiting[name] = true
	defer delete(visiting, name)

	var supers []string
	var from *ClassNode
	if c, ok := ws.classes[name]; ok {
		supers, from = c.Supertypes, c
	} else if s, ok := library[name]; ok {
		supers = s
	} else {
		return nil
	}
	cl := ws.expand(from, supers, visiting, scratch)
	if scratch != nil {
		scratch[name] = cl
	} else {
		ws.closures[name] = cl
	}
	return cl
}

func (ws *Workspace) expand(from *ClassNode, supers []string, visiting map[string]bool, scratch map[string]*closure) *closure {
	cl := &closure{set: map[string]struct{}{}}
	add := func(n string) {
		if _, ok := cl.set[n]; ok {
			return
		}
		cl.set[n] = struct{}{}
		cl.chain = append(cl.chain, n)
	}
	for _, raw := range supers {
		name, ok := ws.resolve(from, raw)
		if !ok {
			cl.incomplete = true
			continue
		}
		add(name)
		sub := ws.closureOf(name, visiting, scratch)
		if sub == nil {
			cl.incomplete = true
			continue
		}
		for _, n := range sub.chain {
			add(n)
		}
		if sub.incomplete {
			cl.incomplete = true
		}
	}
	return cl
}

// resolve maps a written supertype name to a known qualified name: exact
// match first, then siblings in the declaring scopes, the unit package,
// and finally java.lang.
func (ws *Workspace) resolve(from *ClassNode, raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", false
	}
	if ws.known(name) {
		return name, true
	}
	if from != nil {
		for scope := from.Enclosing; scope != nil; scope = scope.Enclosing {
			if cand := scope.QualifiedName + "." + name; ws.known(cand) {
				return cand, true
			}
		}
		if u := ws.units[from]; u != nil && u.Package != "" {
			if cand := u.Package + "." + name; ws.known(cand) {
				return cand, true
			}
		}
	}
	if cand := "java.lang." + name; ws.known(cand) {
		return cand, true
	}
	return "", false
}

func (ws *Workspace) known(name string) bool {
	if _, ok := ws.classes[name]; ok {
		return true
	}
	_, ok := library[name]
	return ok
}
