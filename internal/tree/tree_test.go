package tree

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func class(name string, supers ...string) *ClassNode {
	return &ClassNode{Name: name, QualifiedName: name, Kind: KindClass, Modifiers: NewModifiers(), Supertypes: supers}
}

func nest(parent *ClassNode, children ...*ClassNode) *ClassNode {
	for _, c := range children {
		c.Enclosing = parent
		c.QualifiedName = parent.QualifiedName + "." + c.Name
		parent.Nested = append(parent.Nested, c)
	}
	return parent
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{"", KindClass, false},
		{"Interface", KindInterface, false},
		{"@interface", KindAnnotation, false},
		{"enum", KindEnum, false},
		{"record", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("ParseKind(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWalkPreOrder(t *testing.T) {
	inner := class("Inner")
	outer := nest(class("com.acme.Outer"), inner, class("Other"))
	nest(inner, class("Deep"))
	u := &Unit{Path: "Outer.java", Classes: []*ClassNode{outer, class("com.acme.Second")}}

	var got []string
	u.Walk(func(c *ClassNode) bool {
		got = append(got, c.QualifiedName)
		return true
	})
	want := []string{
		"com.acme.Outer",
		"com.acme.Outer.Inner",
		"com.acme.Outer.Inner.Deep",
		"com.acme.Outer.Other",
		"com.acme.Second",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
	if u.Count() != 5 {
		t.Fatalf("Count = %d, want 5", u.Count())
	}
}

func TestValidate(t *testing.T) {
	outer := nest(class("Outer"), class("Inner"))
	if err := Validate(&Unit{Classes: []*ClassNode{outer}}); err != nil {
		t.Fatalf("valid tree rejected: %v", err)
	}

	stray := class("Stray")
	stray.Enclosing = outer
	if err := Validate(&Unit{Classes: []*ClassNode{outer, stray}}); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("top-level class with enclosing pointer: err = %v, want ErrIntegrity", err)
	}

	other := class("Other")
	moved := class("Moved")
	moved.Enclosing = other
	outer.Nested = append(outer.Nested, moved)
	if err := Validate(&Unit{Classes: []*ClassNode{outer, other}}); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("mismatched parent: err = %v, want ErrIntegrity", err)
	}
}

func TestWorkspaceMarkers(t *testing.T) {
	base := class("com.acme.Base", "java.io.Serializable")
	derived := class("com.acme.Derived", "com.acme.Base")
	ext := class("com.acme.Ext", "java.io.Externalizable")
	plain := class("com.acme.Plain", "java.lang.Object")
	broken := class("com.acme.Broken", "org.missing.Thing")
	ws := NewWorkspace(&Unit{Classes: []*ClassNode{base, derived, ext, plain, broken}})

	tests := []struct {
		c       *ClassNode
		want    bool
		unknown bool
	}{
		{base, true, false},
		{derived, true, false},
		{ext, true, false},
		{plain, false, false},
		{broken, false, true},
	}
	for _, tt := range tests {
		got, err := ws.ImplementsMarker(tt.c, SerializableMarker)
		if got != tt.want {
			t.Errorf("%s: ImplementsMarker = %v, want %v", tt.c.QualifiedName, got, tt.want)
		}
		if errors.Is(err, ErrUnresolved) != tt.unknown {
			t.Errorf("%s: err = %v, unknown want %v", tt.c.QualifiedName, err, tt.unknown)
		}
	}
}

func TestWorkspaceResolvesSiblingsAndPackage(t *testing.T) {
	helper := class("Helper", "java.io.Serializable")
	user := class("User", "Helper")
	outer := nest(class("com.acme.Outer"), helper, user)
	top := class("com.acme.Top", "Outer", "Runnable")
	u := &Unit{Path: "Outer.java", Package: "com.acme", Classes: []*ClassNode{outer, top}}
	ws := NewWorkspace(u)

	chain, err := ws.SupertypeChain(user)
	if err != nil {
		t.Fatalf("SupertypeChain(User): %v", err)
	}
	if diff := cmp.Diff([]string{"com.acme.Outer.Helper", "java.io.Serializable"}, chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}

	chain, err = ws.SupertypeChain(top)
	if err != nil {
		t.Fatalf("SupertypeChain(Top): %v", err)
	}
	if diff := cmp.Diff([]string{"com.acme.Outer", "java.lang.Runnable"}, chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkspaceCycleIsUnresolved(t *testing.T) {
	a := class("A", "B")
	b := class("B", "A")
	ws := NewWorkspace(&Unit{Classes: []*ClassNode{a, b}})
	if _, err := ws.ImplementsMarker(a, SerializableMarker); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("cyclic hierarchy: err = %v, want ErrUnresolved", err)
	}
}

func TestWorkspaceForeignClass(t *testing.T) {
	ws := NewWorkspace()
	c := class("x.Loose", "java.util.ArrayList")
	ok, err := ws.ImplementsMarker(c, SerializableMarker)
	if err != nil || !ok {
		t.Fatalf("ImplementsMarker = %v, %v; want true, nil", ok, err)
	}
}

func TestWorkspaceDuplicateNamesConcurrent(t *testing.T) {
	var units []*Unit
	var inners []*ClassNode
	for i := 0; i < 12; i++ {
		super := "java.util.HashMap"
		if i%2 == 1 {
			super = "java.lang.Runnable"
		}
		inner := class("Inner", super)
		units = append(units, &Unit{
			Path:    fmt.Sprintf("app/Outer%d.java", i),
			Classes: []*ClassNode{nest(class("app.Outer"), inner)},
		})
		inners = append(inners, inner)
	}
	ws := NewWorkspace(units...)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, c := range inners {
				ok, err := ws.ImplementsMarker(c, SerializableMarker)
				if err != nil {
					t.Errorf("unit %d: %v", i, err)
					return
				}
				if want := i%2 == 0; ok != want {
					t.Errorf("unit %d: ImplementsMarker = %v, want %v", i, ok, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
