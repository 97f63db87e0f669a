package rulesdsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/tree"
)

const pack = `
rules:
  - id: ExternalizableInnerClass
    summary: Non-static inner classes cannot be externalized.
    severity: high
    display: "Externalizable inner class"
    message: "Inner class '%s' implements Externalizable"
    where:
      implements: java.io.Externalizable
      scope: inner
  - id: DtoWithoutPersistentFields
    severity: low
    message: "'%s' does not declare serialPersistentFields"
    where:
      implements: java.io.Serializable
      scope: top
      missing_field: serialPersistentFields
      name: '\.dto\.'
`

func workspace() (*tree.Workspace, map[string]*tree.ClassNode) {
	outer := &tree.ClassNode{Name: "Order", QualifiedName: "app.dto.Order", Kind: tree.KindClass, Supertypes: []string{"java.io.Serializable"}}
	ext := &tree.ClassNode{Name: "Ext", QualifiedName: "app.dto.Order.Ext", Kind: tree.KindClass, Supertypes: []string{"java.io.Externalizable"}, Enclosing: outer}
	static := &tree.ClassNode{Name: "Key", QualifiedName: "app.dto.Order.Key", Kind: tree.KindClass, Supertypes: []string{"java.io.Externalizable"}, Enclosing: outer, Modifiers: tree.NewModifiers(tree.Static)}
	outer.Nested = []*tree.ClassNode{ext, static}
	svc := &tree.ClassNode{Name: "Svc", QualifiedName: "app.svc.Svc", Kind: tree.KindClass, Supertypes: []string{"java.io.Serializable"}}
	ws := tree.NewWorkspace(
		&tree.Unit{Path: "app/dto/Order.java", Package: "app.dto", Classes: []*tree.ClassNode{outer}},
		&tree.Unit{Path: "app/svc/Svc.java", Package: "app.svc", Classes: []*tree.ClassNode{svc}},
	)
	return ws, map[string]*tree.ClassNode{"outer": outer, "ext": ext, "static": static, "svc": svc}
}

func TestParseAndEvaluate(t *testing.T) {
	p, err := Parse([]byte(pack))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Rules) != 2 || p.Rules[0].Severity != "HIGH" {
		t.Fatalf("rules = %+v", p.Rules)
	}
	ws, cs := workspace()
	eval := func(r rules.Rule, c *tree.ClassNode) bool {
		return r.Evaluate(rules.EvalContext{Facade: ws, Class: c}).Flag
	}

	ext := p.Rules[0]
	if !eval(ext, cs["ext"]) || eval(ext, cs["static"]) || eval(ext, cs["outer"]) {
		t.Fatalf("externalizable rule flagged the wrong classes")
	}
	dto := p.Rules[1]
	if !eval(dto, cs["outer"]) || eval(dto, cs["svc"]) || eval(dto, cs["ext"]) {
		t.Fatalf("dto rule flagged the wrong classes")
	}
	cs["outer"].Fields = []tree.FieldNode{{Name: "serialPersistentFields"}}
	if eval(dto, cs["outer"]) {
		t.Fatalf("declared field should satisfy the rule")
	}

	f := messages.Overlay(messages.MustLoad("en"), p.Templates)
	if got := f.Format(ext.ProblemKey, "a.B.C"); got != "Inner class 'a.B.C' implements Externalizable" {
		t.Fatalf("message = %q", got)
	}
	if got := f.Format(ext.DisplayKey); got != "Externalizable inner class" {
		t.Fatalf("display = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	bad := map[string]string{
		"yaml":      "rules: [",
		"required":  "rules: [{id: A, severity: low}]",
		"severity":  "rules: [{id: A, severity: extreme, message: m, where: {implements: x.Y}}]",
		"scope":     "rules: [{id: A, severity: low, message: m, where: {implements: x.Y, scope: outer}}]",
		"regex":     "rules: [{id: A, severity: low, message: m, where: {implements: x.Y, name: '('}}]",
		"duplicate": "rules: [{id: A, severity: low, message: m, where: {implements: x.Y}}, {id: a, severity: low, message: m, where: {implements: x.Y}}]",
		"int verb":  "rules: [{id: A, severity: low, message: 'class %d', where: {implements: x.Y}}]",
		"bare pct":  "rules: [{id: A, severity: low, message: '100% %s', where: {implements: x.Y}}]",
		"two args":  "rules: [{id: A, severity: low, message: '%s and %s', where: {implements: x.Y}}]",
		"trailing":  "rules: [{id: A, severity: low, message: 'class %s at 5%', where: {implements: x.Y}}]",
		"display":   "rules: [{id: A, severity: low, message: m, display: 'Check %s', where: {implements: x.Y}}]",
	}
	for name, src := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseAcceptsEscapedPercent(t *testing.T) {
	src := "rules: [{id: A, severity: low, message: '%s misses 100%% coverage', display: 'Coverage 100%%', where: {implements: x.Y}}]"
	pack, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := pack.Templates["pack.a.problem.descriptor"]; got != "%s misses 100%% coverage" {
		t.Fatalf("template = %q", got)
	}
}

func TestLoadAndRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	if err := os.WriteFile(path, []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAndRegister(path); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := rules.Get("externalizableinnerclass"); !ok {
		t.Fatalf("pack rule not in catalog")
	}
	if _, err := LoadAndRegister(path); err == nil {
		t.Fatalf("registering twice must fail")
	}

	clash := filepath.Join(t.TempDir(), "clash.yaml")
	body := "rules: [{id: " + rules.MissingUIDID + ", severity: low, message: m, where: {implements: java.io.Serializable}}]"
	if err := os.WriteFile(clash, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAndRegister(clash); err == nil {
		t.Fatalf("built-in rules must not be replaced")
	}
}
