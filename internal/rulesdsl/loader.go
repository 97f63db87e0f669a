// Package rulesdsl loads declarative rule packs: YAML files describing
// marker-interface checks that run alongside the built-in rules.
package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/jinspect/internal/predicate"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/tree"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Severity string `yaml:"severity"` // LOW|MEDIUM|HIGH
	Display  string `yaml:"display"`
	Message  string `yaml:"message"` // fmt template, %s is the class name

	Where struct {
		Implements   string `yaml:"implements"`    // marker FQN, required
		Scope        string `yaml:"scope"`         // any|top|nested|inner (default any)
		MissingField string `yaml:"missing_field"` // flag only when absent
		Name         string `yaml:"name"`          // regex on the qualified name
	} `yaml:"where"`
}

type compiled struct {
	rule   dslRule
	reName *regexp.Regexp
}

// Pack is the result of loading one rule pack file.
type Pack struct {
	Rules     []rules.Rule
	Templates map[string]string // message key -> template
}

// Load reads and compiles a pack without registering it.
func Load(path string) (Pack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read rules pack: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (Pack, error) {
	var raw dslPack
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Pack{}, fmt.Errorf("parse yaml: %w", err)
	}
	pack := Pack{Templates: map[string]string{}}
	seen := map[string]bool{}
	for _, r := range raw.Rules {
		c, err := compile(r)
		if err != nil {
			return Pack{}, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		if seen[strings.ToUpper(r.ID)] {
			return Pack{}, fmt.Errorf("rule %q defined twice", r.ID)
		}
		seen[strings.ToUpper(r.ID)] = true
		rule := c.toRule()
		pack.Rules = append(pack.Rules, rule)
		pack.Templates[rule.ProblemKey] = r.Message
		if r.Display != "" {
			pack.Templates[rule.DisplayKey] = r.Display
		}
	}
	return pack, nil
}

// LoadAndRegister loads a pack into the rule catalog. Built-in rules cannot
// be replaced.
func LoadAndRegister(path string) (Pack, error) {
	pack, err := Load(path)
	if err != nil {
		return Pack{}, err
	}
	for _, r := range pack.Rules {
		if _, taken := rules.Get(r.ID); taken {
			return Pack{}, fmt.Errorf("rule %q already registered", r.ID)
		}
	}
	for _, r := range pack.Rules {
		rules.Register(r)
	}
	return pack, nil
}

func compile(r dslRule) (*compiled, error) {
	if r.ID == "" || r.Severity == "" || r.Message == "" || r.Where.Implements == "" {
		return nil, fmt.Errorf("missing required fields (id/severity/message/where.implements)")
	}
	switch strings.ToUpper(r.Severity) {
	case "LOW", "MEDIUM", "HIGH":
	default:
		return nil, fmt.Errorf("severity %q", r.Severity)
	}
	switch strings.ToLower(r.Where.Scope) {
	case "", "any", "top", "nested", "inner":
	default:
		return nil, fmt.Errorf("scope %q", r.Where.Scope)
	}
	if err := checkTemplate(r.Message, 1); err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	if err := checkTemplate(r.Display, 0); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	c := &compiled{rule: r}
	if r.Where.Name != "" {
		re, err := regexp.Compile(r.Where.Name)
		if err != nil {
			return nil, fmt.Errorf("name regex: %w", err)
		}
		c.reName = re
	}
	return c, nil
}

// checkTemplate allows "%%" and at most max plain "%s" verbs, the only
// forms the message formatter can fill.
func checkTemplate(t string, max int) error {
	n := 0
	for i := 0; i < len(t); i++ {
		if t[i] != '%' {
			continue
		}
		if i+1 == len(t) {
			return fmt.Errorf("trailing %%")
		}
		i++
		switch t[i] {
		case '%':
		case 's':
			n++
		default:
			return fmt.Errorf("unsupported verb %%%c (use %%s or %%%%)", t[i])
		}
	}
	if n > max {
		return fmt.Errorf("%d %%s verbs, at most %d allowed", n, max)
	}
	return nil
}

func (c *compiled) toRule() rules.Rule {
	key := "pack." + strings.ToLower(c.rule.ID)
	return rules.Rule{
		ID:         c.rule.ID,
		Summary:    c.rule.Summary,
		Severity:   strings.ToUpper(c.rule.Severity),
		DisplayKey: key + ".display.name",
		ProblemKey: key + ".problem.descriptor",
		Evaluate:   c.evaluate,
	}
}

func (c *compiled) evaluate(ctx rules.EvalContext) rules.Verdict {
	f, cls := ctx.Facade, ctx.Class
	no := rules.Verdict{Control: rules.SkipChildren}
	if predicate.ExcludedKind(f, cls) {
		return no
	}
	if !inScope(f, cls, c.rule.Where.Scope) {
		return no
	}
	if ctx.Config.IgnoreAnonymous && predicate.Anonymous(cls) {
		return no
	}
	if c.reName != nil && !c.reName.MatchString(cls.QualifiedName) {
		return no
	}
	if name := c.rule.Where.MissingField; name != "" {
		for _, fd := range f.Fields(cls) {
			if fd.Name == name {
				return no
			}
		}
	}
	if ok, err := f.ImplementsMarker(cls, c.rule.Where.Implements); err != nil || !ok {
		return no
	}
	if predicate.IgnoredSubclass(f, cls, ctx.Config.Excluded.Matcher()) != predicate.No {
		return no
	}
	return rules.Verdict{Flag: true, Control: rules.SkipChildren}
}

func inScope(f tree.Facade, c *tree.ClassNode, scope string) bool {
	switch strings.ToLower(scope) {
	case "top":
		return !predicate.Nested(f, c)
	case "nested":
		return predicate.Nested(f, c)
	case "inner":
		return predicate.InnerNonStatic(f, c)
	}
	return true
}
