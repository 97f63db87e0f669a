package loader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/jinspect/internal/tree"
)

// UnitDoc is the on-disk form of a compilation unit. JSON snapshots use the
// same keys.
type UnitDoc struct {
	Path    string     `yaml:"path,omitempty" json:"path,omitempty"`
	Package string     `yaml:"package,omitempty" json:"package,omitempty"`
	Classes []ClassDoc `yaml:"classes" json:"classes"`
}

type ClassDoc struct {
	Name       string     `yaml:"name,omitempty" json:"name,omitempty"`
	Kind       string     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Line       int        `yaml:"line,omitempty" json:"line,omitempty"`
	Anonymous  bool       `yaml:"anonymous,omitempty" json:"anonymous,omitempty"`
	Modifiers  []string   `yaml:"modifiers,flow,omitempty" json:"modifiers,omitempty"`
	Supertypes []string   `yaml:"supertypes,flow,omitempty" json:"supertypes,omitempty"`
	Fields     []FieldDoc `yaml:"fields,omitempty" json:"fields,omitempty"`
	Nested     []ClassDoc `yaml:"nested,omitempty" json:"nested,omitempty"`
}

type FieldDoc struct {
	Name      string   `yaml:"name" json:"name"`
	Type      string   `yaml:"type,omitempty" json:"type,omitempty"`
	Modifiers []string `yaml:"modifiers,flow,omitempty" json:"modifiers,omitempty"`
}

// Decode parses a snapshot. unitPath is used when the document has no path.
func Decode(data []byte, unitPath string) (*File, error) {
	var doc UnitDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if doc.Path == "" {
		doc.Path = unitPath
	}
	return build(&doc)
}

// Encode renders a document back to YAML.
func Encode(doc *UnitDoc) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func build(doc *UnitDoc) (*File, error) {
	if strings.TrimSpace(doc.Path) == "" {
		return nil, errors.New("unit without path")
	}
	f := &File{Doc: doc, classes: map[string]*ClassDoc{}}
	u := &tree.Unit{Path: doc.Path, Package: doc.Package}
	for i := range doc.Classes {
		cd := &doc.Classes[i]
		if cd.Anonymous {
			return nil, fmt.Errorf("top-level class %d: anonymous classes must be nested", i)
		}
		qn := cd.Name
		if doc.Package != "" {
			qn = doc.Package + "." + cd.Name
		}
		c, err := f.buildClass(cd, nil, qn)
		if err != nil {
			return nil, err
		}
		u.Classes = append(u.Classes, c)
	}
	f.Unit = u
	return f, nil
}

func (f *File) buildClass(cd *ClassDoc, parent *tree.ClassNode, qn string) (*tree.ClassNode, error) {
	if !cd.Anonymous && strings.TrimSpace(cd.Name) == "" {
		return nil, fmt.Errorf("class without name under %s", scopeName(parent))
	}
	kind, err := tree.ParseKind(cd.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", qn, err)
	}
	if _, dup := f.classes[qn]; dup {
		return nil, fmt.Errorf("%s declared twice", qn)
	}
	f.classes[qn] = cd

	c := &tree.ClassNode{
		Name:          cd.Name,
		QualifiedName: qn,
		Kind:          kind,
		Modifiers:     modifiers(cd.Modifiers),
		Supertypes:    append([]string(nil), cd.Supertypes...),
		Enclosing:     parent,
		Anonymous:     cd.Anonymous,
		Line:          cd.Line,
	}
	if implicitlyStatic(c) {
		c.Modifiers[tree.Static] = struct{}{}
	}
	for _, fd := range cd.Fields {
		c.Fields = append(c.Fields, tree.FieldNode{Name: fd.Name, Type: fd.Type, Modifiers: modifiers(fd.Modifiers)})
	}

	anon := 0
	for i := range cd.Nested {
		nd := &cd.Nested[i]
		var nqn string
		if nd.Anonymous {
			anon++
			nqn = qn + "$" + strconv.Itoa(anon)
		} else {
			nqn = qn + "." + nd.Name
		}
		n, err := f.buildClass(nd, c, nqn)
		if err != nil {
			return nil, err
		}
		c.Nested = append(c.Nested, n)
	}
	return c, nil
}

// Member types, and member classes of interfaces and annotations, are
// static whether or not the source says so. Anonymous classes never are.
func implicitlyStatic(c *tree.ClassNode) bool {
	if c.Enclosing == nil || c.Anonymous {
		return false
	}
	switch c.Kind {
	case tree.KindInterface, tree.KindEnum, tree.KindAnnotation:
		return true
	}
	switch c.Enclosing.Kind {
	case tree.KindInterface, tree.KindAnnotation:
		return true
	}
	return false
}

func modifiers(in []string) tree.Modifiers {
	ms := make([]tree.Modifier, 0, len(in))
	for _, m := range in {
		ms = append(ms, tree.Modifier(m))
	}
	return tree.NewModifiers(ms...)
}

func scopeName(c *tree.ClassNode) string {
	if c == nil {
		return "unit"
	}
	return c.QualifiedName
}
