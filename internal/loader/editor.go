package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/codewithboateng/jinspect/internal/tree"
)

var ErrUnknownClass = errors.New("unknown class")

// Editor applies source edits to loaded snapshots. Edits change both the
// document and the in-memory tree; Save writes the touched files back.
type Editor struct {
	byClass map[string]*File
	dirty   map[*File]bool
}

func NewEditor(files []*File) *Editor {
	ed := &Editor{byClass: map[string]*File{}, dirty: map[*File]bool{}}
	for _, f := range files {
		for qn := range f.classes {
			ed.byClass[qn] = f
		}
	}
	return ed
}

// InsertField adds fd as the first field of class. A field of the same name
// must not already exist.
func (ed *Editor) InsertField(class string, fd tree.FieldNode) error {
	f, ok := ed.byClass[class]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	cd := f.classes[class]
	for _, existing := range cd.Fields {
		if existing.Name == fd.Name {
			return fmt.Errorf("%s already declares %s", class, fd.Name)
		}
	}
	doc := FieldDoc{Name: fd.Name, Type: fd.Type, Modifiers: modifierNames(fd.Modifiers)}
	cd.Fields = append([]FieldDoc{doc}, cd.Fields...)

	if c := findClass(f.Unit, class); c != nil {
		c.Fields = append([]tree.FieldNode{fd}, c.Fields...)
	}
	ed.dirty[f] = true
	return nil
}

// Pending lists the files with unsaved edits.
func (ed *Editor) Pending() []string {
	var out []string
	for f := range ed.dirty {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}

// Save writes every edited file in its original format.
func (ed *Editor) Save() error {
	var errs []error
	for _, p := range ed.Pending() {
		f := ed.fileAt(p)
		if f == nil {
			continue
		}
		if err := writeFile(f); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(ed.dirty, f)
	}
	return errors.Join(errs...)
}

func (ed *Editor) fileAt(path string) *File {
	for f := range ed.dirty {
		if f.Path == path {
			return f
		}
	}
	return nil
}

func writeFile(f *File) error {
	if f.Path == "" {
		return fmt.Errorf("%s: no file to write", f.Unit.Path)
	}
	var (
		b   []byte
		err error
	)
	if strings.HasSuffix(strings.ToLower(f.Path), ".json") {
		b, err = json.MarshalIndent(f.Doc, "", "  ")
		b = append(b, '\n')
	} else {
		b, err = Encode(f.Doc)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Path, err)
	}
	return os.WriteFile(f.Path, b, 0o644)
}

func findClass(u *tree.Unit, qn string) *tree.ClassNode {
	var hit *tree.ClassNode
	u.Walk(func(c *tree.ClassNode) bool {
		if c.QualifiedName == qn {
			hit = c
			return false
		}
		return true
	})
	return hit
}

func modifierNames(ms tree.Modifiers) []string {
	var out []string
	for _, m := range ms.Sorted() {
		out = append(out, string(m))
	}
	return out
}
