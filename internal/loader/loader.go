// Package loader reads compilation-unit snapshots (*.unit.yaml, *.unit.json)
// produced by a host's semantic model and turns them into tree units.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codewithboateng/jinspect/internal/tree"
)

// IgnoreFile lists paths (gitignore syntax) the loader skips.
const IgnoreFile = ".jinspectignore"

var suffixes = []string{".unit.yaml", ".unit.yml", ".unit.json"}

type Diagnostics struct {
	Warnings []string
}

// File is one decoded snapshot: where it lives, its document and the unit
// built from it.
type File struct {
	Path string // on disk
	Doc  *UnitDoc
	Unit *tree.Unit

	classes map[string]*ClassDoc // qualified name -> document node
}

// Load decodes every snapshot under root. Files that fail to decode are
// reported as warnings and skipped.
func Load(root string) ([]*File, Diagnostics) {
	diags := Diagnostics{}
	gi := loadIgnore(root)

	var files []*File
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			diags.Warnings = append(diags.Warnings, fmt.Sprintf("%s: %v", p, err))
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if p != root && gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSnapshot(d.Name()) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		f, lerr := LoadFile(p, filepath.ToSlash(rel))
		if lerr != nil {
			diags.Warnings = append(diags.Warnings, lerr.Error())
			return nil
		}
		files = append(files, f)
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Unit.Path < files[j].Unit.Path })
	diags.Warnings = append(diags.Warnings, duplicateClasses(files)...)
	if len(files) == 0 {
		diags.Warnings = append(diags.Warnings, "no unit snapshots found")
	}
	return files, diags
}

// Units returns the units of files, in order.
func Units(files []*File) []*tree.Unit {
	out := make([]*tree.Unit, 0, len(files))
	for _, f := range files {
		out = append(out, f.Unit)
	}
	return out
}

// LoadFile reads and decodes one snapshot. rel names the unit when the
// document does not carry a path of its own.
func LoadFile(path, rel string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Decode(b, defaultUnitPath(rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// duplicateClasses warns about qualified names declared by more than one
// unit. The first unit in path order owns the name for resolution.
func duplicateClasses(files []*File) []string {
	owner := map[string]string{}
	var out []string
	for _, f := range files {
		names := make([]string, 0, len(f.classes))
		for qn := range f.classes {
			names = append(names, qn)
		}
		sort.Strings(names)
		for _, qn := range names {
			if first, dup := owner[qn]; dup {
				out = append(out, fmt.Sprintf("%s: class %s already declared in %s", f.Unit.Path, qn, first))
				continue
			}
			owner[qn] = f.Unit.Path
		}
	}
	return out
}

func isSnapshot(name string) bool {
	name = strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func defaultUnitPath(rel string) string {
	lower := strings.ToLower(rel)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return rel[:len(rel)-len(s)] + ".java"
		}
	}
	return rel
}

func loadIgnore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	return gi
}
