// Package fixes holds the corrective actions rules attach to issues and the
// executor a host uses to apply them.
package fixes

import (
	"errors"
	"fmt"

	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/tree"
)

const AddSerialVersionUIDName = "AddSerialVersionUIDField"

// AddSerialVersionUID inserts a version identifier stub into Class. The
// value is left for the author (or later tooling) to fill in.
type AddSerialVersionUID struct {
	Class string
}

func (a AddSerialVersionUID) Name() string { return AddSerialVersionUIDName }

func (a AddSerialVersionUID) Apply(ed ir.Editor) error {
	return ed.InsertField(a.Class, VersionIDField())
}

// VersionIDField is the declaration AddSerialVersionUID inserts.
func VersionIDField() tree.FieldNode {
	return tree.FieldNode{
		Name:      "serialVersionUID",
		Type:      "long",
		Modifiers: tree.NewModifiers(tree.Private, tree.Static, tree.Final),
	}
}

// Result is the outcome of applying one issue's action.
type Result struct {
	IssueID string
	Fix     string
	Err     error
}

// Apply runs the actions of the given issues against ed, in order. Issues
// without an action are skipped. It keeps going after a failed action and
// returns every failure joined.
func Apply(issues []ir.Issue, ed ir.Editor) ([]Result, error) {
	var (
		out  []Result
		errs []error
	)
	for _, is := range issues {
		if is.Action == nil {
			continue
		}
		err := is.Action.Apply(ed)
		if err != nil {
			err = fmt.Errorf("apply %s to %s: %w", is.Action.Name(), is.Node, err)
			errs = append(errs, err)
		}
		out = append(out, Result{IssueID: is.ID, Fix: is.Action.Name(), Err: err})
	}
	return out, errors.Join(errs...)
}
