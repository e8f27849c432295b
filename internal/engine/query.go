package engine

import (
	"fmt"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
	"github.com/hdl-checker/hdl-checker/internal/planner"
)

// Location points at a design-unit declaration: the file that owns it and
// the position the parser recorded for it.
type Location struct {
	Path string
	Line int
	Col  int
}

// GetDefinition finds the reference at (line, col) in path — a dependency
// or a design unit — and returns the locations of whatever declares it
// (spec §4.6). Only read locks on the database are taken, so this may run
// concurrently with an in-flight GetDiagnostics (spec §5).
func (e *Engine) GetDefinition(path string, line, col int) ([]Location, error) {
	sf, ok := e.db.File(path)
	if !ok {
		return nil, fmt.Errorf("hdl-checker: %s is not a known source file", path)
	}
	ownLib, _ := e.db.LibraryOf(path)

	for _, dep := range sf.Dependencies {
		if !atPosition(dep.Locations, line, col) {
			continue
		}
		candidates := e.db.PathsByDesignUnit(dep.Library, dep.Name, ownLib)
		return e.locationsForUnit(candidates, dep.Name), nil
	}

	// Not a reference: check whether (line, col) sits on one of this
	// file's own design-unit declarations (e.g. an architecture's "of
	// ENTITY" clause pointing back at its entity).
	for _, du := range sf.DesignUnits {
		if atPosition(du.Locations, line, col) && !du.EntityName.IsZero() {
			candidates := e.db.PathsByDesignUnit(ownLib, du.EntityName, ownLib)
			return e.locationsForUnit(candidates, du.EntityName), nil
		}
	}

	return nil, nil
}

func atPosition(locs []parser.Position, line, col int) bool {
	for _, l := range locs {
		if l.Line == line && l.Col == col {
			return true
		}
	}
	return false
}

func (e *Engine) locationsForUnit(candidates []ident.Path, name ident.Identifier) []Location {
	var out []Location
	for _, c := range candidates {
		csf, ok := e.db.File(c.Abs())
		if !ok {
			continue
		}
		for _, du := range csf.DesignUnits {
			if !du.Name.Equal(name) {
				continue
			}
			for _, loc := range du.Locations {
				out = append(out, Location{Path: c.Abs(), Line: loc.Line, Col: loc.Col})
			}
		}
	}
	return out
}

// GetHover reports, for a dependency reference, its resolved library and
// owning path(s); for a design unit, the planned compilation sequence and
// library it would compile into (spec §4.6).
func (e *Engine) GetHover(path string, line, col int) (string, error) {
	sf, ok := e.db.File(path)
	if !ok {
		return "", fmt.Errorf("hdl-checker: %s is not a known source file", path)
	}
	ownLib, _ := e.db.LibraryOf(path)

	for _, dep := range sf.Dependencies {
		if !atPosition(dep.Locations, line, col) {
			continue
		}
		candidates := e.db.PathsByDesignUnit(dep.Library, dep.Name, ownLib)
		if len(candidates) == 0 {
			return fmt.Sprintf("%s.%s: unresolved", dep.Library.String(), dep.Name.String()), nil
		}
		var owners []string
		for _, c := range candidates {
			owners = append(owners, c.Abs())
		}
		resolvedLib := dep.Library
		if dep.IsWork() {
			resolvedLib = ownLib
		}
		return fmt.Sprintf("%s.%s resolves to library %q: %s", dep.Library.String(), dep.Name.String(), resolvedLib.String(), strings.Join(owners, ", ")), nil
	}

	for _, du := range sf.DesignUnits {
		if !atPosition(du.Locations, line, col) {
			continue
		}
		target, err := ident.Stat(path)
		if err != nil {
			return "", err
		}
		plan := planner.Plan(e.db, target)
		return fmt.Sprintf("%s %s in library %q, compiled at position %d of %d", du.Kind.String(), du.Name.String(), ownLib.String(), indexOf(plan.Order, path)+1, len(plan.Order)), nil
	}

	return "", nil
}

func indexOf(order []ident.Path, path string) int {
	for i, p := range order {
		if p.Abs() == path {
			return i
		}
	}
	return -1
}
