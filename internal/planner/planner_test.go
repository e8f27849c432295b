package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// fakeDB is a minimal in-memory planner.Database for tests: each entry is a
// file in a library declaring one design unit named after itself and
// depending on a fixed list of (library, name) pairs.
type fakeDB struct {
	library map[string]ident.Identifier                     // path -> library
	decl    map[string]map[string][]string                  // library key -> name key -> paths
	deps    map[string][]parser.Dependency                   // path -> dependencies
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		library: make(map[string]ident.Identifier),
		decl:    make(map[string]map[string][]string),
		deps:    make(map[string][]parser.Dependency),
	}
}

func (f *fakeDB) addFile(path string, lib string, declares string, deps ...parser.Dependency) {
	f.library[path] = ident.New(lib, false)
	if f.decl[lib] == nil {
		f.decl[lib] = make(map[string][]string)
	}
	f.decl[lib][declares] = append(f.decl[lib][declares], path)
	f.deps[path] = deps
}

func (f *fakeDB) LibraryOf(path string) (ident.Identifier, bool) {
	l, ok := f.library[path]
	return l, ok
}

func (f *fakeDB) PathsByDesignUnit(library, name, requesterLibrary ident.Identifier) []ident.Path {
	libKey := library.Key()
	if libKey == "work" {
		libKey = requesterLibrary.Key()
	}
	var out []ident.Path
	for _, p := range f.decl[libKey][name.Key()] {
		out = append(out, ident.NewPath(p))
	}
	return out
}

func (f *fakeDB) Dependencies(path string) ([]parser.Dependency, bool) {
	d, ok := f.deps[path]
	return d, ok
}

func dep(lib, name string) parser.Dependency {
	return parser.Dependency{Library: ident.New(lib, false), Name: ident.New(name, false)}
}

func TestPlanOrdersDependenciesBeforeDependents(t *testing.T) {
	f := newFakeDB()
	f.addFile("/p/pkg.vhd", "lib_a", "p")
	f.addFile("/p/top.vhd", "lib_a", "top", dep("work", "p"))

	plan := Plan(f, ident.NewPath("/p/top.vhd"))

	require.Equal(t, []string{"/p/pkg.vhd", "/p/top.vhd"}, pathStrings(plan.Order))
	require.Empty(t, plan.BrokenEdges)
}

func TestPlanAlwaysIncludesTargetEvenWithNoDependencies(t *testing.T) {
	f := newFakeDB()
	f.addFile("/p/lonely.vhd", "lib_a", "lonely")

	plan := Plan(f, ident.NewPath("/p/lonely.vhd"))
	require.Equal(t, []string{"/p/lonely.vhd"}, pathStrings(plan.Order))
	require.Len(t, plan.Levels, 1)
}

func TestPlanDropsUnresolvedDependencies(t *testing.T) {
	f := newFakeDB()
	f.addFile("/p/top.vhd", "lib_a", "top", dep("lib_a", "missing"))

	plan := Plan(f, ident.NewPath("/p/top.vhd"))
	require.Equal(t, []string{"/p/top.vhd"}, pathStrings(plan.Order))
}

func TestPlanToleratesCyclesByBreakingLexicographicallyGreatestBackEdge(t *testing.T) {
	f := newFakeDB()
	// a depends on b, b depends on a (e.g. mutually-recursive package
	// bodies) — a cycle that must not fail planning.
	f.addFile("/p/a.vhd", "lib_a", "a", dep("work", "b"))
	f.addFile("/p/b.vhd", "lib_a", "b", dep("work", "a"))

	plan := Plan(f, ident.NewPath("/p/a.vhd"))

	require.Len(t, plan.BrokenEdges, 1)
	require.ElementsMatch(t, []string{"/p/a.vhd", "/p/b.vhd"}, pathStrings(plan.Order))
}

func TestPlanGroupsIndependentFilesIntoTheSameLevel(t *testing.T) {
	f := newFakeDB()
	f.addFile("/p/a.vhd", "lib_a", "a")
	f.addFile("/p/b.vhd", "lib_a", "b")
	f.addFile("/p/top.vhd", "lib_a", "top", dep("work", "a"), dep("work", "b"))

	plan := Plan(f, ident.NewPath("/p/top.vhd"))

	require.Len(t, plan.Levels, 2)
	require.ElementsMatch(t, []string{"/p/a.vhd", "/p/b.vhd"}, pathStrings(plan.Levels[0]))
	require.Equal(t, []string{"/p/top.vhd"}, pathStrings(plan.Levels[1]))
}

func pathStrings(paths []ident.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.Abs()
	}
	return out
}
