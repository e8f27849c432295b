// Package planner implements the build planner (spec §4.3): given a target
// path, produce a deterministic, dependency-respecting compilation order,
// tolerating cycles by dropping a back-edge rather than failing. The
// level-by-level BFS shape is grounded on the teacher's
// internal/indexer/deps.go computeImpact, generalized from "who depends on
// this file" (impact analysis) to "what must this file wait for"
// (compilation order) by walking the dependency edges in the opposite
// direction.
package planner

import (
	"sort"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// Database is the subset of *db.Database the planner depends on, kept as
// an interface so planner tests never need a real source tree. It is
// satisfied directly by *db.Database.
type Database interface {
	LibraryOf(path string) (ident.Identifier, bool)
	PathsByDesignUnit(library, name, requesterLibrary ident.Identifier) []ident.Path
	Dependencies(path string) ([]parser.Dependency, bool)
}

// Edge is a dependency edge (src depends on dst) that the cycle-tolerance
// pass removed to keep the plan acyclic.
type Edge struct {
	Src ident.Path
	Dst ident.Path
}

// Plan is the planner's output: a flattened compilation Order plus the
// Levels grouping that respects concurrency (spec §4.3, §4.6): every path
// in Levels[i] has all its dependencies fully contained in earlier levels
// and so may be compiled concurrently with the rest of Levels[i].
type Plan struct {
	Order       []ident.Path
	Levels      [][]ident.Path
	BrokenEdges []Edge
	Diagnostics []diag.Diagnostic
}

// Plan resolves target's transitive dependency closure against database and
// returns a deterministic, leveled compilation order that always ends in
// target, per spec §4.3 rules 1-4.
func Plan(database Database, target ident.Path) Plan {
	edges := make(map[string]map[string]bool) // src abs -> set of dst abs
	nodes := make(map[string]ident.Path)

	var diagnostics []diag.Diagnostic
	var walk func(p ident.Path)
	visited := make(map[string]bool)
	walk = func(p ident.Path) {
		if visited[p.Abs()] {
			return
		}
		visited[p.Abs()] = true
		nodes[p.Abs()] = p
		if edges[p.Abs()] == nil {
			edges[p.Abs()] = make(map[string]bool)
		}

		deps, ok := database.Dependencies(p.Abs())
		if !ok {
			return
		}
		ownLib, _ := database.LibraryOf(p.Abs())

		for _, dep := range deps {
			candidates := database.PathsByDesignUnit(dep.Library, dep.Name, ownLib)
			if len(candidates) == 0 {
				continue
			}
			// Rule 1: deterministic choice by (library, path) when more
			// than one file declares the dependency. PathsByDesignUnit
			// already sorts by path within a single (library, name)
			// bucket, and since the library is fixed per call there is
			// exactly one bucket here, so the first candidate is the
			// (library, path)-least one.
			chosen := candidates[0]
			edges[p.Abs()][chosen.Abs()] = true
			walk(chosen)
		}
	}
	walk(target)

	brokenEdges := breakCyclesLocked(nodes, edges)

	libraryOf := func(abs string) string {
		lib, _ := database.LibraryOf(abs)
		return lib.Key()
	}
	order, levels := leveledOrder(nodes, edges, libraryOf)

	return Plan{
		Order:       order,
		Levels:      levels,
		BrokenEdges: brokenEdges,
		Diagnostics: diagnostics,
	}
}

// breakCyclesLocked detects cycles in edges via repeated DFS and removes
// the lexicographically greatest (src, dst) back-edge from each, until the
// graph is acyclic. Mutates edges in place and returns the removed edges in
// the order they were cut.
func breakCyclesLocked(nodes map[string]ident.Path, edges map[string]map[string]bool) []Edge {
	var broken []Edge

	for {
		backEdge, ok := findBackEdge(nodes, edges)
		if !ok {
			return broken
		}
		delete(edges[backEdge.Src.Abs()], backEdge.Dst.Abs())
		broken = append(broken, backEdge)
	}
}

// findBackEdge runs DFS from every node in sorted order and returns the
// lexicographically greatest (src,dst) edge that closes a cycle, if any.
func findBackEdge(nodes map[string]ident.Path, edges map[string]map[string]bool) (Edge, bool) {
	var order []string
	for p := range nodes {
		order = append(order, p)
	}
	sort.Strings(order)

	state := make(map[string]int) // 0=unvisited 1=in-progress 2=done
	var best Edge
	found := false

	var visit func(p string)
	visit = func(p string) {
		state[p] = 1
		var dsts []string
		for d := range edges[p] {
			dsts = append(dsts, d)
		}
		sort.Strings(dsts)
		for _, d := range dsts {
			if state[d] == 1 {
				cand := Edge{Src: nodes[p], Dst: nodes[d]}
				if !found || edgeKey(cand) > edgeKey(best) {
					best = cand
					found = true
				}
				continue
			}
			if state[d] == 0 {
				visit(d)
			}
		}
		state[p] = 2
	}

	for _, p := range order {
		if state[p] == 0 {
			visit(p)
		}
	}
	return best, found
}

func edgeKey(e Edge) string { return e.Src.Abs() + "\x00" + e.Dst.Abs() }

// leveledOrder topologically sorts the (now acyclic) graph by repeatedly
// peeling off the set of nodes whose dependencies have all been placed in
// an earlier level, tie-broken within a level by (library, path) per spec
// §4.3 rule 2. This is computeImpact's BFS-by-level shape run over the
// reversed edge set.
func leveledOrder(nodes map[string]ident.Path, edges map[string]map[string]bool, libraryOf func(string) string) ([]ident.Path, [][]ident.Path) {
	remaining := make(map[string]map[string]bool, len(edges))
	for p, dsts := range edges {
		cp := make(map[string]bool, len(dsts))
		for d := range dsts {
			cp[d] = true
		}
		remaining[p] = cp
	}

	var levels [][]ident.Path
	var order []ident.Path
	placed := make(map[string]bool, len(nodes))

	for len(placed) < len(nodes) {
		var level []string
		for p := range nodes {
			if placed[p] {
				continue
			}
			ready := true
			for d := range remaining[p] {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, p)
			}
		}
		if len(level) == 0 {
			// Should be unreachable once breakCyclesLocked has run; guard
			// against an infinite loop by placing everything remaining in
			// one final level, in path order.
			for p := range nodes {
				if !placed[p] {
					level = append(level, p)
				}
			}
		}
		sort.Slice(level, func(i, j int) bool {
			li, lj := libraryOf(level[i]), libraryOf(level[j])
			if li != lj {
				return li < lj
			}
			return level[i] < level[j]
		})

		var levelPaths []ident.Path
		for _, p := range level {
			placed[p] = true
			levelPaths = append(levelPaths, nodes[p])
			order = append(order, nodes[p])
		}
		levels = append(levels, levelPaths)
	}

	return order, levels
}
