package engine

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hdl-checker/hdl-checker/internal/checker"
	"github.com/hdl-checker/hdl-checker/internal/db"
	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/planner"
)

// GetDiagnostics implements spec §4.6: ensure the database is fresh, plan
// the compilation order, compile dependencies then the target, merge tool
// diagnostics with static-checker, library-inference, and
// dependency-resolution diagnostics, dedup and return — repeating the
// plan-and-build cycle while rebuilds_from hints keep naming files the
// database already knows, bounded by MaxRebuildRetries. A Fatal tool
// diagnostic halts the run: no further level is built and no retry made.
func (e *Engine) GetDiagnostics(ctx context.Context, path string) ([]diag.Diagnostic, error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	if _, err := e.db.Refresh(); err != nil {
		return nil, err
	}

	target, err := ident.Stat(path)
	if err != nil {
		return nil, err
	}

	var plan planner.Plan
	var toolDiags []diag.Diagnostic

	for attempt := 0; attempt < MaxRebuildRetries; attempt++ {
		plan = planner.Plan(e.db, target)
		toolDiags = nil

		var hints []builder_RebuildHint
		fatal := false
		for _, level := range plan.Levels {
			levelHints, levelDiags, err := e.buildLevel(ctx, level, target)
			if err != nil {
				return nil, err
			}
			toolDiags = append(toolDiags, levelDiags...)
			hints = append(hints, levelHints...)
			for _, d := range levelDiags {
				if d.Severity == diag.Fatal {
					fatal = true
				}
			}
			if fatal {
				break
			}
		}

		if fatal || !hintsNameKnownFile(e.db, hints) {
			break
		}
		e.refreshHinted(hints)
	}

	all := append([]diag.Diagnostic{}, e.configDiags...)
	all = append(all, toolDiags...)
	all = append(all, e.staticAndResolutionDiagnostics(plan.Order)...)

	diag.Sort(all)
	return diag.Dedup(all), nil
}

// builder_RebuildHint avoids a second import alias collision with the
// builder package's own RebuildHint while keeping this file readable.
type builder_RebuildHint struct {
	path string
}

func hintsNameKnownFile(database *db.Database, hints []builder_RebuildHint) bool {
	for _, h := range hints {
		if h.path == "" {
			continue
		}
		if _, ok := database.LibraryOf(h.path); ok {
			return true
		}
	}
	return false
}

// refreshHinted re-reads and re-parses every hinted path the database
// already knows, so the next planning pass sees fresh content (spec
// §4.6's rebuild loop responding to "Recompile X because Y changed").
func (e *Engine) refreshHinted(hints []builder_RebuildHint) {
	for _, h := range hints {
		if h.path == "" {
			continue
		}
		sf, ok := e.db.File(h.path)
		if !ok {
			continue
		}
		p, err := ident.Stat(h.path)
		if err != nil {
			continue
		}
		text, err := os.ReadFile(p.Abs())
		if err != nil {
			continue
		}
		lib, _ := e.db.LibraryOf(h.path)
		var explicit ident.Identifier
		if sf.LibraryExplicit {
			explicit = lib
		}
		_ = e.db.PutFile(p, sf.Kind, text, explicit, sf.FlagsSingle, sf.FlagsDependencies)
	}
}

// buildLevel compiles every file in level concurrently (spec §4.3/§4.6:
// "every file in Levels[i] can be compiled concurrently"), one goroutine
// per file joined with errgroup.Group.Wait.
func (e *Engine) buildLevel(ctx context.Context, level []ident.Path, target ident.Path) ([]builder_RebuildHint, []diag.Diagnostic, error) {
	var mu sync.Mutex
	var hints []builder_RebuildHint
	var diags []diag.Diagnostic

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range level {
		p := p
		g.Go(func() error {
			lib, _ := e.db.LibraryOf(p.Abs())

			mu.Lock()
			needCreate := !e.createdLibraries[lib.Key()]
			if needCreate {
				e.createdLibraries[lib.Key()] = true
			}
			mu.Unlock()
			if needCreate {
				if err := e.adapter.CreateLibrary(gctx, lib); err != nil {
					e.log.Warnf("create library %s: %v", lib.String(), err)
				}
			}

			sf, _ := e.db.File(p.Abs())
			flags := flagsFor(e, p.Abs(), sf.Kind)
			scratch := p.Abs() == target.Abs()

			report := e.adapter.Build(gctx, p.Abs(), lib, flags, scratch)

			mu.Lock()
			diags = append(diags, report.Diagnostics...)
			for _, h := range report.Rebuilds {
				hints = append(hints, builder_RebuildHint{path: h.Path})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return hints, diags, nil
}

// staticAndResolutionDiagnostics runs the static checker over every file
// in order and emits library-inference / dependency-resolution
// diagnostics for files whose library could not be inferred or whose
// dependencies could not be resolved (spec §7).
func (e *Engine) staticAndResolutionDiagnostics(order []ident.Path) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, p := range order {
		sf, ok := e.db.File(p.Abs())
		if !ok {
			continue
		}

		lib, _ := e.db.LibraryOf(p.Abs())
		if lib.Key() == db.UnresolvedLibrary {
			out = append(out, (&diag.InferenceError{Path: p.Abs()}).Diagnostic())
		}

		for _, dep := range sf.Dependencies {
			candidates := e.db.PathsByDesignUnit(dep.Library, dep.Name, lib)
			line, col := 0, 0
			if len(dep.Locations) > 0 {
				line, col = dep.Locations[0].Line, dep.Locations[0].Col
			}
			switch {
			case len(candidates) == 0:
				rerr := &diag.ResolutionError{Library: dep.Library.String(), Name: dep.Name.String(), FromPath: p.Abs()}
				out = append(out, rerr.Diagnostic(line, col))
			case len(candidates) > 1:
				// Multiple candidates still resolve deterministically (spec
				// §4.3 rule 1 picks candidates[0] by (library, path)
				// ordering) but the ambiguity itself is user-visible (spec
				// §9 Open Question 3).
				paths := make([]string, len(candidates))
				for i, c := range candidates {
					paths[i] = c.Abs()
				}
				aerr := &diag.AmbiguousDependencyError{
					Library: dep.Library.String(), Name: dep.Name.String(),
					FromPath: p.Abs(), Candidates: paths,
				}
				out = append(out, aerr.Diagnostic(line, col))
			}
		}

		text, err := os.ReadFile(p.Abs())
		if err != nil {
			continue
		}
		out = append(out, checker.Check(sf.Kind, p.Abs(), text)...)
	}
	return out
}
