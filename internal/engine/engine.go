// Package engine implements the Project Engine (spec §4.6): the
// stateful façade that owns a database, a planner, a builder adapter, and
// a cache behind one build-serializing mutex. Grounded on the teacher's
// internal/indexer.go Run pipeline (load config -> resolve libraries ->
// collect files -> build graph), turned from a one-shot CLI pipeline into
// a re-enterable engine whose public operations mirror spec §4.6 exactly.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hdl-checker/hdl-checker/internal/builder"
	"github.com/hdl-checker/hdl-checker/internal/cache"
	"github.com/hdl-checker/hdl-checker/internal/config"
	"github.com/hdl-checker/hdl-checker/internal/db"
	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/hdllog"
	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// MaxRebuildRetries bounds the plan-and-build fixed-point loop (spec
// §4.6: "bounded retry count (default 20)").
const MaxRebuildRetries = 20

// Engine owns one project's live state. The zero value is not usable;
// construct with New.
type Engine struct {
	root string

	buildMu sync.Mutex // serializes GetDiagnostics, per spec §5

	db      *db.Database
	cache   *cache.Cache
	adapter builder.Adapter
	log     *hdllog.Logger

	flagsByPath      map[string]resolvedFlags // absolute path -> per-file overrides
	createdLibraries map[string]bool          // library key -> physical dir already created this adapter

	// configDiags holds the configuration-time diagnostics Configure
	// collects (unknown keys, stat/read/index failures, missing files) so
	// GetDiagnostics can surface them alongside build/static diagnostics —
	// spec §7 marks every one of these codes user-visible.
	configDiags []diag.Diagnostic
}

type resolvedFlags struct {
	builder config.Builder
	lang    *config.FlagSet
	scope   string
	library string
}

// New returns an Engine rooted at root (the project directory; the cache
// file and adapter working directories live under it).
func New(root string, logger *hdllog.Logger) *Engine {
	if logger == nil {
		logger = hdllog.Default()
	}
	return &Engine{
		root:             root,
		db:               db.New(),
		cache:            cache.New(filepath.Join(root, ".hdl_checker", "cache.json")),
		adapter:          builder.NewFallback(),
		log:              logger,
		flagsByPath:      make(map[string]resolvedFlags),
		createdLibraries: make(map[string]bool),
	}
}

// Configure loads cfgPath (auto-detecting JSON vs legacy syntax), upserts
// every resolved source into the database, and probes builder adapters
// concurrently to pick one by spec §4.6's preference order
// (msim > ghdl > xvhdl > fallback). It is safe to call again to
// reconfigure a live Engine: paths no longer present in cfg are forgotten.
func (e *Engine) Configure(ctx context.Context, cfgPath string) error {
	resolved, adapterPref, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("hdl-checker: configure: %w", err)
	}

	if err := e.cache.Load(); err != nil {
		return fmt.Errorf("hdl-checker: load cache: %w", err)
	}

	keep := make(map[string]bool, len(resolved.Sources))
	var configDiags []diag.Diagnostic
	configDiags = append(configDiags, resolved.Diagnostics...)

	for _, src := range resolved.Sources {
		p, statErr := ident.Stat(src.Path)
		if statErr != nil {
			configDiags = append(configDiags, diag.Diagnostic{
				Path: src.Path, Severity: diag.Error,
				Code: "stat-failed", Message: statErr.Error(),
			})
			continue
		}

		kind := src.Kind
		if !src.KindKnown {
			k, ok := parser.KindFromExt(src.Path)
			if !ok {
				continue
			}
			kind = k
		}

		var explicitLib ident.Identifier
		if src.Library != "" {
			explicitLib = kind.Identifier(src.Library)
		}

		markKept := func() {
			keep[p.Abs()] = true
			e.flagsByPath[p.Abs()] = resolvedFlags{
				builder: adapterPref,
				lang:    langBlockFor(resolved, kind),
				scope:   "single",
				library: src.Library,
			}
		}

		if !p.Exists() {
			// Still enter the path into the database, empty, so it is
			// queryable (spec §8 boundary behavior 8: "Files mentioned in
			// config but missing from disk appear in the DB and emit a
			// 'file not found' diagnostic at line 0").
			if err := e.db.PutParsedFile(p, kind, explicitLib, src.Flags, src.Flags, nil, nil, nil); err != nil {
				configDiags = append(configDiags, diag.Diagnostic{
					Path: src.Path, Severity: diag.Error,
					Code: "index-failed", Message: err.Error(),
				})
				continue
			}
			configDiags = append(configDiags, (&diag.MissingFileError{Path: src.Path}).Diagnostic())
			markKept()
			continue
		}

		if cached, ok := e.cache.Lookup(p); ok {
			if err := e.db.PutParsedFile(p, kind, explicitLib, src.Flags, src.Flags,
				cache.FromDesignUnitEntries(cached.DesignUnits), cache.FromDependencyEntries(cached.Dependencies), cached.Includes); err != nil {
				configDiags = append(configDiags, diag.Diagnostic{
					Path: src.Path, Severity: diag.Error,
					Code: "index-failed", Message: err.Error(),
				})
				continue
			}
			markKept()
			continue
		}

		text, readErr := os.ReadFile(p.Abs())
		if readErr != nil {
			configDiags = append(configDiags, diag.Diagnostic{
				Path: src.Path, Severity: diag.Error,
				Code: "read-failed", Message: readErr.Error(),
			})
			continue
		}

		if err := e.db.PutFile(p, kind, text, explicitLib, src.Flags, src.Flags); err != nil {
			configDiags = append(configDiags, diag.Diagnostic{
				Path: src.Path, Severity: diag.Error,
				Code: "index-failed", Message: err.Error(),
			})
			continue
		}
		markKept()
		if sf, ok := e.db.File(p.Abs()); ok {
			e.cache.PutFile(cache.FileEntry{
				Path:              p.Abs(),
				ModTime:           p.ModTime(),
				Size:              p.Size(),
				Kind:              int(kind),
				Library:           sf.Library.String(),
				LibraryExplicit:   sf.LibraryExplicit,
				FlagsSingle:       sf.FlagsSingle,
				FlagsDependencies: sf.FlagsDependencies,
				DesignUnits:       cache.ToDesignUnitEntries(sf.DesignUnits),
				Dependencies:      cache.ToDependencyEntries(sf.Dependencies),
				Includes:          sf.Includes,
				ContentHash:       cache.HashContent(text),
			})
		}
	}

	for _, known := range e.db.Paths() {
		if !keep[known.Abs()] {
			e.db.ForgetFile(known.Abs())
			e.cache.ForgetFile(known.Abs())
			delete(e.flagsByPath, known.Abs())
		}
	}

	root := filepath.Join(e.root, ".hdl_checker", "libs")
	adapter, avail := e.selectAdapter(ctx, root, adapterPref)
	e.adapter = adapter
	if !avail.Available {
		e.log.Warnf("no builder adapter available, falling back to static checks only")
	}

	e.createdLibraries = make(map[string]bool)
	if manifest, ok := e.cache.AdapterManifest(adapter.Name()); ok {
		// A prior process already created these library directories under
		// this adapter's working root; skip re-issuing CreateLibrary for
		// them (spec SPEC_FULL.md §4.7: adapter library manifest).
		for _, lib := range manifest.LibrariesBuilt {
			e.createdLibraries[lib] = true
		}
	}

	for _, d := range configDiags {
		e.log.Warnf("%s: %s", d.Code, d.Message)
	}
	e.configDiags = configDiags

	return nil
}

// Paths returns every source file currently known to the database, as
// absolute paths, for callers (e.g. a watch loop) that need to recheck
// everything rather than one target.
func (e *Engine) Paths() []string {
	known := e.db.Paths()
	out := make([]string, len(known))
	for i, p := range known {
		out[i] = p.Abs()
	}
	return out
}

func langBlockFor(resolved config.Resolved, kind parser.Kind) *config.FlagSet {
	switch kind {
	case parser.VHDL:
		return resolved.VHDL
	case parser.Verilog:
		return resolved.Verilog
	case parser.SystemVerilog:
		return resolved.SystemVerilog
	default:
		return nil
	}
}

// selectAdapter delegates to builder.Select, bounding the whole probe round
// with probeTimeout independently of the build mutex.
func (e *Engine) selectAdapter(ctx context.Context, root string, legacyPreference config.Builder) (builder.Adapter, builder.Availability) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return builder.Select(ctx, root, string(legacyPreference))
}

// Shutdown records which library directories this run created (so a
// future process can skip recreating them) and flushes the cache to disk.
func (e *Engine) Shutdown() error {
	built := make([]string, 0, len(e.createdLibraries))
	for lib := range e.createdLibraries {
		built = append(built, lib)
	}
	e.cache.PutAdapterManifest(cache.AdapterLibraryManifest{
		Adapter:        e.adapter.Name(),
		LibrariesBuilt: built,
	})
	return e.cache.Save()
}

func flagsFor(e *Engine, path string, kind parser.Kind) []string {
	adapterBuilder := config.Builder(e.adapter.Name())
	rf, ok := e.flagsByPath[path]
	if !ok {
		return config.DefaultFlags[adapterBuilder][kind]
	}
	return config.FlagsFor(adapterBuilder, kind, rf.lang, rf.scope, nil)
}

// probeTimeout bounds one whole probe round (all adapters probed together
// by builder.Select), independently of the build mutex.
var probeTimeout = 10 * time.Second
