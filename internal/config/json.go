package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// LoadJSON loads the JSON configuration rooted at path, expanding its
// include tree depth-first (spec §6: "Relative paths resolve against the
// including file's directory... cycles are detected and ignored").
func LoadJSON(path string) (Resolved, error) {
	visited := make(map[string]bool)
	var diags []diag.Diagnostic
	sources, vhdl, verilog, sv, err := loadJSONTree(path, visited, &diags)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		Sources:       sources,
		VHDL:          vhdl,
		Verilog:       verilog,
		SystemVerilog: sv,
		Diagnostics:   diags,
	}, nil
}

func loadJSONTree(path string, visited map[string]bool, diags *[]diag.Diagnostic) (sources []Source, vhdl, verilog, sv *FlagSet, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("hdl-checker: resolve config path %q: %w", path, err)
	}
	if visited[abs] {
		return nil, nil, nil, nil, nil
	}
	visited[abs] = true

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("hdl-checker: read config %q: %w", abs, err)
	}

	checkUnknownKeys(raw, diags)

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("hdl-checker: parse config %q: %w", abs, err)
	}

	base := filepath.Dir(abs)

	for _, se := range doc.Sources {
		expanded, d := expandSourceEntry(base, se)
		sources = append(sources, expanded...)
		*diags = append(*diags, d...)
	}
	if doc.VHDL != nil {
		vhdl = &doc.VHDL.Flags
	}
	if doc.Verilog != nil {
		verilog = &doc.Verilog.Flags
	}
	if doc.SystemVerilog != nil {
		sv = &doc.SystemVerilog.Flags
	}

	for _, inc := range doc.Include {
		incPath := inc
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(base, incPath)
		}
		childSources, childVHDL, childVerilog, childSV, err := loadJSONTree(incPath, visited, diags)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		sources = append(sources, childSources...)
		if vhdl == nil {
			vhdl = childVHDL
		}
		if verilog == nil {
			verilog = childVerilog
		}
		if sv == nil {
			sv = childSV
		}
	}

	return sources, vhdl, verilog, sv, nil
}

func checkUnknownKeys(raw []byte, diags *[]diag.Diagnostic) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return
	}
	for key := range m {
		if !knownTopLevelKeys[key] {
			*diags = append(*diags, diag.Diagnostic{
				Severity: diag.Warning,
				Code:     "unknown-config-key",
				Message:  fmt.Sprintf("unrecognized configuration key %q", key),
			})
		}
	}
}

// expandSourceEntry resolves se.Path (relative to base) and expands any
// glob metacharacters it contains via doublestar, per SPEC_FULL.md §6.2's
// glob-semantics decision (a single "*" matches one path segment, "**"
// matches any depth). A malformed pattern is dropped with a Warning
// diagnostic rather than failing the whole load (spec §7: "Invalid path in
// config" -> Warning, path dropped).
func expandSourceEntry(base string, se SourceEntry) ([]Source, []diag.Diagnostic) {
	p := se.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}

	if !strings.ContainsAny(se.Path, "*?[{") {
		return []Source{newSource(p, se.Library, se.Flags)}, nil
	}

	if !doublestar.ValidatePattern(p) {
		return nil, []diag.Diagnostic{{
			Severity: diag.Warning,
			Code:     "invalid-config-path",
			Message:  fmt.Sprintf("malformed glob pattern %q", se.Path),
		}}
	}

	matches, err := doublestar.FilepathGlob(p)
	if err != nil {
		return nil, []diag.Diagnostic{{
			Severity: diag.Warning,
			Code:     "invalid-config-path",
			Message:  fmt.Sprintf("malformed glob pattern %q: %v", se.Path, err),
		}}
	}
	out := make([]Source, 0, len(matches))
	for _, m := range matches {
		out = append(out, newSource(m, se.Library, se.Flags))
	}
	return out, nil
}

// newSource builds a Source with its Kind inferred from path's extension,
// when recognized.
func newSource(path, library string, flags []string) Source {
	s := Source{Path: path, Library: library, Flags: flags}
	if kind, ok := parser.KindFromExt(path); ok {
		s.Kind, s.KindKnown = kind, true
	}
	return s
}
