package builder

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// DefaultGhdlFlags: spec §6 — GHDL supports VHDL only; Verilog/SV are
// unsupported (empty flag lists, adapter refuses those files in Build).
var DefaultGhdlFlags = map[parser.Kind][]string{
	parser.VHDL: {"-fexplicit", "-frelaxed-rules"},
}

// ghdlDiagPat matches GHDL's "path:line:col: message" compiler output,
// with severity inferred from the message text ("warning:" prefix) since
// GHDL does not emit a separate severity token the way ModelSim does.
var ghdlDiagPat = regexp.MustCompile(`^([^:]+):(\d+):(\d+):\s*(.*)$`)

var ghdlRecompilePat = regexp.MustCompile(`[Rr]ecompile\s+(\S+)\s+because\s+(\S+)\s+(?:has\s+)?changed`)

// Ghdl is the GHDL adapter: `ghdl -i`/`-a` for analysis, one work
// directory per library via `--workdir`.
type Ghdl struct {
	wd  workDir
	run runFunc
}

func NewGhdl(root string) *Ghdl {
	return &Ghdl{wd: newWorkDir(root), run: execRun}
}

func (g *Ghdl) Name() string { return "ghdl" }

func (g *Ghdl) Probe(ctx context.Context) Availability {
	_, stderr, err := g.run(ctx, g.wd.root, "ghdl", []string{"--version"})
	if err != nil {
		return Availability{Available: false, Reason: "ghdl --version failed: " + firstLine(stderr, err)}
	}
	return Availability{Available: true}
}

func (g *Ghdl) CreateLibrary(ctx context.Context, lib ident.Identifier) error {
	path, err := g.wd.ensureLibrary(lib)
	if err != nil {
		return err
	}
	_, _, err = g.run(ctx, g.wd.root, "ghdl", []string{
		"-a", "--workdir=" + path, "--work=" + lib.Key(),
	})
	return err
}

func (g *Ghdl) Build(ctx context.Context, path string, library ident.Identifier, flags []string, scratch bool) BuildReport {
	if !strings.HasSuffix(path, ".vhd") && !strings.HasSuffix(path, ".vhdl") {
		// GHDL supports VHDL only (spec §6: "GHDL Verilog/SV: none supported").
		return BuildReport{}
	}
	libDir := g.wd.libraryPath(library)
	args := append([]string{"-a", "--workdir=" + libDir, "--work=" + library.Key()}, flags...)
	args = append(args, path)

	stdout, stderr, _ := g.run(ctx, g.wd.root, "ghdl", args)
	diags := g.ParseOutput(stdout, stderr)
	if !scratch {
		diags = filterOtherFiles(diags, path)
	}
	return BuildReport{
		Diagnostics: diags,
		Rebuilds:    append(g.RebuildsFrom(stdout), g.RebuildsFrom(stderr)...),
	}
}

func (g *Ghdl) ParseOutput(rawStdout, rawStderr []byte) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, line := range splitLines(rawStdout, rawStderr) {
		match := ghdlDiagPat.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		line, _ := strconv.Atoi(match[2])
		col, _ := strconv.Atoi(match[3])
		msg := match[4]
		severity := diag.Error
		lower := strings.ToLower(msg)
		switch {
		case strings.HasPrefix(lower, "warning:"):
			severity = diag.Warning
			msg = strings.TrimSpace(msg[len("warning:"):])
		case strings.HasPrefix(lower, "note:"):
			severity = diag.Note
			msg = strings.TrimSpace(msg[len("note:"):])
		}
		out = append(out, diag.Diagnostic{
			Path:     match[1],
			Line:     line,
			Col:      col,
			Severity: severity,
			Message:  msg,
		})
	}
	return out
}

func (g *Ghdl) RebuildsFrom(rawOutput []byte) []RebuildHint {
	var hints []RebuildHint
	for _, line := range splitLines(rawOutput) {
		match := ghdlRecompilePat.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		hints = append(hints, RebuildHint{Unit: ident.New(match[1], false), Path: match[2]})
	}
	return hints
}
