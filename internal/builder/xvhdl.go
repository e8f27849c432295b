package builder

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// xvhdlDiagPat matches Xilinx xvhdl's "ERROR: [VRFC 10-91] msg [path:line]"
// style output.
var xvhdlDiagPat = regexp.MustCompile(`^(ERROR|WARNING|INFO):\s*(?:\[([A-Za-z0-9 -]+)\]\s*)?(.*?)(?:\s*\[([^:\]]+):(\d+)\])?$`)

// Xvhdl is the Xilinx Vivado xvhdl adapter. Spec §6: no default flags.
type Xvhdl struct {
	wd  workDir
	run runFunc
}

func NewXvhdl(root string) *Xvhdl {
	return &Xvhdl{wd: newWorkDir(root), run: execRun}
}

func (x *Xvhdl) Name() string { return "xvhdl" }

func (x *Xvhdl) Probe(ctx context.Context) Availability {
	_, stderr, err := x.run(ctx, x.wd.root, "xvhdl", []string{"-version"})
	if err != nil {
		return Availability{Available: false, Reason: "xvhdl -version failed: " + firstLine(stderr, err)}
	}
	return Availability{Available: true}
}

func (x *Xvhdl) CreateLibrary(ctx context.Context, lib ident.Identifier) error {
	_, err := x.wd.ensureLibrary(lib)
	return err
}

func (x *Xvhdl) Build(ctx context.Context, path string, library ident.Identifier, flags []string, scratch bool) BuildReport {
	libDir := x.wd.libraryPath(library)
	args := append([]string{"-work", library.Key() + "=" + libDir}, flags...)
	args = append(args, path)

	stdout, stderr, _ := x.run(ctx, x.wd.root, "xvhdl", args)
	diags := x.ParseOutput(stdout, stderr)
	if !scratch {
		diags = filterOtherFiles(diags, path)
	}
	return BuildReport{Diagnostics: diags}
}

func (x *Xvhdl) ParseOutput(rawStdout, rawStderr []byte) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, line := range splitLines(rawStdout, rawStderr) {
		match := xvhdlDiagPat.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		d := diag.Diagnostic{
			Severity: xvhdlSeverity(match[1]),
			Code:     match[2],
			Message:  strings.TrimSpace(match[3]),
			Path:     match[4],
		}
		if match[5] != "" {
			if n, err := strconv.Atoi(match[5]); err == nil {
				d.Line = n
			}
		}
		out = append(out, d)
	}
	return out
}

// RebuildsFrom: xvhdl does not emit recompile hints.
func (x *Xvhdl) RebuildsFrom(rawOutput []byte) []RebuildHint { return nil }

func xvhdlSeverity(word string) diag.Severity {
	switch word {
	case "ERROR":
		return diag.Error
	case "WARNING":
		return diag.Warning
	default:
		return diag.Note
	}
}
