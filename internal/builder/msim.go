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

// DefaultMsimFlags are spec §6's "applied when the language block is
// absent" compiler defaults.
var DefaultMsimFlags = map[parser.Kind][]string{
	parser.VHDL:          {"-lint", "-pedanticerrors", "-check_synthesis", "-rangecheck", "-explicit"},
	parser.Verilog:       {"-lint", "-pedanticerrors", "-hazards"},
	parser.SystemVerilog: {"-lint", "-pedanticerrors", "-hazards"},
}

// msimDiagPat matches ModelSim's "** Error: (vcom-1195) msg" and
// "** Warning:"/"** Note:" diagnostic lines, with an optional
// "path(line):" prefix when the tool points at a specific location.
var msimDiagPat = regexp.MustCompile(`^\*\*\s+(Error|Warning|Note):\s*(?:\(([a-zA-Z]+-\d+)\)\s*)?(?:([^\s(][^(]*)\((\d+)\):\s*)?(.*)$`)

// msimRecompilePat matches "Recompile NAME because DEP has changed."
var msimRecompilePat = regexp.MustCompile(`[Rr]ecompile\s+(\S+)\s+because\s+(\S+)\s+(?:has\s+)?changed`)

// Msim is the ModelSim/QuestaSim adapter: vlib/vmap for libraries, vcom
// for VHDL, vlog for Verilog/SystemVerilog. Tool names and flag shape
// grounded on daedaleanai-dbt-rules' questa.go (common_flags, vcom/vlog
// dispatch by source kind, -lint switch).
type Msim struct {
	wd  workDir
	run runFunc
}

// NewMsim returns a ModelSim adapter rooted at root (one subdirectory per
// library is created under it on demand).
func NewMsim(root string) *Msim {
	return &Msim{wd: newWorkDir(root), run: execRun}
}

func (m *Msim) Name() string { return "msim" }

func (m *Msim) Probe(ctx context.Context) Availability {
	_, stderr, err := m.run(ctx, m.wd.root, "vcom", []string{"-version"})
	if err != nil {
		return Availability{Available: false, Reason: "vcom -version failed: " + firstLine(stderr, err)}
	}
	return Availability{Available: true}
}

func (m *Msim) CreateLibrary(ctx context.Context, lib ident.Identifier) error {
	path, err := m.wd.ensureLibrary(lib)
	if err != nil {
		return err
	}
	if _, _, err := m.run(ctx, m.wd.root, "vlib", []string{path}); err != nil {
		// vlib fails if the library already exists; idempotent creation
		// tolerates that and relies on vmap below to register it.
	}
	_, _, err = m.run(ctx, m.wd.root, "vmap", []string{lib.String(), path})
	return err
}

func (m *Msim) Build(ctx context.Context, path string, library ident.Identifier, flags []string, scratch bool) BuildReport {
	tool, kindFlags := m.toolFor(path)
	args := append([]string{"-work", library.String()}, kindFlags...)
	args = append(args, flags...)
	args = append(args, path)

	stdout, stderr, _ := m.run(ctx, m.wd.root, tool, args)
	diags := m.ParseOutput(stdout, stderr)
	if !scratch {
		diags = filterOtherFiles(diags, path)
	}
	return BuildReport{
		Diagnostics: diags,
		Rebuilds:    append(m.RebuildsFrom(stdout), m.RebuildsFrom(stderr)...),
	}
}

func (m *Msim) toolFor(path string) (tool string, flags []string) {
	switch {
	case strings.HasSuffix(path, ".vhd"), strings.HasSuffix(path, ".vhdl"):
		return "vcom", nil
	default:
		return "vlog", nil
	}
}

func (m *Msim) ParseOutput(rawStdout, rawStderr []byte) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, line := range splitLines(rawStdout, rawStderr) {
		match := msimDiagPat.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		d := diag.Diagnostic{
			Severity: severityFromWord(match[1]),
			Code:     match[2],
			Path:     match[3],
			Message:  strings.TrimSpace(match[5]),
		}
		if match[4] != "" {
			if n, err := strconv.Atoi(match[4]); err == nil {
				d.Line = n
			}
		}
		out = append(out, d)
	}
	return out
}

func (m *Msim) RebuildsFrom(rawOutput []byte) []RebuildHint {
	var hints []RebuildHint
	for _, line := range splitLines(rawOutput) {
		match := msimRecompilePat.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		hints = append(hints, RebuildHint{
			Unit: ident.New(match[1], false),
			Path: match[2],
		})
	}
	return hints
}

func severityFromWord(word string) diag.Severity {
	switch strings.ToLower(word) {
	case "error":
		return diag.Error
	case "warning":
		return diag.Warning
	case "fatal":
		return diag.Fatal
	default:
		return diag.Note
	}
}

func splitLines(chunks ...[]byte) []string {
	var lines []string
	for _, chunk := range chunks {
		for _, l := range strings.Split(string(chunk), "\n") {
			l = strings.TrimRight(l, "\r")
			if l != "" {
				lines = append(lines, l)
			}
		}
	}
	return lines
}

func filterOtherFiles(diags []diag.Diagnostic, ownPath string) []diag.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if d.Path != "" && d.Path != ownPath {
			out = append(out, d)
		}
	}
	return out
}

func firstLine(stderr []byte, err error) string {
	lines := splitLines(stderr)
	if len(lines) > 0 {
		return lines[0]
	}
	return err.Error()
}
