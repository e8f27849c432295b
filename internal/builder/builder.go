// Package builder implements the uniform facade spec §4.4 puts over the
// external HDL compilers (ModelSim, GHDL, XVHDL) plus a no-op fallback.
// Grounded on the teacher's internal/policy/daemon.go for the
// exec.CommandContext/pipe-to-completion invocation shape (adapted from a
// long-running daemon to a spawn-per-call subprocess, since spec §4.4's
// adapters are stateless between Build calls) and on
// daedaleanai-dbt-rules' RULES/hdl/questa.go and xilinx.go for the
// concrete tool flags (vlog/vcom/vopt, lint/access/coverage switches).
package builder

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// DefaultTimeout bounds a single external invocation: execRun kills the
// tool once it elapses and the adapter parses whatever output was
// captured. No synthetic diagnostic is added for a timed-out invocation,
// and the adapters never set BuildReport.TimedOut.
const DefaultTimeout = 60 * time.Second

// Availability is the result of Probe.
type Availability struct {
	Available bool
	Reason    string // populated when Available is false
}

// RebuildHint names a unit or source path the adapter wants recompiled
// before the caller's diagnostics can be trusted (spec §4.4).
type RebuildHint struct {
	Unit ident.Identifier
	Path string
}

// BuildReport is what Build returns for a single file compile.
type BuildReport struct {
	Diagnostics []diag.Diagnostic
	Rebuilds    []RebuildHint
	TimedOut    bool
}

// Adapter is the facade every builder implements (spec §4.4).
type Adapter interface {
	// Name identifies the adapter for logs, cache manifests and the
	// preference order (msim > ghdl > xvhdl > fallback).
	Name() string

	// Probe checks whether the underlying tool is usable.
	Probe(ctx context.Context) Availability

	// CreateLibrary idempotently creates lib's physical working directory.
	CreateLibrary(ctx context.Context, lib ident.Identifier) error

	// Build compiles path into library. scratch=true means "this is the
	// target file, emit every diagnostic"; scratch=false means "this is a
	// dependency, only emit diagnostics referencing other files" (spec
	// §4.4).
	Build(ctx context.Context, path string, library ident.Identifier, flags []string, scratch bool) BuildReport

	// ParseOutput normalizes one invocation's raw output into diagnostics.
	ParseOutput(rawStdout, rawStderr []byte) []diag.Diagnostic

	// RebuildsFrom extracts "Recompile X because Y changed"-style hints.
	RebuildsFrom(rawOutput []byte) []RebuildHint
}

// runFunc spawns name with args in dir and returns its captured
// stdout/stderr. Adapters hold one so tests can substitute a fake process
// without touching exec.Command.
type runFunc func(ctx context.Context, dir, name string, args []string) (stdout, stderr []byte, err error)

// execRun is the production runFunc: spawn-per-call, no stdin, output
// consumed to completion, context-scoped timeout — the shape grounded on
// daemon.go's exec.CommandContext/StdoutPipe/StderrPipe/cmd.Wait, adapted
// from a persistent pipe to one-shot CombinedOutput-style capture since
// each Build call is a single tool invocation, not a streamed session.
func execRun(ctx context.Context, dir, name string, args []string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// KindExt maps a parser.Kind to its conventional file extension, used when
// an adapter needs to classify dependency paths without re-parsing them.
func KindExt(kind parser.Kind) string {
	switch kind {
	case parser.VHDL:
		return ".vhd"
	case parser.Verilog:
		return ".v"
	case parser.SystemVerilog:
		return ".sv"
	default:
		return ""
	}
}
