package builder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// fakeRun scripts a sequence of (stdout, stderr, err) triples keyed by the
// tool name invoked, so adapter tests never spawn a real process.
type fakeRun struct {
	byTool map[string]fakeResult
	calls  []call
}

type fakeResult struct {
	stdout, stderr []byte
	err            error
}

type call struct {
	dir, name string
	args      []string
}

func (f *fakeRun) run(ctx context.Context, dir, name string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{dir, name, args})
	r, ok := f.byTool[name]
	if !ok {
		return nil, nil, nil
	}
	return r.stdout, r.stderr, r.err
}

func TestMsimProbeReportsUnavailableOnError(t *testing.T) {
	fr := &fakeRun{byTool: map[string]fakeResult{
		"vcom": {stderr: []byte("command not found"), err: errFake{}},
	}}
	m := NewMsim(t.TempDir())
	m.run = fr.run

	avail := m.Probe(context.Background())
	require.False(t, avail.Available)
	require.Contains(t, avail.Reason, "command not found")
}

func TestMsimParseOutputExtractsErrorsAndWarnings(t *testing.T) {
	m := NewMsim(t.TempDir())
	stdout := []byte("** Error: (vcom-1136) foo.vhd(12): Unknown identifier \"bar\".\n" +
		"** Warning: (vlog-2623) some message\n")

	diags := m.ParseOutput(stdout, nil)
	require.Len(t, diags, 2)
	require.Equal(t, diag.Error, diags[0].Severity)
	require.Equal(t, "vcom-1136", diags[0].Code)
	require.Equal(t, "foo.vhd", diags[0].Path)
	require.Equal(t, 12, diags[0].Line)
	require.Contains(t, diags[0].Message, "Unknown identifier")

	require.Equal(t, diag.Warning, diags[1].Severity)
	require.Equal(t, "vlog-2623", diags[1].Code)
}

func TestMsimRebuildsFromExtractsRecompileHints(t *testing.T) {
	m := NewMsim(t.TempDir())
	out := []byte("# ** Warning: (vopt-2163) Recompile foo because bar.vhd has changed.\n")

	hints := m.RebuildsFrom(out)
	require.Len(t, hints, 1)
	require.Equal(t, "foo", hints[0].Unit.String())
	require.Equal(t, "bar.vhd", hints[0].Path)
}

func TestMsimBuildFiltersDiagnosticsForDependencyScope(t *testing.T) {
	fr := &fakeRun{byTool: map[string]fakeResult{
		"vcom": {stdout: []byte(
			"** Error: (vcom-1136) target.vhd(1): error in this file\n" +
				"** Error: (vcom-1136) other.vhd(2): error in another file\n",
		)},
	}}
	m := NewMsim(t.TempDir())
	m.run = fr.run

	report := m.Build(context.Background(), "target.vhd", ident.NewVHDL("work"), nil, false)
	require.Len(t, report.Diagnostics, 1)
	require.Equal(t, "other.vhd", report.Diagnostics[0].Path)
}

func TestMsimBuildKeepsAllDiagnosticsWhenScratch(t *testing.T) {
	fr := &fakeRun{byTool: map[string]fakeResult{
		"vcom": {stdout: []byte("** Error: (vcom-1136) target.vhd(1): oops\n")},
	}}
	m := NewMsim(t.TempDir())
	m.run = fr.run

	report := m.Build(context.Background(), "target.vhd", ident.NewVHDL("work"), nil, true)
	require.Len(t, report.Diagnostics, 1)
	require.Equal(t, "target.vhd", report.Diagnostics[0].Path)
}

func TestGhdlBuildRefusesNonVHDLFiles(t *testing.T) {
	fr := &fakeRun{byTool: map[string]fakeResult{}}
	g := NewGhdl(t.TempDir())
	g.run = fr.run

	report := g.Build(context.Background(), "mod.v", ident.NewVHDL("work"), nil, true)
	require.Empty(t, report.Diagnostics)
	require.Empty(t, fr.calls) // never invoked the tool for an unsupported kind
}

func TestGhdlParseOutputInfersSeverityFromMessageText(t *testing.T) {
	g := NewGhdl(t.TempDir())
	stdout := []byte(
		"foo.vhd:10:5: warning: unused signal \"x\"\n" +
			"foo.vhd:20:1: no declaration for \"bar\"\n",
	)
	diags := g.ParseOutput(stdout, nil)
	require.Len(t, diags, 2)
	require.Equal(t, diag.Warning, diags[0].Severity)
	require.Equal(t, 10, diags[0].Line)
	require.Equal(t, 5, diags[0].Col)
	require.Equal(t, diag.Error, diags[1].Severity)
}

func TestXvhdlParseOutputExtractsLocatedError(t *testing.T) {
	x := NewXvhdl(t.TempDir())
	stdout := []byte(`ERROR: [VRFC 10-91] foo is not declared [foo.vhd:42]` + "\n")

	diags := x.ParseOutput(stdout, nil)
	require.Len(t, diags, 1)
	require.Equal(t, diag.Error, diags[0].Severity)
	require.Equal(t, "VRFC 10-91", diags[0].Code)
	require.Equal(t, "foo.vhd", diags[0].Path)
	require.Equal(t, 42, diags[0].Line)
}

func TestFallbackAlwaysAvailableAndSilent(t *testing.T) {
	f := NewFallback()
	require.True(t, f.Probe(context.Background()).Available)
	report := f.Build(context.Background(), "x.vhd", ident.NewVHDL("work"), nil, true)
	require.Empty(t, report.Diagnostics)
}

func TestWorkDirLibraryPathIsScopedUnderRoot(t *testing.T) {
	wd := newWorkDir("/project/.hdl_checker/libs")
	p := wd.libraryPath(ident.NewVHDL("WORK"))
	require.Equal(t, filepath.Join("/project/.hdl_checker/libs", "work"), p)
}

type errFake struct{}

func (errFake) Error() string { return "exit status 127" }
