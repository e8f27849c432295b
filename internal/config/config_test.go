package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdl-checker/hdl-checker/internal/parser"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceEntryRoundTripsBareStringAndTuple(t *testing.T) {
	var bare SourceEntry
	require.NoError(t, bare.UnmarshalJSON([]byte(`"foo.vhd"`)))
	require.Equal(t, SourceEntry{Path: "foo.vhd"}, bare)
	out, err := bare.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `"foo.vhd"`, string(out))

	var tuple SourceEntry
	require.NoError(t, tuple.UnmarshalJSON([]byte(`["bar.vhd", {"library": "lib_a", "flags": ["-x"]}]`)))
	require.Equal(t, SourceEntry{Path: "bar.vhd", Library: "lib_a", Flags: []string{"-x"}}, tuple)
	out, err = tuple.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `["bar.vhd", {"library": "lib_a", "flags": ["-x"]}]`, string(out))
}

func TestSourceEntryRejectsMalformedShapes(t *testing.T) {
	var se SourceEntry
	require.Error(t, se.UnmarshalJSON([]byte(`42`)))
	require.Error(t, se.UnmarshalJSON([]byte(`["only-one"]`)))
}

func TestLoadJSONResolvesRelativeSourcesAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "foo.vhd", "entity foo is end entity;")
	cfgPath := writeTemp(t, dir, "proj.json", `{
		"sources": ["foo.vhd", ["bar.vhd", {"library": "lib_a"}]],
		"vhdl": {"flags": {"global": ["-fexplicit"]}}
	}`)

	res, err := LoadJSON(cfgPath)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	require.Equal(t, filepath.Join(dir, "foo.vhd"), res.Sources[0].Path)
	require.Equal(t, filepath.Join(dir, "bar.vhd"), res.Sources[1].Path)
	require.Equal(t, "lib_a", res.Sources[1].Library)
	require.NotNil(t, res.VHDL)
	require.Equal(t, []string{"-fexplicit"}, res.VHDL.Global)
}

func TestLoadJSONExpandsIncludesDepthFirst(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "child.json", `{"sources": ["child.vhd"]}`)
	root := writeTemp(t, dir, "root.json", `{"sources": ["root.vhd"], "include": ["child.json"]}`)

	res, err := LoadJSON(root)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	require.Equal(t, filepath.Join(dir, "root.vhd"), res.Sources[0].Path)
	require.Equal(t, filepath.Join(dir, "child.vhd"), res.Sources[1].Path)
}

func TestLoadJSONIgnoresIncludeCycles(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.json", `{"sources": ["a.vhd"], "include": ["b.json"]}`)
	bPath := writeTemp(t, dir, "b.json", `{"sources": ["b.vhd"], "include": ["a.json"]}`)
	aPath := filepath.Join(dir, "a.json")
	_ = bPath

	res, err := LoadJSON(aPath)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2) // a.vhd + b.vhd, second visit of a.json short-circuits
}

func TestLoadJSONWarnsOnUnknownTopLevelKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "proj.json", `{"sources": [], "bogus_key": 1}`)

	res, err := LoadJSON(cfgPath)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	require.Equal(t, "unknown-config-key", res.Diagnostics[0].Code)
}

func TestLoadJSONExpandsGlobSourcePaths(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "src/a.vhd", "")
	writeTemp(t, dir, "src/b.vhd", "")
	cfgPath := writeTemp(t, dir, "proj.json", `{"sources": ["src/*.vhd"]}`)

	res, err := LoadJSON(cfgPath)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
}

func TestLoadLegacyParsesBuilderFlagsAndSources(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "foo.vhd", "")
	cfgPath := writeTemp(t, dir, "project.conf", `
# a comment
builder = ghdl
global_build_flags[vhdl] = -fexplicit -frelaxed-rules
vhdl lib_a foo.vhd -someflag
`)

	res, builder, err := LoadLegacy(cfgPath)
	require.NoError(t, err)
	require.Equal(t, BuilderGHDL, builder)
	require.NotNil(t, res.VHDL)
	require.Equal(t, []string{"-fexplicit", "-frelaxed-rules"}, res.VHDL.Global)
	require.Len(t, res.Sources, 1)
	require.Equal(t, "lib_a", res.Sources[0].Library)
	require.Equal(t, []string{"-someflag"}, res.Sources[0].Flags)
}

func TestLoadLegacyExpandsWildcardPaths(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.vhd", "")
	writeTemp(t, dir, "b.vhd", "")
	cfgPath := writeTemp(t, dir, "project.conf", "vhdl lib_a *.vhd\n")

	res, _, err := LoadLegacy(cfgPath)
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
}

func TestLoadLegacyAcceptsAndIgnoresLegacyTargetDirKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "project.conf", "target_dir = build\nbuilder = msim\n")

	res, builder, err := LoadLegacy(cfgPath)
	require.NoError(t, err)
	require.Empty(t, res.Diagnostics)
	require.Equal(t, BuilderMsim, builder)
}

func TestLoadLegacyWarnsOnUnrecognizedLine(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTemp(t, dir, "project.conf", "this is not valid\n")

	res, _, err := LoadLegacy(cfgPath)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	require.Equal(t, "legacy-config-syntax", res.Diagnostics[0].Code)
}

func TestLoadDispatchesOnLeadingBrace(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeTemp(t, dir, "proj.json", `{"sources": []}`)
	legacyPath := writeTemp(t, dir, "project.conf", "builder = msim\n")

	_, builder, err := Load(jsonPath)
	require.NoError(t, err)
	require.Equal(t, Builder(""), builder)

	_, builder, err = Load(legacyPath)
	require.NoError(t, err)
	require.Equal(t, BuilderMsim, builder)
}

func TestFlagsForPrecedenceSourceThenLanguageThenDefault(t *testing.T) {
	flags := FlagsFor(BuilderMsim, parser.VHDL, nil, "global", nil)
	require.Equal(t, DefaultFlags[BuilderMsim][parser.VHDL], flags)

	override := &FlagSet{Global: []string{"-custom"}}
	flags = FlagsFor(BuilderMsim, parser.VHDL, override, "global", nil)
	require.Equal(t, []string{"-custom"}, flags)

	flags = FlagsFor(BuilderMsim, parser.VHDL, override, "global", []string{"-per-file"})
	require.Equal(t, []string{"-per-file"}, flags)
}
