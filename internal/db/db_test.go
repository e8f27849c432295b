package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

func vhdlPath(abs string) ident.Path { return ident.NewPath(abs) }

func TestPutFileAssignsExplicitLibrary(t *testing.T) {
	database := New()
	err := database.PutFile(vhdlPath("/proj/pkg.vhd"), parser.VHDL,
		[]byte("package p is\nend package p;"), ident.New("lib_a", false), nil, nil)
	require.NoError(t, err)

	lib, ok := database.LibraryOf("/proj/pkg.vhd")
	require.True(t, ok)
	require.Equal(t, "lib_a", lib.Key())
}

func TestLibraryInferenceRule1(t *testing.T) {
	database := New()
	require.NoError(t, database.PutFile(vhdlPath("/proj/pkg.vhd"), parser.VHDL,
		[]byte("package p is\nend package p;"), ident.New("lib_a", false), nil, nil))
	require.NoError(t, database.PutFile(vhdlPath("/proj/user.vhd"), parser.VHDL,
		[]byte("library lib_a;\nuse lib_a.p.all;\nentity user is\nend entity user;"),
		ident.Identifier{}, nil, nil))

	lib, ok := database.LibraryOf("/proj/user.vhd")
	require.True(t, ok)
	require.Equal(t, "lib_a", lib.Key())
}

func TestLibraryInferenceRule2(t *testing.T) {
	database := New()
	// dependent.vhd is explicitly in lib_b and references work.provider,
	// meaning it expects a peer in lib_b to declare "provider".
	require.NoError(t, database.PutFile(vhdlPath("/proj/dependent.vhd"), parser.VHDL,
		[]byte("architecture rtl of consumer is\nbegin\n  u0 : entity work.provider\n    port map(x=>x);\nend architecture rtl;"),
		ident.New("lib_b", false), nil, nil))
	require.NoError(t, database.PutFile(vhdlPath("/proj/provider.vhd"), parser.VHDL,
		[]byte("entity provider is\nend entity provider;"), ident.Identifier{}, nil, nil))

	lib, ok := database.LibraryOf("/proj/provider.vhd")
	require.True(t, ok)
	require.Equal(t, "lib_b", lib.Key())
}

func TestLibraryInferenceUnresolvedFallsBackToSentinel(t *testing.T) {
	database := New()
	require.NoError(t, database.PutFile(vhdlPath("/proj/orphan.vhd"), parser.VHDL,
		[]byte("entity orphan is\nend entity orphan;"), ident.Identifier{}, nil, nil))

	lib, ok := database.LibraryOf("/proj/orphan.vhd")
	require.True(t, ok)
	require.Equal(t, UnresolvedLibrary, lib.Key())
}

func TestForgetFileRemovesDerivedState(t *testing.T) {
	database := New()
	require.NoError(t, database.PutFile(vhdlPath("/proj/pkg.vhd"), parser.VHDL,
		[]byte("package p is\nend package p;"), ident.New("lib_a", false), nil, nil))

	paths := database.PathsByDesignUnit(ident.New("lib_a", false), ident.New("p", false), ident.Identifier{})
	require.Len(t, paths, 1)

	database.ForgetFile("/proj/pkg.vhd")
	_, ok := database.LibraryOf("/proj/pkg.vhd")
	require.False(t, ok)

	paths = database.PathsByDesignUnit(ident.New("lib_a", false), ident.New("p", false), ident.Identifier{})
	require.Empty(t, paths)
}

func TestPathsByDesignUnitResolvesWorkAgainstRequester(t *testing.T) {
	database := New()
	require.NoError(t, database.PutFile(vhdlPath("/proj/counter.vhd"), parser.VHDL,
		[]byte("entity counter is\nend entity counter;"), ident.New("lib_a", false), nil, nil))

	paths := database.PathsByDesignUnit(ident.New("work", false), ident.New("counter", false), ident.New("lib_a", false))
	require.Len(t, paths, 1)
	require.Equal(t, "/proj/counter.vhd", paths[0].Abs())
}

func TestPutFileIsIdempotentOnRepeatedCalls(t *testing.T) {
	database := New()
	text := []byte("entity counter is\nend entity counter;")
	require.NoError(t, database.PutFile(vhdlPath("/proj/counter.vhd"), parser.VHDL, text, ident.New("lib_a", false), nil, nil))
	require.NoError(t, database.PutFile(vhdlPath("/proj/counter.vhd"), parser.VHDL, text, ident.New("lib_a", false), nil, nil))

	require.Len(t, database.Paths(), 1)
}
