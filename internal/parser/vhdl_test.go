package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVHDLEntityAndArchitecture(t *testing.T) {
	src := `
library ieee;
use ieee.std_logic_1164.all;

entity counter is
  port (clk : in std_logic);
end entity counter;

architecture rtl of counter is
begin
end architecture rtl;
`
	res := ParseVHDL([]byte(src))

	require.Len(t, res.DesignUnits, 2)
	require.Equal(t, Entity, res.DesignUnits[0].Kind)
	require.Equal(t, "counter", res.DesignUnits[0].Name.Key())
	require.Equal(t, Architecture, res.DesignUnits[1].Kind)
	require.Equal(t, "rtl", res.DesignUnits[1].Name.Key())
	require.Equal(t, "counter", res.DesignUnits[1].EntityName.Key())

	var sawUseClause, sawArchDep bool
	for _, d := range res.Dependencies {
		if d.Library.Key() == "ieee" && d.Name.Key() == "std_logic_1164" {
			sawUseClause = true
		}
		if d.IsWork() && d.Name.Key() == "counter" {
			sawArchDep = true
		}
	}
	require.True(t, sawUseClause, "expected a dependency on ieee.std_logic_1164")
	require.True(t, sawArchDep, "expected architecture to depend on its entity")
}

func TestParseVHDLIsCaseInsensitiveOnIdentifiers(t *testing.T) {
	res := ParseVHDL([]byte("ENTITY Foo IS\nend entity Foo;"))
	require.Len(t, res.DesignUnits, 1)
	require.Equal(t, "foo", res.DesignUnits[0].Name.Key())
	require.Equal(t, "Foo", res.DesignUnits[0].Name.String())
}

func TestParseVHDLEntityInstantiationDependency(t *testing.T) {
	src := `
architecture rtl of top is
begin
  u0 : entity work.counter
    port map (clk => clk);
end architecture rtl;
`
	res := ParseVHDL([]byte(src))

	var found bool
	for _, d := range res.Dependencies {
		if d.IsWork() && d.Name.Key() == "counter" {
			found = true
		}
	}
	require.True(t, found, "expected direct entity instantiation to produce a dependency")
}

func TestParseVHDLPackageBodyAndContext(t *testing.T) {
	src := `
package body utils is
end package body utils;

context app_ctx is
end context app_ctx;
`
	res := ParseVHDL([]byte(src))
	require.Len(t, res.DesignUnits, 2)
	require.Equal(t, PackageBody, res.DesignUnits[0].Kind)
	require.Equal(t, "utils", res.DesignUnits[0].Name.Key())
	require.Equal(t, Context, res.DesignUnits[1].Kind)
	require.Equal(t, "app_ctx", res.DesignUnits[1].Name.Key())
}

func TestParseVHDLIgnoresCommentedOutDeclarations(t *testing.T) {
	res := ParseVHDL([]byte("-- entity ghost is\nentity real_one is"))
	require.Len(t, res.DesignUnits, 1)
	require.Equal(t, "real_one", res.DesignUnits[0].Name.Key())
}

func TestParseVHDLConfigurationDependsOnEntity(t *testing.T) {
	res := ParseVHDL([]byte("configuration cfg of top is\nend configuration cfg;"))
	require.Len(t, res.DesignUnits, 1)
	require.Equal(t, Configuration, res.DesignUnits[0].Kind)

	var found bool
	for _, d := range res.Dependencies {
		if d.IsWork() && d.Name.Key() == "top" {
			found = true
		}
	}
	require.True(t, found)
}
