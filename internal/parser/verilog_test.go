package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVerilogModuleDeclaration(t *testing.T) {
	src := `
module counter (
  input  clk,
  output reg [7:0] q
);
endmodule
`
	res := ParseVerilog([]byte(src), Verilog)
	require.Len(t, res.DesignUnits, 1)
	require.Equal(t, VerilogModule, res.DesignUnits[0].Kind)
	require.Equal(t, "counter", res.DesignUnits[0].Name.Key())
}

func TestParseVerilogIsCaseSensitive(t *testing.T) {
	res := ParseVerilog([]byte("module Counter;\nendmodule"), Verilog)
	require.Len(t, res.DesignUnits, 1)
	require.Equal(t, "Counter", res.DesignUnits[0].Name.Key())
}

func TestParseVerilogImportDependency(t *testing.T) {
	res := ParseVerilog([]byte("import my_pkg::*;\nmodule top;\nendmodule"), SystemVerilog)
	require.Len(t, res.Dependencies, 1)
	require.True(t, res.Dependencies[0].IsWork())
	require.Equal(t, "my_pkg", res.Dependencies[0].Name.Key())
}

func TestParseVerilogIncludeDirective(t *testing.T) {
	res := ParseVerilog([]byte("`include \"defs.svh\"\nmodule top;\nendmodule"), SystemVerilog)
	require.Equal(t, []string{"defs.svh"}, res.Includes)
}

func TestParseVerilogSimpleInstantiationDependency(t *testing.T) {
	src := `
module top;
  counter u_counter (
    .clk(clk)
  );
endmodule
`
	res := ParseVerilog([]byte(src), Verilog)

	var found bool
	for _, d := range res.Dependencies {
		if d.Name.Key() == "counter" {
			found = true
		}
	}
	require.True(t, found, "expected instantiation to produce a dependency on 'counter'")
}

func TestParseVerilogParameterizedInstantiationDependency(t *testing.T) {
	src := `
module top;
  counter #(
    .WIDTH(8),
    .DEPTH(16)
  ) u_counter (
    .clk(clk)
  );
endmodule
`
	res := ParseVerilog([]byte(src), Verilog)

	var found bool
	for _, d := range res.Dependencies {
		if d.Name.Key() == "counter" {
			found = true
		}
	}
	require.True(t, found, "expected parameter-defaulted instantiation to still be recognized")
}

func TestParseVerilogDoesNotTreatControlFlowAsInstantiation(t *testing.T) {
	src := `
module top;
  always @(posedge clk) begin
    if (rst) begin
      q <= 0;
    end
  end
endmodule
`
	res := ParseVerilog([]byte(src), Verilog)
	require.Empty(t, res.Dependencies)
}

func TestParseVerilogInterfaceAndProgramDeclarations(t *testing.T) {
	res := ParseVerilog([]byte("interface bus_if;\nendinterface\n\nprogram test_prog;\nendprogram"), SystemVerilog)
	require.Len(t, res.DesignUnits, 2)
	require.Equal(t, VerilogInterface, res.DesignUnits[0].Kind)
	require.Equal(t, VerilogProgram, res.DesignUnits[1].Kind)
}
