package parser

import (
	"regexp"
	"strings"
)

var (
	verilogModulePat    = regexp.MustCompile(`(?m)^\s*module\s+(\w+)`)
	verilogPackagePat   = regexp.MustCompile(`(?m)^\s*package\s+(\w+)`)
	verilogInterfacePat = regexp.MustCompile(`(?m)^\s*interface\s+(\w+)`)
	verilogProgramPat   = regexp.MustCompile(`(?m)^\s*program\s+(\w+)`)

	verilogImportPat  = regexp.MustCompile(`(?m)^\s*import\s+(\w+)\s*::`)
	verilogIncludePat = regexp.MustCompile("`include\\s+\"([^\"]+)\"")

	// Module instantiation: TYPE [#( ... )] INSTANCE_NAME (. One level of
	// nested parens is tolerated inside the parameter-override block so
	// common forms like #(.WIDTH(8), .DEPTH(16)) are recognized.
	verilogInstPat = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_]\w*)\b[ \t]*(?:#\s*\((?:[^()]|\([^()]*\))*\))?\s*([A-Za-z_]\w*)[ \t]*\(`)
)

// verilogKeywords lists reserved words that must never be treated as an
// instantiation's module type, even when followed by an identifier and
// an open paren (e.g. "if (cond)", "always_comb begin").
var verilogKeywords = map[string]bool{
	"module": true, "endmodule": true, "package": true, "endpackage": true,
	"interface": true, "endinterface": true, "program": true, "endprogram": true,
	"function": true, "endfunction": true, "task": true, "endtask": true,
	"always": true, "always_ff": true, "always_comb": true, "always_latch": true,
	"initial": true, "final": true, "assign": true, "if": true, "else": true,
	"case": true, "casex": true, "casez": true, "endcase": true, "for": true,
	"while": true, "do": true, "generate": true, "endgenerate": true,
	"begin": true, "end": true, "wire": true, "reg": true, "logic": true,
	"input": true, "output": true, "inout": true, "parameter": true,
	"localparam": true, "import": true, "export": true, "typedef": true,
	"class": true, "endclass": true, "struct": true, "union": true, "enum": true,
	"modport": true, "return": true, "foreach": true, "repeat": true,
	"fork": true, "join": true, "join_any": true, "join_none": true,
	"disable": true, "wait": true, "force": true, "release": true, "default": true,
	"unique": true, "priority": true, "bind": true, "automatic": true,
	"const": true, "static": true, "virtual": true, "extends": true,
	"implements": true, "pure": true, "rand": true, "randc": true,
	"constraint": true, "covergroup": true, "endgroup": true, "coverpoint": true,
	"property": true, "endproperty": true, "sequence": true, "endsequence": true,
	"assert": true, "assume": true, "cover": true, "restrict": true,
	"checker": true, "endchecker": true, "clocking": true, "endclocking": true,
	"let": true, "signed": true, "unsigned": true, "genvar": true, "specify": true,
	"endspecify": true, "timeunit": true, "timeprecision": true,
}

// ParseVerilog extracts design units and dependencies from Verilog or
// SystemVerilog source text, per spec §4.1. kind is not consulted while
// parsing: both flavors, interface/program declarations included, parse
// identically. It never fails.
func ParseVerilog(text []byte, kind Kind) ParseResult {
	raw := string(text)
	lines := stripCLikeComments(raw)
	stripped := strings.Join(lines, "\n")

	var result ParseResult

	for _, m := range verilogModulePat.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line, col := lineColAt(stripped, m[2])
		result.DesignUnits = append(result.DesignUnits, DesignUnit{
			Name:      kind.Identifier(name),
			Kind:      VerilogModule,
			Locations: []Position{{Line: line, Col: col}},
		})
	}
	for _, m := range verilogPackagePat.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line, col := lineColAt(stripped, m[2])
		result.DesignUnits = append(result.DesignUnits, DesignUnit{
			Name:      kind.Identifier(name),
			Kind:      VerilogPackage,
			Locations: []Position{{Line: line, Col: col}},
		})
	}
	for _, m := range verilogInterfacePat.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line, col := lineColAt(stripped, m[2])
		result.DesignUnits = append(result.DesignUnits, DesignUnit{
			Name:      kind.Identifier(name),
			Kind:      VerilogInterface,
			Locations: []Position{{Line: line, Col: col}},
		})
	}
	for _, m := range verilogProgramPat.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line, col := lineColAt(stripped, m[2])
		result.DesignUnits = append(result.DesignUnits, DesignUnit{
			Name:      kind.Identifier(name),
			Kind:      VerilogProgram,
			Locations: []Position{{Line: line, Col: col}},
		})
	}

	for _, m := range verilogImportPat.FindAllStringSubmatchIndex(stripped, -1) {
		name := stripped[m[2]:m[3]]
		line, col := lineColAt(stripped, m[2])
		result.Dependencies = append(result.Dependencies, Dependency{
			Library:   kind.Identifier(WorkLibrary),
			Name:      kind.Identifier(name),
			Locations: []Position{{Line: line, Col: col}},
		})
	}

	for _, m := range verilogIncludePat.FindAllStringSubmatchIndex(stripped, -1) {
		result.Includes = append(result.Includes, stripped[m[2]:m[3]])
	}

	declared := make(map[string]bool, len(result.DesignUnits))
	for _, du := range result.DesignUnits {
		declared[du.Name.Key()] = true
	}

	for _, m := range verilogInstPat.FindAllStringSubmatchIndex(stripped, -1) {
		typeName := stripped[m[2]:m[3]]
		instName := stripped[m[4]:m[5]]
		if verilogKeywords[typeName] || verilogKeywords[instName] {
			continue
		}
		if declared[kind.Identifier(typeName).Key()] && typeName == instName {
			// Defensive: avoid matching a declaration header fragment
			// that survived comment stripping (e.g. "module foo (" on
			// its own line looks like "foo foo(" only when identical,
			// which never happens for a legitimate instantiation).
			continue
		}
		line, col := lineColAt(stripped, m[2])
		result.Dependencies = append(result.Dependencies, Dependency{
			Library:   kind.Identifier(WorkLibrary),
			Name:      kind.Identifier(typeName),
			Locations: []Position{{Line: line, Col: col}},
		})
	}

	return result
}

// lineColAt converts a byte offset into text to a 1-based (line, col)
// pair.
func lineColAt(text string, offset int) (line, col int) {
	line = 1
	lastNL := -1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lastNL = i
		}
	}
	col = offset - lastNL
	return line, col
}
