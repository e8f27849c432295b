// Package parser implements the regex/scanner-based HDL source parsers
// (spec §4.1). Parsers are pure functions of (text, kind): they never
// allocate package-level state and never fail — malformed constructs are
// silently skipped so editor interactivity is preserved.
package parser

import (
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// Kind is the HDL flavor of a source file.
type Kind int

const (
	VHDL Kind = iota
	Verilog
	SystemVerilog
)

func (k Kind) String() string {
	switch k {
	case VHDL:
		return "vhdl"
	case Verilog:
		return "verilog"
	case SystemVerilog:
		return "systemverilog"
	default:
		return "unknown"
	}
}

// KindFromExt infers a source file's HDL flavor from its extension,
// for callers (config loading, the engine) that need a Kind before any
// content has been parsed.
func KindFromExt(path string) (Kind, bool) {
	switch {
	case strings.HasSuffix(path, ".vhd"), strings.HasSuffix(path, ".vhdl"):
		return VHDL, true
	case strings.HasSuffix(path, ".v"):
		return Verilog, true
	case strings.HasSuffix(path, ".sv"), strings.HasSuffix(path, ".svh"):
		return SystemVerilog, true
	default:
		return 0, false
	}
}

// CaseSensitive reports whether identifiers of this HDL flavor compare
// case-sensitively (Verilog/SystemVerilog) or fold to lower-case (VHDL).
func (k Kind) CaseSensitive() bool { return k != VHDL }

// Identifier builds an Identifier with the case-sensitivity rule of k.
func (k Kind) Identifier(name string) ident.Identifier {
	return ident.New(name, k.CaseSensitive())
}

// DesignUnitKind is the kind of compilation root a design unit represents.
type DesignUnitKind int

const (
	Entity DesignUnitKind = iota
	Architecture
	Package
	PackageBody
	Context
	Configuration
	VerilogModule
	VerilogPackage
	VerilogInterface
	VerilogProgram
)

func (k DesignUnitKind) String() string {
	switch k {
	case Entity:
		return "entity"
	case Architecture:
		return "architecture"
	case Package:
		return "package"
	case PackageBody:
		return "package_body"
	case Context:
		return "context"
	case Configuration:
		return "configuration"
	case VerilogModule:
		return "module"
	case VerilogPackage:
		return "verilog_package"
	case VerilogInterface:
		return "interface"
	case VerilogProgram:
		return "program"
	default:
		return "unknown"
	}
}

// Position is a 1-based line/column pair into the original source text.
type Position struct {
	Line int
	Col  int
}

// DesignUnit is a single top-level declaration extracted from a file. A
// single file may declare several (e.g. a package and its body); Owner is
// left blank by the parser and filled in by the caller (the database),
// since the parser never knows its own file path.
type DesignUnit struct {
	Name      ident.Identifier
	Kind      DesignUnitKind
	Locations []Position

	// EntityName is set for Architecture units: the entity this
	// architecture belongs to (spec §4.1: "architecture NAME of ENTITY").
	EntityName ident.Identifier
}

// Dependency is an unresolved (library, name) reference. Library is the
// sentinel identifier "work" when the source used the self-reference
// keyword, per spec §3.
type Dependency struct {
	Library   ident.Identifier
	Name      ident.Identifier
	Locations []Position
}

// WorkLibrary is the sentinel library name meaning "same library as the
// declaring file."
const WorkLibrary = "work"

// IsWork reports whether d refers to the work sentinel library.
func (d Dependency) IsWork() bool {
	return d.Library.Key() == WorkLibrary
}

// ParseResult is the output contract of every parser: the design units it
// declares, the dependencies it references, and (Verilog only) the
// `include`d paths.
type ParseResult struct {
	DesignUnits  []DesignUnit
	Dependencies []Dependency
	Includes     []string
}
