// Package ident defines the identifier and path value types shared by every
// other component of the HDL Checker core.
package ident

import "strings"

// Identifier is a quoted HDL name together with the case-sensitivity rule
// that governs its equality. VHDL identifiers fold to lower-case; Verilog
// and SystemVerilog identifiers preserve case.
type Identifier struct {
	name          string
	caseSensitive bool
}

// NewVHDL returns an identifier using VHDL's case-insensitive equality rule.
func NewVHDL(name string) Identifier {
	return Identifier{name: name, caseSensitive: false}
}

// NewVerilog returns an identifier using Verilog/SystemVerilog's
// case-sensitive equality rule.
func NewVerilog(name string) Identifier {
	return Identifier{name: name, caseSensitive: true}
}

// New returns an identifier with an explicit case-sensitivity bit.
func New(name string, caseSensitive bool) Identifier {
	return Identifier{name: name, caseSensitive: caseSensitive}
}

// IsZero reports whether the identifier carries no name.
func (id Identifier) IsZero() bool { return id.name == "" }

// CaseSensitive reports the identifier's equality rule.
func (id Identifier) CaseSensitive() bool { return id.caseSensitive }

// Key returns the canonical form used for map lookups and equality:
// lower-cased for case-insensitive identifiers, verbatim otherwise.
func (id Identifier) Key() string {
	if id.caseSensitive {
		return id.name
	}
	return strings.ToLower(id.name)
}

// String renders the identifier preserving its original spelling.
func (id Identifier) String() string { return id.name }

// Equal compares two identifiers honoring the stricter of their two
// case-sensitivity bits, so a VHDL identifier and a Verilog identifier
// with the same spelling but different case never accidentally resolve
// to the same symbol.
func (id Identifier) Equal(other Identifier) bool {
	if id.caseSensitive || other.caseSensitive {
		return id.name == other.name
	}
	return strings.EqualFold(id.name, other.name)
}
