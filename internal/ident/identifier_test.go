package ident

import "testing"

func TestVHDLIdentifierEqualityIsCaseInsensitive(t *testing.T) {
	a := NewVHDL("MY_ENTITY")
	b := NewVHDL("my_entity")
	if !a.Equal(b) {
		t.Fatalf("expected VHDL identifiers to be equal regardless of case")
	}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestVerilogIdentifierEqualityIsCaseSensitive(t *testing.T) {
	a := NewVerilog("MyModule")
	b := NewVerilog("mymodule")
	if a.Equal(b) {
		t.Fatalf("expected Verilog identifiers with different case to be distinct")
	}
	if a.Key() == b.Key() {
		t.Fatalf("expected distinct keys, got matching %q", a.Key())
	}
}

func TestIdentifierStringPreservesSpelling(t *testing.T) {
	a := NewVHDL("MixedCase")
	if a.String() != "MixedCase" {
		t.Fatalf("expected original spelling preserved, got %q", a.String())
	}
}

func TestIdentifierEqualCrossSensitivityIsStrict(t *testing.T) {
	a := NewVHDL("foo")
	b := NewVerilog("FOO")
	if a.Equal(b) {
		t.Fatalf("expected mixed-sensitivity comparison to use the stricter rule")
	}
}
