package diag

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSortOrdersByPathLineColSeverityCodeMessage(t *testing.T) {
	in := []Diagnostic{
		{Path: "b.vhd", Line: 1, Severity: Error, Code: "z", Message: "m"},
		{Path: "a.vhd", Line: 5, Severity: Warning, Code: "a", Message: "m"},
		{Path: "a.vhd", Line: 1, Severity: Error, Code: "a", Message: "m"},
	}
	Sort(in)

	want := []Diagnostic{
		{Path: "a.vhd", Line: 1, Severity: Error, Code: "a", Message: "m"},
		{Path: "a.vhd", Line: 5, Severity: Warning, Code: "a", Message: "m"},
		{Path: "b.vhd", Line: 1, Severity: Error, Code: "z", Message: "m"},
	}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	in := []Diagnostic{
		{Path: "a.vhd", Line: 1, Code: "x", Message: "first"},
		{Path: "a.vhd", Line: 1, Code: "x", Message: "first"},
		{Path: "a.vhd", Line: 2, Code: "x", Message: "first"},
	}
	out := Dedup(in)
	require.Len(t, out, 2)
}

func TestResolutionErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	e := &ResolutionError{Library: "work", Name: "foo", FromPath: "a.vhd", Underlying: inner}
	require.ErrorIs(t, e, inner)

	d := e.Diagnostic(3, 4)
	require.Equal(t, "unresolved-dependency", d.Code)
	require.Equal(t, 3, d.Line)
}

func TestInferenceErrorDiagnosticIsAtLineZero(t *testing.T) {
	e := &InferenceError{Path: "user.vhd"}
	d := e.Diagnostic()
	require.Equal(t, 0, d.Line)
	require.Equal(t, Warning, d.Severity)
}
