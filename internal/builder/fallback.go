package builder

import (
	"context"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// Fallback is used when no real tool is available; it always probes
// Available (spec §4.4: "allowing static checks (C6) still to run") and
// every Build call returns an empty report.
type Fallback struct{}

func NewFallback() Fallback { return Fallback{} }

func (Fallback) Name() string { return "fallback" }

func (Fallback) Probe(ctx context.Context) Availability { return Availability{Available: true} }

func (Fallback) CreateLibrary(ctx context.Context, lib ident.Identifier) error { return nil }

func (Fallback) Build(ctx context.Context, path string, library ident.Identifier, flags []string, scratch bool) BuildReport {
	return BuildReport{}
}

func (Fallback) ParseOutput(rawStdout, rawStderr []byte) []diag.Diagnostic { return nil }

func (Fallback) RebuildsFrom(rawOutput []byte) []RebuildHint { return nil }
