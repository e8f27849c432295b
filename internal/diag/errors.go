package diag

import (
	"fmt"
	"strings"
)

// ResolutionError reports that a Dependency (library, name) could not be
// resolved to any path in the database (spec §7: "Unresolved dependency").
type ResolutionError struct {
	Library    string
	Name       string
	FromPath   string
	Underlying error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unresolved dependency %s.%s referenced from %s", e.Library, e.Name, e.FromPath)
}

func (e *ResolutionError) Unwrap() error { return e.Underlying }

// Diagnostic renders the resolution failure as the reference-site
// diagnostic spec §7 requires.
func (e *ResolutionError) Diagnostic(line, col int) Diagnostic {
	return Diagnostic{
		Path:     e.FromPath,
		Line:     line,
		Col:      col,
		Severity: Error,
		Code:     "unresolved-dependency",
		Message:  fmt.Sprintf("could not resolve %s.%s to any known source", e.Library, e.Name),
	}
}

// InferenceError reports that a file's library could not be inferred
// (spec §3 rule 3; spec §7: "Library could not be inferred").
type InferenceError struct {
	Path string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("could not infer library for %s", e.Path)
}

// Diagnostic renders the inference failure at line 0, per spec §3.
func (e *InferenceError) Diagnostic() Diagnostic {
	return Diagnostic{
		Path:     e.Path,
		Line:     0,
		Severity: Warning,
		Code:     "unresolved-library",
		Message:  "library could not be inferred for this file",
	}
}

// ProbeError reports that a builder adapter's availability probe failed
// (spec §7: "Adapter probe failed").
type ProbeError struct {
	Adapter    string
	Underlying error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s probe failed: %v", e.Adapter, e.Underlying)
}

func (e *ProbeError) Unwrap() error { return e.Underlying }

// Diagnostic renders the probe failure as the one-time info diagnostic
// spec §7 requires.
func (e *ProbeError) Diagnostic() Diagnostic {
	return Diagnostic{
		Line:     0,
		Severity: Note,
		Code:     "adapter-unavailable",
		Message:  e.Error(),
	}
}

// AmbiguousDependencyError reports that a Dependency (library, name)
// resolved to more than one candidate path (spec §9 Open Question 3): the
// build still proceeds, picking the first candidate by (library, path)
// ordering, but the ambiguity itself is worth surfacing.
type AmbiguousDependencyError struct {
	Library    string
	Name       string
	FromPath   string
	Candidates []string
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("ambiguous dependency %s.%s referenced from %s: %d candidates", e.Library, e.Name, e.FromPath, len(e.Candidates))
}

// Diagnostic renders the ambiguity as an informational diagnostic at the
// reference site, naming every candidate path.
func (e *AmbiguousDependencyError) Diagnostic(line, col int) Diagnostic {
	return Diagnostic{
		Path:     e.FromPath,
		Line:     line,
		Col:      col,
		Severity: Note,
		Code:     "ambiguous-dependency",
		Message:  fmt.Sprintf("%s.%s resolves to %d candidates: %s", e.Library, e.Name, len(e.Candidates), strings.Join(e.Candidates, ", ")),
	}
}

// MissingFileError reports a path named in configuration but absent from
// disk (spec §8 boundary behavior 8).
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Diagnostic renders the missing-file diagnostic at line 0.
func (e *MissingFileError) Diagnostic() Diagnostic {
	return Diagnostic{
		Path:     e.Path,
		Line:     0,
		Severity: Error,
		Code:     "file-not-found",
		Message:  "file referenced by configuration is missing from disk",
	}
}
