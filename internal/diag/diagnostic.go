// Package diag defines the diagnostic value type shared across the parser,
// database, planner, builder adapters, and static checker, plus the stable
// ordering rule required by spec §5 ("Ordering guarantees").
package diag

import "sort"

// Severity is the adapter-agnostic diagnostic severity, per spec §6's
// mapping table (E -> Error, W -> Warning, Note/Info -> Note, Fatal ->
// Fatal).
type Severity int

const (
	Note Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single normalized finding, whether produced by a
// compiler adapter, the static checker, library inference, or dependency
// resolution.
type Diagnostic struct {
	Path     string
	Line     int
	Col      int
	Severity Severity
	Code     string
	Message  string
}

// Key returns the de-duplication key spec §4.6 uses when merging
// diagnostics from multiple sources: (path, line, col, code, message).
func (d Diagnostic) Key() string {
	return d.Path + "\x00" + itoa(d.Line) + "\x00" + itoa(d.Col) + "\x00" + d.Code + "\x00" + d.Message
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Sort orders diagnostics by (path, line, col, severity, code, message),
// the stable order spec §5 requires so editors see idempotent results.
func Sort(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// Dedup removes diagnostics sharing the same Key, keeping the first
// occurrence. The input is assumed already sorted by Sort so the result
// preserves stable order.
func Dedup(diags []Diagnostic) []Diagnostic {
	seen := make(map[string]struct{}, len(diags))
	out := diags[:0:0]
	for _, d := range diags {
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}
