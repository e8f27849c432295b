// Package checker implements the static checker (spec §4.5): unused
// local-declaration detection and FIXME/TODO/XXX comment-tag diagnostics.
// It operates purely on parsed text, no external tool required — the
// teacher's own framing for internal/indexer.go ("the indexer should not
// work around extraction bugs") generalizes here to "the checker only
// reports what it can see in the text the parser already stripped."
package checker

import (
	"regexp"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// declKeywordPat matches VHDL local declarations of the kinds spec §4.5
// names: signal, constant, (shared) variable, type, attribute. Generics and
// library clauses are handled separately since their syntax doesn't fit
// this "KEYWORD NAME[, NAME...] (:|is)" shape.
var declKeywordPat = regexp.MustCompile(`(?i)^\s*(signal|constant|shared\s+variable|variable|type|attribute)\s+([\w, ]+?)\s*(:|\bis\b)`)

var genericClauseStart = regexp.MustCompile(`(?i)generic\s*\(`)
var libraryClausePat = regexp.MustCompile(`(?i)^\s*library\s+([\w,\s]+);`)

type declaration struct {
	name ident
	line int
	col  int
}

// ident is a plain string here: unused-declaration checking only runs
// against VHDL source, whose identifiers are already case-folded by the
// caller comparing against parser.VHDL.Identifier if needed. Keeping this
// local avoids an import cycle-prone dependency on internal/ident for what
// is, here, just a lower-cased lookup key.
type ident = string

// Check runs every static check over a single file's raw source (comments
// are stripped here where a check needs it), returning diagnostics sorted
// and deduplicated like every other diagnostic source feeding into the
// engine.
func Check(kind parser.Kind, path string, rawSource []byte) []diag.Diagnostic {
	var diags []diag.Diagnostic

	raw := string(rawSource)
	diags = append(diags, tagDiagnostics(kind, path, raw)...)

	if kind == parser.VHDL {
		diags = append(diags, unusedDiagnostics(path, raw)...)
	}

	diag.Sort(diags)
	return diag.Dedup(diags)
}

func tagDiagnostics(kind parser.Kind, path, raw string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, tag := range parser.FindCommentTags(raw, kind != parser.VHDL) {
		out = append(out, diag.Diagnostic{
			Path:     path,
			Line:     tag.Line,
			Col:      tag.Col,
			Severity: diag.Note,
			Code:     tag.Tag,
			Message:  tag.Message,
		})
	}
	return out
}

func unusedDiagnostics(path, raw string) []diag.Diagnostic {
	stripped := stripVHDLForChecking(raw)
	lines := strings.Split(stripped, "\n")

	var decls []declaration
	decls = append(decls, scanKeywordDeclarations(lines)...)
	decls = append(decls, scanGenericNames(stripped)...)
	decls = append(decls, scanLibraryClauses(lines)...)

	var out []diag.Diagnostic
	for _, d := range decls {
		if countOccurrences(stripped, d.name) > 1 {
			continue
		}
		out = append(out, diag.Diagnostic{
			Path:     path,
			Line:     d.line,
			Col:      d.col,
			Severity: diag.Warning,
			Code:     "unused",
			Message:  "\"" + d.name + "\" is never used",
		})
	}
	return out
}

func scanKeywordDeclarations(lines []string) []declaration {
	var out []declaration
	for i, line := range lines {
		m := declKeywordPat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, name := range strings.Split(m[2], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			out = append(out, declaration{name: name, line: i + 1, col: colOf(line, name)})
		}
	}
	return out
}

func scanLibraryClauses(lines []string) []declaration {
	var out []declaration
	for i, line := range lines {
		m := libraryClausePat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name == "" || strings.EqualFold(name, "work") || strings.EqualFold(name, "std") {
				continue
			}
			out = append(out, declaration{name: name, line: i + 1, col: colOf(line, name)})
		}
	}
	return out
}

// scanGenericNames finds every `generic ( ... )` clause and extracts the
// formal names declared inside, each terminated by a colon and optionally
// comma-separated ("WIDTH, DEPTH : integer := 8").
func scanGenericNames(stripped string) []declaration {
	var out []declaration
	for _, loc := range genericClauseStart.FindAllStringIndex(stripped, -1) {
		openParen := loc[1] - 1
		body, end := balancedParenBody(stripped, openParen)
		if end < 0 {
			continue
		}
		for _, item := range strings.Split(body, ";") {
			colonIdx := strings.Index(item, ":")
			if colonIdx < 0 {
				continue
			}
			namesPart := item[:colonIdx]
			nameStartOffset := strings.Index(stripped, namesPart)
			for _, name := range strings.Split(namesPart, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				off := strings.Index(stripped[max(0, nameStartOffset):], name)
				line, col := 1, 1
				if off >= 0 {
					line, col = lineColOf(stripped, max(0, nameStartOffset)+off)
				} else {
					line, col = lineColOf(stripped, openParen)
				}
				out = append(out, declaration{name: name, line: line, col: col})
			}
		}
	}
	return out
}

// balancedParenBody returns the text between openParen (the index of an
// opening '(' ) and its matching close, plus the close index, or -1 if
// unbalanced.
func balancedParenBody(text string, openParen int) (string, int) {
	depth := 1
	for i := openParen + 1; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[openParen+1 : i], i
			}
		}
	}
	return "", -1
}

func lineColOf(text string, offset int) (line, col int) {
	line = 1
	lastNL := -1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return line, offset - lastNL
}

func colOf(line, needle string) int {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(needle))
	if idx < 0 {
		return 1
	}
	return idx + 1
}

func countOccurrences(text, name string) int {
	pat := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	return len(pat.FindAllStringIndex(text, -1))
}

// stripVHDLForChecking blanks "--" trailing comments, identical in effect
// to the parser's own comment stripping but kept local so checker has no
// dependency on parser internals beyond the exported ParseResult/Kind.
func stripVHDLForChecking(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx] + strings.Repeat(" ", len(line)-idx)
		}
	}
	return strings.Join(lines, "\n")
}

