package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hdl-checker/hdl-checker/internal/diag"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// Builder is the legacy config's selected compiler adapter name.
type Builder string

const (
	BuilderMsim  Builder = "msim"
	BuilderGHDL  Builder = "ghdl"
	BuilderXVHDL Builder = "xvhdl"
)

// LoadLegacy parses the line-oriented configuration grammar spec §6
// requires ("must be accepted" alongside the JSON schema). Grounded on the
// teacher's line-at-a-time Load/parseLine approach in internal/config's
// text-format reader, generalized to this grammar's three statement forms.
func LoadLegacy(path string) (Resolved, Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return Resolved{}, "", fmt.Errorf("hdl-checker: read legacy config %q: %w", path, err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	var (
		res     Resolved
		builder Builder
		vhdl    FlagSet
		verilog FlagSet
		sv      FlagSet
		haveV   bool
		haveVl  bool
		haveSV  bool
	)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if _, ok := cutPrefix(line, "target_dir"); ok {
			// Legacy key from older hdl_checker installs; accepted and
			// ignored so existing configs remain loadable as-is.
			continue
		}

		if rest, ok := cutPrefix(line, "builder"); ok {
			val, ok := parseAssignment(rest)
			if !ok {
				res.Diagnostics = append(res.Diagnostics, legacySyntaxWarning(path, lineNo, line))
				continue
			}
			switch Builder(val) {
			case BuilderMsim, BuilderGHDL, BuilderXVHDL:
				builder = Builder(val)
			default:
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Path: path, Line: lineNo, Severity: diag.Warning,
					Code: "unknown-builder", Message: fmt.Sprintf("unknown builder %q", val),
				})
			}
			continue
		}

		if kind, rest, ok := cutBracketed(line, "global_build_flags"); ok {
			val, ok := parseAssignment(rest)
			if !ok {
				res.Diagnostics = append(res.Diagnostics, legacySyntaxWarning(path, lineNo, line))
				continue
			}
			flags := strings.Fields(val)
			switch kind {
			case "vhdl":
				vhdl.Global = append(vhdl.Global, flags...)
				haveV = true
			case "verilog":
				verilog.Global = append(verilog.Global, flags...)
				haveVl = true
			case "systemverilog":
				sv.Global = append(sv.Global, flags...)
				haveSV = true
			default:
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Path: path, Line: lineNo, Severity: diag.Warning,
					Code: "unknown-language", Message: fmt.Sprintf("unknown language %q in global_build_flags", kind),
				})
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			res.Diagnostics = append(res.Diagnostics, legacySyntaxWarning(path, lineNo, line))
			continue
		}
		kindWord, library, rawPath := fields[0], fields[1], fields[2]
		var kind parser.Kind
		switch kindWord {
		case "vhdl":
			kind = parser.VHDL
		case "verilog":
			kind = parser.Verilog
		case "systemverilog":
			kind = parser.SystemVerilog
		default:
			res.Diagnostics = append(res.Diagnostics, legacySyntaxWarning(path, lineNo, line))
			continue
		}
		flags := fields[3:]

		p := rawPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		if strings.ContainsAny(rawPath, "*?[{") {
			matches, err := doublestar.FilepathGlob(p)
			if err != nil {
				res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
					Path: path, Line: lineNo, Severity: diag.Warning,
					Code: "invalid-config-path", Message: fmt.Sprintf("malformed glob pattern %q: %v", rawPath, err),
				})
				continue
			}
			for _, m := range matches {
				res.Sources = append(res.Sources, Source{Path: m, Library: library, Flags: flags, Kind: kind, KindKnown: true})
			}
			continue
		}
		res.Sources = append(res.Sources, Source{Path: p, Library: library, Flags: flags, Kind: kind, KindKnown: true})
	}
	if err := scanner.Err(); err != nil {
		return Resolved{}, "", fmt.Errorf("hdl-checker: scan legacy config %q: %w", path, err)
	}

	if haveV {
		res.VHDL = &vhdl
	}
	if haveVl {
		res.Verilog = &verilog
	}
	if haveSV {
		res.SystemVerilog = &sv
	}
	return res, builder, nil
}

func cutPrefix(line, keyword string) (rest string, ok bool) {
	if !strings.HasPrefix(line, keyword) {
		return "", false
	}
	rest = strings.TrimSpace(line[len(keyword):])
	return rest, true
}

// cutBracketed matches "name[key] = value" style statements.
func cutBracketed(line, keyword string) (key, rest string, ok bool) {
	if !strings.HasPrefix(line, keyword+"[") {
		return "", "", false
	}
	line = line[len(keyword)+1:]
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", "", false
	}
	key = line[:end]
	return key, strings.TrimSpace(line[end+1:]), true
}

func parseAssignment(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

func legacySyntaxWarning(path string, line int, text string) diag.Diagnostic {
	return diag.Diagnostic{
		Path: path, Line: line, Severity: diag.Warning,
		Code: "legacy-config-syntax", Message: fmt.Sprintf("unrecognized configuration line: %q", text),
	}
}
