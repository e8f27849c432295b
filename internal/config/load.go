package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// DefaultFlags are the per-adapter, per-language compiler flags spec §6
// lists, applied "when the language block is absent" from either config
// format.
var DefaultFlags = map[Builder]map[parser.Kind][]string{
	BuilderMsim: {
		parser.VHDL:          {"-lint", "-pedanticerrors", "-check_synthesis", "-rangecheck", "-explicit"},
		parser.Verilog:       {"-lint", "-pedanticerrors", "-hazards"},
		parser.SystemVerilog: {"-lint", "-pedanticerrors", "-hazards"},
	},
	BuilderGHDL: {
		parser.VHDL: {"-fexplicit", "-frelaxed-rules"},
	},
	BuilderXVHDL: {},
}

// Load detects whether path holds JSON or the legacy line-oriented
// grammar (spec §6: both "must be accepted") and dispatches accordingly. A
// file is treated as JSON only if its first non-whitespace byte is '{';
// anything else is parsed with the legacy grammar.
func Load(path string) (Resolved, Builder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Resolved{}, "", err
	}
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		res, err := LoadJSON(path)
		return res, "", err
	}
	return LoadLegacy(path)
}

// FlagsFor resolves the effective build flags for kind on one file,
// applying (in order of precedence) the source entry's own explicit flags,
// the config's per-language override for scope, then the adapter default.
func FlagsFor(builder Builder, kind parser.Kind, langOverride *FlagSet, scope string, sourceFlags []string) []string {
	if len(sourceFlags) > 0 {
		return sourceFlags
	}
	if langOverride != nil {
		switch strings.ToLower(scope) {
		case "single":
			if len(langOverride.Single) > 0 {
				return langOverride.Single
			}
		case "dependencies":
			if len(langOverride.Dependencies) > 0 {
				return langOverride.Dependencies
			}
		case "global":
			if len(langOverride.Global) > 0 {
				return langOverride.Global
			}
		}
	}
	return DefaultFlags[builder][kind]
}
