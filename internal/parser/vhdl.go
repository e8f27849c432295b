package parser

import (
	"regexp"
	"strings"

	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// VHDL design-unit declaration patterns, grounded on the teacher's
// internal/extractor/patterns.go regex table.
var (
	vhdlEntityPat        = regexp.MustCompile(`(?i)^\s*entity\s+(\w+)\s+is\b`)
	vhdlArchPat          = regexp.MustCompile(`(?i)^\s*architecture\s+(\w+)\s+of\s+(\w+)\s+is\b`)
	vhdlPackagePat       = regexp.MustCompile(`(?i)^\s*package\s+(\w+)\s+is\b`)
	vhdlPackageBodyPat   = regexp.MustCompile(`(?i)^\s*package\s+body\s+(\w+)\s+is\b`)
	vhdlContextPat       = regexp.MustCompile(`(?i)^\s*context\s+(\w+)\s+is\b`)
	vhdlConfigurationPat = regexp.MustCompile(`(?i)^\s*configuration\s+(\w+)\s+of\s+(\w+)\b`)

	vhdlLibraryClausePat = regexp.MustCompile(`(?i)^\s*library\s+([\w,\s]+);`)
	vhdlUseClausePat     = regexp.MustCompile(`(?i)^\s*use\s+(\w+)\.(\w+)\.(all|\w+)`)
	vhdlEntityWorkInst   = regexp.MustCompile(`(?i):\s*entity\s+(\w+)\.(\w+)`)
	vhdlDottedRefPat     = regexp.MustCompile(`(?i)\b(\w+)\.(\w+)\b`)
)

// ParseVHDL extracts design units and dependencies from VHDL source text,
// per spec §4.1. It never fails: malformed constructs are silently
// skipped.
func ParseVHDL(text []byte) ParseResult {
	lines := stripVHDLComments(string(text))

	var result ParseResult
	knownLibraries := map[string]bool{"work": true, "std": true, "ieee": true}
	var currentArch ident.Identifier

	for i, raw := range lines {
		lineNo := i + 1
		line := raw

		if m := vhdlLibraryClausePat.FindStringSubmatch(line); m != nil {
			for _, name := range strings.Split(m[1], ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				knownLibraries[strings.ToLower(name)] = true
			}
			continue
		}

		if m := vhdlPackageBodyPat.FindStringSubmatch(line); m != nil {
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:      VHDL.Identifier(m[1]),
				Kind:      PackageBody,
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			continue
		}
		if m := vhdlEntityPat.FindStringSubmatch(line); m != nil {
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:      VHDL.Identifier(m[1]),
				Kind:      Entity,
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			continue
		}
		if m := vhdlArchPat.FindStringSubmatch(line); m != nil {
			currentArch = VHDL.Identifier(m[1])
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:       currentArch,
				Kind:       Architecture,
				EntityName: VHDL.Identifier(m[2]),
				Locations:  []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			// "architecture X of ENTITY" is itself a reference to ENTITY
			// in the work library.
			result.Dependencies = append(result.Dependencies, Dependency{
				Library:   VHDL.Identifier(WorkLibrary),
				Name:      VHDL.Identifier(m[2]),
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[2])}},
			})
			continue
		}
		if m := vhdlPackagePat.FindStringSubmatch(line); m != nil {
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:      VHDL.Identifier(m[1]),
				Kind:      Package,
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			continue
		}
		if m := vhdlContextPat.FindStringSubmatch(line); m != nil {
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:      VHDL.Identifier(m[1]),
				Kind:      Context,
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			continue
		}
		if m := vhdlConfigurationPat.FindStringSubmatch(line); m != nil {
			result.DesignUnits = append(result.DesignUnits, DesignUnit{
				Name:      VHDL.Identifier(m[1]),
				Kind:      Configuration,
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[1])}},
			})
			result.Dependencies = append(result.Dependencies, Dependency{
				Library:   VHDL.Identifier(WorkLibrary),
				Name:      VHDL.Identifier(m[2]),
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[2])}},
			})
			continue
		}

		if m := vhdlUseClausePat.FindStringSubmatch(line); m != nil {
			result.Dependencies = append(result.Dependencies, Dependency{
				Library:   VHDL.Identifier(m[1]),
				Name:      VHDL.Identifier(m[2]),
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[2])}},
			})
			continue
		}

		if m := vhdlEntityWorkInst.FindStringSubmatch(line); m != nil {
			result.Dependencies = append(result.Dependencies, Dependency{
				Library:   VHDL.Identifier(m[1]),
				Name:      VHDL.Identifier(m[2]),
				Locations: []Position{{Line: lineNo, Col: matchCol(line, m[2])}},
			})
			continue
		}

		// Within an architecture body, bare LIB.ENTITY_NAME references
		// (component instantiation via a selected name, e.g. direct
		// entity references that aren't picked up by the patterns above)
		// are recorded as dependencies when LIB is a known library.
		if !currentArch.IsZero() {
			for _, m := range vhdlDottedRefPat.FindAllStringSubmatch(line, -1) {
				lib := strings.ToLower(m[1])
				if !knownLibraries[lib] || lib == "std" {
					continue
				}
				result.Dependencies = append(result.Dependencies, Dependency{
					Library:   VHDL.Identifier(m[1]),
					Name:      VHDL.Identifier(m[2]),
					Locations: []Position{{Line: lineNo, Col: matchCol(line, m[2])}},
				})
			}
		}
	}

	return result
}

// matchCol returns the 1-based column at which needle first occurs in
// line, treated case-insensitively since VHDL tokens are case-folded.
func matchCol(line, needle string) int {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(needle))
	if idx < 0 {
		return 1
	}
	return idx + 1
}
