package db

import (
	"sort"

	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// inferLibrariesLocked assigns a library to every file lacking an explicit
// one, applying spec §3's three rules to a fixed point: each round, a file
// already known to be in library L (explicit, or assigned by an earlier
// round) is eligible to act as that rule's "L" source, so assignments can
// chain through several unresolved files. The loop is bounded by the file
// count and always terminates, since every round either resolves at least
// one file or makes no progress and stops.
//
// Ordering is made deterministic by resolving files in sorted path order
// within each round, and by picking the lexicographically smallest
// candidate library whenever a file's dependencies or declarations could
// satisfy more than one rule match.
func (db *Database) inferLibrariesLocked() {
	known := func() map[string]bool {
		m := make(map[string]bool, len(db.files))
		for p, sf := range db.files {
			if !sf.Library.IsZero() {
				m[p] = true
			}
		}
		return m
	}()

	paths := make([]string, 0, len(db.files))
	for p := range db.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for {
		progressed := false

		// declares[libKey][nameKey] = true if some known-library file in
		// libKey declares a design unit named nameKey.
		declares := make(map[string]map[string]bool)
		// wants[libKey][nameKey] = true if some file known to be in libKey
		// depends on (libKey-or-work, nameKey) — i.e. expects a peer in its
		// own library to provide nameKey.
		wants := make(map[string]map[string]bool)

		for p := range known {
			sf := db.files[p]
			lib := sf.Library.Key()
			if declares[lib] == nil {
				declares[lib] = make(map[string]bool)
			}
			for _, du := range sf.DesignUnits {
				declares[lib][du.Name.Key()] = true
			}
			if wants[lib] == nil {
				wants[lib] = make(map[string]bool)
			}
			for _, dep := range sf.Dependencies {
				if dep.IsWork() {
					wants[lib][dep.Name.Key()] = true
				}
			}
		}

		for _, p := range paths {
			if known[p] {
				continue
			}
			sf := db.files[p]

			var candidates []string

			// Rule 1: an explicit-library dependency whose target library
			// declares the unit this file depends on.
			for _, dep := range sf.Dependencies {
				if dep.IsWork() {
					continue
				}
				libKey := dep.Library.Key()
				if declares[libKey][dep.Name.Key()] {
					candidates = append(candidates, libKey)
				}
			}

			// Rule 2: some known file depends (via "work") on a unit this
			// file declares — the dependent's own library is the candidate.
			for _, du := range sf.DesignUnits {
				for libKey, names := range wants {
					if names[du.Name.Key()] {
						candidates = append(candidates, libKey)
					}
				}
			}

			if len(candidates) == 0 {
				continue
			}
			sort.Strings(candidates)
			sf.Library = ident.New(candidates[0], false)
			known[p] = true
			progressed = true
		}

		if !progressed {
			break
		}
	}

	for _, p := range paths {
		sf := db.files[p]
		if sf.Library.IsZero() {
			sf.Library = ident.New(UnresolvedLibrary, false)
		}
	}
}
