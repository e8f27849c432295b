package db

import (
	"sort"

	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// rebuildLocked recomputes library inference and the derived lookup
// indices from the current file set. Callers must hold db.mu for writing.
func (db *Database) rebuildLocked() {
	db.inferLibrariesLocked()

	db.byDesignUnit = make(map[string]map[string][]ident.Path)
	db.byLibrary = make(map[string][]ident.Path)

	for _, sf := range db.files {
		libKey := sf.library().Key()
		db.byLibrary[libKey] = append(db.byLibrary[libKey], sf.Path)
		for _, du := range sf.DesignUnits {
			nameKey := du.Name.Key()
			if db.byDesignUnit[libKey] == nil {
				db.byDesignUnit[libKey] = make(map[string][]ident.Path)
			}
			existing := db.byDesignUnit[libKey][nameKey]
			if n := len(existing); n > 0 && existing[n-1].Abs() == sf.Path.Abs() {
				continue // e.g. entity foo and architecture foo in one file
			}
			db.byDesignUnit[libKey][nameKey] = append(existing, sf.Path)
		}
	}

	for _, paths := range db.byLibrary {
		sortPaths(paths)
	}
	for _, byName := range db.byDesignUnit {
		for _, paths := range byName {
			sortPaths(paths)
		}
	}
}

func sortPaths(paths []ident.Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Abs() < paths[j].Abs() })
}

// PathsByDesignUnit resolves a (library, name) dependency to the set of
// declaring paths, per spec §4.2. library "work" resolves against
// requesterLibrary, the library of the file making the reference. The
// result is sorted by (library key is implicit in the lookup, path) for
// deterministic tie-breaking downstream (spec §4.3 rule 1).
func (db *Database) PathsByDesignUnit(library, name, requesterLibrary ident.Identifier) []ident.Path {
	db.mu.RLock()
	defer db.mu.RUnlock()

	libKey := library.Key()
	if libKey == "work" {
		libKey = requesterLibrary.Key()
	}
	byName := db.byDesignUnit[libKey]
	if byName == nil {
		return nil
	}
	found := byName[name.Key()]
	out := make([]ident.Path, len(found))
	copy(out, found)
	return out
}

// LibraryOf returns the library assigned to path (explicit or inferred) and
// whether path is known to the database.
func (db *Database) LibraryOf(path string) (ident.Identifier, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	sf, ok := db.files[path]
	if !ok {
		return ident.Identifier{}, false
	}
	return sf.library(), true
}

// File returns a copy of the SourceFile known at path, if any. The returned
// value is a snapshot: mutating it does not affect the database.
func (db *Database) File(path string) (SourceFile, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	sf, ok := db.files[path]
	if !ok {
		return SourceFile{}, false
	}
	return *sf, true
}

// Dependencies returns the unresolved dependencies recorded for path at its
// last parse, and whether path is known to the database. It exists
// primarily so *Database satisfies planner.Database without the planner
// needing to import db's SourceFile type.
func (db *Database) Dependencies(path string) ([]parser.Dependency, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	sf, ok := db.files[path]
	if !ok {
		return nil, false
	}
	return sf.Dependencies, true
}

// Paths returns every known path, sorted.
func (db *Database) Paths() []ident.Path {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]ident.Path, 0, len(db.files))
	for _, sf := range db.files {
		out = append(out, sf.Path)
	}
	sortPaths(out)
	return out
}

// Refresh re-parses every file whose on-disk mtime/size no longer matches
// ParsedAtModTime, reruns library inference to a fixed point, and returns
// the set of paths that changed.
func (db *Database) Refresh() ([]ident.Path, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var changed []ident.Path
	for _, sf := range db.files {
		before := sf.Path
		if err := readAndParse(sf); err != nil {
			continue
		}
		if sf.Path.Abs() == before.Abs() && !sf.Path.SameVersion(before) {
			changed = append(changed, sf.Path)
		}
	}

	if len(changed) > 0 {
		// File identities (map keys) never move, only their contents, so a
		// full rebuild is only needed when something actually changed.
		db.rebuildLocked()
	}
	sortPaths(changed)
	return changed, nil
}
