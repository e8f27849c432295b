// Package cache implements the on-disk project snapshot (spec §4.7): one
// file beside the working directory, schema-versioned, with entries
// discarded on mtime mismatch and a full wipe on any load error. Grounded
// directly on the teacher's internal/indexer/cache.go (cacheIndex,
// writeJSONAtomic via temp-file+rename, SHA-256 content hashing).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hdl-checker/hdl-checker/internal/ident"
	"github.com/hdl-checker/hdl-checker/internal/parser"
)

// SchemaVersion is bumped whenever the on-disk snapshot layout changes
// incompatibly. A cache file whose Version differs is wiped rather than
// partially trusted, per spec invariant I5.
const SchemaVersion = 1

// FileEntry is one SourceFile's persisted snapshot.
type FileEntry struct {
	Path              string             `json:"path"`
	ModTime           time.Time          `json:"mod_time"`
	Size              int64              `json:"size"`
	Kind              int                `json:"kind"`
	Library           string             `json:"library"`
	LibraryExplicit   bool               `json:"library_explicit"`
	FlagsSingle       []string           `json:"flags_single,omitempty"`
	FlagsDependencies []string           `json:"flags_dependencies,omitempty"`
	DesignUnits       []DesignUnitEntry  `json:"design_units,omitempty"`
	Dependencies      []DependencyEntry  `json:"dependencies,omitempty"`
	Includes          []string           `json:"includes,omitempty"`
	ContentHash       string             `json:"content_hash"`
}

// DesignUnitEntry is the serialized form of parser.DesignUnit.
type DesignUnitEntry struct {
	Name           string `json:"name"`
	CaseSensitive  bool   `json:"case_sensitive"`
	Kind           int    `json:"kind"`
	EntityName     string `json:"entity_name,omitempty"`
	EntityNameCS   bool   `json:"entity_name_cs,omitempty"`
	Line           int    `json:"line"`
	Col            int    `json:"col"`
}

// DependencyEntry is the serialized form of parser.Dependency.
type DependencyEntry struct {
	Library       string `json:"library"`
	LibraryCS     bool   `json:"library_cs"`
	Name          string `json:"name"`
	NameCS        bool   `json:"name_cs"`
	Line          int    `json:"line"`
	Col           int    `json:"col"`
}

// AdapterLibraryManifest records one builder adapter's library
// working-directory state, so library creation is not redone needlessly
// across restarts (SPEC_FULL.md §4.7).
type AdapterLibraryManifest struct {
	Adapter      string   `json:"adapter"`
	LibrariesBuilt []string `json:"libraries_built"`
}

// snapshot is the on-disk document.
type snapshot struct {
	Version   int                       `json:"version"`
	Files     map[string]FileEntry      `json:"files"`
	Adapters  []AdapterLibraryManifest  `json:"adapters,omitempty"`
}

// Cache is a single project's on-disk snapshot file. The zero value is not
// usable; construct with New.
type Cache struct {
	path string

	mu   sync.Mutex
	data snapshot
}

// New returns a Cache backed by path (typically
// "<project-root>/.hdl_checker/cache.json"). Nothing is read from disk
// until Load is called.
func New(path string) *Cache {
	return &Cache{
		path: path,
		data: snapshot{Version: SchemaVersion, Files: make(map[string]FileEntry)},
	}
}

// Load reads the snapshot from disk. Any error (missing file aside) wipes
// the in-memory cache back to empty rather than surfacing partial state,
// per spec §4.7 "On any exception during load, the cache is wiped."
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		c.reset()
		return nil
	}

	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		c.reset()
		return nil
	}
	if s.Version != SchemaVersion {
		c.reset()
		return nil
	}
	if s.Files == nil {
		s.Files = make(map[string]FileEntry)
	}
	c.data = s
	return nil
}

func (c *Cache) reset() {
	c.data = snapshot{Version: SchemaVersion, Files: make(map[string]FileEntry)}
}

// Save flushes the snapshot to disk atomically (temp file + rename).
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeJSONAtomic(c.path, c.data)
}

// PutFile records path's current snapshot, keyed by its absolute path and
// validated for freshness on Lookup by comparing ModTime and Size.
func (c *Cache) PutFile(entry FileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Files[entry.Path] = entry
}

// ForgetFile removes path's snapshot entry.
func (c *Cache) ForgetFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data.Files, path)
}

// Lookup returns path's snapshot entry if present and its recorded
// mtime/size still match p, per invariant I3; a stale entry is reported as
// absent so the caller re-parses.
func (c *Cache) Lookup(p ident.Path) (FileEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data.Files[p.Abs()]
	if !ok {
		return FileEntry{}, false
	}
	if !entry.ModTime.Equal(p.ModTime()) || entry.Size != p.Size() {
		return FileEntry{}, false
	}
	return entry, true
}

// PutAdapterManifest records (overwriting) one adapter's library manifest.
func (c *Cache) PutAdapterManifest(m AdapterLibraryManifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.data.Adapters {
		if existing.Adapter == m.Adapter {
			c.data.Adapters[i] = m
			return
		}
	}
	c.data.Adapters = append(c.data.Adapters, m)
}

// AdapterManifest returns the recorded manifest for adapter, if any.
func (c *Cache) AdapterManifest(adapter string) (AdapterLibraryManifest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.data.Adapters {
		if existing.Adapter == adapter {
			return existing, true
		}
	}
	return AdapterLibraryManifest{}, false
}

// ToDesignUnitEntries converts parsed design units to their persisted form.
func ToDesignUnitEntries(units []parser.DesignUnit) []DesignUnitEntry {
	out := make([]DesignUnitEntry, 0, len(units))
	for _, u := range units {
		var line, col int
		if len(u.Locations) > 0 {
			line, col = u.Locations[0].Line, u.Locations[0].Col
		}
		out = append(out, DesignUnitEntry{
			Name:          u.Name.String(),
			CaseSensitive: u.Name.CaseSensitive(),
			Kind:          int(u.Kind),
			EntityName:    u.EntityName.String(),
			EntityNameCS:  u.EntityName.CaseSensitive(),
			Line:          line,
			Col:           col,
		})
	}
	return out
}

// ToDependencyEntries converts parsed dependencies to their persisted form.
func ToDependencyEntries(deps []parser.Dependency) []DependencyEntry {
	out := make([]DependencyEntry, 0, len(deps))
	for _, d := range deps {
		var line, col int
		if len(d.Locations) > 0 {
			line, col = d.Locations[0].Line, d.Locations[0].Col
		}
		out = append(out, DependencyEntry{
			Library:   d.Library.String(),
			LibraryCS: d.Library.CaseSensitive(),
			Name:      d.Name.String(),
			NameCS:    d.Name.CaseSensitive(),
			Line:      line,
			Col:       col,
		})
	}
	return out
}

// FromDesignUnitEntries reconstructs parsed design units from their
// persisted form, for replaying a cache hit into the database instead of
// re-parsing (spec §4.7: "everything else is replayed"). Only the first
// recorded location survives the round trip, the same simplification
// ToDesignUnitEntries already makes when persisting.
func FromDesignUnitEntries(entries []DesignUnitEntry) []parser.DesignUnit {
	out := make([]parser.DesignUnit, 0, len(entries))
	for _, e := range entries {
		du := parser.DesignUnit{
			Name: ident.New(e.Name, e.CaseSensitive),
			Kind: parser.DesignUnitKind(e.Kind),
		}
		if e.EntityName != "" {
			du.EntityName = ident.New(e.EntityName, e.EntityNameCS)
		}
		if e.Line != 0 || e.Col != 0 {
			du.Locations = []parser.Position{{Line: e.Line, Col: e.Col}}
		}
		out = append(out, du)
	}
	return out
}

// FromDependencyEntries reconstructs parsed dependencies from their
// persisted form, the inverse of ToDependencyEntries.
func FromDependencyEntries(entries []DependencyEntry) []parser.Dependency {
	out := make([]parser.Dependency, 0, len(entries))
	for _, e := range entries {
		dep := parser.Dependency{
			Library: ident.New(e.Library, e.LibraryCS),
			Name:    ident.New(e.Name, e.NameCS),
		}
		if e.Line != 0 || e.Col != 0 {
			dep.Locations = []parser.Position{{Line: e.Line, Col: e.Col}}
		}
		out = append(out, dep)
	}
	return out
}

// HashContent returns the hex-encoded SHA-256 digest of source, used to
// detect content changes independent of mtime (e.g. after a `git checkout`
// that preserves mtime but changes bytes).
func HashContent(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("hdl-checker: marshal cache: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hdl-checker: cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".hdl-checker-cache-*.json")
	if err != nil {
		return fmt.Errorf("hdl-checker: temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("hdl-checker: write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("hdl-checker: close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("hdl-checker: rename cache file: %w", err)
	}
	return nil
}
