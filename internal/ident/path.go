package ident

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Path is an absolute filesystem path plus a captured mtime/size pair.
// Paths are values, freely copied. Equality (Equal) uses only the
// absolute string, per spec; two Paths with the same string but
// different captured times are different *versions* of the same file
// and are compared with SameVersion.
type Path struct {
	abs     string
	modTime time.Time
	size    int64
}

// NewPath wraps an already-absolute path with no captured stat info.
// Callers that need staleness detection should use Stat instead.
func NewPath(abs string) Path {
	return Path{abs: abs}
}

// Stat resolves p to an absolute path and captures its current mtime/size.
// If the file does not exist, the returned Path still carries the resolved
// absolute string with a zero mtime/size — callers use this to represent
// "configured but missing from disk" per spec §8 boundary behavior 8.
func Stat(p string) (Path, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Path{}, fmt.Errorf("resolve path %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return Path{abs: abs}, nil
		}
		return Path{}, fmt.Errorf("stat %q: %w", abs, err)
	}
	return Path{abs: abs, modTime: info.ModTime(), size: info.Size()}, nil
}

// Abs returns the absolute path string.
func (p Path) Abs() string { return p.abs }

// ModTime returns the mtime captured at construction time.
func (p Path) ModTime() time.Time { return p.modTime }

// Size returns the size captured at construction time.
func (p Path) Size() int64 { return p.size }

// Exists reports whether the path was found on disk when captured.
func (p Path) Exists() bool { return !p.modTime.IsZero() || p.size != 0 }

// IsZero reports whether this is the zero Path value.
func (p Path) IsZero() bool { return p.abs == "" }

// Equal compares two Paths using only the absolute string, per spec §3:
// "equality uses only the string."
func (p Path) Equal(other Path) bool { return p.abs == other.abs }

// SameVersion compares both the string and the captured mtime/size,
// used by invariant I3 to detect a stale SourceFile entry.
func (p Path) SameVersion(other Path) bool {
	return p.abs == other.abs && p.modTime.Equal(other.modTime) && p.size == other.size
}

// Fresh re-stats the path and reports whether it differs from the
// version captured in p.
func (p Path) Fresh() (Path, bool, error) {
	current, err := Stat(p.abs)
	if err != nil {
		return Path{}, false, err
	}
	return current, !p.SameVersion(current), nil
}

// String implements fmt.Stringer for logging/diagnostics.
func (p Path) String() string { return p.abs }

// Base returns the filename portion of the path, for display.
func (p Path) Base() string { return filepath.Base(p.abs) }
