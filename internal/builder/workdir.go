package builder

import (
	"os"
	"path/filepath"

	"github.com/hdl-checker/hdl-checker/internal/ident"
)

// workDir is the shared "one subdirectory per library under a single
// root" layout spec §4.4 mandates for every real adapter.
type workDir struct {
	root string
}

func newWorkDir(root string) workDir {
	return workDir{root: root}
}

func (w workDir) libraryPath(lib ident.Identifier) string {
	return filepath.Join(w.root, lib.Key())
}

func (w workDir) ensureLibrary(lib ident.Identifier) (string, error) {
	path := w.libraryPath(lib)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}
