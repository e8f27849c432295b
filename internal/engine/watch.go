package engine

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces a burst of filesystem events (an editor's
// save-via-rename, a `git checkout`) into a single callback.
const watchDebounce = 150 * time.Millisecond

// Watch monitors every directory holding a known source file and invokes
// onChange whenever one of them is written, created or renamed, debounced
// by watchDebounce. It blocks until ctx is canceled. Grounded on the
// standardbeagle-lci FileWatcher's fsnotify-plus-debouncer shape, scaled
// down to this engine's single callback rather than a typed event stream.
func (e *Engine) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := make(map[string]bool)
	for _, p := range e.db.Paths() {
		dirs[filepath.Dir(p.Abs())] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			e.log.Warnf("watch %s: %v", dir, err)
		}
	}

	var mu sync.Mutex
	var timer *time.Timer
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, onChange)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				fire()
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.log.Warnf("watch error: %v", werr)
		}
	}
}
