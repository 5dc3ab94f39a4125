package scenario

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls modification times of fixed paths and of glob patterns
// expanded on every scan, so files created after Start are picked up too.
// onChange gets the path of every file that appeared, changed or vanished.
type FileWatcher struct {
	paths    []string
	globs    []string
	interval time.Duration
	onChange func(string)

	stopCh   chan struct{}
	stopOnce sync.Once
	seen     map[string]time.Time
}

// NewFileWatcher watches paths every interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		paths:    paths,
		interval: interval,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		seen:     make(map[string]time.Time),
	}
}

// Glob adds a pattern (see filepath.Match) to watch. Call before Start.
func (w *FileWatcher) Glob(pattern string) *FileWatcher {
	w.globs = append(w.globs, pattern)
	return w
}

// Start records the current state, then polls in a goroutine.
func (w *FileWatcher) Start() {
	w.scan(true)
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. It is safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *FileWatcher) candidates() []string {
	out := append([]string(nil), w.paths...)
	for _, g := range w.globs {
		matches, _ := filepath.Glob(g)
		out = append(out, matches...)
	}
	return out
}

func (w *FileWatcher) scan(prime bool) {
	var changed []string
	present := make(map[string]bool)
	for _, p := range w.candidates() {
		if present[p] {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		present[p] = true
		mt := fi.ModTime()
		last, ok := w.seen[p]
		w.seen[p] = mt
		if !ok || mt.After(last) {
			changed = append(changed, p)
		}
	}
	for p := range w.seen {
		if !present[p] {
			delete(w.seen, p)
			changed = append(changed, p)
		}
	}
	if prime || w.onChange == nil {
		return
	}
	for _, p := range changed {
		w.onChange(p)
	}
}
