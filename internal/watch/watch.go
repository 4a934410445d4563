// Package watch re-runs a callback when a schema file's content changes.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"

	"github.com/satishbabariya/schema-engine/internal/debug"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func() error
	onError  func(error)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	last uint64
	seen bool
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithErrorHandler receives callback errors. They are logged otherwise.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a new file watcher
func NewWatcher(file string, callback func() error, opts ...Option) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Editors often replace the file, so the directory is watched.
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	w := &Watcher{
		file:     absPath,
		callback: callback,
		debounce: DefaultDebounce,
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) { debug.Error("watch: callback failed", "file", w.file, "error", err) }
	}
	return w, nil
}

// Start runs the callback once, then again after each change of the file's content
func (w *Watcher) Start() error {
	w.changed()
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err == nil && eventPath == w.file {
				debounceTimer.Reset(w.debounce)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			if !w.changed() {
				debug.Debug("watch: content unchanged", "file", w.file)
				continue
			}
			if err := w.callback(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.Warn("watch: watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// changed hashes the file and reports whether its content differs from the last call.
func (w *Watcher) changed() bool {
	data, err := os.ReadFile(w.file)
	if err != nil {
		return false
	}
	sum := xxh3.Hash(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen && sum == w.last {
		return false
	}
	w.last, w.seen = sum, true
	return true
}

// Stop stops watching the file
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
