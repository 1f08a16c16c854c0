// Package watch reloads the dimension schema when its file changes.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/cdi-explorer/cdi/internal/core/schema"
	"github.com/cdi-explorer/cdi/internal/debug"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	file     string
	callback func() error
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new file watcher
func NewWatcher(file string, debounce time.Duration, callback func() error) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		debounce: debounce,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start begins delivering debounced change notifications.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, err := filepath.Abs(event.Name); err == nil && p == w.file {
				timer.Reset(w.debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			if err := w.callback(); err != nil {
				debug.Warn("Watch callback failed", "file", w.file, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.Warn("Watch error", "file", w.file, "error", err)

		case <-w.done:
			timer.Stop()
			return
		}
	}
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

// SchemaReloader returns a callback that loads path and swaps it into
// holder. An invalid file leaves the current schema in place.
func SchemaReloader(fs afero.Fs, path string, holder *schema.Holder, onReload func(*schema.Schema)) func() error {
	return func() error {
		s, err := schema.Load(fs, path)
		if err != nil {
			return err
		}
		holder.Swap(s)
		debug.Info("Schema reloaded", "file", path, "dimensions", len(s.Dimensions))
		if onReload != nil {
			onReload(s)
		}
		return nil
	}
}
