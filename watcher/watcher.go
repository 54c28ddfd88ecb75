// Package watcher reports changes to a fixed set of files using fsnotify.
package watcher

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher sends the path of a watched file on Changed whenever it is
// written or replaced. Editors often save by renaming a new file over the
// old one, so the parent directories are watched and events are filtered by
// name.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]string
	changed chan string
	done    chan struct{}
	stopped chan struct{}
}

// New starts watching paths.
func New(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		files:   make(map[string]string),
		changed: make(chan string, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
		w.files[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, ok := w.files[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			// Coalesce bursts; the reader only needs to know something changed.
			select {
			case w.changed <- name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Error watching files: %v", err)
		}
	}
}

// Changed delivers the original path of a file that changed. At most one
// change is buffered.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}
