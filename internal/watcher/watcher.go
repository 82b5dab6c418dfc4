// Package watcher watches a documentation root's fragment directory and
// reports which fragments changed, debounced.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/implbridge/internal/fragment"
	"github.com/zjrosen/implbridge/internal/log"
)

// Watcher monitors a fragment directory tree and sends batches of changed
// fragment paths.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Root is the implementors directory, watched recursively.
	Root        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a new fragment watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching Root and every directory below it. The returned
// channel receives the sorted, de-duplicated fragment paths written since
// the previous batch.
func (w *Watcher) Start() (<-chan []string, error) {
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	go w.loop()

	return w.onChange, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) && w.isDir(event.Name) {
				// New module directory: watch it and pick up anything already written.
				if err := w.addTree(event.Name); err != nil {
					log.ErrorErr(log.CatWatcher, "Failed to watch new directory", err, "dir", event.Name)
				}
				_ = filepath.WalkDir(event.Name, func(p string, d fs.DirEntry, err error) error {
					if err == nil && !d.IsDir() && fragment.IsFragmentPath(p) {
						pending[p] = struct{}{}
					}
					return nil
				})
			} else if isRelevantEvent(event) {
				pending[event.Name] = struct{}{}
			} else {
				continue
			}
			if len(pending) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)

			select {
			case w.onChange <- batch:
				pending = make(map[string]struct{})
				log.Debug(log.CatWatcher, "Fragments changed", "count", len(batch))
			case <-w.done:
				timer.Stop()
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err, "root", w.root)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// isRelevantEvent checks if the event touched a fragment file.
func isRelevantEvent(event fsnotify.Event) bool {
	// Generators write in place or rename a temp file over the target.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return fragment.IsFragmentPath(event.Name)
}
