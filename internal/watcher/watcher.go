// Package watcher monitors resource sources for changes and broadcasts
// events via callbacks.
package watcher

import (
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CageChen/assethub/internal/config"
	"github.com/CageChen/assethub/internal/resource"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is a change to a file that belongs to a source.
type Event struct {
	Type   EventType
	Path   string
	Source string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// target is one watched source: a directory tree or a single file.
type target struct {
	name string
	dir  *resource.DirectoryResource
	file string
}

func (t target) includes(path string, isDir bool) bool {
	if t.dir == nil {
		return !isDir && filepath.Clean(path) == t.file
	}
	ok, err := t.dir.Includes(path, isDir)
	return err == nil && ok
}

// Watcher monitors the local sources of a configuration. Git sources read
// from the object database and are not watched.
type Watcher struct {
	watcher   *fsnotify.Watcher
	targets   []target
	callbacks []Callback
	logger    *slog.Logger
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a watcher for the given sources.
func New(sources []config.Source, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var targets []target
	for _, s := range sources {
		if s.GitRef != "" {
			continue
		}
		if !s.IsDirectory() {
			targets = append(targets, target{name: s.Name, file: filepath.Clean(s.Location())})
			continue
		}
		dir, err := s.Directory(logger)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{name: s.Name, dir: dir})
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		targets: targets,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching every target
func (w *Watcher) Start() error {
	for _, t := range w.targets {
		if t.dir == nil {
			w.add(filepath.Dir(t.file))
			continue
		}
		if err := w.addTree(t.dir.Root()); err != nil {
			w.logger.Warn("failed to walk source", "source", t.name, "root", t.dir.Root(), "error", err)
		}
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.add(path)
		return nil
	})
}

func (w *Watcher) add(path string) {
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("cannot watch directory", "path", path, "error", err)
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Remove):
		eventType = EventRemove
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return
	}

	if isDir(event.Name) {
		// New directories inside a tree get watched; directory events are not reported.
		if eventType == EventCreate && w.wantsDir(event.Name) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, t := range w.targets {
		if !t.includes(event.Name, false) {
			continue
		}
		e := Event{Type: eventType, Path: event.Name, Source: t.name}
		w.logger.Debug("resource changed", "source", t.name, "event", eventType.String(), "path", event.Name)
		for _, cb := range callbacks {
			cb(e)
		}
	}
}

func (w *Watcher) wantsDir(path string) bool {
	for _, t := range w.targets {
		if t.dir != nil && t.includes(path, true) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
