// Package watcher reports files that appear in a drop folder once they have
// stopped changing.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	// EventCreate fires once a new or rewritten file has been quiet for the
	// settle delay.
	EventCreate EventType = iota
	EventDelete
)

func (e EventType) String() string {
	if e == EventDelete {
		return "delete"
	}
	return "create"
}

// DefaultSettle is how long a file must go without writes before it is
// reported.
const DefaultSettle = 2 * time.Second

// FSWatcher watches a single directory, non-recursively. Hidden files and
// directories are ignored.
type FSWatcher struct {
	logger *slog.Logger
	settle time.Duration

	mu       sync.Mutex
	callback func(path string, event EventType)
	pending  map[string]*time.Timer
	fsw      *fsnotify.Watcher
	done     chan struct{}
}

func NewFSWatcher(settle time.Duration, logger *slog.Logger) *FSWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &FSWatcher{
		logger:  logger,
		settle:  settle,
		pending: make(map[string]*time.Timer),
	}
}

func (w *FSWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callback = callback
	w.mu.Unlock()
}

// Watch starts watching path and returns immediately. Watching stops when
// ctx is done or Stop is called.
func (w *FSWatcher) Watch(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("drop folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("drop folder %s is not a directory", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w.mu.Lock()
	if w.fsw != nil {
		w.mu.Unlock()
		fsw.Close()
		return fmt.Errorf("watcher already running")
	}
	w.fsw = fsw
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("watching drop folder", "path", path)
	go w.loop(ctx, fsw)
	return nil
}

func (w *FSWatcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			fsw.Close()
			w.drain()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				w.drain()
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.drain()
				return
			}
			w.logger.Warn("drop folder watcher error", "error", err)
		}
	}
}

func (w *FSWatcher) handle(ev fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		w.schedule(ev.Name)
	case ev.Has(fsnotify.Write):
		w.postpone(ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.mu.Lock()
		if t, ok := w.pending[ev.Name]; ok {
			t.Stop()
			delete(w.pending, ev.Name)
		}
		w.mu.Unlock()
		w.emit(ev.Name, EventDelete)
	}
}

func (w *FSWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return
		}
		w.emit(path, EventCreate)
	})
}

// postpone pushes back a pending create while the file is still being
// written. Writes to files that already settled are ignored.
func (w *FSWatcher) postpone(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
	}
}

func (w *FSWatcher) emit(path string, event EventType) {
	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()

	w.logger.Debug("drop folder event", "path", path, "event", event.String())
	if cb != nil {
		cb(path, event)
	}
}

func (w *FSWatcher) drain() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
}

// Stop closes the underlying watcher and waits for the event loop to exit.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	fsw, done := w.fsw, w.done
	w.fsw = nil
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-done
	return err
}
