package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow collapses editor save bursts into one event per file. The
// event goes out once a file has been quiet for the whole window.
const debounceWindow = 100 * time.Millisecond

// Watcher reports scene files that changed on disk
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	settled chan string
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs for changes to scene files
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		settled: make(chan string),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once the watch loop
// exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !supported(event.Name) {
				continue
			}
			if t, ok := timers[event.Name]; ok {
				t.Reset(debounceWindow)
				continue
			}
			name := event.Name
			timers[name] = time.AfterFunc(debounceWindow, func() {
				select {
				case w.settled <- name:
				case <-w.closeCh:
				}
			})
		case name := <-w.settled:
			delete(timers, name)
			select {
			case w.Events <- name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// Watch invalidates cached scenes as their files change until ctx is done.
// The default scene is re-resolved on every change.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := NewWatcher(m.sceneDir)
	if err != nil {
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case path, ok := <-w.Events:
				if !ok {
					return
				}
				id := trimSceneExt(filepath.Base(path))
				m.Invalidate(id)
				if err := m.loadDefaultScene(); err != nil {
					log.Printf("Failed to reload default scene: %v", err)
				}
				log.Printf("[SCENE] reloaded id=%s", id)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Scene watcher error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
