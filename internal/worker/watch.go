package worker

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces filesystem write and create events on a single
// database file and calls a caller-supplied onChange function whenever
// the file changes on disk — e.g. another process (the sqlite3 CLI, a sync tool)
// modified it underneath the open connection. Grounded on
// internal/core.Engine.WatchFile in the GoClode example repo, which wires
// fsnotify.Watcher.Events directly into a callback on fsnotify.Write.
type Watcher struct {
	fsw     *fsnotify.Watcher
	done    chan struct{}
	debounce time.Duration
}

// WatchFile starts watching path and calls onChange (debounced by delay)
// whenever it is written. The returned Watcher must be closed with Close.
func WatchFile(path string, delay time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{}), debounce: delay}
	go w.loop(onChange)
	return w, nil
}

func (w *Watcher) loop(onChange func()) {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, onChange)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// swallow: a transient watch error shouldn't kill the watcher
		}
	}
}

// Close stops the watcher and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
