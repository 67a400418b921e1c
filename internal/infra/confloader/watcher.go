package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events an editor produces for a
// single save into one reload.
const settleDelay = 100 * time.Millisecond

// Watcher reports edits to one configuration file.
//
// It watches the parent directory so that saves done by writing a new
// file and renaming it over the old one are seen too.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	logger   *slog.Logger
	mu       sync.Mutex
	handlers []func(path string)
	started  bool
	stop     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher starts watching the directory holding path. Call Start to
// begin delivering changes and Stop to release the watch.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:      fw,
		path:    filepath.Clean(path),
		logger:  slog.Default(),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w.logger.Debug("watching config file", "path", w.path)
	return w, nil
}

// OnChange registers fn to run after the file settles following an edit.
// Handlers run on the watcher goroutine, one at a time.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Start delivers changes from a new goroutine until Stop.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop()
}

// Stop ends the watch and waits for a running handler to return. It is
// safe to call more than once and without Start, but not from a handler.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.fs.Close()
	})

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.stopped
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	settle := time.NewTimer(settleDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-w.stop:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			settle.Reset(settleDelay)

		case <-settle.C:
			w.logger.Debug("config file changed", "path", w.path)
			w.notify()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) notify() {
	w.mu.Lock()
	handlers := append([]func(string){}, w.handlers...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(w.path)
	}
}
