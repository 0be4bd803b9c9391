package snapshot

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the snapshot file and refreshes the handle when the sync
// pipeline replaces it. Events are debounced because a snapshot swap shows
// up as several writes in quick succession.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	handle      *Handle
	logger      *zap.Logger
	debounceDur time.Duration
	lastEvent   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the handle's snapshot file.
func NewWatcher(h *Handle, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		handle:      h,
		logger:      logger,
		debounceDur: 500 * time.Millisecond,
	}, nil
}

// Start begins watching. The snapshot's parent directory is watched rather
// than the file itself, because atomic replace (rename over) drops a watch
// on the old inode.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.handle.Path())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.loop()

	w.logger.Info("snapshot watcher started", zap.String("dir", dir))
	return nil
}

// Stop halts the watch loop and releases the fsnotify watcher. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	target := filepath.Base(w.handle.Path())

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			debounced := time.Since(w.lastEvent) < w.debounceDur
			if !debounced {
				w.lastEvent = time.Now()
			}
			w.mu.Unlock()
			if debounced {
				continue
			}

			if err := w.handle.Refresh(context.Background()); err != nil {
				w.logger.Warn("snapshot auto-refresh failed", zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("snapshot watcher error", zap.Error(err))
		}
	}
}
