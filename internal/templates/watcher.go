package templates

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a template definitions directory for changes. Templates
// are immutable once registered, so a change cannot be applied live; the
// watcher records that the on-disk definitions have drifted from the running
// registry and logs that a restart is required.
type Watcher struct {
	dir    string
	logger *zap.Logger

	mu      sync.RWMutex
	changed []string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching dir for template file changes.
func NewWatcher(dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:     dir,
		logger:  logger,
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// loop consumes filesystem events until Close.
func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isTemplateFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.changed = append(w.changed, event.Name)
			w.mu.Unlock()
			w.logger.Warn("template definition changed on disk; restart required to apply",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("template watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// ChangedFiles returns the template files that changed since the watcher
// started.
func (w *Watcher) ChangedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string{}, w.changed...)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// isTemplateFile reports whether the path looks like a template definition.
func isTemplateFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
