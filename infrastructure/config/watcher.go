package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the YAML overlay when it changes on disk and applies the
// log level to a live zap level. Other keys take effect on restart.
type Watcher struct {
	path     string
	base     Config
	level    zap.AtomicLevel
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	mu       sync.Mutex
	onChange []func(*Config)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches cfg.ConfigFile. The directory is watched as well so
// that editors saving by rename are noticed.
func NewWatcher(cfg *Config, level zap.AtomicLevel, logger *zap.Logger) (*Watcher, error) {
	if cfg.ConfigFile == "" {
		return nil, fmt.Errorf("no config file to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(cfg.ConfigFile)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:    cfg.ConfigFile,
		base:    *cfg,
		level:   level,
		watcher: fw,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// OnChange registers fn to run after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop ends the watch loop and releases the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer
	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	next := w.base
	if err := next.applyFile(w.path); err != nil {
		w.logger.Error("Failed to reload configuration", zap.Error(err))
		return
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(next.LogLevel)); err != nil {
		w.logger.Error("Invalid log level, keeping current", zap.String("logLevel", next.LogLevel))
		return
	}
	if lvl != w.level.Level() {
		w.logger.Info("Log level changed",
			zap.String("from", w.level.Level().String()),
			zap.String("to", lvl.String()),
		)
		w.level.SetLevel(lvl)
	}

	w.mu.Lock()
	handlers := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()
	for _, fn := range handlers {
		fn(&next)
	}
}
