package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/simon/core"
)

// ReloadDebounce coalesces the burst of events an editor save produces
const ReloadDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes and hands valid results to onChange
// The parent directory is watched so atomic rename-on-save is seen
type Watcher struct {
	path     string
	log      zerolog.Logger
	onChange func(Config)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
}

// NewWatcher creates a watcher for path, onChange runs on the debounce goroutine
func NewWatcher(path string, log zerolog.Logger, onChange func(Config)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		log:      log.With().Str("component", "config").Logger(),
		onChange: onChange,
	}
}

// Name implements service.Service
func (w *Watcher) Name() string {
	return "config"
}

// Dependencies implements service.Service
func (w *Watcher) Dependencies() []string {
	return nil
}

// Init creates the fsnotify watcher on the config directory
func (w *Watcher) Init() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()
	return nil
}

// Start processes events until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return fmt.Errorf("config watcher not initialized")
	}

	core.Go(func() { w.processEvents(ctx, fw) })
	w.log.Debug().Str("path", w.path).Msg("watching config file")
	return nil
}

// Stop closes the watcher and drops a pending reload
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watcher) processEvents(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.log.Debug().Str("op", event.Op.String()).Msg("config file changed")
			w.scheduleReload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(ReloadDebounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload rejected, keeping current settings")
		return
	}
	w.log.Info().Msg("config reloaded")
	w.onChange(cfg)
}
