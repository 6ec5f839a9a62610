package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ChangeCallback is called with the freshly loaded config after the file
// changes on disk.
type ChangeCallback func(cfg *Config)

// Watcher monitors the config file and reloads it on change. Invalid
// edits are logged and skipped; the callback only ever sees configs that
// passed schema validation.
type Watcher struct {
	loader     *Loader
	watcher    *fsnotify.Watcher
	onChange   ChangeCallback
	configPath string
	debounce   time.Duration
	done       chan struct{}
	timerMu    sync.Mutex
	timer      *time.Timer
	stopOnce   sync.Once
}

// NewWatcher creates a new config watcher
func NewWatcher(loader *Loader, onChange ChangeCallback) (*Watcher, error) {
	configPath := loader.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		loader:     loader,
		watcher:    watcher,
		onChange:   onChange,
		configPath: filepath.Clean(configPath),
		debounce:   200 * time.Millisecond,
		done:       make(chan struct{}),
	}, nil
}

// Start starts watching the config file
func (w *Watcher) Start() error {
	// Watch the directory: editors replace files by rename, which drops
	// a watch placed on the file itself.
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.eventLoop()

	log.Info().
		Str("path", w.configPath).
		Msg("Config watcher started")

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	log.Info().Msg("Config watcher stopped")
	return nil
}

// eventLoop processes file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

// handleEvent handles a file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.configPath {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	// Debounce rapid successive writes to the same file
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
			w.reload()
		}
	})
}

// reload re-reads the config file and notifies the callback
func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		log.Error().
			Err(err).
			Str("path", w.configPath).
			Msg("Ignoring invalid config change")
		return
	}

	log.Info().
		Str("path", w.configPath).
		Msg("Config reloaded")

	if w.onChange != nil {
		w.onChange(cfg)
	}
}
