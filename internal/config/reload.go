package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"medialinkd/internal/log"
)

// Holder publishes the live Config as an atomic snapshot and republishes it
// whenever the backing file changes on disk or a manual Reload is triggered
// (e.g. by a SIGHUP handler in the lifecycle controller).
type Holder struct {
	reloadMu sync.Mutex
	current  atomic.Pointer[Config]

	filePath  string
	configDir string
	fileName  string
	watcher   *fsnotify.Watcher
	logger    zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- Config
}

// NewHolder loads the initial configuration and wraps it for hot reload.
func NewHolder(filePath string) (*Holder, error) {
	c, err := Load(filePath)
	if err != nil {
		return nil, err
	}
	h := &Holder{filePath: filePath, logger: log.WithComponent("config")}
	h.current.Store(&c)
	return h, nil
}

// Get returns the current configuration snapshot.
func (h *Holder) Get() Config {
	return *h.current.Load()
}

// Reload re-reads the file and environment, validates the result, and only
// swaps the published snapshot if validation succeeds — a bad edit to
// config.yaml never tears down a running pipeline.
func (h *Holder) Reload(context.Context) error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	h.logger.Info().Msg("reloading configuration")
	next, err := Load(h.filePath)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		return fmt.Errorf("reload config: %w", err)
	}
	h.current.Store(&next)
	h.notify(next)
	h.logger.Info().Msg("configuration reloaded")
	return nil
}

// RegisterListener registers a channel to receive the new Config after every
// successful reload. Sends are non-blocking; a full channel drops the
// notification rather than stalling the reload path.
func (h *Holder) RegisterListener(ch chan<- Config) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(c Config) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- c:
		default:
			h.logger.Warn().Msg("skipped notifying config listener (channel full)")
		}
	}
}

// WatchFile starts an fsnotify watch on the config file's directory, so
// atomic-replace writes (editor save, tmp+rename) and external restores are
// all observed. A no-op if filePath is empty — environment-only deployments
// don't need a watcher.
func (h *Holder) WatchFile(ctx context.Context) error {
	if h.filePath == "" {
		h.logger.Info().Msg("config file watcher disabled (no file path configured)")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher
	h.configDir = filepath.Dir(h.filePath)
	h.fileName = filepath.Base(h.filePath)

	if err := watcher.Add(h.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str("path", h.filePath).Msg("watching config file for changes")
	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	const debounceWindow = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = h.watcher.Close()
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != h.fileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().Err(err).Msg("automatic config reload failed")
				}
			})
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher, if one is running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}
