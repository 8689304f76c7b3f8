// Package configwatch reloads the config file while the process runs and
// applies the settings that can change without a restart.
package configwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/timelink/internal/cliconfig"
	"github.com/bft-labs/timelink/internal/domain"
	"github.com/bft-labs/timelink/internal/ports"
)

// DefaultDebounce coalesces the burst of events one save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors one TOML file via fsnotify.
type Watcher struct {
	path     string
	sync     *domain.SynchronizationContext
	pinned   map[string]bool
	logger   ports.Logger
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	reloads int
}

// New creates a Watcher for path. Flags in pinned keep their current value.
func New(path string, sc *domain.SynchronizationContext, pinned map[string]bool, logger ports.Logger) *Watcher {
	return &Watcher{
		path:     path,
		sync:     sc,
		pinned:   pinned,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Run watches the file's directory until ctx is done. Editors often replace
// the file rather than write it, so the directory is watched.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching config", ports.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

// Reloads returns how many reloads were applied.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping current settings", ports.String("path", w.path), ports.Err(err))
		return
	}
	if err := Apply(w.sync, fc, w.pinned, w.logger); err != nil {
		w.logger.Warn("config reload rejected", ports.Err(err))
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
}

// Apply copies the reloadable settings of fc into sc. Nothing is applied
// when any value is invalid.
func Apply(sc *domain.SynchronizationContext, fc cliconfig.FileConfig, pinned map[string]bool, logger ports.Logger) error {
	offset := sc.OffsetHours()
	if fc.TimezoneOffset != nil && !pinned["timezone-offset"] {
		offset = *fc.TimezoneOffset
		if offset < cliconfig.MinOffsetHours || offset > cliconfig.MaxOffsetHours {
			return fmt.Errorf("%w: timezone_offset %d", domain.ErrInvalidConfig, offset)
		}
	}

	interval := sc.SendInterval()
	if fc.SendInterval != "" && !pinned["send-interval"] {
		d, err := time.ParseDuration(fc.SendInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: send_interval %q", domain.ErrInvalidConfig, fc.SendInterval)
		}
		interval = d
	}

	if offset != sc.OffsetHours() {
		logger.Info("timezone offset reloaded", ports.Int("from", sc.OffsetHours()), ports.Int("to", offset))
		sc.SetOffsetHours(offset)
	}
	if interval != sc.SendInterval() {
		logger.Info("send interval reloaded", ports.Duration("from", sc.SendInterval()), ports.Duration("to", interval))
		sc.SetSendInterval(interval)
	}
	return nil
}
