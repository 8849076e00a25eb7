// Package tracewatcher reopens the viewer's trace when the file changes on
// disk, for example while a capture is still being written.
package tracewatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/tracescope/pkg/log"
	"github.com/bft-labs/tracescope/pkg/tracescope"
)

// Plugin watches the trace file and triggers a reopen after changes settle.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	path     string
	logger   log.Logger
	reopen   func(path string) error
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the trace watcher plugin.
type Config struct {
	// DebounceDelay is how long the file must stay unchanged before the
	// trace is reopened.
	// Default: 500 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 500 * time.Millisecond}
}

// New creates a trace watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig().DebounceDelay
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "tracewatcher"
}

// Initialize starts watching cfg.TracePath. Without a trace path the plugin
// stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg tracescope.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	p.mu.Lock()
	p.logger = logger
	p.reopen = cfg.Reopen
	p.mu.Unlock()

	if cfg.TracePath == "" || cfg.Reopen == nil {
		logger.Warn("trace watcher disabled: no trace path configured")
		return nil
	}
	abs, err := filepath.Abs(cfg.TracePath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors and capture tools often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.path = abs
	p.cancel = cancel
	p.mu.Unlock()

	logger.Info("trace watcher started", log.Path(abs))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher and cancels any pending reopen.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			p.scheduleReopen(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("trace watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) scheduleReopen(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.logger.Info("trace changed, reopening", log.Path(p.path))
		if err := p.reopen(p.path); err != nil {
			p.logger.Warn("failed to reopen trace", log.Path(p.path), log.Err(err))
		}
	})
}

var _ tracescope.Plugin = (*Plugin)(nil)
