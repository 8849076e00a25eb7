package tracescope

import (
	"context"
	"sync"

	"github.com/bft-labs/tracescope/internal/adapters/fs"
	"github.com/bft-labs/tracescope/internal/adapters/tracefile"
	"github.com/bft-labs/tracescope/internal/app"
	"github.com/bft-labs/tracescope/internal/engine"
	"github.com/bft-labs/tracescope/internal/help"
	"github.com/bft-labs/tracescope/internal/metrics"
	"github.com/bft-labs/tracescope/internal/ports"
	"github.com/bft-labs/tracescope/pkg/log"
)

// Viewer is an embeddable trace viewer backend. Use New to create one, then
// Start before submitting requests.
type Viewer struct {
	config  Config
	logger  log.Logger
	session *app.Session
	plugins []Plugin

	mu sync.Mutex
}

// New creates a stopped Viewer. Returns an error if cfg is invalid.
func New(cfg Config, opts ...Option) (*Viewer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	reader := o.reader
	if reader == nil {
		reader = tracefile.NewReader()
	}

	var onEvent func(Event)
	if o.eventHandler != nil {
		onEvent = o.eventHandler.OnEvent
	}
	mailbox := app.NewMailbox(onEvent)

	var repo ports.IndexRepository
	if cfg.IndexCache {
		repo = fs.NewIndexFileRepository(cfg.StateDir)
	}

	eng := engine.New(reader, engine.Options{
		Sink:       mailbox,
		Logger:     logger,
		Metrics:    metrics.New(o.registerer),
		Help:       help.Loader(cfg.HelpFile),
		Repository: repo,
		BatchSize:  cfg.BatchSize,
	})

	session := app.NewSession(eng, mailbox, app.SessionConfig{
		QueueSize: cfg.QueueSize,
		Emitter:   stateEmitter{handler: o.eventHandler},
	}, logger)

	return &Viewer{
		config:  cfg,
		logger:  logger,
		session: session,
		plugins: o.plugins,
	}, nil
}

// Start launches the background worker, initializes plugins and opens
// Config.TracePath when set.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.session.Start(ctx); err != nil {
		return err
	}

	pluginCfg := PluginConfig{
		TracePath: v.config.TracePath,
		Logger:    v.logger,
		Reopen:    v.Open,
	}
	if v.config.IndexCache {
		pluginCfg.StateDir = v.config.StateDir
	}
	for i, p := range v.plugins {
		if err := p.Initialize(ctx, pluginCfg); err != nil {
			v.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			v.shutdownPlugins(v.plugins[:i])
			_ = v.session.Stop()
			return err
		}
		v.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if v.config.TracePath != "" {
		return v.Open(v.config.TracePath)
	}
	return nil
}

// Stop shuts down plugins, cancels in-flight work, closes the trace and
// delivers queued events. Returns ErrShutdownTimeout if that takes longer
// than the shutdown timeout.
func (v *Viewer) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.session.State() != app.StateRunning {
		return ErrNotRunning
	}
	v.shutdownPlugins(v.plugins)
	return v.session.Stop()
}

func (v *Viewer) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			v.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			continue
		}
		v.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
	}
}

// Status returns the current lifecycle state. Safe for concurrent use.
func (v *Viewer) Status() State {
	return convertState(v.session.State())
}

// Open queues loading the trace at path, replacing any open trace.
func (v *Viewer) Open(path string) error {
	return v.session.Submit(app.Request{Kind: app.RequestOpen, Path: path})
}

// Close queues closing the open trace.
func (v *Viewer) Close() error {
	return v.session.Submit(app.Request{Kind: app.RequestClose})
}

// RequestFrame queues loading the calls of frame n.
func (v *Viewer) RequestFrame(n uint32) error {
	return v.session.Submit(app.Request{Kind: app.RequestFrame, Frame: n})
}

// LocateFrameStart queues locating the first call of frame n.
func (v *Viewer) LocateFrameStart(n uint32) error {
	return v.session.Submit(app.Request{Kind: app.RequestFrameStart, Frame: n})
}

// LocateFrameEnd queues locating the last call of frame n.
func (v *Viewer) LocateFrameEnd(n uint32) error {
	return v.session.Submit(app.Request{Kind: app.RequestFrameEnd, Frame: n})
}

// LocateCall queues locating the call with the given sequence number.
func (v *Viewer) LocateCall(number uint64) error {
	return v.session.Submit(app.Request{Kind: app.RequestCall, Call: number})
}

// Search queues req. The result is delivered as an EventSearchResult
// carrying req.
func (v *Viewer) Search(req SearchRequest) error {
	return v.session.Submit(app.Request{Kind: app.RequestSearch, Search: req})
}
