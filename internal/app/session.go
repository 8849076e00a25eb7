package app

import (
	"context"
	"time"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/pkg/log"
)

// DefaultQueueSize is the request queue capacity used when none is configured.
const DefaultQueueSize = 64

// Engine is the subset of the trace engine driven by a Session.
type Engine interface {
	Open(ctx context.Context, path string) error
	Close() error
	RequestFrame(ctx context.Context, n uint32) ([]*domain.APICall, error)
	LocateFrameStart(ctx context.Context, n uint32) (*domain.APICall, error)
	LocateFrameEnd(ctx context.Context, n uint32) (*domain.APICall, error)
	LocateCall(ctx context.Context, number uint64) (*domain.APICall, error)
	Search(ctx context.Context, req domain.SearchRequest) domain.SearchResult
}

// RequestKind identifies the engine operation a Request performs.
type RequestKind int

const (
	RequestOpen RequestKind = iota
	RequestClose
	RequestFrame
	RequestFrameStart
	RequestFrameEnd
	RequestCall
	RequestSearch
)

func (k RequestKind) String() string {
	switch k {
	case RequestOpen:
		return "open"
	case RequestClose:
		return "close"
	case RequestFrame:
		return "frame"
	case RequestFrameStart:
		return "frame_start"
	case RequestFrameEnd:
		return "frame_end"
	case RequestCall:
		return "call"
	case RequestSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Request is one unit of work for the session worker. Results are reported
// through events.
type Request struct {
	Kind   RequestKind
	Path   string
	Frame  uint32
	Call   uint64
	Search domain.SearchRequest
}

// SessionConfig configures a Session.
type SessionConfig struct {
	QueueSize       int
	ShutdownTimeout time.Duration
	Emitter         EventEmitter
}

// Session serializes engine operations on a single worker goroutine, so
// operations that move the reader cursor never overlap. Engine events are
// delivered through the mailbox by a separate dispatcher goroutine.
type Session struct {
	engine    Engine
	mailbox   *Mailbox
	lifecycle *Lifecycle
	logger    log.Logger
	queue     chan Request
	timeout   time.Duration
}

// NewSession creates a stopped session. mailbox must be the sink the engine
// emits to.
func NewSession(engine Engine, mailbox *Mailbox, cfg SessionConfig, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = ShutdownTimeout
	}
	return &Session{
		engine:    engine,
		mailbox:   mailbox,
		lifecycle: NewLifecycle(logger, cfg.Emitter),
		logger:    logger,
		queue:     make(chan Request, cfg.QueueSize),
		timeout:   cfg.ShutdownTimeout,
	}
}

// Start launches the worker and the event dispatcher.
func (s *Session) Start(ctx context.Context) error {
	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)
	s.mailbox.reopen()

	s.lifecycle.Go(s.mailbox.Run)
	s.lifecycle.Go(func() { s.work(runCtx) })

	return s.lifecycle.TransitionTo(StateRunning, "worker started")
}

// Stop cancels in-flight work, closes the trace and waits for queued events
// to be delivered. Returns ErrShutdownTimeout if that takes too long.
func (s *Session) Stop() error {
	if !s.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		return err
	}
	s.lifecycle.Cancel()

	err := s.lifecycle.WaitWithTimeout(s.timeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return err
	}
	_ = s.lifecycle.TransitionTo(StateStopped, "graceful shutdown")
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.lifecycle.State()
}

// Submit enqueues req without blocking.
func (s *Session) Submit(req Request) error {
	if !s.lifecycle.Running() {
		return domain.ErrNotRunning
	}
	select {
	case s.queue <- req:
		return nil
	default:
		s.logger.Warn("request queue full, dropping request", log.String("request", req.Kind.String()))
		return domain.ErrQueueFull
	}
}

func (s *Session) work(ctx context.Context) {
	defer s.mailbox.Close()
	for {
		if ctx.Err() != nil {
			s.shutdown()
			return
		}
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case req := <-s.queue:
			s.handle(ctx, req)
		}
	}
}

// shutdown discards queued requests and closes the trace.
func (s *Session) shutdown() {
	dropped := 0
	for drained := false; !drained; {
		select {
		case <-s.queue:
			dropped++
		default:
			drained = true
		}
	}
	if dropped > 0 {
		s.logger.Debug("discarded queued requests on shutdown", log.Int("requests", dropped))
	}
	if err := s.engine.Close(); err != nil {
		s.logger.Warn("failed to close trace", log.Err(err))
	}
}

func (s *Session) handle(ctx context.Context, req Request) {
	start := time.Now()
	var err error
	switch req.Kind {
	case RequestOpen:
		err = s.engine.Open(ctx, req.Path)
	case RequestClose:
		err = s.engine.Close()
	case RequestFrame:
		_, err = s.engine.RequestFrame(ctx, req.Frame)
	case RequestFrameStart:
		_, err = s.engine.LocateFrameStart(ctx, req.Frame)
	case RequestFrameEnd:
		_, err = s.engine.LocateFrameEnd(ctx, req.Frame)
	case RequestCall:
		_, err = s.engine.LocateCall(ctx, req.Call)
	case RequestSearch:
		s.engine.Search(ctx, req.Search)
	default:
		s.logger.Warn("unknown request", log.Int("kind", int(req.Kind)))
		return
	}

	fields := []log.Field{log.String("request", req.Kind.String()), log.Duration("duration", time.Since(start))}
	if err != nil {
		s.logger.Debug("request failed", append(fields, log.Err(err))...)
		return
	}
	s.logger.Debug("request done", fields...)
}
