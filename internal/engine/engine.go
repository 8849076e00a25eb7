// Package engine loads, indexes and searches traces.
//
// An Engine owns one stream reader cursor, the frame index and the frame
// list of the open trace. Traces whose reader supports bookmarks are indexed
// in one pass without keeping calls in memory; frames are then materialized
// on demand. Other traces are decoded eagerly and every frame is created
// already loaded.
//
// Progress and results are reported through an event sink. An Engine is not
// safe for concurrent use: operations that move the cursor must be issued
// serially, for example from the worker in internal/app.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/internal/help"
	"github.com/bft-labs/tracescope/internal/metrics"
	"github.com/bft-labs/tracescope/internal/ports"
	"github.com/bft-labs/tracescope/pkg/log"
)

// DefaultBatchSize is the number of frames per FramesAvailable event when a
// trace is decoded eagerly.
const DefaultBatchSize = 100

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Sink    ports.EventSink
	Logger  log.Logger
	Metrics *metrics.Metrics

	// Help loads the help table on the first Open. Defaults to the bundled table.
	Help ports.HelpLoader

	// Repository stores frame indexes across opens. Nil disables reuse.
	Repository ports.IndexRepository

	BatchSize int
}

// Engine is the trace loader, indexer and search engine.
type Engine struct {
	reader    ports.StreamReader
	sink      ports.EventSink
	logger    log.Logger
	metrics   *metrics.Metrics
	loadHelp  ports.HelpLoader
	repo      ports.IndexRepository
	batchSize int

	help       help.Table
	helpLoaded bool

	path   string
	opened bool
	api    domain.API
	index  []domain.FrameIndexEntry
	frames []*domain.Frame
}

// New creates an Engine reading traces through reader.
func New(reader ports.StreamReader, opts Options) *Engine {
	e := &Engine{
		reader:    reader,
		sink:      opts.Sink,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		loadHelp:  opts.Help,
		repo:      opts.Repository,
		batchSize: opts.BatchSize,
	}
	if e.sink == nil {
		e.sink = ports.DiscardEvents
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	if e.loadHelp == nil {
		e.loadHelp = help.Bundled
	}
	if e.batchSize <= 0 {
		e.batchSize = DefaultBatchSize
	}
	return e
}

// Open closes any open trace, then opens and loads the trace at path.
// On failure an EventOpenFailed is emitted, no state is retained and the
// returned error wraps domain.ErrOpenFailure.
func (e *Engine) Open(ctx context.Context, path string) error {
	e.ensureHelp()
	e.reset()

	if err := e.reader.Open(path); err != nil {
		e.metrics.OpenFailures.Inc()
		e.logger.Error("failed to open trace", log.Path(path), log.Err(err))
		err = fmt.Errorf("%w: %w", domain.ErrOpenFailure, err)
		e.emit(domain.Event{Kind: domain.EventOpenFailed, Path: path, Err: err})
		return err
	}
	e.path = path
	e.opened = true

	e.emit(domain.Event{Kind: domain.EventParsingStarted, Path: path})
	start := time.Now()

	offsets := e.reader.SupportsOffsets()
	var err error
	if offsets {
		err = e.scanTrace(ctx)
	} else {
		err = e.parseTrace(ctx)
	}
	if err != nil {
		err = e.fail(fmt.Errorf("load %s: %w", path, err))
		e.reset()
		return err
	}

	if e.api == domain.APIUnknown {
		e.api = e.reader.API()
	}
	e.metrics.TracesOpened.Inc()
	e.emit(domain.Event{Kind: domain.EventAPIGuessed, API: e.api})
	e.emit(domain.Event{Kind: domain.EventParsingFinished, Path: path})

	e.logger.Info("trace loaded",
		log.Path(path),
		log.Frames(len(e.frames)),
		log.Bool("offsets", offsets),
		log.String("api", e.api.String()),
		log.Duration("duration", time.Since(start)),
	)
	return nil
}

// Close releases the open trace and clears the index and frame list.
// The help table is kept for the next Open.
func (e *Engine) Close() error {
	err := e.reader.Close()
	e.clear()
	return err
}

// Path returns the path of the open trace, or "".
func (e *Engine) Path() string {
	return e.path
}

// API returns the guessed API of the open trace.
func (e *Engine) API() domain.API {
	return e.api
}

// FrameCount returns the number of frames in the open trace.
func (e *Engine) FrameCount() int {
	return len(e.frames)
}

// CallCountInFrame returns the number of calls in frame n, or 0 when n is
// out of range.
func (e *Engine) CallCountInFrame(n uint32) uint32 {
	if int(n) >= len(e.index) {
		return 0
	}
	return e.index[n].Calls
}

// Frame returns a snapshot of frame n.
func (e *Engine) Frame(n uint32) (domain.FrameInfo, bool) {
	if int(n) >= len(e.frames) {
		return domain.FrameInfo{}, false
	}
	return e.frames[n].Info(), true
}

// Frames returns snapshots of all frames.
func (e *Engine) Frames() []domain.FrameInfo {
	out := make([]domain.FrameInfo, len(e.frames))
	for i, f := range e.frames {
		out[i] = f.Info()
	}
	return out
}

// RequestFrame returns the calls of frame n, materializing them if needed.
// EventFrameContentsReady is emitted only when the frame is loaded by this call.
func (e *Engine) RequestFrame(ctx context.Context, n uint32) ([]*domain.APICall, error) {
	f, err := e.frame(n)
	if err != nil {
		return nil, e.fail(err)
	}
	calls, err := e.materialize(ctx, f)
	if err != nil {
		return nil, e.fail(err)
	}
	return calls, nil
}

// LocateFrameStart loads frame n if needed and reports its first call.
func (e *Engine) LocateFrameStart(ctx context.Context, n uint32) (*domain.APICall, error) {
	calls, err := e.RequestFrame(ctx, n)
	if err != nil {
		return nil, err
	}
	var call *domain.APICall
	if len(calls) > 0 {
		call = calls[0]
	}
	e.emit(domain.Event{Kind: domain.EventFrameStartLocated, Frame: n, Call: call})
	return call, nil
}

// LocateFrameEnd loads frame n if needed and reports its last call.
func (e *Engine) LocateFrameEnd(ctx context.Context, n uint32) (*domain.APICall, error) {
	calls, err := e.RequestFrame(ctx, n)
	if err != nil {
		return nil, err
	}
	var call *domain.APICall
	if len(calls) > 0 {
		call = calls[len(calls)-1]
	}
	e.emit(domain.Event{Kind: domain.EventFrameEndLocated, Frame: n, Call: call})
	return call, nil
}

// LocateCall finds the call with the given sequence number and reports it.
func (e *Engine) LocateCall(ctx context.Context, number uint64) (*domain.APICall, error) {
	call, err := e.FindCall(ctx, number)
	if err != nil {
		return nil, err
	}
	e.emit(domain.Event{Kind: domain.EventCallLocated, Frame: call.Frame, Call: call})
	return call, nil
}

// FindCall returns the materialized call with the given sequence number.
// Only the owning frame is materialized.
func (e *Engine) FindCall(ctx context.Context, number uint64) (*domain.APICall, error) {
	call, err := e.findCall(ctx, number)
	if err != nil {
		return nil, e.fail(err)
	}
	return call, nil
}

// CallOwningFrame returns the ordinal of the frame containing call number.
// A number outside every frame is reported as index corruption.
func (e *Engine) CallOwningFrame(number uint64) (uint32, error) {
	if !e.opened {
		return 0, domain.ErrNoTrace
	}
	var first uint64
	for i, entry := range e.index {
		end := first + uint64(entry.Calls)
		if number >= first && number < end {
			return uint32(i), nil
		}
		first = end
	}
	return 0, &domain.CorruptionError{Call: number, Reason: "call not covered by the frame index"}
}

func (e *Engine) findCall(ctx context.Context, number uint64) (*domain.APICall, error) {
	n, err := e.CallOwningFrame(number)
	if err != nil {
		return nil, err
	}
	calls, err := e.materialize(ctx, e.frames[n])
	if err != nil {
		return nil, err
	}
	for _, c := range calls {
		if c.Number == number {
			return c, nil
		}
	}
	return nil, &domain.CorruptionError{Frame: n, Call: number, Reason: fmt.Sprintf("call missing from frame %d", n)}
}

func (e *Engine) frame(n uint32) (*domain.Frame, error) {
	if !e.opened {
		return nil, domain.ErrNoTrace
	}
	if int(n) >= len(e.frames) {
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrFrameOutOfRange, n, len(e.frames))
	}
	return e.frames[n], nil
}

// addFrame appends an unloaded frame and its index entry.
func (e *Engine) addFrame(start domain.Bookmark, calls uint32) *domain.Frame {
	f := domain.NewFrame(uint32(len(e.frames)), calls)
	e.frames = append(e.frames, f)
	e.index = append(e.index, domain.FrameIndexEntry{Start: start, Calls: calls})
	e.metrics.FramesIndexed.Inc()
	return f
}

func (e *Engine) ensureHelp() {
	if e.helpLoaded {
		return
	}
	e.helpLoaded = true
	t, err := e.loadHelp()
	if err != nil {
		e.logger.Warn("failed to load help table, continuing without help URLs", log.Err(err))
		t = help.Table{}
	}
	e.help = t
}

// reset closes the reader and clears all per-trace state.
func (e *Engine) reset() {
	_ = e.reader.Close()
	e.clear()
}

func (e *Engine) clear() {
	e.path = ""
	e.opened = false
	e.api = domain.APIUnknown
	e.index = nil
	e.frames = nil
}

func (e *Engine) emit(ev domain.Event) {
	e.sink.Emit(ev)
}

// fail reports err as a fault event and returns it.
func (e *Engine) fail(err error) error {
	if errors.Is(err, domain.ErrIndexCorruption) {
		e.metrics.IndexCorruptions.Inc()
		e.logger.Error("index corruption", log.Path(e.path), log.Err(err))
	} else {
		e.logger.Warn("trace operation failed", log.Path(e.path), log.Err(err))
	}
	e.emit(domain.Event{Kind: domain.EventFault, Path: e.path, Err: err})
	return err
}
