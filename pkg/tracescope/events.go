package tracescope

import (
	"github.com/bft-labs/tracescope/internal/app"
	"github.com/bft-labs/tracescope/internal/domain"
)

// Types shared with the engine.
type (
	Event         = domain.Event
	EventKind     = domain.EventKind
	Call          = domain.Call
	APICall       = domain.APICall
	FrameInfo     = domain.FrameInfo
	SearchRequest = domain.SearchRequest
	SearchResult  = domain.SearchResult
	SearchStatus  = domain.SearchStatus
	Direction     = domain.Direction
	Cursor        = domain.Cursor
	API           = domain.API
)

// Event kinds.
const (
	EventParsingStarted     = domain.EventParsingStarted
	EventProgress           = domain.EventProgress
	EventAPIGuessed         = domain.EventAPIGuessed
	EventParsingFinished    = domain.EventParsingFinished
	EventFramesAvailable    = domain.EventFramesAvailable
	EventFrameContentsReady = domain.EventFrameContentsReady
	EventSearchResult       = domain.EventSearchResult
	EventFrameStartLocated  = domain.EventFrameStartLocated
	EventFrameEndLocated    = domain.EventFrameEndLocated
	EventCallLocated        = domain.EventCallLocated
	EventOpenFailed         = domain.EventOpenFailed
	EventFault              = domain.EventFault
)

// Search directions and outcomes.
const (
	SearchNext     = domain.SearchNext
	SearchPrev     = domain.SearchPrev
	SearchFound    = domain.SearchFound
	SearchNotFound = domain.SearchNotFound
	SearchFailed   = domain.SearchFailed
)

// Errors returned by the viewer and carried by events.
var (
	ErrOpenFailure     = domain.ErrOpenFailure
	ErrIndexCorruption = domain.ErrIndexCorruption
	ErrNoTrace         = domain.ErrNoTrace
	ErrFrameOutOfRange = domain.ErrFrameOutOfRange
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrQueueFull       = domain.ErrQueueFull
)

// NewSearchRequest creates a case-sensitive search request with a fresh ID.
func NewSearchRequest(frame uint32, text string, dir Direction) SearchRequest {
	return domain.NewSearchRequest(frame, text, dir)
}

// At returns a search cursor anchored at call n.
func At(n uint64) Cursor {
	return domain.At(n)
}

// State is the lifecycle state of a Viewer.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives viewer events. OnEvent is called from a single
// dispatcher goroutine in emission order. OnStateChange is called from the
// goroutine calling Start or Stop.
type EventHandler interface {
	OnEvent(ev Event)
	OnStateChange(ev StateChangeEvent)
}

// EventFunc adapts a function to EventHandler, ignoring state changes.
type EventFunc func(ev Event)

// OnEvent calls f(ev).
func (f EventFunc) OnEvent(ev Event) { f(ev) }

// OnStateChange does nothing.
func (EventFunc) OnStateChange(StateChangeEvent) {}

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

// stateEmitter adapts EventHandler to app.EventEmitter.
type stateEmitter struct {
	handler EventHandler
}

func (e stateEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}
