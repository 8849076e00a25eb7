package domain

// EventKind identifies the notification carried by an Event.
type EventKind int

const (
	EventParsingStarted EventKind = iota
	EventProgress
	EventAPIGuessed
	EventParsingFinished
	EventFramesAvailable
	EventFrameContentsReady
	EventSearchResult
	EventFrameStartLocated
	EventFrameEndLocated
	EventCallLocated
	EventOpenFailed
	EventFault
)

var eventKindNames = map[EventKind]string{
	EventParsingStarted:     "parsing_started",
	EventProgress:           "progress",
	EventAPIGuessed:         "api_guessed",
	EventParsingFinished:    "parsing_finished",
	EventFramesAvailable:    "frames_available",
	EventFrameContentsReady: "frame_contents_ready",
	EventSearchResult:       "search_result",
	EventFrameStartLocated:  "frame_start_located",
	EventFrameEndLocated:    "frame_end_located",
	EventCallLocated:        "call_located",
	EventOpenFailed:         "open_failed",
	EventFault:              "fault",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is a one-way notification from the engine to its consumer.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// Percent is set for EventProgress.
	Percent int

	// API is set for EventAPIGuessed.
	API API

	// Frames is set for EventFramesAvailable.
	Frames []FrameInfo

	// Frame is set for frame-scoped events.
	Frame uint32

	// Calls and BinaryDataSize are set for EventFrameContentsReady.
	Calls          []*APICall
	BinaryDataSize uint64

	// Request and Result are set for EventSearchResult.
	Request SearchRequest
	Result  SearchResult

	// Call is set for the located events.
	Call *APICall

	// Path and Err are set for EventOpenFailed and EventFault.
	Path string
	Err  error
}
