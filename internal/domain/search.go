package domain

import "github.com/google/uuid"

// Direction selects which way a search walks the trace.
type Direction int

const (
	SearchNext Direction = iota
	SearchPrev
)

func (d Direction) String() string {
	if d == SearchPrev {
		return "prev"
	}
	return "next"
}

// Cursor optionally anchors a search at a call. Forward searches skip calls at
// or before the cursor; backward searches skip calls at or after it.
type Cursor struct {
	Call  uint64
	Valid bool
}

// At returns a cursor anchored at call n.
func At(n uint64) Cursor {
	return Cursor{Call: n, Valid: true}
}

// SearchRequest describes one substring search.
type SearchRequest struct {
	ID            uuid.UUID
	Frame         uint32
	Text          string
	CaseSensitive bool
	Direction     Direction
	From          Cursor
}

// NewSearchRequest creates a request with a fresh ID.
func NewSearchRequest(frame uint32, text string, dir Direction) SearchRequest {
	return SearchRequest{
		ID:            uuid.New(),
		Frame:         frame,
		Text:          text,
		CaseSensitive: true,
		Direction:     dir,
	}
}

// SearchStatus is the outcome of a search.
type SearchStatus int

const (
	SearchNotFound SearchStatus = iota
	SearchFound
	SearchFailed
)

func (s SearchStatus) String() string {
	switch s {
	case SearchFound:
		return "found"
	case SearchFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// SearchResult is the terminal result of one search invocation.
type SearchResult struct {
	Status SearchStatus
	Call   *APICall
	Err    error
}
