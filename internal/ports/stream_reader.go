package ports

import "github.com/bft-labs/tracescope/internal/domain"

// StreamReader decodes calls from a trace stream.
// A reader holds a single cursor and is not safe for concurrent use.
type StreamReader interface {
	// Open prepares the reader at the start of the trace at path.
	Open(path string) error

	// Close releases all resources held by the reader.
	Close() error

	// SupportsOffsets reports whether Bookmark/SetBookmark can reposition the stream.
	SupportsOffsets() bool

	// Bookmark returns the position of the next call.
	Bookmark() domain.Bookmark

	// SetBookmark repositions the stream. Returns domain.ErrNoOffsets when
	// offsets are unsupported.
	SetBookmark(b domain.Bookmark) error

	// ScanNext decodes the next call cheaply: only the name and flags are
	// guaranteed to be populated. Returns io.EOF at the end of the stream.
	ScanNext() (domain.Call, error)

	// DecodeNext fully decodes the next call. Returns io.EOF at the end of the stream.
	DecodeNext() (domain.Call, error)

	// PercentRead returns how much of the stream has been consumed, 0..100.
	PercentRead() int

	// API returns the best-effort guess of the traced API.
	API() domain.API
}
