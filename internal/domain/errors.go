package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the tracescope domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrOpenFailure is returned when a trace stream cannot be opened.
	ErrOpenFailure = errors.New("tracescope: failed to open trace")

	// ErrIndexCorruption is returned when the frame index disagrees with the
	// decoded trace content.
	ErrIndexCorruption = errors.New("tracescope: index corruption")

	// ErrNoTrace is returned when an operation needs an open trace.
	ErrNoTrace = errors.New("tracescope: no trace open")

	// ErrFrameOutOfRange is returned for a frame ordinal beyond the index.
	ErrFrameOutOfRange = errors.New("tracescope: frame out of range")

	// ErrNoOffsets is returned by readers that cannot reposition the stream.
	ErrNoOffsets = errors.New("tracescope: stream does not support offsets")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("tracescope: already running")

	// ErrNotRunning is returned when a request reaches a stopped instance.
	ErrNotRunning = errors.New("tracescope: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("tracescope: shutdown timeout")

	// ErrQueueFull is returned when the request queue cannot take more work.
	ErrQueueFull = errors.New("tracescope: request queue full")
)

// CorruptionError describes a mismatch between the frame index and the trace.
// Callers may treat it as recoverable by re-indexing the trace.
type CorruptionError struct {
	Frame  uint32
	Call   uint64
	Want   uint32
	Got    uint32
	Reason string
}

func (e *CorruptionError) Error() string {
	if e.Want != e.Got {
		return fmt.Sprintf("%v: frame %d: %s: want %d calls, got %d", ErrIndexCorruption, e.Frame, e.Reason, e.Want, e.Got)
	}
	return fmt.Sprintf("%v: call %d: %s", ErrIndexCorruption, e.Call, e.Reason)
}

// Is reports whether target is ErrIndexCorruption.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrIndexCorruption
}
