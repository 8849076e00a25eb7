package domain

import "fmt"

// FrameIndexEntry locates one frame in the trace stream.
type FrameIndexEntry struct {
	// Start is the bookmark preceding the first call of the frame.
	Start Bookmark

	// Calls is the number of calls in the frame.
	Calls uint32
}

// Frame is a contiguous run of calls. Its calls are materialized lazily
// and cached until the trace is closed.
type Frame struct {
	// Number is the 0-based ordinal, equal to the position in the index.
	Number uint32

	// CallCount is the number of calls in the frame.
	CallCount uint32

	lastCall    uint64
	hasLastCall bool

	calls          []*APICall
	binaryDataSize uint64
}

// NewFrame creates an unloaded frame.
func NewFrame(number, callCount uint32) *Frame {
	return &Frame{Number: number, CallCount: callCount}
}

// LastCall returns the sequence number of the end-of-frame call.
// It is absent for a trailing frame without an end-of-frame marker.
func (f *Frame) LastCall() (uint64, bool) {
	return f.lastCall, f.hasLastCall
}

// SetLastCall records the end-of-frame call.
func (f *Frame) SetLastCall(n uint64) {
	f.lastCall = n
	f.hasLastCall = true
}

// Loaded reports whether the frame's calls are cached.
func (f *Frame) Loaded() bool {
	return f.calls != nil
}

// Calls returns the cached calls, or nil if the frame is not loaded.
func (f *Frame) Calls() []*APICall {
	return f.calls
}

// BinaryDataSize returns the total blob payload of the cached calls.
func (f *Frame) BinaryDataSize() uint64 {
	return f.binaryDataSize
}

// SetCalls caches the frame's materialized calls.
func (f *Frame) SetCalls(calls []*APICall, binaryDataSize uint64) error {
	if uint32(len(calls)) != f.CallCount {
		return &CorruptionError{Frame: f.Number, Want: f.CallCount, Got: uint32(len(calls)), Reason: "materialized call count"}
	}
	if calls == nil {
		calls = []*APICall{}
	}
	f.calls = calls
	f.binaryDataSize = binaryDataSize
	return nil
}

// Info returns a snapshot of the frame for consumers.
func (f *Frame) Info() FrameInfo {
	return FrameInfo{
		Number:         f.Number,
		CallCount:      f.CallCount,
		LastCall:       f.lastCall,
		HasLastCall:    f.hasLastCall,
		Loaded:         f.Loaded(),
		Calls:          f.calls,
		BinaryDataSize: f.binaryDataSize,
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame %d (%d calls)", f.Number, f.CallCount)
}

// FrameInfo is an immutable view of a frame handed to consumers.
// Calls is nil unless the frame was loaded when the snapshot was taken.
type FrameInfo struct {
	Number         uint32
	CallCount      uint32
	LastCall       uint64
	HasLastCall    bool
	Loaded         bool
	Calls          []*APICall
	BinaryDataSize uint64
}
