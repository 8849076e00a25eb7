package domain

import (
	"fmt"
	"strings"
)

// CallFlags carries per-call flags recorded in the trace.
type CallFlags uint32

const (
	// FlagEndFrame marks the last call of a frame (e.g. a swap-buffers call).
	FlagEndFrame CallFlags = 1 << iota
	// FlagRender marks calls that produce rendering output.
	FlagRender
	// FlagVerbose marks calls that are usually hidden in listings.
	FlagVerbose
)

// Bookmark is a reproducible position in the trace stream.
// Resuming decode from a bookmark yields the same calls, with the same
// sequence numbers, as the original pass from that point.
type Bookmark struct {
	// Offset is the byte offset of the next record in the decoded stream.
	Offset int64 `json:"offset"`

	// Next is the sequence number the reader assigns to the next call.
	Next uint64 `json:"next"`
}

// Argument is one argument of a recorded call.
type Argument struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
	Blob  []byte `json:"blob,omitempty"`
}

// Call is one raw decoded trace record.
type Call struct {
	// Number is the global sequence number, strictly increasing across the trace.
	Number uint64
	Name   string
	Args   []Argument
	Flags  CallFlags
}

// EndsFrame reports whether the call terminates its frame.
func (c Call) EndsFrame() bool {
	return c.Flags&FlagEndFrame != 0
}

// BinaryArgIndex returns the index of the first blob argument.
func (c Call) BinaryArgIndex() (int, bool) {
	for i, a := range c.Args {
		if a.Blob != nil {
			return i, true
		}
	}
	return 0, false
}

// BinaryDataSize returns the size of the blob argument, if any.
func (c Call) BinaryDataSize() uint64 {
	i, ok := c.BinaryArgIndex()
	if !ok {
		return 0
	}
	return uint64(len(c.Args[i].Blob))
}

// String renders the call as text for display and substring search.
func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteByte('=')
		}
		if a.Blob != nil {
			fmt.Fprintf(&b, "blob(%d)", len(a.Blob))
			continue
		}
		fmt.Fprint(&b, a.Value)
	}
	b.WriteByte(')')
	return b.String()
}

// APICall is a materialized call. The pointer is the canonical identity of a
// call once its frame has been loaded.
type APICall struct {
	Call

	// Frame is the ordinal of the owning frame.
	Frame uint32

	// HelpURL points at reference documentation for the call, if known.
	HelpURL string
}

// NewAPICall wraps a decoded call for the given frame.
func NewAPICall(c Call, frame uint32, helpURL string) *APICall {
	return &APICall{Call: c, Frame: frame, HelpURL: helpURL}
}
