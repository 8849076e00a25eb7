package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/pkg/log"
)

// materialize returns the calls of f, decoding them from the frame's
// bookmark on first use. Loaded frames are returned unchanged.
func (e *Engine) materialize(ctx context.Context, f *domain.Frame) ([]*domain.APICall, error) {
	if f.Loaded() {
		return f.Calls(), nil
	}
	// Without offsets every frame was loaded while parsing.
	if !e.reader.SupportsOffsets() {
		return nil, nil
	}

	entry := e.index[f.Number]
	if err := e.reader.SetBookmark(entry.Start); err != nil {
		return nil, fmt.Errorf("seek to frame %d: %w", f.Number, err)
	}

	calls := make([]*domain.APICall, 0, entry.Calls)
	var blob uint64
	for uint32(len(calls)) < entry.Calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		call, err := e.reader.DecodeNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", f.Number, err)
		}
		calls = append(calls, domain.NewAPICall(call, f.Number, e.help.Lookup(call.Name)))
		blob += call.BinaryDataSize()
		if call.EndsFrame() {
			break
		}
	}

	if err := checkFrame(f, entry, calls); err != nil {
		return nil, err
	}
	if err := f.SetCalls(calls, blob); err != nil {
		return nil, err
	}

	e.metrics.FramesMaterialized.Inc()
	e.metrics.CallsMaterialized.Add(float64(len(calls)))
	e.logger.Debug("frame materialized", log.Frame(f.Number), log.Int("calls", len(calls)), log.Uint64("binary_bytes", blob))
	e.emit(domain.Event{Kind: domain.EventFrameContentsReady, Frame: f.Number, Calls: calls, BinaryDataSize: blob})
	return calls, nil
}

// checkFrame verifies that decoded calls agree with the index entry: the
// count matches, numbering starts at the bookmark, and only the last call of
// a terminated frame carries the end-of-frame flag.
func checkFrame(f *domain.Frame, entry domain.FrameIndexEntry, calls []*domain.APICall) error {
	if uint32(len(calls)) != entry.Calls {
		return &domain.CorruptionError{Frame: f.Number, Want: entry.Calls, Got: uint32(len(calls)), Reason: "decoded call count"}
	}
	if len(calls) == 0 {
		return &domain.CorruptionError{Frame: f.Number, Reason: "empty frame"}
	}
	first, last := calls[0], calls[len(calls)-1]
	if first.Number != entry.Start.Next {
		return &domain.CorruptionError{Frame: f.Number, Call: first.Number, Reason: fmt.Sprintf("frame %d should start at call %d", f.Number, entry.Start.Next)}
	}
	if n, ok := f.LastCall(); ok {
		if !last.EndsFrame() || last.Number != n {
			return &domain.CorruptionError{Frame: f.Number, Call: last.Number, Reason: fmt.Sprintf("frame %d should end at call %d", f.Number, n)}
		}
	} else if last.EndsFrame() {
		return &domain.CorruptionError{Frame: f.Number, Call: last.Number, Reason: fmt.Sprintf("unexpected end of frame in trailing frame %d", f.Number)}
	}
	return nil
}
