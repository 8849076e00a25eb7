package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/tracescope/internal/domain"
)

// parseTrace decodes the whole trace for readers without bookmarks. Frames
// are created loaded and published in batches of e.batchSize.
func (e *Engine) parseTrace(ctx context.Context) error {
	p := newProgress(e.emit)
	batch := make([]domain.FrameInfo, 0, e.batchSize)
	start := e.reader.Bookmark()
	var (
		calls []*domain.APICall
		blob  uint64
		total uint64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		call, err := e.reader.DecodeNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode call %d: %w", start.Next+uint64(len(calls)), err)
		}
		total++

		frame := uint32(len(e.frames))
		calls = append(calls, domain.NewAPICall(call, frame, e.help.Lookup(call.Name)))
		blob += call.BinaryDataSize()

		if call.EndsFrame() {
			f, err := e.addLoadedFrame(start, calls, blob)
			if err != nil {
				return err
			}
			f.SetLastCall(call.Number)
			batch = append(batch, f.Info())
			if len(batch) >= e.batchSize {
				e.emit(domain.Event{Kind: domain.EventFramesAvailable, Frames: batch})
				batch = make([]domain.FrameInfo, 0, e.batchSize)
			}
			p.update(e.reader.PercentRead())

			start = e.reader.Bookmark()
			calls = nil
			blob = 0
		}
	}

	if len(calls) > 0 {
		f, err := e.addLoadedFrame(start, calls, blob)
		if err != nil {
			return err
		}
		batch = append(batch, f.Info())
	}
	e.metrics.CallsScanned.Add(float64(total))

	p.finish()
	if len(batch) > 0 {
		e.emit(domain.Event{Kind: domain.EventFramesAvailable, Frames: batch})
	}
	return nil
}

func (e *Engine) addLoadedFrame(start domain.Bookmark, calls []*domain.APICall, blob uint64) (*domain.Frame, error) {
	f := e.addFrame(start, uint32(len(calls)))
	if err := f.SetCalls(calls, blob); err != nil {
		return nil, err
	}
	return f, nil
}
