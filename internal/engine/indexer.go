package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/pkg/log"
)

// scanTrace builds the frame index in one pass without keeping calls.
// A saved index for the same file is reused instead when available.
func (e *Engine) scanTrace(ctx context.Context) error {
	if e.adoptSavedIndex(ctx) {
		return nil
	}

	p := newProgress(e.emit)
	start := e.reader.Bookmark()
	var (
		calls uint32
		total uint64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		call, err := e.reader.ScanNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("scan call %d: %w", start.Next+uint64(calls), err)
		}
		calls++
		total++

		if call.EndsFrame() {
			e.addFrame(start, calls).SetLastCall(call.Number)
			p.update(e.reader.PercentRead())
			start = e.reader.Bookmark()
			calls = 0
		}
	}

	// Calls after the last frame boundary (usually teardown) form a final
	// frame without an end-of-frame call.
	if calls > 0 {
		e.addFrame(start, calls)
	}
	e.metrics.CallsScanned.Add(float64(total))

	p.finish()
	e.saveIndex(ctx)
	e.emit(domain.Event{Kind: domain.EventFramesAvailable, Frames: e.Frames()})
	return nil
}

// adoptSavedIndex loads the frame table from the repository.
func (e *Engine) adoptSavedIndex(ctx context.Context) bool {
	if e.repo == nil {
		return false
	}
	idx, ok, err := e.repo.Load(ctx, e.path)
	if err != nil {
		e.logger.Warn("failed to load saved frame index", log.Path(e.path), log.Err(err))
		return false
	}
	if !ok {
		return false
	}
	for i, r := range idx.Frames {
		if r.Calls == 0 {
			e.logger.Warn("ignoring saved frame index with empty frame", log.Path(e.path), log.Frame(uint32(i)))
			return false
		}
	}

	for _, r := range idx.Frames {
		f := e.addFrame(r.Start, r.Calls)
		if r.LastCall != nil {
			f.SetLastCall(*r.LastCall)
		}
	}
	e.api = idx.API
	e.metrics.IndexCacheHits.Inc()
	e.logger.Debug("reusing saved frame index", log.Path(e.path), log.Frames(len(e.frames)))

	newProgress(e.emit).finish()
	e.emit(domain.Event{Kind: domain.EventFramesAvailable, Frames: e.Frames()})
	return true
}

func (e *Engine) saveIndex(ctx context.Context) {
	if e.repo == nil {
		return
	}
	idx := domain.Index{
		Path:   e.path,
		API:    e.reader.API(),
		Frames: make([]domain.IndexRecord, len(e.index)),
	}
	for i, entry := range e.index {
		rec := domain.IndexRecord{Start: entry.Start, Calls: entry.Calls}
		if n, ok := e.frames[i].LastCall(); ok {
			last := n
			rec.LastCall = &last
		}
		idx.Frames[i] = rec
	}
	if err := e.repo.Save(ctx, idx); err != nil {
		e.logger.Warn("failed to save frame index", log.Path(e.path), log.Err(err))
	}
}
