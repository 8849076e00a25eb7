package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bft-labs/tracescope/internal/domain"
	"github.com/bft-labs/tracescope/pkg/log"
)

// Search looks for the first call whose text contains req.Text, starting at
// frame req.Frame and walking in req.Direction. Exactly one EventSearchResult
// is emitted per invocation.
func (e *Engine) Search(ctx context.Context, req domain.SearchRequest) domain.SearchResult {
	start := time.Now()
	call, err := e.search(ctx, req)

	var res domain.SearchResult
	switch {
	case err != nil:
		res = domain.SearchResult{Status: domain.SearchFailed, Err: err}
		if errors.Is(err, domain.ErrIndexCorruption) {
			e.metrics.IndexCorruptions.Inc()
		}
		e.logger.Warn("search failed", log.Path(e.path), log.Frame(req.Frame), log.Err(err))
	case call != nil:
		res = domain.SearchResult{Status: domain.SearchFound, Call: call}
	default:
		res = domain.SearchResult{Status: domain.SearchNotFound}
	}

	dir := req.Direction.String()
	e.metrics.Searches.WithLabelValues(dir, res.Status.String()).Inc()
	e.metrics.SearchDuration.WithLabelValues(dir).Observe(time.Since(start).Seconds())
	e.logger.Debug("search finished",
		log.String("id", req.ID.String()),
		log.String("direction", dir),
		log.String("status", res.Status.String()),
		log.Duration("duration", time.Since(start)),
	)

	e.emit(domain.Event{Kind: domain.EventSearchResult, Request: req, Result: res})
	return res
}

func (e *Engine) search(ctx context.Context, req domain.SearchRequest) (*domain.APICall, error) {
	if req.Text == "" {
		return nil, nil
	}
	if _, err := e.frame(req.Frame); err != nil {
		return nil, err
	}
	m := newMatcher(req)

	if !e.reader.SupportsOffsets() {
		return e.searchLoaded(ctx, req, m)
	}

	var (
		raw *domain.Call
		err error
	)
	if req.Direction == domain.SearchPrev {
		raw, err = e.searchPrev(ctx, req.Frame, m)
	} else {
		raw, err = e.searchNext(ctx, req.Frame, m)
	}
	if err != nil || raw == nil {
		return nil, err
	}
	return e.findCall(ctx, raw.Number)
}

// searchNext decodes forward from the start of frame origin to the end of
// the trace.
func (e *Engine) searchNext(ctx context.Context, origin uint32, m *matcher) (*domain.Call, error) {
	if err := e.reader.SetBookmark(e.index[origin].Start); err != nil {
		return nil, fmt.Errorf("seek to frame %d: %w", origin, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		call, err := e.reader.DecodeNext()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if m.skip(call.Number) {
			continue
		}
		if m.match(call) {
			return &call, nil
		}
	}
}

// searchPrev walks frames from origin down to 0. Each frame is buffered and
// scanned in reverse.
func (e *Engine) searchPrev(ctx context.Context, origin uint32, m *matcher) (*domain.Call, error) {
	for idx := int(origin); idx >= 0; idx-- {
		entry := e.index[idx]
		if err := e.reader.SetBookmark(entry.Start); err != nil {
			return nil, fmt.Errorf("seek to frame %d: %w", idx, err)
		}
		buf := make([]domain.Call, 0, entry.Calls)
		for uint32(len(buf)) < entry.Calls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			call, err := e.reader.DecodeNext()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode frame %d: %w", idx, err)
			}
			buf = append(buf, call)
		}
		for i := len(buf) - 1; i >= 0; i-- {
			if m.skip(buf[i].Number) {
				continue
			}
			if m.match(buf[i]) {
				return &buf[i], nil
			}
		}
	}
	return nil, nil
}

// searchLoaded searches frames that were loaded while parsing.
func (e *Engine) searchLoaded(ctx context.Context, req domain.SearchRequest, m *matcher) (*domain.APICall, error) {
	visit := func(f *domain.Frame, reverse bool) *domain.APICall {
		calls := f.Calls()
		for i := range calls {
			c := calls[i]
			if reverse {
				c = calls[len(calls)-1-i]
			}
			if m.skip(c.Number) {
				continue
			}
			if m.match(c.Call) {
				return c
			}
		}
		return nil
	}

	if req.Direction == domain.SearchPrev {
		for idx := int(req.Frame); idx >= 0; idx-- {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if c := visit(e.frames[idx], true); c != nil {
				return c, nil
			}
		}
		return nil, nil
	}
	for idx := int(req.Frame); idx < len(e.frames); idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c := visit(e.frames[idx], false); c != nil {
			return c, nil
		}
	}
	return nil, nil
}

type matcher struct {
	needle string
	fold   bool
	from   domain.Cursor
	dir    domain.Direction
}

func newMatcher(req domain.SearchRequest) *matcher {
	m := &matcher{needle: req.Text, fold: !req.CaseSensitive, from: req.From, dir: req.Direction}
	if m.fold {
		m.needle = strings.ToLower(m.needle)
	}
	return m
}

// skip reports whether call n lies on the wrong side of the cursor.
func (m *matcher) skip(n uint64) bool {
	if !m.from.Valid {
		return false
	}
	if m.dir == domain.SearchPrev {
		return n >= m.from.Call
	}
	return n <= m.from.Call
}

func (m *matcher) match(c domain.Call) bool {
	text := c.String()
	if m.fold {
		text = strings.ToLower(text)
	}
	return strings.Contains(text, m.needle)
}
