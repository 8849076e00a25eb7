package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bft-labs/tracescope/internal/cliconfig"
	"github.com/bft-labs/tracescope/pkg/tracescope"
)

// client drives a Viewer synchronously for one-shot commands.
type client struct {
	viewer *tracescope.Viewer
	log    zerolog.Logger
	events chan tracescope.Event
	done   chan struct{}

	api    tracescope.API
	frames []tracescope.FrameInfo
}

func newClient(o *rootOptions, path string) (*client, error) {
	c := &client{
		log:    o.log,
		events: make(chan tracescope.Event, 16),
		done:   make(chan struct{}),
	}
	v, err := tracescope.New(o.cfg.Viewer(path),
		tracescope.WithLogger(cliconfig.LibraryLogger(o.log)),
		tracescope.WithEventHandler(tracescope.EventFunc(c.deliver)),
	)
	if err != nil {
		return nil, err
	}
	c.viewer = v
	return c, nil
}

// openClient starts a viewer on path and waits until the trace is loaded.
func openClient(ctx context.Context, o *rootOptions, path string) (*client, error) {
	c, err := newClient(o, path)
	if err != nil {
		return nil, err
	}
	if err := c.viewer.Start(ctx); err != nil {
		return nil, fmt.Errorf("start viewer: %w", err)
	}
	if err := c.waitLoaded(ctx); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

func (c *client) deliver(ev tracescope.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *client) next(ctx context.Context) (tracescope.Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-ctx.Done():
		return tracescope.Event{}, ctx.Err()
	}
}

func (c *client) waitLoaded(ctx context.Context) error {
	for {
		ev, err := c.next(ctx)
		if err != nil {
			return err
		}
		switch ev.Kind {
		case tracescope.EventFramesAvailable:
			c.frames = append(c.frames, ev.Frames...)
		case tracescope.EventAPIGuessed:
			c.api = ev.API
		case tracescope.EventParsingFinished:
			return nil
		case tracescope.EventOpenFailed, tracescope.EventFault:
			return ev.Err
		}
	}
}

// await returns the next event matching accept. A fault ends the wait with
// its error.
func (c *client) await(ctx context.Context, accept func(tracescope.Event) bool) (tracescope.Event, error) {
	for {
		ev, err := c.next(ctx)
		if err != nil {
			return ev, err
		}
		if accept(ev) {
			return ev, nil
		}
		if ev.Kind == tracescope.EventFault {
			return ev, ev.Err
		}
	}
}

func kind(k tracescope.EventKind) func(tracescope.Event) bool {
	return func(ev tracescope.Event) bool { return ev.Kind == k }
}

// frameCalls returns the calls of frame n, loading them if needed.
func (c *client) frameCalls(ctx context.Context, n uint32) ([]*tracescope.APICall, error) {
	if int(n) >= len(c.frames) {
		return nil, fmt.Errorf("%w: %d of %d", tracescope.ErrFrameOutOfRange, n, len(c.frames))
	}
	if f := c.frames[n]; f.Loaded {
		return f.Calls, nil
	}
	if err := c.viewer.RequestFrame(n); err != nil {
		return nil, err
	}
	ev, err := c.await(ctx, func(ev tracescope.Event) bool {
		return ev.Kind == tracescope.EventFrameContentsReady && ev.Frame == n
	})
	if err != nil {
		return nil, err
	}
	return ev.Calls, nil
}

func (c *client) close() {
	close(c.done)
	if err := c.viewer.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("stop viewer")
	}
}
