package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/tracescope/internal/cliconfig"
	"github.com/bft-labs/tracescope/pkg/tracescope"
	"github.com/bft-labs/tracescope/plugins/indexcleanup"
	"github.com/bft-labs/tracescope/plugins/tracewatcher"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <trace>",
		Short: "Keep a trace loaded and reindex it whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), o, args[0])
		},
	}
}

func runWatch(ctx context.Context, o *rootOptions, path string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []tracescope.Option{
		tracescope.WithLogger(cliconfig.LibraryLogger(o.log)),
		tracescope.WithEventHandler(eventLogger{log: o.log}),
		tracescope.WithMetricsRegisterer(reg),
		tracewatcher.WithTraceWatcher(tracewatcher.Config{DebounceDelay: o.cfg.Debounce}),
	}
	if o.cfg.IndexCache {
		opts = append(opts, indexcleanup.WithDefaultIndexCleanup())
	}
	v, err := tracescope.New(o.cfg.Viewer(path), opts...)
	if err != nil {
		return fmt.Errorf("create viewer: %w", err)
	}

	var srv *http.Server
	if o.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: o.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				o.log.Error().Err(err).Str("addr", o.cfg.MetricsAddr).Msg("metrics server")
			}
		}()
		o.log.Info().Str("addr", o.cfg.MetricsAddr).Msg("serving metrics")
	}

	if err := v.Start(ctx); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}

	<-ctx.Done()
	o.log.Info().Msg("received signal, stopping...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	if err := v.Stop(); err != nil {
		return fmt.Errorf("stop viewer: %w", err)
	}
	return nil
}

// eventLogger reports viewer events on the console.
type eventLogger struct {
	log zerolog.Logger
}

func (l eventLogger) OnEvent(ev tracescope.Event) {
	switch ev.Kind {
	case tracescope.EventParsingStarted:
		l.log.Info().Str("path", ev.Path).Msg("loading trace")
	case tracescope.EventProgress:
		l.log.Debug().Int("percent", ev.Percent).Msg("progress")
	case tracescope.EventFramesAvailable:
		l.log.Debug().Int("frames", len(ev.Frames)).Msg("frames available")
	case tracescope.EventAPIGuessed:
		l.log.Info().Stringer("api", ev.API).Msg("api guessed")
	case tracescope.EventParsingFinished:
		l.log.Info().Str("path", ev.Path).Msg("trace loaded")
	case tracescope.EventOpenFailed, tracescope.EventFault:
		l.log.Error().Err(ev.Err).Str("path", ev.Path).Msg(ev.Kind.String())
	}
}

func (l eventLogger) OnStateChange(ev tracescope.StateChangeEvent) {
	l.log.Debug().
		Stringer("from", ev.Previous).
		Stringer("to", ev.Current).
		Str("reason", ev.Reason).
		Msg("viewer state")
}
