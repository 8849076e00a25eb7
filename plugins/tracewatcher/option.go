package tracewatcher

import "github.com/bft-labs/tracescope/pkg/tracescope"

// WithTraceWatcher returns a tracescope Option that reopens the trace given
// in Config.TracePath whenever the file changes.
//
// Usage:
//
//	v, err := tracescope.New(cfg,
//	    tracewatcher.WithTraceWatcher(tracewatcher.Config{
//	        DebounceDelay: time.Second,
//	    }),
//	)
func WithTraceWatcher(cfg Config) tracescope.Option {
	return tracescope.WithPlugin(New(cfg))
}

// WithDefaultTraceWatcher enables trace watching with default settings.
func WithDefaultTraceWatcher() tracescope.Option {
	return WithTraceWatcher(DefaultConfig())
}
