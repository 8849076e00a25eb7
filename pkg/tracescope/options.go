package tracescope

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/tracescope/internal/ports"
	"github.com/bft-labs/tracescope/pkg/log"
)

// Option configures optional behavior of a Viewer.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	registerer   prometheus.Registerer
	plugins      []Plugin
	reader       ports.StreamReader
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets the receiver of viewer events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithMetricsRegisterer registers the viewer's prometheus collectors with reg.
// If not provided, collectors are kept but not registered.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithPlugin registers a plugin to be initialized when the viewer starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithReader replaces the trace stream reader. The default reads JSON-lines
// trace files.
func WithReader(reader ports.StreamReader) Option {
	return func(o *options) {
		o.reader = reader
	}
}
