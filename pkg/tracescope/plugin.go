package tracescope

import (
	"context"

	"github.com/bft-labs/tracescope/pkg/log"
)

// Plugin extends a Viewer with background behavior tied to its lifetime.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called from Start. A returned error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop and must release all resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	// TracePath is the trace opened on Start, if any.
	TracePath string

	// StateDir holds saved frame indexes. Empty when the index cache is off.
	StateDir string

	Logger log.Logger

	// Reopen queues an open of the trace at path.
	Reopen func(path string) error
}
